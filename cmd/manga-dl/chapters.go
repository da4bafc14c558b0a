package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/handiism/manga-downloader/internal/model"
)

func (c *cli) chaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters URL",
		Short: "List the chapters of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			session, release, err := c.session()
			if err != nil {
				return err
			}
			defer release()

			series, err := session.FetchSeries(ctx, args[0])
			if err != nil {
				return err
			}
			printSeries(cmd.OutOrStdout(), series)
			if series.Summary != "" {
				fmt.Fprintln(cmd.OutOrStdout(), series.Summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), chapterTable(series, true))
			return nil
		},
	}
}

// chapterTable lists the chapters of series. Page counts are shown once
// pages were discovered.
func chapterTable(series *model.Series, withURL bool) *table.Table {
	headers := []string{"#", "Chapter", "Published", "Pages"}
	if withURL {
		headers = append(headers, "URL")
	}
	t := newTable(headers...)
	for i, ch := range series.Chapters {
		published := "-"
		if !ch.Published.IsZero() {
			published = humanize.Time(ch.Published)
		}
		pages := "-"
		if len(ch.Assets) > 0 {
			pages = strconv.Itoa(len(ch.Assets))
		}
		row := []string{strconv.Itoa(i + 1), ch.Title, published, pages}
		if withURL {
			row = append(row, ch.URL)
		}
		t.Row(row...)
	}
	return t
}
