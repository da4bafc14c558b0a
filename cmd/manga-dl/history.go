package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/handiism/manga-downloader/internal/library"
	"github.com/handiism/manga-downloader/internal/model"
)

func (c *cli) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show recorded download runs",
		Long:  "Without arguments, history lists the most recent runs. With a run id or a unique prefix of one, it lists the chapters of that run.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := c.openStore()
			if store == nil {
				return errors.New("run history is disabled (library_path is empty or unusable)")
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				chapters, err := store.Chapters(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, runChaptersTable(chapters))
				return nil
			}

			runs, err := store.Runs(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			fmt.Fprintln(out, runsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}

func runsTable(runs []library.Run) fmt.Stringer {
	t := newTable("Run", "Series", "Started", "Took", "Pages", "Size", "Result")
	for _, r := range runs {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		t.Row(
			r.ID[:min(len(r.ID), 13)],
			r.SeriesTitle,
			humanize.Time(r.StartedAt),
			r.Duration().Round(time.Second).String(),
			fmt.Sprintf("%d/%d", r.Completed, r.Total),
			humanize.Bytes(uint64(r.Bytes)),
			result,
		)
	}
	return t.StyleFunc(resultStyle(6, len(runs), func(i int) bool { return !runs[i].Success }))
}

func runChaptersTable(chapters []library.ChapterResult) fmt.Stringer {
	t := newTable("Chapter", "Outcome", "Pages", "Folder")
	for _, ch := range chapters {
		t.Row(
			ch.Title,
			ch.Outcome,
			strconv.Itoa(ch.Acquired)+"/"+strconv.Itoa(ch.Pages),
			ch.Dir,
		)
	}
	return t.StyleFunc(resultStyle(1, len(chapters), func(i int) bool {
		return chapters[i].Outcome != model.OutcomeAcquired.String()
	}))
}

// resultStyle highlights column col of the rows for which failed is true.
func resultStyle(col, rows int, failed func(row int) bool) func(row, col int) lipgloss.Style {
	return func(row, c int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case c == col && row < rows && failed(row):
			return failStyle
		}
		return cellStyle
	}
}
