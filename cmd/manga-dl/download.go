package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/handiism/manga-downloader/internal/app"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/progress"
)

func (c *cli) downloadCmd() *cobra.Command {
	var (
		chapters string
		failed   bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download chapters of a series",
		Long: "Download fetches the series page at URL, discovers the pages of the selected chapters\n" +
			"and downloads them into <downloads-path>/<title>/Chapter_N/page_NNN.jpg.",
		Example: "  manga-dl download https://example.com/manga/solo-leveling --chapters 1-10,12 -f cbz\n" +
			"  manga-dl download https://example.com/manga/solo-leveling --failed",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			ctx, cancel := signalContext()
			defer cancel()

			session, release, err := c.session()
			if err != nil {
				return err
			}
			defer release()

			sel, err := model.ParseSelection(chapters)
			if err != nil {
				return err
			}
			if failed {
				if sel, err = session.FailedSelection(ctx, url); err != nil {
					return err
				}
			}

			series, err := session.Load(ctx, url, sel)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			printSeries(os.Stdout, series)

			if dryRun {
				fmt.Println(chapterTable(series, false))
				fmt.Println("[Dry run - not downloading]")
				return nil
			}

			fmt.Printf("Downloading %d chapter(s), %d page(s)...\n\n", len(series.Chapters), series.TotalAssets())
			session.Subscribe(progressPrinter(os.Stdout))

			res, err := session.Download(ctx, series)
			fmt.Println()
			if err != nil {
				return err
			}
			printSummary(os.Stdout, series, res)

			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !res.Success {
				return fmt.Errorf("%d of %d chapter(s) failed", len(series.FailedChapters()), len(series.Chapters))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chapters, "chapters", "all", "chapters to download, e.g. 1-10,12,15.5")
	cmd.Flags().BoolVar(&failed, "failed", false, "download the chapters that failed in the last run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "discover pages without downloading")
	cmd.MarkFlagsMutuallyExclusive("chapters", "failed")
	return cmd
}

func printSeries(w io.Writer, series *model.Series) {
	fmt.Fprintln(w, titleStyle.Render(series.Title))
	if series.Author != "" {
		fmt.Fprintf(w, "  Author: %s\n", series.Author)
	}
	if series.Status != "" {
		fmt.Fprintf(w, "  Status: %s\n", series.Status)
	}
	if len(series.Genres) > 0 {
		fmt.Fprintf(w, "  Genres: %s\n", strings.Join(series.Genres, ", "))
	}
	fmt.Fprintf(w, "  Folder: %s\n\n", series.Dir)
}

// progressPrinter redraws a single progress line whenever the page count
// or the status changes.
func progressPrinter(w io.Writer) progress.Observer {
	var last progress.Snapshot
	return func(s progress.Snapshot) {
		if s.Completed == last.Completed && s.Status == last.Status {
			return
		}
		last = s

		const width = 30
		filled := 0
		if s.Total > 0 {
			filled = width * s.Completed / s.Total
		}
		bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
		fmt.Fprintf(w, "\r[%s] %5.1f%% %d/%d pages  %-10s", bar, s.Percent(), s.Completed, s.Total, s.Status)
	}
}

func printSummary(w io.Writer, series *model.Series, res app.Result) {
	failed := series.FailedChapters()
	headline := "Complete!"
	if !res.Success {
		headline = "Finished with failures."
	}
	fmt.Fprintf(w, "%s %d/%d chapter(s), %d/%d page(s), %s in %s\n",
		headline,
		len(series.Chapters)-len(failed), len(series.Chapters),
		res.Stats.Completed, res.Stats.Total,
		humanize.Bytes(uint64(res.Stats.ReceivedBytes)),
		res.Elapsed.Round(100*time.Millisecond),
	)
	for _, path := range res.Archives {
		fmt.Fprintf(w, "  Packed: %s\n", path)
	}
	for _, ch := range failed {
		fmt.Fprintf(w, "  Failed: %s (%d/%d pages)\n", ch.Title, len(ch.AcquiredAssets()), len(ch.Assets))
	}
	if res.RunID != "" {
		fmt.Fprintf(w, "  Run: %s\n", res.RunID)
	}
	if len(failed) > 0 && res.RunID != "" {
		fmt.Fprintln(w, "  Retry with: manga-dl download --failed", series.URL)
	}
}
