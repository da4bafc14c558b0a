// Package download provides the concurrent acquisition pipeline for a
// manga series.
//
// # Components
//
//   - Fetcher downloads one URL to one file with bounded retry and
//     exponential backoff.
//   - ChapterAcquirer downloads the pages of one chapter through a pool of
//     fetches.
//   - Orchestrator downloads a series through a pool of chapter acquirers,
//     owns the progress tracker and exposes Pause, Resume and Stop.
//
// # Basic Usage
//
//	orch := download.New(
//	    download.WithRetries(3),
//	    download.WithTimeout(30*time.Second),
//	    download.WithObserver(func(s progress.Snapshot) {
//	        fmt.Printf("%d/%d\n", s.Completed, s.Total)
//	    }),
//	)
//
//	ok, err := orch.Run(ctx, series, 2, 4)
//	if err != nil {
//	    log.Fatal(err) // misuse: no chapters, bad worker counts, ...
//	}
//	for _, ch := range series.FailedChapters() {
//	    fmt.Println("failed:", ch.Title)
//	}
//
// # Concurrency
//
// At most chapterWorkers chapters run at once and each runs at most
// assetWorkers fetches, so no more than chapterWorkers × assetWorkers files
// are in flight. Submission blocks while a pool is saturated.
//
// # Failures
//
// Operational failures never abort sibling work. They are recorded as
// outcomes on the model and folded into boolean results: a chapter
// succeeds iff all of its pages do, a series iff all of its chapters do.
// Only contract violations are returned as errors.
//
// # Progress
//
// Every settled page, successful or not, increments the completed count,
// so a finished run always shows Completed == Total unless it was stopped.
package download
