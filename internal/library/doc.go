// Package library keeps a history of download runs in a SQLite database.
//
// Each run records the series, the final progress snapshot and one row per
// chapter with its outcome, so callers can see which chapters failed in an
// earlier invocation and download just those again:
//
//	store, err := library.Open(settings.LibraryPath)
//	defer store.Close()
//
//	id, err := store.RecordRun(ctx, series, library.RunResult{...})
//	keys, err := store.LastFailed(ctx, series.URL)
package library
