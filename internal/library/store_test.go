package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/progress"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSeries(t *testing.T, failed ...float64) *model.Series {
	t.Helper()
	series := model.NewSeries("Test Manga", "https://example.com/manga/test", t.TempDir())
	for _, n := range []float64{1, 2, 2.5} {
		ch := series.AddChapter(model.NewChapter(n, "https://example.com/c"))
		ch.SetAssets([]string{"https://example.com/1.jpg", "https://example.com/2.jpg"})
		ch.Outcome = model.OutcomeAcquired
		for _, a := range ch.Assets {
			a.Outcome = model.OutcomeAcquired
		}
		for _, f := range failed {
			if f == n {
				ch.Outcome = model.OutcomeFailed
				ch.Assets[1].Outcome = model.OutcomeFailed
			}
		}
	}
	return series
}

func result(start time.Time, success bool) RunResult {
	return RunResult{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Snapshot:   progress.Snapshot{Total: 6, Completed: 6, Status: progress.StatusCompleted},
		Bytes:      4096,
		Success:    success,
	}
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	series := sampleSeries(t, 2)

	start := time.UnixMilli(time.Now().UnixMilli())
	id, err := store.RecordRun(ctx, series, result(start, false))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "Test Manga", run.SeriesTitle)
	assert.Equal(t, series.URL, run.SeriesURL)
	assert.Equal(t, series.Dir, run.SeriesDir)
	assert.True(t, start.Equal(run.StartedAt))
	assert.Equal(t, 90*time.Second, run.Duration())
	assert.Equal(t, progress.StatusCompleted, run.Status)
	assert.Equal(t, 6, run.Total)
	assert.Equal(t, int64(4096), run.Bytes)
	assert.False(t, run.Success)

	chapters, err := store.Chapters(ctx, id)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, 1.0, chapters[0].Number)
	assert.Equal(t, "acquired", chapters[0].Outcome)
	assert.Equal(t, 2, chapters[0].Acquired)
	assert.Equal(t, "failed", chapters[1].Outcome)
	assert.Equal(t, 2, chapters[1].Pages)
	assert.Equal(t, 1, chapters[1].Acquired)
	assert.Equal(t, 2.5, chapters[2].Number)
	assert.Equal(t, "Chapter 2.5", chapters[2].Title)
}

func TestStore_RunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	series := sampleSeries(t)

	base := time.Now()
	first, err := store.RecordRun(ctx, series, result(base.Add(-time.Hour), true))
	require.NoError(t, err)
	second, err := store.RecordRun(ctx, series, result(base, true))
	require.NoError(t, err)

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	runs, err = store.Runs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_LastFailed(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	keys, err := store.LastFailed(ctx, "https://example.com/manga/test")
	require.NoError(t, err)
	assert.Nil(t, keys)

	base := time.Now()
	_, err = store.RecordRun(ctx, sampleSeries(t, 1, 2.5), result(base.Add(-time.Minute), false))
	require.NoError(t, err)
	_, err = store.RecordRun(ctx, sampleSeries(t, 2.5), result(base, false))
	require.NoError(t, err)

	keys, err = store.LastFailed(ctx, "https://example.com/manga/test")
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, keys)
}

func TestStore_ChaptersByPrefix(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	id, err := store.RecordRun(ctx, sampleSeries(t), result(time.Now(), true))
	require.NoError(t, err)

	chapters, err := store.Chapters(ctx, id[:13])
	require.NoError(t, err)
	assert.Len(t, chapters, 3)

	_, err = store.Chapters(ctx, "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
