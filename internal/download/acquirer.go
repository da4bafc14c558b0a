package download

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/progress"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

// ChapterAcquirer downloads every asset of one chapter through a bounded
// pool of fetches and folds the per-asset outcomes into a chapter result.
//
// One acquirer call owns its chapter for the duration of the call; the
// tracker is the only state shared with other chapters.
type ChapterAcquirer struct {
	fetcher *Fetcher
	tracker *progress.Tracker
	gate    *workerpool.Gate
	timeout time.Duration
	log     zerolog.Logger
}

// NewChapterAcquirer creates an acquirer. A nil gate never pauses.
func NewChapterAcquirer(fetcher *Fetcher, tracker *progress.Tracker, gate *workerpool.Gate, timeout time.Duration, log zerolog.Logger) *ChapterAcquirer {
	if gate == nil {
		gate = &workerpool.Gate{}
	}
	return &ChapterAcquirer{
		fetcher: fetcher,
		tracker: tracker,
		gate:    gate,
		timeout: timeout,
		log:     log,
	}
}

// Acquire downloads ch's assets with at most assetWorkers transfers in
// flight and reports whether every asset was acquired.
//
// A failing asset does not stop its siblings. Every asset that settles,
// successfully or not, is counted as completed on the tracker. Assets that
// are never started because the gate was stopped are marked failed and are
// not counted. A chapter without assets fails immediately.
func (a *ChapterAcquirer) Acquire(ctx context.Context, ch *model.Chapter, assetWorkers int) (bool, error) {
	if ch == nil {
		return false, ErrNilChapter
	}
	if ch.Dir == "" {
		return false, ErrNoChapterDir
	}
	pool, err := workerpool.New(assetWorkers, a.log)
	if err != nil {
		return false, ErrInvalidWorkers
	}

	log := a.log.With().Str("chapter", ch.Title).Logger()
	defer func() {
		a.tracker.SetCurrentChapter("")
		a.tracker.SetCurrentAsset("")
	}()

	if len(ch.Assets) == 0 {
		log.Warn().Msg("chapter has no assets")
		ch.Outcome = model.OutcomeFailed
		return false, nil
	}

	a.tracker.SetCurrentChapter(ch.Title)
	if err := os.MkdirAll(ch.Dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", ch.Dir).Msg("cannot create chapter directory")
	}

	pool.Run(ctx, len(ch.Assets), func(ctx context.Context, i int) {
		asset := ch.Assets[i]
		if asset.Path == "" {
			asset.Path = filepath.Join(ch.Dir, asset.Name())
		}

		if !a.gate.Wait(ctx) {
			asset.Outcome = model.OutcomeFailed
			return
		}

		ok, err := a.fetcher.Fetch(ctx, asset.URL, asset.Path, a.timeout)
		if err != nil {
			log.Error().Err(err).Int("ordinal", asset.Ordinal).Msg("invalid asset")
		}
		asset.Outcome = model.OutcomeOf(ok)

		a.tracker.IncrementCompleted()
		a.tracker.SetCurrentAsset(filepath.Join(ch.FolderName(), asset.Name()))
	})

	ok := true
	failed := 0
	for _, asset := range ch.Assets {
		if asset.Outcome != model.OutcomeAcquired {
			ok = false
			failed++
		}
	}
	ch.Outcome = model.OutcomeOf(ok)

	if ok {
		log.Info().Int("pages", len(ch.Assets)).Msg("chapter acquired")
	} else {
		log.Warn().Int("failed", failed).Int("pages", len(ch.Assets)).Msg("chapter incomplete")
	}
	return ok, nil
}
