// Package app wires discovery, download, packing and run history into the
// pipeline both front ends drive.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/discovery"
	"github.com/handiism/manga-downloader/internal/download"
	"github.com/handiism/manga-downloader/internal/library"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/pack"
	"github.com/handiism/manga-downloader/internal/progress"
)

// ErrNoHistory is returned when failed chapters are requested without a
// run history store.
var ErrNoHistory = errors.New("app: run history is not available")

// Result describes a finished Download.
type Result struct {
	Success  bool
	Stats    download.Stats
	Archives []string
	RunID    string
	Elapsed  time.Duration
}

// Session downloads series with one configuration. Like the Orchestrator
// it drives, a Session serves one download at a time.
type Session struct {
	settings *config.Settings
	store    *library.Store
	log      zerolog.Logger

	orch    *download.Orchestrator
	scraper *discovery.Scraper
}

// NewSession creates a Session. store may be nil, in which case runs are
// not recorded.
func NewSession(settings *config.Settings, store *library.Store, log zerolog.Logger, opts ...download.Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	opts = append([]download.Option{
		download.WithUserAgent(settings.UserAgent),
		download.WithRetries(settings.MaxRetries),
		download.WithRetryBackoff(settings.Backoff()),
		download.WithTimeout(settings.Timeout),
		download.WithLogger(log),
	}, opts...)
	orch := download.New(opts...)

	return &Session{
		settings: settings,
		store:    store,
		log:      log,
		orch:     orch,
		scraper: discovery.NewScraper(orch.Client(),
			discovery.WithRetries(settings.MaxRetries),
			discovery.WithBackoff(settings.Backoff()),
			discovery.WithTimeout(settings.Timeout),
			discovery.WithLogger(log),
		),
	}, nil
}

// Orchestrator returns the download engine, for pause, resume and stop.
func (s *Session) Orchestrator() *download.Orchestrator {
	return s.orch
}

// Subscribe registers an observer for download progress.
func (s *Session) Subscribe(o progress.Observer) {
	s.orch.Subscribe(o)
}

// FetchSeries reads the series page at url without discovering pages.
func (s *Session) FetchSeries(ctx context.Context, url string) (*model.Series, error) {
	return s.scraper.FetchSeries(ctx, url, s.settings.DownloadsPath)
}

// Load fetches the series at url, keeps the chapters matched by sel and
// discovers their pages. Chapters whose discovery fails stay in the
// result without assets; Download records them as failed.
func (s *Session) Load(ctx context.Context, url string, sel model.Selection) (*model.Series, error) {
	series, err := s.FetchSeries(ctx, url)
	if err != nil {
		return nil, err
	}

	chapters := series.Select(sel)
	if len(chapters) == 0 {
		return nil, fmt.Errorf("%w: selection in %s", download.ErrChapterNotFound, series.Title)
	}
	series = series.WithChapters(chapters)

	failed, err := discovery.DiscoverAll(ctx, s.scraper, series.Chapters, s.settings.DiscoveryWorkers, s.log)
	if err != nil {
		return nil, err
	}
	for _, ch := range failed {
		s.log.Warn().Str("chapter", ch.Title).Str("url", ch.URL).Msg("no pages found")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// FailedSelection selects the chapters that failed in the last recorded
// run of the series at url.
func (s *Session) FailedSelection(ctx context.Context, url string) (model.Selection, error) {
	if s.store == nil {
		return model.Selection{}, ErrNoHistory
	}
	keys, err := s.store.LastFailed(ctx, url)
	if err != nil {
		return model.Selection{}, err
	}
	return model.SelectKeys(keys...), nil
}

// Download acquires every chapter of series, then packs what was acquired
// and records the run. Packing and recording failures are logged; only
// misuse of the download engine is returned as an error.
func (s *Session) Download(ctx context.Context, series *model.Series) (Result, error) {
	started := time.Now()
	ok, err := s.orch.Run(ctx, series, s.settings.ChapterWorkers, s.settings.AssetWorkers)
	if err != nil {
		return Result{}, err
	}
	res := Result{Success: ok, Stats: s.orch.Stats()}

	if ctx.Err() == nil && s.settings.Format != config.FormatImages {
		if s.settings.Format == config.FormatEPUB {
			s.fetchCover(ctx, series)
		}
		archives, err := s.packer().Pack(ctx, series)
		switch {
		case errors.Is(err, pack.ErrNothingToPack):
			s.log.Warn().Msg("nothing to pack")
		case err != nil:
			s.log.Error().Err(err).Str("format", s.settings.Format).Msg("packing failed")
		}
		res.Archives = archives
	}
	res.Elapsed = time.Since(started)

	if s.store != nil {
		// Recorded even when ctx is done so a stopped run can be resumed
		// with the failed selection.
		id, err := s.store.RecordRun(context.WithoutCancel(ctx), series, library.RunResult{
			StartedAt:  started,
			FinishedAt: started.Add(res.Elapsed),
			Snapshot:   res.Stats.Snapshot,
			Bytes:      res.Stats.ReceivedBytes,
			Success:    ok,
		})
		if err != nil {
			s.log.Error().Err(err).Msg("cannot record run")
		}
		res.RunID = id
	}
	return res, nil
}

// packer is built per run from the current settings.
func (s *Session) packer() *pack.Packer {
	return pack.New(pack.Options{
		Format:       s.settings.Format,
		MaxImageSize: s.settings.MaxImageSize,
		DeleteImages: s.settings.DeleteImages,
		Logger:       s.log,
	})
}

func (s *Session) fetchCover(ctx context.Context, series *model.Series) {
	if series.CoverURL == "" {
		return
	}
	dest := filepath.Join(series.Dir, pack.CoverFileName)
	if _, err := s.orch.Client().DownloadFile(ctx, series.CoverURL, dest, nil); err != nil {
		s.log.Warn().Err(err).Str("url", series.CoverURL).Msg("cannot download cover")
	}
}
