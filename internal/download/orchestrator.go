package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/manga-downloader/internal/http"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/progress"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

// Default pool widths and per-file timeout.
const (
	DefaultChapterWorkers = 2
	DefaultAssetWorkers   = 4
	DefaultTimeout        = 30 * time.Second
)

// Orchestrator downloads a whole series: a pool of chapter acquirers, each
// with its own pool of fetches.
//
// One Orchestrator serves one run at a time. It allocates its own HTTP
// client so separate instances can download separate series concurrently.
type Orchestrator struct {
	client  *http.Client
	fetcher *Fetcher
	tracker *progress.Tracker
	gate    workerpool.Gate
	timeout time.Duration
	log     zerolog.Logger

	// ctl serializes the controls with the start and end of a run.
	ctl     sync.Mutex
	running bool
}

type orchestratorConfig struct {
	userAgent  string
	maxRetries int
	backoff    workerpool.Backoff
	timeout    time.Duration
	log        zerolog.Logger
	observers  []progress.Observer
	fetchOpts  []FetcherOption
}

// Option configures an Orchestrator.
type Option func(*orchestratorConfig)

// WithUserAgent sets the client identity sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *orchestratorConfig) { c.userAgent = ua }
}

// WithRetries sets the per-file attempt budget.
func WithRetries(n int) Option {
	return func(c *orchestratorConfig) { c.maxRetries = n }
}

// WithRetryBackoff sets the delay policy between attempts.
func WithRetryBackoff(b workerpool.Backoff) Option {
	return func(c *orchestratorConfig) { c.backoff = b }
}

// WithTimeout bounds every single file transfer attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *orchestratorConfig) { c.timeout = d }
}

// WithLogger sets the logger used by the orchestrator and its workers.
func WithLogger(log zerolog.Logger) Option {
	return func(c *orchestratorConfig) { c.log = log }
}

// WithObserver subscribes o to progress updates.
func WithObserver(o progress.Observer) Option {
	return func(c *orchestratorConfig) { c.observers = append(c.observers, o) }
}

// WithFetcherOptions passes extra options to the underlying Fetcher.
func WithFetcherOptions(opts ...FetcherOption) Option {
	return func(c *orchestratorConfig) { c.fetchOpts = append(c.fetchOpts, opts...) }
}

// New creates an Orchestrator with its own client and progress tracker.
func New(opts ...Option) *Orchestrator {
	cfg := orchestratorConfig{
		maxRetries: DefaultMaxRetries,
		backoff:    workerpool.DefaultBackoff,
		timeout:    DefaultTimeout,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := http.NewClient(http.WithUserAgent(cfg.userAgent))
	fetchOpts := append([]FetcherOption{
		WithMaxRetries(cfg.maxRetries),
		WithBackoff(cfg.backoff),
		WithFetchLogger(cfg.log),
	}, cfg.fetchOpts...)

	o := &Orchestrator{
		client:  client,
		fetcher: NewFetcher(client, fetchOpts...),
		tracker: progress.NewTracker(cfg.log),
		timeout: cfg.timeout,
		log:     cfg.log,
	}
	for _, obs := range cfg.observers {
		o.tracker.Subscribe(obs)
	}
	return o
}

// Client returns the HTTP client shared by every fetch of this instance.
func (o *Orchestrator) Client() *http.Client {
	return o.client
}

// Subscribe registers an observer for progress snapshots.
func (o *Orchestrator) Subscribe(obs progress.Observer) {
	o.tracker.Subscribe(obs)
}

// Tracker exposes the progress aggregator of this instance.
func (o *Orchestrator) Tracker() *progress.Tracker {
	return o.tracker
}

// Stats summarizes the current or last run.
type Stats struct {
	progress.Snapshot
	Percent       float64
	ReceivedBytes int64
}

// Stats returns the current progress together with the bytes received
// by this instance.
func (o *Orchestrator) Stats() Stats {
	s := o.tracker.Snapshot()
	return Stats{
		Snapshot:      s,
		Percent:       s.Percent(),
		ReceivedBytes: o.fetcher.Received(),
	}
}

// Run downloads every chapter of series with at most chapterWorkers
// chapters and, inside each, at most assetWorkers files in flight.
//
// Chapters are submitted in ascending key order and all of them settle
// before Run returns; a failing chapter never aborts its siblings. Outcomes
// are recorded on the chapters and assets of series. The result is true
// iff every chapter was acquired.
//
// Cancelling ctx behaves like Stop. Errors are returned only for misuse,
// before any progress state is touched.
func (o *Orchestrator) Run(ctx context.Context, series *model.Series, chapterWorkers, assetWorkers int) (bool, error) {
	if series == nil {
		return false, ErrNilSeries
	}
	if len(series.Chapters) == 0 {
		return false, ErrNoChapters
	}
	if chapterWorkers < 1 || assetWorkers < 1 {
		return false, fmt.Errorf("%w: chapters=%d assets=%d", ErrInvalidWorkers, chapterWorkers, assetWorkers)
	}
	if !series.IsSorted() {
		return false, ErrUnsorted
	}
	pool, err := workerpool.New(chapterWorkers, o.log)
	if err != nil {
		return false, err
	}

	if err := o.begin(series); err != nil {
		return false, err
	}

	stop := context.AfterFunc(ctx, o.Stop)
	defer stop()

	log := o.log.With().Str("series", series.Title).Logger()
	log.Info().
		Int("chapters", len(series.Chapters)).
		Int("pages", series.TotalAssets()).
		Int("chapter_workers", chapterWorkers).
		Int("asset_workers", assetWorkers).
		Msg("download started")

	acquirer := NewChapterAcquirer(o.fetcher, o.tracker, &o.gate, o.timeout, log)
	pool.Run(ctx, len(series.Chapters), func(ctx context.Context, i int) {
		ch := series.Chapters[i]
		if !o.gate.Wait(ctx) {
			skipChapter(ch)
			return
		}
		if _, err := acquirer.Acquire(ctx, ch, assetWorkers); err != nil {
			log.Error().Err(err).Str("chapter", ch.Title).Msg("chapter rejected")
			skipChapter(ch)
		}
	})

	ok := len(series.FailedChapters()) == 0
	o.finish(ctx, ok, log)
	return ok, nil
}

// RunRange runs the chapters of series whose keys lie in [start, end].
func (o *Orchestrator) RunRange(ctx context.Context, series *model.Series, start, end float64, chapterWorkers, assetWorkers int) (bool, error) {
	if series == nil {
		return false, ErrNilSeries
	}
	chapters := series.ChaptersInRange(start, end)
	if len(chapters) == 0 {
		return false, fmt.Errorf("%w: range %s-%s", ErrChapterNotFound, model.FormatKey(start), model.FormatKey(end))
	}
	return o.Run(ctx, series.WithChapters(chapters), chapterWorkers, assetWorkers)
}

// RunChapter runs the single chapter of series with the given key.
func (o *Orchestrator) RunChapter(ctx context.Context, series *model.Series, number float64, assetWorkers int) (bool, error) {
	if series == nil {
		return false, ErrNilSeries
	}
	ch := series.Chapter(number)
	if ch == nil {
		return false, fmt.Errorf("%w: chapter %s", ErrChapterNotFound, model.FormatKey(number))
	}
	return o.Run(ctx, series.WithChapters([]*model.Chapter{ch}), 1, assetWorkers)
}

// Pause holds workers at their next asset boundary. Transfers in flight
// finish normally.
func (o *Orchestrator) Pause() {
	o.ctl.Lock()
	defer o.ctl.Unlock()

	if !o.running || o.gate.Stopped() || o.gate.Paused() {
		return
	}
	o.gate.Pause()
	o.tracker.SetStatus(progress.StatusPaused)
	o.log.Info().Msg("download paused")
}

// Resume releases a paused run.
func (o *Orchestrator) Resume() {
	o.ctl.Lock()
	defer o.ctl.Unlock()

	if !o.running || !o.gate.Paused() {
		return
	}
	o.gate.Resume()
	o.tracker.SetStatus(progress.StatusRunning)
	o.log.Info().Msg("download resumed")
}

// Stop ends the run at the next asset boundary. Files already written are
// kept and the run reports failure with status idle.
func (o *Orchestrator) Stop() {
	o.ctl.Lock()
	defer o.ctl.Unlock()

	if !o.running || o.gate.Stopped() {
		return
	}
	o.gate.Stop()
	o.tracker.SetStatus(progress.StatusIdle)
	o.log.Info().Msg("download stopped")
}

func (o *Orchestrator) begin(series *model.Series) error {
	o.ctl.Lock()
	defer o.ctl.Unlock()

	if o.running {
		return ErrRunInProgress
	}

	if err := os.MkdirAll(series.Dir, 0o755); err != nil {
		o.log.Error().Err(err).Str("dir", series.Dir).Msg("cannot create series directory")
	}
	for _, ch := range series.Chapters {
		if ch.Dir == "" {
			ch.Dir = filepath.Join(series.Dir, ch.FolderName())
		}
		ch.Outcome = model.OutcomePending
		for _, a := range ch.Assets {
			a.Outcome = model.OutcomePending
		}
	}

	if err := o.tracker.Begin(series.TotalAssets()); err != nil {
		return err
	}
	o.gate.Reset()
	o.running = true
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, ok bool, log zerolog.Logger) {
	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.running = false

	s := o.tracker.Snapshot()
	if o.gate.Stopped() || ctx.Err() != nil {
		if s.Status != progress.StatusIdle {
			o.tracker.SetStatus(progress.StatusIdle)
		}
		log.Warn().Int("completed", s.Completed).Int("total", s.Total).Msg("download stopped before completion")
		return
	}

	if ok {
		o.tracker.SetStatus(progress.StatusCompleted)
		log.Info().Int("pages", s.Total).Msg("download completed")
		return
	}
	o.tracker.SetStatus(progress.StatusError)
	log.Warn().Int("completed", s.Completed).Int("total", s.Total).Msg("download finished with failures")
}

// skipChapter marks a chapter that will not be attempted.
func skipChapter(ch *model.Chapter) {
	for _, a := range ch.Assets {
		if a.Outcome == model.OutcomePending {
			a.Outcome = model.OutcomeFailed
		}
	}
	ch.Outcome = model.OutcomeFailed
}
