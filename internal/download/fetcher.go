package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/manga-downloader/internal/http"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

// DefaultMaxRetries is the number of attempts made per file.
const DefaultMaxRetries = 3

// errEmptyFile marks a download that completed without writing any bytes.
var errEmptyFile = errors.New("downloaded file is empty")

// Fetcher downloads one remote resource to one local path with bounded
// retry and exponential backoff. It knows nothing about chapters.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	backoff    workerpool.Backoff
	log        zerolog.Logger
	onRetry    func(attempt int, wait time.Duration, err error)

	received atomic.Int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxRetries sets the number of attempts per file. Values below 1 are
// ignored.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxRetries = n
		}
	}
}

// WithBackoff sets the delay policy between attempts.
func WithBackoff(b workerpool.Backoff) FetcherOption {
	return func(f *Fetcher) { f.backoff = b }
}

// WithFetchLogger sets the fetcher logger.
func WithFetchLogger(log zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = log }
}

// WithRetryHook registers fn to be called before every backoff wait with
// the 0-based index of the failed attempt.
func WithRetryHook(fn func(attempt int, wait time.Duration, err error)) FetcherOption {
	return func(f *Fetcher) { f.onRetry = fn }
}

// NewFetcher creates a Fetcher on top of a shared client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:     client,
		maxRetries: DefaultMaxRetries,
		backoff:    workerpool.DefaultBackoff,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxRetries returns the number of attempts made per file.
func (f *Fetcher) MaxRetries() int {
	return f.maxRetries
}

// Received returns the number of bytes written by successful fetches.
func (f *Fetcher) Received() int64 {
	return f.received.Load()
}

// Fetch downloads url to dest and reports whether a complete, non-empty
// file was written.
//
// Transport failures and non-2xx responses are retried up to the retry
// budget, waiting Backoff.Delay(attempt) between attempts but not after the
// last one. Local filesystem failures and empty bodies end the fetch at
// once. An attempt in flight is never interrupted by ctx; timeout bounds
// each attempt instead. ctx ending during a backoff wait abandons the
// remaining attempts.
//
// The returned error is non-nil only for misuse (empty url or dest).
func (f *Fetcher) Fetch(ctx context.Context, url, dest string, timeout time.Duration) (bool, error) {
	if url == "" {
		return false, ErrEmptyURL
	}
	if dest == "" {
		return false, ErrEmptyDestination
	}

	log := f.log.With().Str("url", url).Logger()

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		log.Debug().Int("attempt", attempt+1).Msg("downloading")

		err := f.attempt(ctx, url, dest, timeout)
		if err == nil {
			log.Debug().Str("path", dest).Msg("downloaded")
			return true, nil
		}

		var fe *http.FileError
		if errors.As(err, &fe) || errors.Is(err, errEmptyFile) {
			log.Warn().Err(err).Msg("download abandoned")
			return false, nil
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Msg("download attempt failed")
		if attempt == f.maxRetries-1 {
			break
		}

		wait := f.backoff.Delay(attempt)
		if f.onRetry != nil {
			f.onRetry(attempt, wait, err)
		}
		if err := f.backoff.Wait(ctx, attempt); err != nil {
			log.Debug().Err(err).Msg("retry cancelled")
			return false, nil
		}
	}

	log.Warn().Int("attempts", f.maxRetries).Msg("download failed")
	return false, nil
}

func (f *Fetcher) attempt(ctx context.Context, url, dest string, timeout time.Duration) error {
	actx := context.WithoutCancel(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(actx, timeout)
		defer cancel()
	}

	n, err := f.client.DownloadFile(actx, url, dest, nil)
	if err != nil {
		return err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return &http.FileError{Op: "stat", Path: dest, Err: err}
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: %w", dest, errEmptyFile)
	}

	f.received.Add(n)
	return nil
}
