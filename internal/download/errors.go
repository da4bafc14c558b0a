package download

import "errors"

// Contract violations. Operational failures are never reported through
// these; they surface as false results and outcomes on the model.
var (
	ErrEmptyURL         = errors.New("download: empty url")
	ErrEmptyDestination = errors.New("download: empty destination path")
	ErrNilSeries        = errors.New("download: nil series")
	ErrNilChapter       = errors.New("download: nil chapter")
	ErrNoChapters       = errors.New("download: series has no chapters")
	ErrNoChapterDir     = errors.New("download: chapter has no directory")
	ErrUnsorted         = errors.New("download: chapters are not sorted by key")
	ErrInvalidWorkers   = errors.New("download: worker count must be positive")
	ErrRunInProgress    = errors.New("download: orchestrator is already running")
	ErrChapterNotFound  = errors.New("download: no chapter matches")
)
