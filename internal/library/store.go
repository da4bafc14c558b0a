package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/progress"
)

const (
	tableRuns     = "runs"
	tableChapters = "run_chapters"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	series_title TEXT NOT NULL,
	series_url   TEXT NOT NULL,
	series_dir   TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL,
	status       TEXT NOT NULL,
	total        INTEGER NOT NULL,
	completed    INTEGER NOT NULL,
	bytes        INTEGER NOT NULL,
	success      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_series ON runs(series_url, started_at);
CREATE TABLE IF NOT EXISTS run_chapters (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	number   REAL NOT NULL,
	title    TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	pages    INTEGER NOT NULL,
	acquired INTEGER NOT NULL,
	dir      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_chapters_run ON run_chapters(run_id);
`

// RunResult is what a finished run reports.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Snapshot   progress.Snapshot
	Bytes      int64
	Success    bool
}

// Run is a stored run.
type Run struct {
	ID          string
	SeriesTitle string
	SeriesURL   string
	SeriesDir   string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      progress.Status
	Total       int
	Completed   int
	Bytes       int64
	Success     bool
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ChapterResult is the stored outcome of one chapter in a run.
type ChapterResult struct {
	Number   float64
	Title    string
	Outcome  string
	Pages    int
	Acquired int
	Dir      string
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// One writer at a time; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a finished run of series together with the outcome of
// each of its chapters and returns the new run id.
func (s *Store) RecordRun(ctx context.Context, series *model.Series, res RunResult) (id string, err error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	id = runID.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = sq.Insert(tableRuns).
		Columns("id", "series_title", "series_url", "series_dir", "started_at", "finished_at",
			"status", "total", "completed", "bytes", "success").
		Values(id, series.Title, series.URL, series.Dir, res.StartedAt.UnixMilli(), res.FinishedAt.UnixMilli(),
			string(res.Snapshot.Status), res.Snapshot.Total, res.Snapshot.Completed, res.Bytes, res.Success).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, ch := range series.Chapters {
		_, err = sq.Insert(tableChapters).
			Columns("run_id", "number", "title", "outcome", "pages", "acquired", "dir").
			Values(id, ch.Number, ch.Title, ch.Outcome.String(), len(ch.Assets), len(ch.AcquiredAssets()), ch.Dir).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return "", fmt.Errorf("insert chapter %s: %w", ch.Title, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := sq.Select("id", "series_title", "series_url", "series_dir", "started_at", "finished_at",
		"status", "total", "completed", "bytes", "success").
		From(tableRuns).
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			status            string
		)
		if err := rows.Scan(&r.ID, &r.SeriesTitle, &r.SeriesURL, &r.SeriesDir, &started, &finished,
			&status, &r.Total, &r.Completed, &r.Bytes, &r.Success); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		r.Status = progress.Status(status)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Chapters returns the chapter outcomes of a run in key order. A run id
// prefix is accepted as long as it is unambiguous.
func (s *Store) Chapters(ctx context.Context, runID string) ([]ChapterResult, error) {
	id, err := s.resolveID(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := sq.Select("number", "title", "outcome", "pages", "acquired", "dir").
		From(tableChapters).
		Where(sq.Eq{"run_id": id}).
		OrderBy("number", "id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	var out []ChapterResult
	for rows.Next() {
		var c ChapterResult
		if err := rows.Scan(&c.Number, &c.Title, &c.Outcome, &c.Pages, &c.Acquired, &c.Dir); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LastFailed returns the keys of the chapters that failed in the most
// recent run of the series at seriesURL. It returns nil when the series
// has no recorded run.
func (s *Store) LastFailed(ctx context.Context, seriesURL string) ([]float64, error) {
	var id string
	err := sq.Select("id").
		From(tableRuns).
		Where(sq.Eq{"series_url": seriesURL}).
		OrderBy("started_at DESC", "id DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}

	chapters, err := s.Chapters(ctx, id)
	if err != nil {
		return nil, err
	}
	var keys []float64
	for _, c := range chapters {
		if c.Outcome != model.OutcomeAcquired.String() {
			keys = append(keys, c.Number)
		}
	}
	return keys, nil
}

// ErrRunNotFound is returned for an unknown or ambiguous run id.
var ErrRunNotFound = errors.New("library: run not found")

func (s *Store) resolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := sq.Select("id").
		From(tableRuns).
		Where(sq.Like{"id": prefix + "%"}).
		Limit(2).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(ids) != 1 {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	}
	return ids[0], nil
}
