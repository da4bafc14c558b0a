package progress

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrRunActive is returned by Reset and Begin while a run is in progress.
var ErrRunActive = errors.New("progress: run is active")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Active reports whether a run with this status has not concluded.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusPaused
}

// Snapshot is a point-in-time copy of the run state. An empty
// CurrentChapter or CurrentAsset means none.
type Snapshot struct {
	Total          int
	Completed      int
	CurrentChapter string
	CurrentAsset   string
	Status         Status
}

// Percent returns Completed as a percentage of Total, or 0 when Total is 0.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// Observer receives a snapshot after every state transition.
type Observer func(Snapshot)

// Tracker is the concurrency-safe progress aggregator of one run.
type Tracker struct {
	mu        sync.Mutex
	state     Snapshot
	observers []Observer
	log       zerolog.Logger
}

// NewTracker creates an idle tracker.
func NewTracker(log zerolog.Logger) *Tracker {
	return &Tracker{
		state: Snapshot{Status: StatusIdle},
		log:   log,
	}
}

// Subscribe registers o. Observers are called in registration order.
func (t *Tracker) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reset clears all counters and sets the status to idle. It fails while a
// run is active.
func (t *Tracker) Reset() error {
	return t.update(func(s *Snapshot) error {
		if s.Status.Active() {
			return ErrRunActive
		}
		*s = Snapshot{Status: StatusIdle}
		return nil
	})
}

// Begin starts a new run in a single transition: counters are cleared,
// Total is committed and the status becomes running.
func (t *Tracker) Begin(total int) error {
	return t.update(func(s *Snapshot) error {
		if s.Status.Active() {
			return ErrRunActive
		}
		*s = Snapshot{Total: total, Status: StatusRunning}
		return nil
	})
}

// SetTotal sets the total asset count.
func (t *Tracker) SetTotal(n int) {
	t.mutate(func(s *Snapshot) {
		s.Total = n
		if s.Completed > n {
			s.Completed = n
		}
	})
}

// IncrementCompleted counts one settled asset. It reports false, and
// leaves the counter unchanged, when Completed already equals Total.
func (t *Tracker) IncrementCompleted() bool {
	ok := true
	t.mutate(func(s *Snapshot) {
		if s.Completed >= s.Total {
			ok = false
			return
		}
		s.Completed++
	})
	if !ok {
		t.log.Warn().Msg("completed count already at total")
	}
	return ok
}

// SetCurrentChapter records the chapter being worked on; "" clears it.
func (t *Tracker) SetCurrentChapter(id string) {
	t.mutate(func(s *Snapshot) { s.CurrentChapter = id })
}

// SetCurrentAsset records the asset that last settled; "" clears it.
func (t *Tracker) SetCurrentAsset(id string) {
	t.mutate(func(s *Snapshot) { s.CurrentAsset = id })
}

// SetStatus records a lifecycle transition.
func (t *Tracker) SetStatus(status Status) {
	t.mutate(func(s *Snapshot) { s.Status = status })
}

// Feed returns a channel that receives snapshots until ctx is done, at
// which point the channel is closed. When the consumer falls behind, the
// oldest buffered snapshot is dropped so the channel always ends with the
// most recent state and the pipeline never blocks on it.
func (t *Tracker) Feed(ctx context.Context, buf int) <-chan Snapshot {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Snapshot, buf)
	closed := false

	t.Subscribe(func(s Snapshot) {
		// Runs under t.mu, as does the close below.
		if closed {
			return
		}
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	})

	context.AfterFunc(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		closed = true
		close(ch)
	})
	return ch
}

func (t *Tracker) mutate(fn func(*Snapshot)) {
	_ = t.update(func(s *Snapshot) error {
		fn(s)
		return nil
	})
}

func (t *Tracker) update(fn func(*Snapshot) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := fn(&t.state); err != nil {
		return err
	}
	for i, o := range t.observers {
		t.notify(i, o, t.state)
	}
	return nil
}

func (t *Tracker) notify(i int, o Observer, s Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Int("observer", i).Msg("progress observer failed")
		}
	}()
	o(s)
}
