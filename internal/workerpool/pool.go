package workerpool

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidLimit is returned by New for a non-positive limit.
var ErrInvalidLimit = errors.New("worker limit must be positive")

// Pool runs tasks with bounded concurrency.
//
// Tasks report their own outcomes; the pool only guarantees that every
// submitted task settles before Run returns. A panicking task is recovered
// and logged so it cannot take the pool down.
type Pool struct {
	limit int
	log   zerolog.Logger
}

// New creates a pool that runs at most limit tasks at once.
func New(limit int, log zerolog.Logger) (*Pool, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return &Pool{limit: limit, log: log}, nil
}

// Limit returns the maximum number of concurrent tasks.
func (p *Pool) Limit() int {
	return p.limit
}

// Run calls task for every index in [0, n) and waits for all of them.
// Indexes are submitted in ascending order; completion order is not
// defined.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) {
	var g errgroup.Group
	g.SetLimit(p.limit)

	for i := range n {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error().Interface("panic", r).Int("task", i).Msg("worker panicked")
				}
			}()
			task(ctx, i)
			return nil
		})
	}

	_ = g.Wait()
}
