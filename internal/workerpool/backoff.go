package workerpool

import (
	"context"
	"math"
	"time"
)

// DefaultBackoff waits 1s, 2s, 4s, ... between attempts.
var DefaultBackoff = Backoff{Base: time.Second, Factor: 2}

// Backoff is an exponential retry delay policy.
type Backoff struct {
	// Base is the delay after the first failed attempt.
	Base time.Duration

	// Factor multiplies the delay after every further attempt.
	Factor float64
}

// Delay returns the wait after the failed attempt with the given 0-based
// index.
func (b Backoff) Delay(attempt int) time.Duration {
	return time.Duration(float64(b.Base) * math.Pow(b.Factor, float64(attempt)))
}

// Wait sleeps for Delay(attempt). It returns early with the context error
// if ctx ends first.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
