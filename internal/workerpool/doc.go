// Package workerpool holds the concurrency primitives shared by discovery
// and acquisition.
//
// # Pool
//
// Pool runs indexed tasks with at most Limit of them in flight. Submission
// blocks once the pool is saturated, so there is never an unbounded queue:
//
//	pool, _ := workerpool.New(4, log)
//	pool.Run(ctx, len(pages), func(ctx context.Context, i int) {
//	    fetch(ctx, pages[i])
//	})
//
// Pools nest: a chapter pool of width C whose tasks each run an asset pool
// of width A keeps at most C×A transfers in flight.
//
// # Backoff
//
// Backoff computes exponential retry delays (Base × Factor^attempt) and
// waits them out unless the context ends first.
//
// # Gate
//
// Gate is a cooperative pause/stop switch. Workers call Wait between units
// of work; Wait blocks while paused and reports false once stopped.
package workerpool
