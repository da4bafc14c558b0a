package workerpool

import (
	"context"
	"sync"
)

type gateState int

const (
	gateOpen gateState = iota
	gatePaused
	gateStopped
)

// Gate is a cooperative pause/stop signal shared by the workers of a run.
//
// Nothing is interrupted: workers observe the gate only when they call
// Wait, which they do between units of work. The zero value is open.
type Gate struct {
	mu    sync.Mutex
	state gateState
	wake  chan struct{} // closed when a pause ends
}

// Pause makes subsequent Wait calls block. Pausing a stopped gate has no
// effect.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gateOpen {
		g.state = gatePaused
		g.wake = make(chan struct{})
	}
}

// Resume releases workers blocked in Wait. Resuming a stopped gate has no
// effect.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gatePaused {
		g.state = gateOpen
		close(g.wake)
	}
}

// Stop makes every current and future Wait return false until Reset.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gatePaused {
		close(g.wake)
	}
	g.state = gateStopped
}

// Reset reopens the gate for a new run.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gatePaused {
		close(g.wake)
	}
	g.state = gateOpen
}

// Paused reports whether the gate is paused.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == gatePaused
}

// Stopped reports whether the gate is stopped.
func (g *Gate) Stopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == gateStopped
}

// Wait blocks while the gate is paused. It returns true when the worker may
// start its next unit of work and false when the gate is stopped or ctx is
// done.
func (g *Gate) Wait(ctx context.Context) bool {
	for {
		g.mu.Lock()
		state, wake := g.state, g.wake
		g.mu.Unlock()

		switch state {
		case gateOpen:
			return ctx.Err() == nil
		case gateStopped:
			return false
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return false
		}
	}
}
