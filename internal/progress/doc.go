// Package progress aggregates the state of one series download.
//
// A Tracker is created per orchestration run. Every mutation and every
// Snapshot call goes through one mutex, and observers are invoked under
// that same mutex, synchronously and in registration order, after each
// mutation. Observers therefore always see a consistent state, but they
// must not call back into the Tracker.
//
//	tracker := progress.NewTracker(log)
//	tracker.Subscribe(func(s progress.Snapshot) {
//	    fmt.Printf("%d/%d %s\n", s.Completed, s.Total, s.Status)
//	})
//
// Feed adapts the observer interface to a channel for consumers that run
// their own loop, such as a terminal UI.
package progress
