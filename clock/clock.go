// Package clock abstracts time so that heartbeats, idle computations and AI
// timers can be driven deterministically in tests.
package clock

import "time"

// Timer is a cancellable scheduled callback
type Timer interface {
	// Stop cancels the timer; it reports whether the callback was prevented
	// from running. Cancellation is best effort: an already-dispatched
	// callback still runs.
	Stop() bool
}

// Clock supplies monotonic time, wall-clock time and timer scheduling
type Clock interface {
	// Now returns a monotonic reading, for durations and deadlines
	Now() time.Time
	// WallNow returns wall-clock time, for timestamps that get persisted
	WallNow() time.Time
	// AfterFunc schedules f to run once after d
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// System returns the real clock
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time     { return time.Now() }
func (systemClock) WallNow() time.Time { return time.Now().UTC() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
