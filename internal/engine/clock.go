package engine

import "time"

// Clock abstracts time.Now() and timer scheduling to allow deterministic testing.
// The search component uses it for the debounce timer; the calendar encoder uses it
// for DTSTAMP values.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable single-shot scheduled call.
// Stop is idempotent: stopping a fired or already stopped timer is a no-op.
type Timer interface {
	Stop() bool
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on its own goroutine after d.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
