// Package clock abstracts time sampling so the session managers and the
// break countdown can be driven deterministically in tests. Production
// code injects Real(); tests inject a Fake and advance it by hand.
package clock

import "time"

// Clock is the time source used by everything that measures durations.
//
// Since must be computed against the reading returned by Now so that
// elapsed time stays monotonic: a Go time.Time taken from the real
// clock carries a monotonic component, and Since subtracts monotonic
// readings, not wall-clock values.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the elapsed time between t and now.
	Since(t time.Time) time.Duration

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)

	// Tick returns a channel that delivers ticks every d. The caller
	// keeps the returned stop function and invokes it when done.
	Tick(d time.Duration) (<-chan time.Time, func())
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}
