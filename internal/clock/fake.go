package clock

import (
	"sync"
	"time"
)

// Fake is a deterministic Clock for tests. Time stands still until
// Advance is called. Sleep returns immediately after recording the
// requested duration; tick channels are fed manually via Advance.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	slept   []time.Duration
	ticks   []chan time.Time
}

// NewFake returns a Fake initialized to the given instant.
func NewFake(initial time.Time) *Fake {
	return &Fake{current: initial}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Since returns the difference between the fake's current time and t.
func (f *Fake) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

// Sleep records the request and returns without blocking.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slept = append(f.slept, d)
}

// Slept reports the total duration passed to Sleep so far.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total time.Duration
	for _, d := range f.slept {
		total += d
	}
	return total
}

// Tick returns a buffered channel that receives one tick per Advance
// call, regardless of the requested interval.
func (f *Fake) Tick(time.Duration) (<-chan time.Time, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 64)
	f.ticks = append(f.ticks, ch)
	return ch, func() {}
}

// Advance moves the fake clock forward and delivers one tick to every
// open tick channel.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	now := f.current
	channels := make([]chan time.Time, len(f.ticks))
	copy(channels, f.ticks)
	f.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- now:
		default:
		}
	}
}
