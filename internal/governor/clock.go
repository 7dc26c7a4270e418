package governor

import (
	"sync"
	"time"
)

// Clock is a monotonic time source that can suspend the calling goroutine.
type Clock interface {
	// Nanotime returns monotonic nanoseconds since an arbitrary origin.
	Nanotime() int64
	// Sleep suspends the caller for d. Non-positive durations return at once.
	Sleep(d time.Duration)
}

// MonotonicClock is the production Clock. Time is read from the monotonic
// reading of time.Now and parking uses a runtime timer, which has
// sub-millisecond resolution on all supported platforms.
type MonotonicClock struct {
	origin time.Time
}

// NewMonotonicClock creates a clock whose origin is the current instant.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{origin: time.Now()}
}

// Nanotime implements Clock.
func (c *MonotonicClock) Nanotime() int64 {
	return int64(time.Since(c.origin))
}

// Sleep implements Clock.
func (c *MonotonicClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	<-t.C
}

// FakeClock is a manually driven Clock for tests. Sleep advances the clock
// instead of blocking, so a loop driven by a FakeClock runs in virtual time.
type FakeClock struct {
	mu     sync.Mutex
	now    int64
	sleeps []time.Duration
}

// NewFakeClock creates a fake clock starting at zero.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// Nanotime implements Clock.
func (c *FakeClock) Nanotime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements Clock by advancing virtual time.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now += int64(d)
	}
}

// Advance moves the clock forward by d without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(d)
}

// Sleeps returns every duration passed to Sleep, in call order.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}
