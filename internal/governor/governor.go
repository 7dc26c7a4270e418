// Package governor paces the sampling loop so that ticks start on the
// configured interval without accumulating drift.
//
// Each tick records its start on a monotonic clock. After the tick's work
// the governor parks for whatever is left of the interval, minus a fixed
// processing margin that covers the cost of waking up and starting the next
// tick. A tick that overran its interval is followed by the next one
// immediately.
package governor

import "time"

const (
	// DefaultMargin is subtracted from every collecting park.
	DefaultMargin = 500 * time.Microsecond

	// DefaultIdlePark is the tick length used while the vehicle is
	// connected but not armed.
	DefaultIdlePark = 100 * time.Millisecond

	// DefaultIdleMargin is subtracted from every idle park.
	DefaultIdleMargin = 2500 * time.Microsecond
)

// Governor computes and performs the park between two ticks.
type Governor struct {
	clock      Clock
	margin     time.Duration
	idlePark   time.Duration
	idleMargin time.Duration
}

// Option configures a Governor.
type Option func(*Governor)

// WithMargin sets the processing margin for collecting ticks.
func WithMargin(d time.Duration) Option {
	return func(g *Governor) { g.margin = d }
}

// WithIdlePark sets the fixed tick length used while disarmed.
func WithIdlePark(d time.Duration) Option {
	return func(g *Governor) { g.idlePark = d }
}

// WithIdleMargin sets the processing margin for idle ticks.
func WithIdleMargin(d time.Duration) Option {
	return func(g *Governor) { g.idleMargin = d }
}

// New creates a Governor on clock.
func New(clock Clock, opts ...Option) *Governor {
	g := &Governor{
		clock:      clock,
		margin:     DefaultMargin,
		idlePark:   DefaultIdlePark,
		idleMargin: DefaultIdleMargin,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Begin marks the start of a tick and returns its timestamp.
func (g *Governor) Begin() int64 {
	return g.clock.Nanotime()
}

// Remaining returns how long to park after a tick that started at
// tickStart so that the next tick begins interval after it. The result is
// never negative.
func (g *Governor) Remaining(tickStart int64, interval time.Duration) time.Duration {
	elapsed := time.Duration(g.clock.Nanotime() - tickStart)
	return max(0, interval-elapsed-g.margin)
}

// Park suspends the caller until the next tick boundary and returns the
// parked duration.
func (g *Governor) Park(tickStart int64, interval time.Duration) time.Duration {
	d := g.Remaining(tickStart, interval)
	g.clock.Sleep(d)
	return d
}

// ParkIdle parks for the idle tick length regardless of the sampling
// interval and returns the parked duration.
func (g *Governor) ParkIdle(tickStart int64) time.Duration {
	elapsed := time.Duration(g.clock.Nanotime() - tickStart)
	d := max(0, g.idlePark-elapsed-g.idleMargin)
	g.clock.Sleep(d)
	return d
}
