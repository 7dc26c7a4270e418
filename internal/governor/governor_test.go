package governor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGovernor_RemainingSubtractsElapsedAndMargin(t *testing.T) {
	clock := NewFakeClock()
	g := New(clock, WithMargin(time.Millisecond))

	start := g.Begin()
	clock.Advance(4 * time.Millisecond)

	assert.Equal(t, 15*time.Millisecond, g.Remaining(start, 20*time.Millisecond))
}

func TestGovernor_OverrunParksZero(t *testing.T) {
	clock := NewFakeClock()
	g := New(clock)

	start := g.Begin()
	clock.Advance(30 * time.Millisecond)

	assert.Zero(t, g.Park(start, 20*time.Millisecond))
	assert.Equal(t, int64(30*time.Millisecond), clock.Nanotime())
}

func TestGovernor_ParkHitsIntervalWithoutDrift(t *testing.T) {
	clock := NewFakeClock()
	g := New(clock, WithMargin(0))
	interval := 5 * time.Millisecond

	for i := 0; i < 1000; i++ {
		start := g.Begin()
		clock.Advance(time.Duration(i%4) * time.Millisecond)
		g.Park(start, interval)
	}

	assert.Equal(t, int64(1000*interval), clock.Nanotime())
}

func TestGovernor_IdleParkIgnoresInterval(t *testing.T) {
	clock := NewFakeClock()
	g := New(clock, WithIdleMargin(0))

	start := g.Begin()
	clock.Advance(10 * time.Millisecond)

	assert.Equal(t, 90*time.Millisecond, g.ParkIdle(start))
	assert.Equal(t, int64(DefaultIdlePark), clock.Nanotime())
}

func TestMonotonicClock_SleepWaitsAtLeast(t *testing.T) {
	c := NewMonotonicClock()

	before := c.Nanotime()
	c.Sleep(2 * time.Millisecond)
	c.Sleep(-time.Second)

	assert.GreaterOrEqual(t, c.Nanotime()-before, int64(2*time.Millisecond))
}
