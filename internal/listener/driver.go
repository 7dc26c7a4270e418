package listener

import (
	"context"
	"time"
)

// DefaultCadence is the refresh period of the driver.
const DefaultCadence = 5 * time.Millisecond

// Driver calls Registry.NotifyAll on a fixed cadence.
type Driver struct {
	registry *Registry
	cadence  time.Duration
	now      func() int64
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithNanotime sets the monotonic time source whose reading is passed to
// every Update call.
func WithNanotime(now func() int64) DriverOption {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a driver for registry. A non-positive cadence selects
// DefaultCadence. Without WithNanotime, Update receives monotonic
// nanoseconds since the driver was created.
func NewDriver(registry *Registry, cadence time.Duration, opts ...DriverOption) *Driver {
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	origin := time.Now()
	d := &Driver{
		registry: registry,
		cadence:  cadence,
		now:      func() int64 { return int64(time.Since(origin)) },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run notifies the registry every cadence until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.registry.NotifyAll(d.now())
		}
	}
}
