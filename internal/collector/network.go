// Host network I/O collector. Computes RX/TX byte rates between calls.
// Uses gopsutil for cross-platform network metrics.
package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/vitalis-app/flightrec/internal/models"
)

// NetworkCollector reports host network throughput in bytes per second.
// It tracks previous counters to compute rates between collections.
type NetworkCollector struct {
	lastRx      uint64
	lastTx      uint64
	lastAt      time.Time
	initialized bool

	now func() time.Time
}

// NewNetworkCollector creates a new network collector.
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{now: time.Now}
}

// Name returns the collector identifier.
func (c *NetworkCollector) Name() string { return "network" }

// Collect returns the RX/TX rate since the last collection.
// The first collection returns zero rates while establishing a baseline.
func (c *NetworkCollector) Collect(ctx context.Context) (models.KeyFigures, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(counters) == 0 {
		return models.KeyFigures{}, nil
	}
	return c.rates(counters[0].BytesRecv, counters[0].BytesSent, c.now()), nil
}

func (c *NetworkCollector) rates(totalRx, totalTx uint64, at time.Time) models.KeyFigures {
	var rx, tx float64
	if c.initialized {
		if secs := at.Sub(c.lastAt).Seconds(); secs > 0 {
			// Counters can reset when interfaces go away.
			if totalRx >= c.lastRx {
				rx = float64(totalRx-c.lastRx) / secs
			}
			if totalTx >= c.lastTx {
				tx = float64(totalTx-c.lastTx) / secs
			}
		}
	}

	c.lastRx = totalRx
	c.lastTx = totalTx
	c.lastAt = at
	c.initialized = true

	return models.KeyFigures{
		models.KeyHostRx: rx,
		models.KeyHostTx: tx,
	}
}

// IsAvailable returns true: network metrics are available on all platforms.
func (c *NetworkCollector) IsAvailable() bool { return true }
