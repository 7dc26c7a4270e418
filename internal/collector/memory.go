// Host memory usage collector.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vitalis-app/flightrec/internal/models"
)

// MemoryCollector reports host RAM usage in percent.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Name returns the collector identifier.
func (c *MemoryCollector) Name() string { return "memory" }

// Collect gathers memory usage.
func (c *MemoryCollector) Collect(ctx context.Context) (models.KeyFigures, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return models.KeyFigures{models.KeyHostMemory: v.UsedPercent}, nil
}

// IsAvailable returns true: memory metrics are available on all platforms.
func (c *MemoryCollector) IsAvailable() bool { return true }
