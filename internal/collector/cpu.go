// Host CPU usage collector.
// Uses gopsutil for cross-platform CPU metrics.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/vitalis-app/flightrec/internal/models"
)

// CPUCollector reports overall host CPU usage in percent.
type CPUCollector struct{}

// NewCPUCollector creates a new CPU collector.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Name returns the collector identifier.
func (c *CPUCollector) Name() string { return "cpu" }

// Collect returns CPU usage since the previous call. It does not block;
// the first call measures since process start.
func (c *CPUCollector) Collect(ctx context.Context) (models.KeyFigures, error) {
	overall, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(overall) == 0 {
		return models.KeyFigures{}, nil
	}
	return models.KeyFigures{models.KeyHostCPU: overall[0]}, nil
}

// IsAvailable returns true: CPU metrics are available on all platforms.
func (c *CPUCollector) IsAvailable() bool { return true }
