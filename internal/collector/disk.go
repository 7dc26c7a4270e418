// Disk usage collector for the volume that holds recorder output.
// Uses gopsutil for cross-platform disk metrics.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/vitalis-app/flightrec/internal/models"
)

// DiskCollector reports the used space of the volume containing path, in
// percent.
type DiskCollector struct {
	path string
}

// NewDiskCollector creates a disk collector for the volume holding path.
// An empty path selects the working directory.
func NewDiskCollector(path string) *DiskCollector {
	if path == "" {
		path = "."
	}
	return &DiskCollector{path: path}
}

// Name returns the collector identifier.
func (c *DiskCollector) Name() string { return "disk" }

// Collect gathers the usage of the volume.
func (c *DiskCollector) Collect(ctx context.Context) (models.KeyFigures, error) {
	usage, err := disk.UsageWithContext(ctx, c.path)
	if err != nil {
		return nil, err
	}
	// Some virtual mounts report 0 size.
	if usage.Total == 0 {
		return models.KeyFigures{}, nil
	}
	return models.KeyFigures{models.KeyHostDisk: usage.UsedPercent}, nil
}

// IsAvailable returns true: disk metrics are available on all platforms.
func (c *DiskCollector) IsAvailable() bool { return true }
