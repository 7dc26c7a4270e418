// Package collector defines the Collector interface and the host diagnostic
// collectors whose readings are attached to the live snapshot.
package collector

import (
	"context"

	"github.com/vitalis-app/flightrec/internal/models"
)

// Collector is the interface that all diagnostic collectors must implement.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Collect gathers the readings and returns them as key figures.
	// The context allows for cancellation and timeout control.
	Collect(ctx context.Context) (models.KeyFigures, error)

	// IsAvailable checks if this collector can run on the current platform.
	// Collectors that return false will not be registered.
	IsAvailable() bool
}
