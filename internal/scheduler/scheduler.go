// Package scheduler provides the two timing helpers of the recorder: a
// periodic Poller that runs the host diagnostic collectors off the sampling
// loop, and a WorkQueue of named, cancellable delayed tasks.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vitalis-app/flightrec/internal/collector"
	"github.com/vitalis-app/flightrec/internal/models"
)

// collectTimeout bounds a single pass over all collectors.
const collectTimeout = 5 * time.Second

// Poller periodically collects host diagnostics and hands the merged key
// figures to a callback. It never touches the recorder state directly.
type Poller struct {
	registry *collector.Registry
	interval time.Duration
	logger   *zap.Logger

	onCollected func(models.KeyFigures)
}

// NewPoller creates a Poller that runs registry every interval.
func NewPoller(registry *collector.Registry, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// OnCollected sets the callback invoked with the result of each pass.
func (p *Poller) OnCollected(fn func(models.KeyFigures)) {
	p.onCollected = fn
}

// Start runs the collection loop. It blocks until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Collect immediately to establish rate baselines.
	p.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collect(ctx)
		}
	}
}

func (p *Poller) collect(ctx context.Context) {
	collectCtx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	figures := p.registry.CollectAll(collectCtx)
	p.logger.Debug("Collected host diagnostics", zap.Int("figures", len(figures)))

	if p.onCollected != nil {
		p.onCollected(figures)
	}
}
