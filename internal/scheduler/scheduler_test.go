package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/flightrec/internal/collector"
	"github.com/vitalis-app/flightrec/internal/models"
)

type countingCollector struct {
	calls atomic.Int64
}

func (c *countingCollector) Name() string { return "counting" }

func (c *countingCollector) Collect(context.Context) (models.KeyFigures, error) {
	n := c.calls.Add(1)
	return models.KeyFigures{"n": float64(n)}, nil
}

func (c *countingCollector) IsAvailable() bool { return true }

func TestPoller_CollectsImmediatelyAndPeriodically(t *testing.T) {
	registry := collector.NewRegistry(nil)
	col := &countingCollector{}
	registry.Register(col)

	p := NewPoller(registry, 10*time.Millisecond, nil)
	var last atomic.Value
	p.OnCollected(func(k models.KeyFigures) { last.Store(k) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return col.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done

	got, ok := last.Load().(models.KeyFigures)
	require.True(t, ok)
	assert.GreaterOrEqual(t, got["n"], 3.0)
}

func TestWorkQueue_RunsAfterDelay(t *testing.T) {
	q := NewWorkQueue(nil)
	fired := make(chan time.Time, 1)

	start := time.Now()
	q.AddSingleTask("stop", 50*time.Millisecond, func() { fired <- time.Now() })
	assert.True(t, q.Pending("stop"))

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.False(t, q.Pending("stop"))
}

func TestWorkQueue_CancelAndReplace(t *testing.T) {
	q := NewWorkQueue(nil)
	var runs atomic.Int64

	cancel := q.AddSingleTask("stop", 20*time.Millisecond, func() { runs.Add(1) })
	cancel()

	q.AddSingleTask("other", 20*time.Millisecond, func() { runs.Add(10) })
	q.AddSingleTask("other", 20*time.Millisecond, func() { runs.Add(100) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(100), runs.Load())
}

func TestWorkQueue_StopCancelsAll(t *testing.T) {
	q := NewWorkQueue(nil)
	var runs atomic.Int64

	q.AddSingleTask("a", 20*time.Millisecond, func() { runs.Add(1) })
	q.AddSingleTask("b", 20*time.Millisecond, func() { runs.Add(1) })
	q.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, runs.Load())
	assert.False(t, q.Pending("a"))
}
