package main

import (
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vitalis-app/flightrec/internal/lifecycle"
	"github.com/vitalis-app/flightrec/internal/models"
)

// recording is the part of the recorder the status reporter reads.
type recording interface {
	State() lifecycle.State
	Size() int
	TotalRecordingDurationMs() int64
	Current() models.Snapshot
}

// statusReporter is a listener that logs a one-line summary of the
// recording at most once per period.
type statusReporter struct {
	rec    recording
	logger *zap.Logger
	period int64

	last atomic.Int64
}

func newStatusReporter(rec recording, logger *zap.Logger, period time.Duration) *statusReporter {
	return &statusReporter{rec: rec, logger: logger, period: int64(period)}
}

// Update implements listener.Listener.
func (r *statusReporter) Update(nowNanos int64) {
	last := r.last.Load()
	if last != 0 && nowNanos-last < r.period {
		return
	}
	if !r.last.CompareAndSwap(last, nowNanos) {
		return
	}
	r.logger.Info("Recording status", r.fields()...)
}

func (r *statusReporter) fields() []zap.Field {
	cur := r.rec.Current()
	fields := []zap.Field{
		zap.Stringer("state", r.rec.State()),
		zap.String("snapshots", humanize.Comma(int64(r.rec.Size()))),
		zap.Duration("recorded", time.Duration(r.rec.TotalRecordingDurationMs())*time.Millisecond),
	}
	if v, ok := cur.Value(models.KeyTransferRate); ok {
		fields = append(fields, zap.String("link", humanize.Bytes(uint64(v*1024))+"/s"))
	}
	for _, key := range []string{models.KeyConversion, models.KeySpeed, models.KeyHostCPU} {
		if v, ok := cur.Value(key); ok {
			fields = append(fields, zap.String(key, humanize.FtoaWithDigits(v, 2)))
		}
	}
	return fields
}
