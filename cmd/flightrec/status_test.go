package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalis-app/flightrec/internal/lifecycle"
	"github.com/vitalis-app/flightrec/internal/models"
)

type fakeRecording struct{}

func (fakeRecording) State() lifecycle.State          { return lifecycle.Collecting }
func (fakeRecording) Size() int                       { return 12345 }
func (fakeRecording) TotalRecordingDurationMs() int64 { return 246_900 }

func (fakeRecording) Current() models.Snapshot {
	s := models.NewSnapshot()
	s.Values[models.KeyTransferRate] = 28.125
	s.Values[models.KeySpeed] = 4.5
	return s
}

func TestStatusReporter_ThrottlesToPeriod(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newStatusReporter(fakeRecording{}, zap.New(core), time.Second)

	start := int64(time.Hour)
	for i := int64(0); i < 400; i++ {
		r.Update(start + i*int64(5*time.Millisecond))
	}
	assert.Equal(t, 2, logs.Len())
}

func TestStatusReporter_Fields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newStatusReporter(fakeRecording{}, zap.New(core), time.Second)
	r.Update(1)

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "COLLECTING", fields["state"])
	assert.Equal(t, "12,345", fields["snapshots"])
	assert.Equal(t, "29 kB/s", fields["link"])
	assert.Equal(t, "4.5", fields[models.KeySpeed])
}
