package recorder

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitalis-app/flightrec/internal/models"
)

// Start begins a collection session. It fails when the telemetry source is
// not connected. From Stopped the timeline and the live snapshot are reset
// first; in any other state only the first sample is skipped again.
func (s *Service) Start() bool {
	if !s.src.IsConnected() {
		s.logger.Warn("Collection not started: telemetry not connected")
		return false
	}

	s.skipFirst.Store(true)
	fresh := s.machine.Start(func() {
		s.timeline.Clear()
		s.current.reset()
		s.recordingAvailable.Store(false)
	})
	if fresh {
		s.logger.Info("Collection requested", zap.Stringer("interval", s.SamplingInterval()))
	}
	s.wakeUp()
	return true
}

// Stop ends the session immediately. It has no effect while Stopped.
func (s *Service) Stop() {
	s.machine.Stop()
}

// StopAfter ends the session after delay. Snapshots keep being appended
// during the grace period.
func (s *Service) StopAfter(delay time.Duration) {
	s.machine.StopAfter(delay)
}

// Reset stops collection and discards the timeline and the live snapshot.
func (s *Service) Reset() {
	s.machine.ForceStopped(func() {
		s.timeline.Clear()
		s.current.reset()
	})
	s.recordingAvailable.Store(false)
	s.logger.Info("Recording reset")
}

// SetSamplingInterval changes the sampling interval. It is only allowed
// while Stopped.
func (s *Service) SetSamplingInterval(i models.SamplingInterval) error {
	if i <= 0 {
		return ErrInvalidInterval
	}
	if !s.machine.WhileStopped(func() { s.interval.Store(int64(i)) }) {
		return ErrNotStopped
	}
	s.logger.Info("Sampling interval changed", zap.Stringer("interval", i))
	return nil
}

// SetTotalWindowSeconds changes the display window used by the index math.
func (s *Service) SetTotalWindowSeconds(sec int) error {
	if sec <= 0 {
		return ErrInvalidWindow
	}
	s.windowSeconds.Store(int64(sec))
	return nil
}

// SetCurrentIndex copies the snapshot at index into the live snapshot.
// Negative indices and an empty timeline are ignored; indices past the end
// select the last snapshot.
func (s *Service) SetCurrentIndex(index int) {
	n := s.timeline.Len()
	if index < 0 || n == 0 {
		return
	}
	if index >= n {
		index = n - 1
	}
	if snap, ok := s.timeline.At(index); ok {
		s.current.set(snap)
	}
}

// SetCurrentTime selects the snapshot nearest to seconds after the start of
// the recording.
func (s *Service) SetCurrentTime(seconds float64) {
	s.SetCurrentIndex(s.IndexByTime(seconds))
}

// Load replaces the timeline with list, for example an imported log. Any
// active session is stopped. Virtual key figures are computed for each
// entry. On ErrOutOfOrder the timeline is left empty.
func (s *Service) Load(list []models.Snapshot) error {
	prepared := make([]models.Snapshot, len(list))
	for i, snap := range list {
		c := snap.Clone()
		models.ApplyVirtual(c.Values, s.virtual)
		prepared[i] = c
	}

	var err error
	s.machine.ForceStopped(func() { err = s.timeline.Replace(prepared) })
	s.recordingAvailable.Store(s.timeline.Len() > 0)
	if err != nil {
		return fmt.Errorf("loading %d snapshots: %w", len(list), err)
	}

	s.SetCurrentIndex(0)
	s.logger.Info("Recording loaded",
		zap.Int("snapshots", len(prepared)),
		zap.Int64("duration_ms", s.TotalRecordingDurationMs()))
	return nil
}
