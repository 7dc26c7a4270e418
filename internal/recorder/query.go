package recorder

import (
	"github.com/vitalis-app/flightrec/internal/lifecycle"
	"github.com/vitalis-app/flightrec/internal/models"
	"github.com/vitalis-app/flightrec/internal/timeline"
)

// Size returns the number of recorded snapshots.
func (s *Service) Size() int {
	return s.timeline.Len()
}

// At returns the snapshot at index i.
func (s *Service) At(i int) (models.Snapshot, bool) {
	return s.timeline.At(i)
}

// Last returns the most recent snapshot, or the live snapshot when nothing
// has been recorded.
func (s *Service) Last() models.Snapshot {
	if snap, ok := s.timeline.Last(); ok {
		return snap
	}
	return s.Current()
}

// LastByFactor returns the right edge of the display window at relative
// position f while stopped, and the live snapshot otherwise.
func (s *Service) LastByFactor(f float64) models.Snapshot {
	if s.machine.State() == lifecycle.Stopped && s.timeline.Len() > 0 {
		if snap, ok := s.timeline.At(s.EndIndexByFactor(f)); ok {
			return snap
		}
	}
	return s.Current()
}

// Current returns a copy of the live snapshot.
func (s *Service) Current() models.Snapshot {
	return s.current.clone()
}

func (s *Service) window() timeline.Window {
	return timeline.Window{
		Size:         s.timeline.Len(),
		TotalSeconds: s.TotalWindowSeconds(),
		IntervalMs:   s.SamplingInterval().Milliseconds(),
	}
}

// IndexByFactor maps f in [0,1] to an absolute index.
func (s *Service) IndexByFactor(f float64) int { return s.window().IndexByFactor(f) }

// StartIndexByFactor returns the left edge of the window at position f.
func (s *Service) StartIndexByFactor(f float64) int { return s.window().StartIndexByFactor(f) }

// EndIndexByFactor returns the right edge of the window at position f.
func (s *Service) EndIndexByFactor(f float64) int { return s.window().EndIndexByFactor(f) }

// StartIndex returns the left edge of a window ending at end.
func (s *Service) StartIndex(end int) int { return s.window().StartIndex(end) }

// EndIndex returns the right edge of a window starting at start.
func (s *Service) EndIndex(start int) int { return s.window().EndIndex(start) }

// IndexByTime maps seconds since the recording start to an index.
func (s *Service) IndexByTime(seconds float64) int { return s.window().IndexByTime(seconds) }

// SamplesPerWindow returns how many snapshots fit in the display window.
func (s *Service) SamplesPerWindow() int { return s.window().SamplesPerWindow() }

// TotalRecordingDurationMs returns the timestamp of the last snapshot in
// milliseconds, or 0 when empty.
func (s *Service) TotalRecordingDurationMs() int64 {
	return s.timeline.DurationMs()
}

// State returns the collection state.
func (s *Service) State() lifecycle.State {
	return s.machine.State()
}

// IsCollecting reports whether a session is active.
func (s *Service) IsCollecting() bool {
	return s.machine.State().Active()
}

// IsConverterRunning reports whether the worker reached the sampling stage
// on its last tick.
func (s *Service) IsConverterRunning() bool {
	return s.converterRunning.Load()
}

// RecordingAvailable reports whether a finished recording can be read.
func (s *Service) RecordingAvailable() bool {
	return s.recordingAvailable.Load()
}

// SamplingInterval returns the sampling interval.
func (s *Service) SamplingInterval() models.SamplingInterval {
	return models.SamplingInterval(s.interval.Load())
}

// TotalWindowSeconds returns the display window length.
func (s *Service) TotalWindowSeconds() int {
	return int(s.windowSeconds.Load())
}
