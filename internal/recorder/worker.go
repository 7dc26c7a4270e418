package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vitalis-app/flightrec/internal/lifecycle"
	"github.com/vitalis-app/flightrec/internal/models"
	"github.com/vitalis-app/flightrec/internal/telemetry"
)

// diagnosticKeys are reset to zero whenever the worker goes idle.
var diagnosticKeys = []string{
	models.KeyTransferRate,
	models.KeyConversion,
}

// run is the worker loop. It returns nil when ctx is cancelled and an error
// only for a fatal fault.
func (s *Service) run(ctx context.Context) error {
	s.logger.Info("Converter started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		idle, err := s.safeStep()
		if err != nil {
			return err
		}
		if !idle {
			continue
		}

		s.logger.Info("Converter is waiting")
		select {
		case <-s.wake:
			s.logger.Info("Converter continued")
		case <-ctx.Done():
			return nil
		}
	}
}

// safeStep runs one tick and recovers a panic inside it, so that a single
// bad tick never ends the loop.
func (s *Service) safeStep() (idle bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Converter tick failed",
				zap.Any("panic", rec),
				zap.Stack("stack"))
			s.clock.Sleep(s.SamplingInterval().Duration())
			idle, err = false, nil
		}
	}()
	return s.step()
}

// step performs one iteration of the sampling loop. It reports idle when
// the worker should block until the next external signal.
func (s *Service) step() (idle bool, err error) {
	connected := s.src.IsConnected()
	replaying := s.src.IsReplaying()
	if !connected || (replaying && !s.machine.State().Active()) {
		s.enterIdle(connected)
		return true, nil
	}

	tickStart := s.gov.Begin()
	s.refreshDiagnostics()

	s.machine.Advance()
	state, session := s.machine.Session()
	if state.Active() && session != s.session {
		s.session = session
		s.originNs = s.clock.Nanotime()
		s.skipFirst.Store(true)
		s.logger.Info("Collection started",
			zap.Uint64("session", session),
			zap.Stringer("interval", s.SamplingInterval()),
			zap.String("link", humanize.Bytes(uint64(s.src.TransferRate()))+"/s"))
	}
	if !state.Active() && s.lastState.Active() {
		s.disableLogging()
		s.logger.Info("Collection stopped",
			zap.String("snapshots", humanize.Comma(int64(s.timeline.Len()))),
			zap.Duration("recorded", time.Duration(s.timeline.DurationMs())*time.Millisecond))
	}
	s.lastState = state

	if replaying {
		s.clock.Sleep(replayPark)
		return false, nil
	}

	if s.clock.Nanotime()-s.initAt < int64(s.warmup) {
		s.gov.Park(tickStart, s.SamplingInterval().Duration())
		return false, nil
	}

	fresh, err := s.refreshValues()
	if err != nil {
		return false, err
	}
	s.attachMessage()
	s.converterRunning.Store(true)

	if !fresh {
		s.gov.Park(tickStart, s.SamplingInterval().Duration())
		return false, nil
	}

	now := s.clock.Nanotime()
	if state.Active() {
		s.collect(session, now)
	} else {
		s.recordingAvailable.Store(s.timeline.Len() > 0)
		us := now / 1000
		s.current.update(func(c *models.Snapshot) { c.TimestampUs = us })
		if s.lastRefreshUs > 0 {
			s.perf = float64(us-s.lastRefreshUs) / 1e3
		}
		s.lastRefreshUs = us

		if !s.src.IsArmed() {
			s.gov.ParkIdle(tickStart)
			return false, nil
		}
	}

	s.gov.Park(tickStart, s.SamplingInterval().Duration())
	return false, nil
}

// collect appends one snapshot to session, except on the first tick of a
// session, which only anchors the conversion timing. Nothing is appended
// once session has been replaced by a newer one.
func (s *Service) collect(session uint64, now int64) {
	tms := (now - s.originNs) / 1000
	if s.skipFirst.Swap(false) {
		s.lastTms = tms
		return
	}

	var snap models.Snapshot
	if s.isLogging() {
		snap = s.record.Clone()
	} else {
		snap = s.current.clone()
	}
	snap.Stamp(tms)

	var err error
	appended := s.machine.WhileSession(session, func() { err = s.timeline.Append(snap) })
	switch {
	case err != nil:
		s.logger.Warn("Dropped snapshot", zap.Int64("tms", tms), zap.Error(err))
	case appended:
		s.recordingAvailable.Store(false)
		s.perf = float64(tms-s.lastTms) / 1e3
		s.lastTms = tms
	}
}

// enterIdle forces the Stopped state before the worker parks.
func (s *Service) enterIdle(connected bool) {
	s.disableLogging()
	s.machine.ForceStopped(nil)
	if s.lastState.Active() {
		s.logger.Info("Collection stopped: telemetry unavailable",
			zap.Bool("connected", connected),
			zap.String("snapshots", humanize.Comma(int64(s.timeline.Len()))))
	}
	s.lastState = lifecycle.Stopped
	s.converterRunning.Store(false)
	s.perf = 0
	s.lastRefreshUs = 0

	if !connected {
		s.current.reset()
		return
	}
	s.current.update(func(c *models.Snapshot) {
		for _, k := range diagnosticKeys {
			c.Values[k] = 0
		}
	})
}

// refreshDiagnostics writes link and host diagnostics to the live
// snapshot. It runs in every state.
func (s *Service) refreshDiagnostics() {
	rate := s.src.TransferRate() / 1024
	host := s.hostDiag.Load()
	perf := s.perf

	s.current.update(func(c *models.Snapshot) {
		c.Values[models.KeyConversion] = perf
		c.Values[models.KeyTransferRate] = rate
		if host != nil {
			for k, v := range *host {
				c.Values[k] = v
			}
		}
	})
}

// refreshValues copies the latest source values into the live snapshot and,
// when the log reader is active, its record into the record snapshot. It
// reports false when this tick's values must not be used.
func (s *Service) refreshValues() (bool, error) {
	upToDate := true
	if f, ok := s.src.(telemetry.FreshnessSource); ok {
		upToDate = f.IsCurrentUpToDate()
	}

	fresh := true
	if upToDate {
		values, err := s.src.CurrentValues()
		switch {
		case err == nil:
			s.current.update(func(c *models.Snapshot) {
				for k, v := range values {
					c.Values[k] = v
				}
				models.ApplyVirtual(c.Values, s.virtual)
			})
		case errors.Is(err, telemetry.ErrSourceClosed):
			return false, fmt.Errorf("reading telemetry: %w", err)
		case errors.Is(err, telemetry.ErrReadConflict):
			s.logger.Debug("Skipped tick on read conflict", zap.Error(err))
			fresh = false
		default:
			s.logger.Warn("Reading telemetry failed", zap.Error(err))
			fresh = false
		}
	}

	if s.isLogging() {
		rec, err := s.reader.LatestRecord()
		if err != nil {
			s.logger.Warn("Reading log record failed", zap.Error(err))
			return false, nil
		}
		for k, v := range rec {
			s.record.Values[k] = v
		}
		models.ApplyVirtual(s.record.Values, s.virtual)
	}
	return fresh, nil
}

// attachMessage attaches the message received during this tick, if any.
func (s *Service) attachMessage() {
	var msg *models.LogMessage
	if ms, ok := s.src.(telemetry.MessageSource); ok {
		if m := ms.LatestMessage(); m != nil && m.Text != "" {
			msg = m
		}
	}
	s.current.update(func(c *models.Snapshot) { c.Msg = msg })
	s.record.Msg = msg
}

func (s *Service) isLogging() bool {
	return s.reader != nil && s.reader.IsLogging()
}

func (s *Service) disableLogging() {
	if s.isLogging() {
		s.reader.EnableLogging(false)
		s.logger.Info("Log streaming disabled")
	}
}
