package telemetry

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalis-app/flightrec/internal/models"
)

// simulatedLinkRate is the nominal telemetry throughput of the simulated
// link in bytes per second.
const simulatedLinkRate = 28_800

// Simulator is an in-process vehicle that flies a slow circle. It is used by
// the command in --simulate mode and by tests to drive the recorder.
type Simulator struct {
	connected atomic.Bool
	armed     atomic.Bool
	replaying atomic.Bool
	imu       atomic.Bool
	closed    atomic.Bool
	conflicts atomic.Int64

	origin time.Time
	now    func() time.Time

	mu          sync.Mutex
	subscribers []func(Event)
	pending     *models.LogMessage
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSimulatorClock replaces the wall clock used to compute readings.
func WithSimulatorClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator creates a disconnected, disarmed simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.origin = s.now()
	return s
}

// Subscribe registers fn for every state change event.
func (s *Simulator) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Simulator) emit(e Event) {
	s.mu.Lock()
	subs := make([]func(Event), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

func (s *Simulator) toggle(flag *atomic.Bool, v bool, on, off Event) {
	if flag.Swap(v) == v {
		return
	}
	if v {
		s.emit(on)
	} else {
		s.emit(off)
	}
}

// SetConnected changes the link state. A new connection is followed by
// EventIMUAvailable once the simulated vehicle reports its sensors.
func (s *Simulator) SetConnected(v bool) {
	s.toggle(&s.connected, v, EventConnected, EventDisconnected)
	if v && s.imu.CompareAndSwap(false, true) {
		s.emit(EventIMUAvailable)
	}
	if !v {
		s.imu.Store(false)
	}
}

// SetArmed changes the vehicle arm state.
func (s *Simulator) SetArmed(v bool) {
	s.toggle(&s.armed, v, EventArmed, EventDisarmed)
}

// SetReplaying changes the replay state.
func (s *Simulator) SetReplaying(v bool) {
	s.toggle(&s.replaying, v, EventReplayStarted, EventReplayFinished)
}

// Post queues a text message for the next LatestMessage call.
func (s *Simulator) Post(text string, severity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &models.LogMessage{Text: text, Severity: severity, Timestamp: s.now()}
}

// InjectReadConflicts makes the next n CurrentValues calls fail with
// ErrReadConflict.
func (s *Simulator) InjectReadConflicts(n int) {
	s.conflicts.Store(int64(n))
}

// Close makes every further read fail with ErrSourceClosed.
func (s *Simulator) Close() {
	s.closed.Store(true)
	s.SetConnected(false)
}

// IsConnected implements Source.
func (s *Simulator) IsConnected() bool { return s.connected.Load() }

// IsArmed implements Source.
func (s *Simulator) IsArmed() bool { return s.armed.Load() }

// IsReplaying implements Source.
func (s *Simulator) IsReplaying() bool { return s.replaying.Load() }

// TransferRate implements Source.
func (s *Simulator) TransferRate() float64 {
	if !s.IsConnected() {
		return 0
	}
	return simulatedLinkRate
}

// CurrentValues implements Source.
func (s *Simulator) CurrentValues() (models.KeyFigures, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}
	if s.conflicts.Load() > 0 && s.conflicts.Add(-1) >= 0 {
		return nil, fmt.Errorf("simulator: %w", ErrReadConflict)
	}
	return s.Reading().KeyFigures(), nil
}

// LatestMessage implements MessageSource.
func (s *Simulator) LatestMessage() *models.LogMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.pending
	s.pending = nil
	return m
}

// Reading computes the simulated sensor state at the current time.
func (s *Simulator) Reading() *Telemetry {
	now := s.now()
	t := now.Sub(s.origin).Seconds()

	const radius, period = 20.0, 60.0
	w := 2 * math.Pi / period
	alt := 0.0
	if s.IsArmed() {
		alt = 10 + 2*math.Sin(w*t)
	}
	roll := 5 * math.Sin(w*t)
	pitch := 3 * math.Cos(w*t)
	yaw := math.Mod(t/period*360, 360)
	vx := -radius * w * math.Sin(w*t)
	vy := radius * w * math.Cos(w*t)
	lat := 47.3977 + radius*math.Cos(w*t)/111_111
	lon := 8.5456 + radius*math.Sin(w*t)/75_000
	volt := 16.8 - 0.002*t
	cur := 0.4
	if s.IsArmed() {
		cur = 12 + math.Abs(roll)
	}
	rssi := int64(-60 - 5*math.Abs(math.Sin(w*t/3)))

	return &Telemetry{
		Timestamp:      now,
		Altitude:       &alt,
		Roll:           &roll,
		Pitch:          &pitch,
		Yaw:            &yaw,
		VX:             &vx,
		VY:             &vy,
		Latitude:       &lat,
		Longitude:      &lon,
		BatteryVoltage: &volt,
		BatteryCurrent: &cur,
		RadioRSSI:      &rssi,
	}
}
