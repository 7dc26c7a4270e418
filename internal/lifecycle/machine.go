package lifecycle

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// stopTaskName identifies the deferred stop in the Deferrer.
const stopTaskName = "recorder-post-collect-stop"

// Deferrer runs a named task once after a delay.
type Deferrer interface {
	AddSingleTask(name string, delay time.Duration, fn func()) (cancel func())
}

// Observer is notified after every state change.
type Observer func(old, new State)

// Machine holds the one collection state and applies transitions to it.
// All methods are safe for concurrent use.
type Machine struct {
	mu         sync.Mutex
	state      State
	cancelStop func()
	stopGen    uint64
	session    uint64

	deferrer  Deferrer
	observers []Observer
	logger    *zap.Logger
}

// NewMachine creates a machine in the Stopped state.
func NewMachine(deferrer Deferrer, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		state:    Stopped,
		deferrer: deferrer,
		logger:   logger,
	}
}

// OnChange registers an observer. Observers run on the goroutine that
// caused the transition, after the machine lock is released.
func (m *Machine) OnChange(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins a session. From Stopped, prepare runs under the machine lock,
// the session number is bumped and the machine enters ReadingHeader; it
// reports true. In any other state
// a pending deferred stop is cancelled, POST_COLLECTING returns to
// COLLECTING, and Start reports false.
func (m *Machine) Start(prepare func()) (fresh bool) {
	m.mu.Lock()
	m.cancelPendingLocked()

	old := m.state
	switch old {
	case Stopped:
		if prepare != nil {
			prepare()
		}
		m.session++
		m.state = ReadingHeader
		fresh = true
	case PostCollecting:
		m.state = Collecting
	}
	notify := m.snapshotLocked(old)
	m.mu.Unlock()

	notify()
	return fresh
}

// Session returns the current state together with the number of the
// session most recently begun from Stopped.
func (m *Machine) Session() (State, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.session
}

// Advance moves a starting session to Collecting. It reports whether the
// transition happened.
func (m *Machine) Advance() bool {
	m.mu.Lock()
	old := m.state
	if !old.starting() {
		m.mu.Unlock()
		return false
	}
	m.state = Collecting
	notify := m.snapshotLocked(old)
	m.mu.Unlock()

	notify()
	return true
}

// Stop moves to Stopped immediately. Calling it while Stopped has no effect.
func (m *Machine) Stop() {
	m.mu.Lock()
	m.cancelPendingLocked()
	old := m.state
	m.state = Stopped
	notify := m.snapshotLocked(old)
	m.mu.Unlock()

	notify()
}

// StopAfter moves to PostCollecting and schedules the transition to
// Stopped after delay. A session still starting passes through Collecting
// first. A non-positive delay stops immediately. Calling it while Stopped
// has no effect.
func (m *Machine) StopAfter(delay time.Duration) {
	if delay <= 0 || m.deferrer == nil {
		m.Stop()
		return
	}

	m.mu.Lock()
	old := m.state
	if old == Stopped {
		m.mu.Unlock()
		return
	}
	m.cancelPendingLocked()
	notifyCollecting := func() {}
	if old.starting() {
		m.state = Collecting
		notifyCollecting = m.snapshotLocked(old)
		old = Collecting
	}
	m.state = PostCollecting
	gen := m.stopGen
	m.cancelStop = m.deferrer.AddSingleTask(stopTaskName, delay, func() { m.deferredStop(gen) })
	notify := m.snapshotLocked(old)
	m.mu.Unlock()

	m.logger.Info("Collection stopping after grace period", zap.Duration("delay", delay))
	notifyCollecting()
	notify()
}

// deferredStop stops the session unless the deferred stop scheduled under
// gen was cancelled after its timer had already fired.
func (m *Machine) deferredStop(gen uint64) {
	m.mu.Lock()
	if gen != m.stopGen {
		m.mu.Unlock()
		return
	}
	m.cancelStop = nil
	old := m.state
	m.state = Stopped
	notify := m.snapshotLocked(old)
	m.mu.Unlock()

	notify()
}

// WhileActive runs fn with the machine locked if the state is not Stopped
// and reports whether fn ran. No transition can interleave with fn.
func (m *Machine) WhileActive(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Active() {
		return false
	}
	fn()
	return true
}

// WhileSession is WhileActive restricted to the given session. It refuses
// to run fn once the session has been stopped and a new one begun.
func (m *Machine) WhileSession(session uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Active() || m.session != session {
		return false
	}
	fn()
	return true
}

// WhileStopped runs fn with the machine locked if the state is Stopped and
// reports whether fn ran.
func (m *Machine) WhileStopped(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Active() {
		return false
	}
	fn()
	return true
}

// ForceStopped runs fn under the machine lock after moving to Stopped.
func (m *Machine) ForceStopped(fn func()) {
	m.mu.Lock()
	m.cancelPendingLocked()
	old := m.state
	m.state = Stopped
	if fn != nil {
		fn()
	}
	notify := m.snapshotLocked(old)
	m.mu.Unlock()

	notify()
}

func (m *Machine) cancelPendingLocked() {
	m.stopGen++
	if m.cancelStop != nil {
		m.cancelStop()
		m.cancelStop = nil
	}
}

// snapshotLocked captures the observers to notify for a transition from old
// to the current state. It returns a no-op when nothing changed.
func (m *Machine) snapshotLocked(old State) func() {
	now := m.state
	if old == now || len(m.observers) == 0 {
		return func() {}
	}
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	return func() {
		for _, fn := range observers {
			fn(old, now)
		}
	}
}
