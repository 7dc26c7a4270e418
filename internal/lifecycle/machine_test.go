package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/flightrec/internal/scheduler"
)

type fakeDeferrer struct {
	delay     time.Duration
	fn        func()
	cancelled int
}

func (d *fakeDeferrer) AddSingleTask(_ string, delay time.Duration, fn func()) func() {
	d.delay = delay
	d.fn = fn
	return func() { d.cancelled++ }
}

type transition struct{ from, to State }

func recordTransitions(m *Machine) *[]transition {
	var seen []transition
	m.OnChange(func(old, new State) { seen = append(seen, transition{old, new}) })
	return &seen
}

func TestMachine_StartEmitsReadingHeaderThenCollecting(t *testing.T) {
	m := NewMachine(&fakeDeferrer{}, nil)
	seen := recordTransitions(m)

	prepared := false
	assert.True(t, m.Start(func() { prepared = true }))
	assert.True(t, prepared)
	assert.Equal(t, ReadingHeader, m.State())

	assert.True(t, m.Advance())
	assert.False(t, m.Advance())
	assert.Equal(t, Collecting, m.State())

	assert.Equal(t, []transition{{Stopped, ReadingHeader}, {ReadingHeader, Collecting}}, *seen)
}

func TestMachine_StartWhileActiveDoesNotPrepare(t *testing.T) {
	m := NewMachine(&fakeDeferrer{}, nil)
	m.Start(nil)
	m.Advance()

	assert.False(t, m.Start(func() { t.Fatal("prepare must not run") }))
	assert.Equal(t, Collecting, m.State())
}

func TestMachine_StopIsIdempotent(t *testing.T) {
	m := NewMachine(&fakeDeferrer{}, nil)
	seen := recordTransitions(m)

	m.Stop()
	m.StopAfter(2 * time.Second)

	assert.Equal(t, Stopped, m.State())
	assert.Empty(t, *seen)
}

func TestMachine_StopAfterDefersTransition(t *testing.T) {
	d := &fakeDeferrer{}
	m := NewMachine(d, nil)
	m.Start(nil)
	m.Advance()

	m.StopAfter(2 * time.Second)
	assert.Equal(t, PostCollecting, m.State())
	assert.Equal(t, 2*time.Second, d.delay)
	require.NotNil(t, d.fn)

	d.fn()
	assert.Equal(t, Stopped, m.State())
}

func TestMachine_StopAfterWhileStartingPassesThroughCollecting(t *testing.T) {
	d := &fakeDeferrer{}
	m := NewMachine(d, nil)
	m.Start(nil)
	seen := recordTransitions(m)

	m.StopAfter(time.Second)
	assert.Equal(t, PostCollecting, m.State())
	assert.False(t, m.Advance())
	assert.Equal(t, []transition{{ReadingHeader, Collecting}, {Collecting, PostCollecting}}, *seen)
}

func TestMachine_SessionBumpsOnlyOnFreshStart(t *testing.T) {
	m := NewMachine(&fakeDeferrer{}, nil)
	state, first := m.Session()
	assert.Equal(t, Stopped, state)

	m.Start(nil)
	_, s1 := m.Session()
	assert.Equal(t, first+1, s1)

	m.StopAfter(time.Second)
	m.Start(nil)
	_, resumed := m.Session()
	assert.Equal(t, s1, resumed)

	m.Stop()
	m.Start(nil)
	state, s2 := m.Session()
	assert.Equal(t, ReadingHeader, state)
	assert.Equal(t, s1+1, s2)
}

func TestMachine_WhileSessionRejectsReplacedSession(t *testing.T) {
	m := NewMachine(&fakeDeferrer{}, nil)
	m.Start(nil)
	_, stale := m.Session()

	assert.True(t, m.WhileSession(stale, func() {}))

	m.Stop()
	assert.False(t, m.WhileSession(stale, func() { t.Fatal("must not run while stopped") }))

	m.Start(nil)
	_, current := m.Session()
	assert.False(t, m.WhileSession(stale, func() { t.Fatal("must not run for a replaced session") }))
	assert.True(t, m.WhileSession(current, func() {}))
}

func TestMachine_StartCancelsDeferredStop(t *testing.T) {
	d := &fakeDeferrer{}
	m := NewMachine(d, nil)
	m.Start(nil)
	m.Advance()
	m.StopAfter(time.Second)

	m.Start(nil)
	assert.Equal(t, Collecting, m.State())
	assert.Equal(t, 1, d.cancelled)

	// A timer that already fired must not stop the resumed session.
	d.fn()
	assert.Equal(t, Collecting, m.State())
}

func TestMachine_StopAfterZeroStopsNow(t *testing.T) {
	m := NewMachine(&fakeDeferrer{}, nil)
	m.Start(nil)

	m.StopAfter(0)
	assert.Equal(t, Stopped, m.State())
}

func TestMachine_StopAfterWithWorkQueueHonoursDelay(t *testing.T) {
	q := scheduler.NewWorkQueue(nil)
	defer q.Stop()
	m := NewMachine(q, nil)
	m.Start(nil)
	m.Advance()

	stopped := make(chan time.Time, 1)
	m.OnChange(func(_, new State) {
		if new == Stopped {
			stopped <- time.Now()
		}
	})

	begin := time.Now()
	m.StopAfter(200 * time.Millisecond)
	assert.Equal(t, PostCollecting, m.State())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, PostCollecting, m.State())

	select {
	case at := <-stopped:
		assert.GreaterOrEqual(t, at.Sub(begin), 200*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("deferred stop did not fire")
	}
}

func TestMachine_GuardedSections(t *testing.T) {
	m := NewMachine(nil, nil)

	assert.False(t, m.WhileActive(func() {}))
	assert.True(t, m.WhileStopped(func() {}))

	m.Start(nil)
	assert.True(t, m.WhileActive(func() {}))
	assert.False(t, m.WhileStopped(func() {}))

	ran := false
	m.ForceStopped(func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, Stopped, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "POST_COLLECTING", PostCollecting.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
