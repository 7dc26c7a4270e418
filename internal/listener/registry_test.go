package listener

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_NotifiesInRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	var order []string
	r.Register(Func(func(int64) { order = append(order, "a") }))
	r.Register(Func(func(int64) { order = append(order, "b") }))
	r.Register(Func(func(int64) { order = append(order, "c") }))

	assert.Zero(t, r.NotifyAll(1))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRegistry_FaultyListenerIsIsolated(t *testing.T) {
	r := NewRegistry(nil)
	var after atomic.Int64
	var passed int64
	r.Register(Func(func(now int64) { passed = now }))
	r.Register(Func(func(int64) { panic("broken widget") }))
	r.Register(Func(func(int64) { after.Add(1) }))

	assert.Equal(t, 1, r.NotifyAll(42))
	assert.Equal(t, 1, r.NotifyAll(43))
	assert.Equal(t, int64(2), after.Load())
	assert.Equal(t, int64(43), passed)
}

func TestDriver_KeepsTickingAfterFault(t *testing.T) {
	r := NewRegistry(nil)
	var calls atomic.Int64
	r.Register(Func(func(int64) { panic("always") }))
	r.Register(Func(func(int64) { calls.Add(1) }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewDriver(r, time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 5 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestNewDriver_DefaultCadence(t *testing.T) {
	d := NewDriver(NewRegistry(nil), 0)
	assert.Equal(t, DefaultCadence, d.cadence)
}

func TestDriver_PassesNanotime(t *testing.T) {
	r := NewRegistry(nil)
	var tick atomic.Int64
	seen := make(chan int64, 16)
	r.Register(Func(func(now int64) {
		select {
		case seen <- now:
		default:
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewDriver(r, time.Millisecond, WithNanotime(func() int64 { return tick.Add(10) })).Run(ctx)

	first := <-seen
	second := <-seen
	assert.Equal(t, int64(10), first)
	assert.Greater(t, second, first)
}

func TestNewDriver_DefaultNanotimeIsMonotonic(t *testing.T) {
	d := NewDriver(NewRegistry(nil), 0)
	a := d.now()
	b := d.now()
	assert.GreaterOrEqual(t, a, int64(0))
	assert.GreaterOrEqual(t, b, a)
}
