// Package listener fans out periodic refresh calls to display consumers.
// The fan-out runs on its own cadence, independent of the sampling
// interval.
package listener

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Listener is a consumer refreshed at a fixed cadence. Update must not
// block.
type Listener interface {
	Update(nowNanos int64)
}

// Func adapts a plain function to the Listener interface.
type Func func(nowNanos int64)

// Update calls f.
func (f Func) Update(nowNanos int64) { f(nowNanos) }

// Registry manages registered listeners and invokes them in registration
// order.
type Registry struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *zap.Logger
}

// NewRegistry creates a new listener registry with the given logger.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// Register adds l to the end of the notification order.
func (r *Registry) Register(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()

	r.logger.Debug("Registered listener", zap.String("listener", fmt.Sprintf("%T", l)))
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// NotifyAll calls Update on every listener. A listener that panics is
// logged and skipped; the remaining listeners are still called. It returns
// the number of listeners that failed.
func (r *Registry) NotifyAll(nowNanos int64) int {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	failed := 0
	for _, l := range listeners {
		if !r.notify(l, nowNanos) {
			failed++
		}
	}
	return failed
}

func (r *Registry) notify(l Listener, nowNanos int64) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Listener update failed",
				zap.String("listener", fmt.Sprintf("%T", l)),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			ok = false
		}
	}()
	l.Update(nowNanos)
	return true
}
