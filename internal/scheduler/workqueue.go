package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// WorkQueue runs named single-shot tasks after a delay. Scheduling a task
// under a name that is already pending replaces the pending one.
type WorkQueue struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	logger  *zap.Logger
}

// NewWorkQueue creates an empty queue.
func NewWorkQueue(logger *zap.Logger) *WorkQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkQueue{
		pending: make(map[string]*time.Timer),
		logger:  logger,
	}
}

// AddSingleTask schedules fn to run once after delay. The returned function
// cancels the task if it has not started yet.
func (q *WorkQueue) AddSingleTask(name string, delay time.Duration, fn func()) (cancel func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.pending[name]; ok {
		prev.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		if q.pending[name] != timer {
			q.mu.Unlock()
			return
		}
		delete(q.pending, name)
		q.mu.Unlock()

		q.logger.Debug("Running delayed task", zap.String("task", name))
		fn()
	})
	q.pending[name] = timer

	return func() { q.Cancel(name, timer) }
}

// Cancel stops the pending task registered under name by timer.
func (q *WorkQueue) Cancel(name string, timer *time.Timer) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[name] == timer {
		timer.Stop()
		delete(q.pending, name)
	}
}

// Pending reports whether a task is scheduled under name.
func (q *WorkQueue) Pending(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[name]
	return ok
}

// Stop cancels every pending task.
func (q *WorkQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for name, t := range q.pending {
		t.Stop()
		delete(q.pending, name)
	}
}
