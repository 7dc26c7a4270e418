// Package timeline holds the ordered history of collected snapshots.
//
// A Timeline has a single logical writer (the recorder worker) and any number
// of readers. Appended snapshots are never modified or removed except by a
// full Clear or Replace, so readers can index into the published slice
// without taking a lock; only the publication of a new length is
// synchronized.
package timeline

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vitalis-app/flightrec/internal/models"
)

// ErrOutOfOrder is returned when snapshots would break chronological order.
var ErrOutOfOrder = errors.New("timeline: snapshot timestamps out of order")

const initialCapacity = 50000

// Timeline is an append-only, time-ordered store of snapshots.
type Timeline struct {
	mu    sync.Mutex // serializes writers
	items atomic.Pointer[[]models.Snapshot]
}

// New creates an empty timeline.
func New() *Timeline {
	t := &Timeline{}
	empty := make([]models.Snapshot, 0, initialCapacity)
	t.items.Store(&empty)
	return t
}

func (t *Timeline) load() []models.Snapshot {
	return *t.items.Load()
}

// Len returns the number of snapshots.
func (t *Timeline) Len() int {
	return len(t.load())
}

// At returns the snapshot at index i.
func (t *Timeline) At(i int) (models.Snapshot, bool) {
	items := t.load()
	if i < 0 || i >= len(items) {
		return models.Snapshot{}, false
	}
	return items[i], true
}

// Last returns the most recently appended snapshot.
func (t *Timeline) Last() (models.Snapshot, bool) {
	items := t.load()
	if len(items) == 0 {
		return models.Snapshot{}, false
	}
	return items[len(items)-1], true
}

// Append adds s to the end of the timeline. The caller hands over ownership
// of s and must not modify it afterwards.
func (t *Timeline) Append(s models.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := t.load()
	if n := len(items); n > 0 && s.TimestampUs < items[n-1].TimestampUs {
		return ErrOutOfOrder
	}
	// Writes beyond the published length are invisible to readers, so
	// appending into spare capacity is safe.
	items = append(items, s)
	t.items.Store(&items)
	return nil
}

// Clear drops every snapshot. It must only be called while no reader is
// iterating.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	empty := make([]models.Snapshot, 0, initialCapacity)
	t.items.Store(&empty)
}

// Replace swaps the whole content for list. The list must be in
// chronological order; otherwise the timeline is left empty and
// ErrOutOfOrder is returned.
func (t *Timeline) Replace(list []models.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]models.Snapshot, 0, max(len(list), initialCapacity))
	for i, s := range list {
		if i > 0 && s.TimestampUs < list[i-1].TimestampUs {
			empty := items[:0]
			t.items.Store(&empty)
			return ErrOutOfOrder
		}
		items = append(items, s)
	}
	t.items.Store(&items)
	return nil
}

// DurationMs returns the timestamp of the last snapshot in milliseconds.
func (t *Timeline) DurationMs() int64 {
	last, ok := t.Last()
	if !ok {
		return 0
	}
	return last.TimestampUs / 1000
}
