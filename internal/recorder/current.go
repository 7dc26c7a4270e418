package recorder

import (
	"sync"

	"github.com/vitalis-app/flightrec/internal/models"
)

// liveSnapshot is the continuously overwritten view of the freshest values.
// Readers only ever receive detached copies.
type liveSnapshot struct {
	mu sync.RWMutex
	s  models.Snapshot
}

func newLiveSnapshot() *liveSnapshot {
	return &liveSnapshot{s: models.NewSnapshot()}
}

func (c *liveSnapshot) update(fn func(*models.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.s)
}

func (c *liveSnapshot) clone() models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Clone()
}

func (c *liveSnapshot) set(s models.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s.Clone()
}

func (c *liveSnapshot) reset() {
	c.set(models.NewSnapshot())
}
