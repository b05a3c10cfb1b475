package locks

import (
	"sync"
)

// Keyed provides a mutex per aggregate id so operations on the same
// application are linearized without a global lock. Entries are created on
// first use and never removed; the id space is bounded by the number of
// applications, so the map stays small relative to the data it guards.
type Keyed struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewKeyed creates an empty keyed lock set.
func NewKeyed() *Keyed {
	return &Keyed{
		locks: make(map[uint]*sync.Mutex),
	}
}

// Lock acquires the mutex for id, creating it if needed.
func (k *Keyed) Lock(id uint) {
	k.get(id).Lock()
}

// Unlock releases the mutex for id.
func (k *Keyed) Unlock(id uint) {
	k.get(id).Unlock()
}

func (k *Keyed) get(id uint) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	return m
}
