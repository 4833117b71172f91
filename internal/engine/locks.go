package engine

import "sync"

// lockTable hands out one mutex per instrument. Matching and cancels for the
// same instrument serialize on it; different instruments proceed in parallel.
type lockTable struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uint]*sync.Mutex)}
}

// Get returns the mutex for an instrument, creating it on first use.
// Locks are never removed; the instrument set is small and bounded.
func (t *lockTable) Get(instrumentID uint) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[instrumentID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[instrumentID] = l
	}
	return l
}
