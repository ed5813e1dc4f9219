// Package locks provides per-key mutexes. The deal id is the
// serialization point for status transitions and cascade deletes; a
// global lock would couple unrelated deals.
package locks

import "sync"

type Keyed struct {
	mu    sync.Mutex
	locks map[uint]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[uint]*entry)}
}

// Lock acquires the mutex for key, blocking until it is free.
func (k *Keyed) Lock(key uint) {
	k.mu.Lock()
	e := k.locks[key]
	if e == nil {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()
	e.mu.Lock()
}

// Unlock releases the mutex for key and frees it once nobody waits.
func (k *Keyed) Unlock(key uint) {
	k.mu.Lock()
	e := k.locks[key]
	if e == nil {
		k.mu.Unlock()
		panic("locks: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
	e.mu.Unlock()
}
