// Package locking serializes copay computation per patient. The copayment
// clamp reads already-billed copays and then writes a new one; without a
// per-patient critical section two concurrent billing runs could both read
// the same remaining allowance and overshoot the statutory ceiling.
package locking

import (
	"context"
	"sync"
)

// Locker acquires a named critical section. The returned release function
// must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// keyedMutex is the in-process fallback used when no redis is configured.
// Sufficient for a single instance; multi-instance deployments configure
// the redis locker instead.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() Locker {
	return &keyedMutex{locks: map[string]*entry{}}
}

func (k *keyedMutex) Acquire(_ context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}, nil
}
