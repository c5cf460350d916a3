// Package keylock serializes work per key (an order id, a user id) inside one process.
//
// Each key owns a one-slot semaphore. Lock waits for the slot or for the context,
// so a caller never blocks past its deadline. Entries are reference counted and
// stay cached after release; Prune drops the ones nobody holds or waits on.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Locker hands out exclusive per-key locks. The zero value is not usable; use New.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty Locker.
func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Lock acquires the lock for key and returns its release function; extra calls to the
// release function are no-ops. If ctx ends first, Lock returns ctx.Err() and holds nothing.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(e)
		})
	}, nil
}

func (l *Locker) release(e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
}

// Prune removes idle entries and returns how many were dropped.
func (l *Locker) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	dropped := 0
	for key, e := range l.entries {
		if e.refs == 0 {
			delete(l.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of cached keys.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
