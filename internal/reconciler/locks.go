// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package reconciler

import (
	"fmt"
	"sync"

	"github.com/tomtom215/rollcall/internal/models"
)

// keyLocks serializes writers per (category, person, month). Both directions
// share a key because reconciliation writes them together. Entries are
// reference counted and dropped once unused. The mutexes are not reentrant.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

func lockKey(cat models.Category, person string, month int) string {
	return fmt.Sprintf("%s|%s|%d", cat, person, month)
}

// lock acquires the mutex for key and returns its release function.
func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size returns the number of keys currently held or awaited.
func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// Lock takes the writer lock for one person and month and returns its
// release function. Monthly and ForceRefresh take it themselves; the recorder
// holds it across a whole mark so a refresh cannot interleave.
func (r *Reconciler) Lock(cat models.Category, person string, month int) (release func()) {
	return r.locks.lock(lockKey(cat, person, month))
}
