package indexer

import (
	"sync"
	"sync/atomic"
)

// ScanLock provides non-blocking lock semantics using atomic operations.
type ScanLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *ScanLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *ScanLock) Release() {
	l.state.Store(0)
}

// lockTable holds one ScanLock per project so concurrent scans of
// different projects proceed while a second scan of the same project
// is rejected.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*ScanLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*ScanLock)}
}

// get returns the lock for a project, creating it on first use
func (t *lockTable) get(projectID string) *ScanLock {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[projectID]
	if !ok {
		lock = &ScanLock{}
		t.locks[projectID] = lock
	}
	return lock
}
