package orchestrator

import "sync/atomic"

// JobLock provides non-blocking lock semantics using atomic operations.
// Servers hold it for the duration of a job so that a second request fails
// fast instead of queueing.
type JobLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *JobLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *JobLock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently held
func (l *JobLock) Held() bool {
	return l.state.Load() == 1
}
