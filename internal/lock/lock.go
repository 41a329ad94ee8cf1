// Package lock provides named, time-bounded mutual exclusion for transfer
// invocations. Acquisition that times out is an expected outcome under
// contention, never an error.
package lock

import (
	"context"
	"sync"
	"time"
)

// Lock is one named mutual-exclusion handle. Exactly one holder at a time;
// callers release on every exit path.
type Lock interface {
	// TryAcquire waits up to timeout for the lock. It returns false, nil
	// when the wait expires without acquisition.
	TryAcquire(ctx context.Context, timeout time.Duration) (bool, error)
	// Release gives the lock back. Releasing an unheld lock is a no-op.
	Release() error
}

// Manager hands out locks by name.
type Manager interface {
	Named(name string) Lock
}

// retryInterval is the pause between acquisition attempts while the
// deadline has not passed.
const retryInterval = 50 * time.Millisecond

// MemoryManager serializes invocations inside one process.
type MemoryManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryManager creates an in-process lock manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{locks: make(map[string]*sync.Mutex)}
}

// Named implements Manager.
func (m *MemoryManager) Named(name string) Lock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return &memoryLock{mu: l}
}

type memoryLock struct {
	mu   *sync.Mutex
	held bool
}

func (l *memoryLock) TryAcquire(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if l.mu.TryLock() {
			l.held = true
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}

		wait := retryInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *memoryLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	l.mu.Unlock()
	return nil
}
