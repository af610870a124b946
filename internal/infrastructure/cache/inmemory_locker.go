package cache

import (
	"context"
	"sync"
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
)

// InMemoryLocker implements shared.Locker with a process-local map.
// It only serialises callers inside one process.
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> expiry
	now   func() time.Time
}

// NewInMemoryLocker creates an empty in-process locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire takes key unless a live lock exists. Expired locks are overwritten.
func (l *InMemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, held := l.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)
	return true, nil
}

// Release drops key
func (l *InMemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

// Close drops every lock
func (l *InMemoryLocker) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks = make(map[string]time.Time)
	return nil
}

var _ shared.Locker = (*InMemoryLocker)(nil)
