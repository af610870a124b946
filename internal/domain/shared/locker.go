package shared

import (
	"context"
	"time"
)

// Locker provides short-lived mutual exclusion keyed by string.
// Implementations must be safe across processes when used for cross-instance guards.
type Locker interface {
	// Acquire takes the lock for key until ttl elapses or Release is called.
	// Returns false without error when another holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the lock for key. Releasing an unheld key is a no-op.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the locker
	Close() error
}
