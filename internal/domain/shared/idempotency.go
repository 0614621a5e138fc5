package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys for a bounded time so a retried
// request can be answered with the result of the first attempt.
type IdempotencyStore interface {
	// Remember stores value under key if the key is unused.
	// Returns true if the key was newly stored.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Lookup returns the value stored under key and whether it exists
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Forget removes key, used when the guarded operation failed
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
