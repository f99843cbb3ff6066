package repo_interfaces

import "context"

// IdempotencyStore guards an operation keyed by transaction id against
// concurrent duplicate submission across server instances. TryLock returns
// false when another holder already owns the key.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope string, key string) (bool, error)
	Release(ctx context.Context, scope string, key string) error
}
