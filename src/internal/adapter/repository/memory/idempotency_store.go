package memory

import (
	"context"
	"sync"
)

// IdempotencyStore is the single-node fallback used when no Redis address
// is configured.
type IdempotencyStore struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{locks: make(map[string]struct{})}
}

func (s *IdempotencyStore) TryLock(_ context.Context, scope string, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockKey := scope + ":" + key
	if _, held := s.locks[lockKey]; held {
		return false, nil
	}
	s.locks[lockKey] = struct{}{}
	return true, nil
}

func (s *IdempotencyStore) Release(_ context.Context, scope string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, scope+":"+key)
	return nil
}
