package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/repo_interfaces"
)

type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope string, key string) (bool, error) {
	return s.rdb.SetNX(ctx, "idemp:"+scope+":"+key, "1", s.ttl).Result()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, scope string, key string) error {
	return s.rdb.Del(ctx, "idemp:"+scope+":"+key).Err()
}

var _ repo_interfaces.IdempotencyStore = (*RedisIdempotencyStore)(nil)
