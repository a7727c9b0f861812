package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// RedisStore implements Store via Redis SET NX with TTL. Expiry is handled
// by Redis itself, so reclaim of a crashed holder's lock is implicit: the
// key simply disappears when the TTL elapses.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed lock store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func lockKey(typ domain.LockType, key string) string {
	return fmt.Sprintf("lock:%s:%s", typ, key)
}

func (s *RedisStore) TryAcquire(ctx context.Context, key string, typ domain.LockType, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(typ, key), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", lockKey(typ, key), err)
	}
	return ok, nil
}

// Release deletes the lock only if we still own it (Lua for atomicity).
func (s *RedisStore) Release(ctx context.Context, key string, typ domain.LockType, owner string) error {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
	_, err := script.Run(ctx, s.client, []string{lockKey(typ, key)}, owner).Result()
	return err
}
