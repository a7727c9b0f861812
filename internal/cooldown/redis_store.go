package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// RedisStore implements Store via plain SET with TTL. Redis expires keys
// natively, so lazy expiry and cleanup come for free.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed cooldown store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cooldownKey(typ domain.CooldownType, key string) string {
	return fmt.Sprintf("cooldown:%s:%s", typ, key)
}

func (s *RedisStore) Active(ctx context.Context, key string, typ domain.CooldownType) (bool, error) {
	n, err := s.client.Exists(ctx, cooldownKey(typ, key)).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown exists %s: %w", cooldownKey(typ, key), err)
	}
	return n > 0, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, typ domain.CooldownType, ttl time.Duration) error {
	return s.client.Set(ctx, cooldownKey(typ, key), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, key string, typ domain.CooldownType) error {
	return s.client.Del(ctx, cooldownKey(typ, key)).Err()
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (s *RedisStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
