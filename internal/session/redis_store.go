package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/movement-pass/passctl/internal/config"
)

// RedisStore keeps the token in Redis under StorageKey, for setups where
// the session is shared between hosts (e.g. kiosk fleets).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis using the provided configuration. A zero
// ttl stores the token without expiry; the cache still lazily invalidates
// by the token's own exp claim.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, ttl: ttl}
}

// Read returns the stored token, if any.
func (s *RedisStore) Read(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, StorageKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

// Write persists the token.
func (s *RedisStore) Write(ctx context.Context, token string) error {
	return s.client.Set(ctx, StorageKey, token, s.ttl).Err()
}

// Clear removes the token.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, StorageKey).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
