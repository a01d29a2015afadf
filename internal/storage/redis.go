// ABOUTME: Redis-backed Store for sharing a session between machines or containers
// ABOUTME: Keys are namespaced with a configurable prefix and never expire

package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a redis backed Store.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. Every key is stored as prefix+key.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Get returns the value stored for key. A missing key is reported
// as not found rather than as an error.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set stores value without expiration; the server decides when a token dies.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.prefix+key, value, 0).Err()
}

// Delete removes key. Missing keys are a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
