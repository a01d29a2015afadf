// ABOUTME: Persistent key-value storage used for session and server settings
// ABOUTME: Defines the Store interface and selects a backend from configuration

package storage

import (
	"context"
	"fmt"

	"github.com/poremland/open-rss-client/internal/config"
	"github.com/redis/go-redis/v9"
)

// Store persists small string values by key.
//
// Writes to different keys are independent: there is no transaction spanning
// several keys, so callers that update more than one key may leave partial
// state behind if a later write fails.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Open returns the Store selected by cfg.Store
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedisStore(rdb, cfg.RedisPrefix), nil
	case config.StoreFile, "":
		return NewFileStore(cfg.ConfigDir), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
