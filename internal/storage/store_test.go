// ABOUTME: Tests for the key-value store backends
// ABOUTME: Runs one behavioural suite against file, memory and (optionally) redis stores

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poremland/open-rss-client/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, found, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "authToken", "abc123"))
		v, found, err := s.Get(ctx, "authToken")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "abc123", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "user", "alice"))
		require.NoError(t, s.Set(ctx, "user", "bob"))
		v, _, err := s.Get(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, "bob", v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "feed", "1"))
		require.NoError(t, s.Delete(ctx, "feed"))
		_, found, err := s.Get(ctx, "feed")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete missing is no-op", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "never-set"))
	})

	t.Run("empty value is still found", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "serverUrl", ""))
		_, found, err := s.Get(ctx, "serverUrl")
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	runStoreSuite(t, NewFileStore(t.TempDir()))
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, NewFileStore(dir).Set(ctx, "authToken", "persisted"))

	v, found, err := NewFileStore(dir).Get(ctx, "authToken")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", v)

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCorruptFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0600))

	s := NewFileStore(dir)
	_, found, err := s.Get(context.Background(), "authToken")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(context.Background(), "authToken", "fresh"))
	v, _, err := s.Get(context.Background(), "authToken")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestFileStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileStore(t.TempDir()).Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("RSS_READER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RSS_READER_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStore(rdb, "rss-reader-test:"+t.Name()+":")
	defer s.Close()

	runStoreSuite(t, s)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    any
		wantErr bool
	}{
		{"file", config.Config{Store: config.StoreFile, ConfigDir: t.TempDir()}, &FileStore{}, false},
		{"default", config.Config{ConfigDir: t.TempDir()}, &FileStore{}, false},
		{"memory", config.Config{Store: config.StoreMemory}, &MemoryStore{}, false},
		{"redis", config.Config{Store: config.StoreRedis, RedisAddr: "localhost:0"}, &RedisStore{}, false},
		{"unknown", config.Config{Store: "etcd"}, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(&tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, s)
		})
	}
}
