// ABOUTME: Shared setup for command tests
// ABOUTME: Points the commands at a fake server and a shared in-memory session store

package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/poremland/open-rss-client/internal/config"
	"github.com/poremland/open-rss-client/internal/session"
	"github.com/poremland/open-rss-client/internal/storage"
	"github.com/poremland/open-rss-client/internal/testutil"
)

func setupCLI(t *testing.T, loggedIn bool) (*testutil.FakeAPI, storage.Store) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	store := storage.NewMemoryStore()

	prevCfg, prevOpen := cfg, openStore
	cfg = &config.Config{
		ServerURL:         api.URL(),
		HTTPTimeout:       5 * time.Second,
		Retries:           1,
		Store:             config.StoreMemory,
		DeleteConcurrency: 2,
	}
	openStore = func(*config.Config) (storage.Store, error) { return store, nil }
	t.Cleanup(func() {
		cfg, openStore = prevCfg, prevOpen
		jsonOutput, serverURL = false, ""
	})

	if loggedIn {
		ctx := context.Background()
		if err := store.Set(ctx, session.KeyUser, "alice"); err != nil {
			t.Fatal(err)
		}
		if err := store.Set(ctx, session.KeyAuthToken, testutil.ValidToken); err != nil {
			t.Fatal(err)
		}
	}
	return api, store
}

func stored(t *testing.T, store storage.Store, key string) string {
	t.Helper()
	v, _, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
