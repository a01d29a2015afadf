// ABOUTME: Per-command environment wiring the session store, session manager and API client
// ABOUTME: Also maps command errors to messages and exit codes

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/session"
	"github.com/poremland/open-rss-client/internal/storage"
)

// Exit codes
const (
	exitOK      = 0
	exitExpired = 1
	exitError   = 2
)

// openStore is replaced in tests to share one store across commands
var openStore = storage.Open

// cmdEnv holds what a command needs to talk to the server
type cmdEnv struct {
	store   storage.Store
	session *session.Manager
	client  *client.Client
}

func newCmdEnv(ctx context.Context) (*cmdEnv, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	sess := session.NewManager(store, cfg.ServerURL)
	if serverURL != "" {
		if err := sess.SetServerURL(ctx, GetServerURL()); err != nil {
			return nil, err
		}
	}

	opts := []client.Option{client.WithRetry(cfg.Retries, cfg.RetryDelay)}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.HTTPTimeout))
	}
	return &cmdEnv{
		store:   store,
		session: sess,
		client:  client.New(sess, opts...),
	}, nil
}

// Close releases store connections
func (r *cmdEnv) Close() {
	if c, ok := r.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close session store", "error", err)
		}
	}
}

// notifier prints session alerts to the command output
type notifier struct {
	w io.Writer
}

func (n notifier) Alert(title, message string) {
	warnColor.Fprintf(n.w, "%s: %s\n", title, message)
}

// fail prints err and returns its exit code. A rejected token ends the
// session the same way the TUI does.
func (r *cmdEnv) fail(ctx context.Context, w io.Writer, err error) int {
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		if r != nil {
			r.session.HandleSessionExpired(ctx, notifier{w}, nil)
		}
		return exitExpired
	case errors.Is(err, client.ErrMissingToken):
		printError(w, errors.New("not logged in, run `rss-reader login` first"))
		return exitExpired
	}
	printError(w, err)
	return exitError
}

// requireServer reports an error when no server URL is known
func (r *cmdEnv) requireServer(ctx context.Context) error {
	url, err := r.session.ServerURL(ctx)
	if err != nil {
		return err
	}
	if url == "" {
		return errors.New("no server URL, pass --server-url or set RSS_READER_SERVER_URL")
	}
	return nil
}

// withCmdEnv opens a command environment, runs fn and maps a setup failure to exitError
func withCmdEnv(ctx context.Context, w io.Writer, fn func(r *cmdEnv) int) int {
	r, err := newCmdEnv(ctx)
	if err != nil {
		printError(w, err)
		return exitError
	}
	defer r.Close()
	return fn(r)
}
