// ABOUTME: Session lifecycle helpers: token, user and server URL persistence
// ABOUTME: Handles logout and server-signalled session expiry through injected collaborators

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poremland/open-rss-client/internal/storage"
)

// Persisted keys
const (
	KeyServerURL = "serverUrl"
	KeyAuthToken = "authToken"
	KeyUser      = "user"
)

// Routes used when the session ends or begins
const (
	RouteLogin    = "/"
	RouteFeedList = "FeedListScreen"
)

// Alert shown when the server rejects the stored token
const (
	ExpiredTitle   = "Session Expired"
	ExpiredMessage = "Your session has expired. Please log in again."
)

// Notifier shows a blocking alert to the user
type Notifier interface {
	Alert(title, message string)
}

// Navigator replaces the whole navigation stack with route
type Navigator interface {
	Reset(route string)
}

// TokenRefresher exchanges the current token for a new one
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (string, error)
}

// Manager owns the persisted session. All reads and writes of session keys go through it.
type Manager struct {
	store       storage.Store
	fallbackURL string
}

// NewManager creates a session manager. fallbackURL is used as the server URL
// when none has been persisted yet.
func NewManager(store storage.Store, fallbackURL string) *Manager {
	return &Manager{store: store, fallbackURL: fallbackURL}
}

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	v, found, err := m.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return "", nil
	}
	return v, nil
}

// ServerURL returns the persisted server URL, the configured fallback, or "".
// An empty result is not treated specially; requests against it simply fail.
func (m *Manager) ServerURL(ctx context.Context) (string, error) {
	v, err := m.get(ctx, KeyServerURL)
	if err != nil {
		return "", err
	}
	if v == "" {
		return m.fallbackURL, nil
	}
	return v, nil
}

// SetServerURL persists the server URL entered at login
func (m *Manager) SetServerURL(ctx context.Context, url string) error {
	return m.store.Set(ctx, KeyServerURL, url)
}

// AuthToken returns the stored bearer token or "" when logged out
func (m *Manager) AuthToken(ctx context.Context) (string, error) {
	return m.get(ctx, KeyAuthToken)
}

// StoreAuthToken persists a bearer token
func (m *Manager) StoreAuthToken(ctx context.Context, token string) error {
	return m.store.Set(ctx, KeyAuthToken, token)
}

// User returns the stored username or ""
func (m *Manager) User(ctx context.Context) (string, error) {
	return m.get(ctx, KeyUser)
}

// StoreUser persists the logged-in username
func (m *Manager) StoreUser(ctx context.Context, username string) error {
	return m.store.Set(ctx, KeyUser, username)
}

// LoggedIn reports whether a token is stored
func (m *Manager) LoggedIn(ctx context.Context) (bool, error) {
	token, err := m.AuthToken(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Start stores user then token after a successful login
func (m *Manager) Start(ctx context.Context, username, token string) error {
	if err := m.StoreUser(ctx, username); err != nil {
		return err
	}
	return m.StoreAuthToken(ctx, token)
}

// Clear removes the token and then the user. The two deletes are independent:
// the second is attempted even if the first fails, and a crash in between can
// leave partial state that the next login overwrites.
func (m *Manager) Clear(ctx context.Context) error {
	errToken := m.store.Delete(ctx, KeyAuthToken)
	errUser := m.store.Delete(ctx, KeyUser)
	return errors.Join(errToken, errUser)
}

// Logout clears the session and returns to the login route
func (m *Manager) Logout(ctx context.Context, nav Navigator) error {
	err := m.Clear(ctx)
	if err != nil {
		slog.Error("Failed to clear session", "error", err)
	}
	if nav != nil {
		nav.Reset(RouteLogin)
	}
	return err
}

// HandleSessionExpired alerts the user, clears the session, and navigates to login.
func (m *Manager) HandleSessionExpired(ctx context.Context, n Notifier, nav Navigator) {
	slog.Warn("Session expired")
	if n != nil {
		n.Alert(ExpiredTitle, ExpiredMessage)
	}
	if err := m.Logout(ctx, nav); err != nil {
		slog.Warn("Session expired but clearing storage failed", "error", err)
	}
}

// ExpiryHandler binds HandleSessionExpired to n and nav for use as a callback
func (m *Manager) ExpiryHandler(n Notifier, nav Navigator) func(ctx context.Context) {
	return func(ctx context.Context) {
		m.HandleSessionExpired(ctx, n, nav)
	}
}

// RefreshOnLoad swaps the stored token for a fresh one. Failures are logged only.
func (m *Manager) RefreshOnLoad(ctx context.Context, r TokenRefresher) {
	token, err := r.RefreshToken(ctx)
	if err != nil {
		slog.Warn("Failed to refresh token", "error", err)
		return
	}
	if token == "" {
		return
	}
	if err := m.StoreAuthToken(ctx, token); err != nil {
		slog.Warn("Failed to store refreshed token", "error", err)
	}
}
