// ABOUTME: Shared contract between the root TUI model and its screens
// ABOUTME: Routes, navigation params and messages, injected dependencies and the expiry bridge

package screen

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/selection"
	"github.com/poremland/open-rss-client/internal/session"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/widgets"
)

// Route names a screen
type Route string

const (
	RouteLogin     Route = session.RouteLogin
	RouteFeedList  Route = session.RouteFeedList
	RouteFeedItems Route = "FeedItemListScreen"
	RouteDetail    Route = "FeedItemDetailScreen"
	RouteManage    Route = "ManageFeedListScreen"
	RouteAddFeed   Route = "AddFeedScreen"
)

// Params carries data between screens in place of shared storage
type Params struct {
	Feed          *client.Feed
	Item          *client.FeedItem
	RemovedItemID int64
}

// Screen is one entry on the navigation stack
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View() string
	Title() string
	Shortcuts() []string
}

// Focuser is implemented by screens that react to becoming the top of the stack again
type Focuser interface {
	Focus(p Params) tea.Cmd
}

// InputCapturer is implemented by screens that currently consume printable keys
type InputCapturer interface {
	CapturingInput() bool
}

// PushMsg opens route on top of the stack
type PushMsg struct {
	Route  Route
	Params Params
}

// BackMsg pops the top screen and focuses the one below with Params
type BackMsg struct {
	Params Params
}

// ResetMsg replaces the whole stack with route
type ResetMsg struct {
	Route Route
}

// AlertMsg shows a blocking alert until dismissed
type AlertMsg struct {
	Title   string
	Message string
}

// Push returns a command that navigates to route
func Push(route Route, p Params) tea.Cmd {
	return func() tea.Msg { return PushMsg{Route: route, Params: p} }
}

// Back returns a command that navigates back
func Back(p Params) tea.Cmd {
	return func() tea.Msg { return BackMsg{Params: p} }
}

// Reset returns a command that resets the stack to route
func Reset(route Route) tea.Cmd {
	return func() tea.Msg { return ResetMsg{Route: route} }
}

// Alert returns a command that shows an alert
func Alert(title, message string) tea.Cmd {
	return func() tea.Msg { return AlertMsg{Title: title, Message: message} }
}

// Bridge lets code running inside commands alert and navigate. It implements
// session.Notifier and session.Navigator by forwarding messages to the program.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// SetSender wires the bridge to a running program, typically (*tea.Program).Send
func (b *Bridge) SetSender(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) dispatch(msg tea.Msg) {
	if b == nil {
		return
	}
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// Alert implements session.Notifier
func (b *Bridge) Alert(title, message string) {
	b.dispatch(AlertMsg{Title: title, Message: message})
}

// Reset implements session.Navigator
func (b *Bridge) Reset(route string) {
	b.dispatch(ResetMsg{Route: Route(route)})
}

// Deps are handed explicitly to every screen
type Deps struct {
	Client  *client.Client
	Session *session.Manager
	Menu    *menu.Controller
	Bridge  *Bridge

	// ItemsExitPolicy applies to the feed item list; manage always exits when empty
	ItemsExitPolicy   selection.ExitPolicy
	DeleteConcurrency int
}

// Expired runs the session-expiry flow
func (d *Deps) Expired(ctx context.Context) {
	d.Session.HandleSessionExpired(ctx, d.Bridge, d.Bridge)
}

// ErrorText converts a failed call into inline error text. Session expiry
// yields "" and a command that runs the expiry flow. The flow sends through
// the bridge, which blocks until the program reads it, so it must never run
// inside Update.
func (d *Deps) ErrorText(err error) (string, tea.Cmd) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, client.ErrSessionExpired) {
		return "", func() tea.Msg {
			d.Expired(context.Background())
			return nil
		}
	}
	return err.Error(), nil
}

// SetMenu publishes the active screen's menu entries. An open menu keeps its
// entries until it closes so the cursor does not jump.
func (d *Deps) SetMenu(items ...menu.Item) {
	if d.Menu == nil || d.Menu.IsOpen() {
		return
	}
	d.Menu.SetItems(items...)
}

// LogoutItem is the menu entry every signed-in screen carries
func (d *Deps) LogoutItem() menu.Item {
	return menu.Item{Label: "Log-out", Action: d.Logout}
}

// Logout returns a command that clears the session and goes to login
func (d *Deps) Logout() tea.Cmd {
	return func() tea.Msg {
		// Logout logs a failed clear; the user lands on login either way
		_ = d.Session.Logout(context.Background(), nil)
		return ResetMsg{Route: RouteLogin}
	}
}

// ErrorLine renders inline error text
func ErrorLine(text string) string {
	return widgets.StatusText(text, widgets.StatusCritical)
}
