// ABOUTME: Helpers for driving TUI screens in tests without a running program
// ABOUTME: Builds screen dependencies over the fake server and drains command results

package testutil

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/selection"
	"github.com/poremland/open-rss-client/internal/session"
	"github.com/poremland/open-rss-client/internal/storage"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/screen"
)

// Recorder collects messages a Bridge forwards
type Recorder struct {
	msgs chan tea.Msg
}

// Messages returns everything recorded so far
func (r *Recorder) Messages() []tea.Msg {
	var out []tea.Msg
	for {
		select {
		case m := <-r.msgs:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Expect receives n forwarded messages and fails the test if they do not
// arrive within cmdTimeout.
func (r *Recorder) Expect(t testing.TB, n int) []tea.Msg {
	t.Helper()
	out := make([]tea.Msg, 0, n)
	timeout := time.After(cmdTimeout)
	for len(out) < n {
		select {
		case m := <-r.msgs:
			out = append(out, m)
		case <-timeout:
			t.Fatalf("expected %d bridged messages, got %d: %v", n, len(out), out)
		}
	}
	return out
}

// ExpectExpiry receives the expiry alert and the reset to login that follows it
func (r *Recorder) ExpectExpiry(t testing.TB) {
	t.Helper()
	msgs := r.Expect(t, 2)
	if alert, ok := msgs[0].(screen.AlertMsg); !ok || alert.Title != session.ExpiredTitle {
		t.Errorf("expected expiry alert first, got %#v", msgs[0])
	}
	if reset, ok := msgs[1].(screen.ResetMsg); !ok || reset.Route != screen.RouteLogin {
		t.Errorf("expected reset to login, got %#v", msgs[1])
	}
}

// NewDeps returns screen dependencies talking to api through an in-memory
// session. When loggedIn is true the session holds ValidToken for "alice".
func NewDeps(t testing.TB, api *FakeAPI, loggedIn bool) (*screen.Deps, *Recorder) {
	t.Helper()
	return newDeps(t, api, loggedIn, 64)
}

// NewSyncDeps is NewDeps with an unbuffered bridge. Every send blocks until
// the test receives it, the way (*tea.Program).Send blocks until the event
// loop reads the message.
func NewSyncDeps(t testing.TB, api *FakeAPI, loggedIn bool) (*screen.Deps, *Recorder) {
	t.Helper()
	return newDeps(t, api, loggedIn, 0)
}

func newDeps(t testing.TB, api *FakeAPI, loggedIn bool, buffer int) (*screen.Deps, *Recorder) {
	t.Helper()
	ctx := context.Background()

	store := storage.NewMemoryStore()
	sess := session.NewManager(store, api.URL())
	if loggedIn {
		if err := sess.Start(ctx, "alice", ValidToken); err != nil {
			t.Fatalf("start session: %v", err)
		}
	}

	rec := &Recorder{msgs: make(chan tea.Msg, buffer)}
	bridge := &screen.Bridge{}
	bridge.SetSender(func(m tea.Msg) { rec.msgs <- m })

	return &screen.Deps{
		Client:            client.New(sess, client.WithRetry(1, 0)),
		Session:           sess,
		Menu:              menu.New(),
		Bridge:            bridge,
		ItemsExitPolicy:   selection.ExitOnDone,
		DeleteConcurrency: 2,
	}, rec
}

// cmdTimeout bounds how long Drain waits for a single command. Timer based
// commands such as cursor blinks are dropped.
const cmdTimeout = 2 * time.Second

// Drain runs cmd and any batched commands it produces, returning their
// messages. Commands slower than a short tick are skipped.
func Drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(cmdTimeout):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, Drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// UpdateWithin feeds msg to s and fails the test if Update does not return
// within cmdTimeout, as happens when it sends on an unbuffered bridge.
func UpdateWithin(t testing.TB, s screen.Screen, msg tea.Msg) (screen.Screen, tea.Cmd) {
	t.Helper()
	type result struct {
		s   screen.Screen
		cmd tea.Cmd
	}
	done := make(chan result, 1)
	go func() {
		next, cmd := s.Update(msg)
		done <- result{next, cmd}
	}()
	select {
	case r := <-done:
		return r.s, r.cmd
	case <-time.After(cmdTimeout):
		t.Fatalf("Update blocked handling %T", msg)
		return nil, nil
	}
}

// Go runs cmd on its own goroutine the way a program does, fanning out
// batches. Results are discarded.
func Go(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if batch, ok := cmd().(tea.BatchMsg); ok {
			for _, c := range batch {
				Go(c)
			}
		}
	}()
}

// Find returns the first message of type T
func Find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// pumpDepth bounds how many rounds of follow-up commands Pump runs
const pumpDepth = 4

// Pump runs cmd, feeds each resulting message to s and repeats with the
// commands s returns. Every message seen is returned so tests can look for
// navigation.
func Pump(s screen.Screen, cmd tea.Cmd) (screen.Screen, []tea.Msg) {
	var seen []tea.Msg
	cmds := []tea.Cmd{cmd}
	for range pumpDepth {
		var next []tea.Cmd
		for _, c := range cmds {
			for _, m := range Drain(c) {
				seen = append(seen, m)
				var out tea.Cmd
				s, out = s.Update(m)
				if out != nil {
					next = append(next, out)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		cmds = next
	}
	return s, seen
}
