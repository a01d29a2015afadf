// ABOUTME: Tests for the add feed screen
// ABOUTME: Covers creating a feed for the signed-in user and the missing id failure

package addfeed

import (
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/testutil"
	"github.com/poremland/open-rss-client/internal/tui/screen"
)

func setup(t *testing.T) (*Screen, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	deps, _ := testutil.NewDeps(t, api, true)
	return New(deps), api
}

func TestSubmitCreatesFeed(t *testing.T) {
	s, api := setup(t)
	s.name, s.uri = "My Feed", " https://example.com/rss.xml "

	_, msgs := testutil.Pump(s, s.Submit())

	want := client.NewFeed{URI: "https://example.com/rss.xml", Name: "My Feed", User: "alice"}
	created := api.CreatedFeeds()
	if len(created) != 1 || created[0] != want {
		t.Errorf("expected %+v created, got %+v", want, created)
	}
	if _, ok := testutil.Find[screen.BackMsg](msgs); !ok {
		t.Error("expected navigation back")
	}
}

func TestMissingIDIsAnError(t *testing.T) {
	s, api := setup(t)
	s.name = "No URI"

	msgs := testutil.Drain(s.Submit())
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %d", len(msgs))
	}
	s.Update(msgs[0])

	if !strings.Contains(s.View(), ErrNotCreated.Error()) {
		t.Errorf("expected error in view:\n%s", s.View())
	}
	if s.saving {
		t.Error("expected the form editable again")
	}
	if len(api.CreatedFeeds()) != 0 {
		t.Error("expected nothing created")
	}
}

func TestCreateExpiryLeavesUpdateFree(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	deps, rec := testutil.NewSyncDeps(t, api, true)
	s := New(deps)
	s.name, s.uri = "My Feed", "https://example.com/rss.xml"
	api.Fail(client.PathCreateFeed, http.StatusUnauthorized)

	msgs := testutil.Drain(s.Submit())
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %d", len(msgs))
	}
	_, cmd := testutil.UpdateWithin(t, s, msgs[0])
	testutil.Go(cmd)

	rec.ExpectExpiry(t)
	if strings.Contains(s.View(), client.ErrSessionExpired.Error()) {
		t.Errorf("expected no inline error for an expired session:\n%s", s.View())
	}
}

func TestEscCancels(t *testing.T) {
	s, _ := setup(t)
	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := testutil.Find[screen.BackMsg](testutil.Drain(cmd)); !ok {
		t.Error("expected esc to go back")
	}
}

func TestValidateURI(t *testing.T) {
	if validateURI("  ") == nil {
		t.Error("expected blank URI rejected")
	}
	if validateURI("https://example.com/rss") != nil {
		t.Error("expected URI accepted")
	}
}
