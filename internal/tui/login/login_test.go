// ABOUTME: Tests for the login screen
// ABOUTME: Drives the OTP request and login steps against the fake server

package login

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/testutil"
	"github.com/poremland/open-rss-client/internal/tui/screen"
)

func setup(t *testing.T) (*Screen, *screen.Deps, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	deps, _ := testutil.NewDeps(t, api, false)
	s := New(deps)
	s.Init()
	return s, deps, api
}

func requestOTP(t *testing.T, s *Screen, user string) {
	t.Helper()
	s.inputs[fieldUser].SetValue(user)
	testutil.Pump(s, s.RequestOTP())
	if !s.OTPRequested() {
		t.Fatalf("expected OTP step, error %q", s.Error())
	}
}

func TestInitPrefillsServerAndFocusesUser(t *testing.T) {
	s, _, api := setup(t)
	if got := s.inputs[fieldServer].Value(); got != api.URL() {
		t.Errorf("expected server %q, got %q", api.URL(), got)
	}
	if s.focus != fieldUser {
		t.Error("expected username focused when the server is known")
	}
	if !s.CapturingInput() {
		t.Error("expected login to capture input")
	}
}

func TestRequestOTPRequiresFields(t *testing.T) {
	s, _, _ := setup(t)
	if s.RequestOTP() != nil {
		t.Error("expected no request without a username")
	}
	if s.Error() != "Please enter a server URL and username" {
		t.Errorf("unexpected error %q", s.Error())
	}
}

func TestRequestOTPStoresServer(t *testing.T) {
	s, deps, api := setup(t)
	requestOTP(t, s, "alice")

	if got := api.OTPRequests(); !slices.Equal(got, []string{"alice"}) {
		t.Errorf("expected OTP for alice, got %v", got)
	}
	stored, err := deps.Session.ServerURL(context.Background())
	if err != nil || stored != api.URL() {
		t.Errorf("expected stored server %q, got %q (%v)", api.URL(), stored, err)
	}
	if !strings.Contains(s.View(), "OTP sent to alice") {
		t.Errorf("expected OTP prompt in view:\n%s", s.View())
	}
}

func TestRequestOTPError(t *testing.T) {
	s, _, api := setup(t)
	api.Fail(client.PathRequestOTP, http.StatusInternalServerError)

	s.inputs[fieldUser].SetValue("alice")
	testutil.Pump(s, s.RequestOTP())

	if s.OTPRequested() {
		t.Error("expected to stay on the request step")
	}
	if !strings.HasPrefix(s.Error(), "OTP Request Error: ") {
		t.Errorf("unexpected error %q", s.Error())
	}
}

func TestLoginSuccess(t *testing.T) {
	s, deps, _ := setup(t)
	requestOTP(t, s, "alice")

	s.otp.SetValue(testutil.ValidOTP)
	_, msgs := testutil.Pump(s, s.Login())

	reset, ok := testutil.Find[screen.ResetMsg](msgs)
	if !ok || reset.Route != screen.RouteFeedList {
		t.Fatalf("expected reset to the feed list, got %+v", reset)
	}
	token, _ := deps.Session.AuthToken(context.Background())
	if token != testutil.ValidToken {
		t.Errorf("expected stored token, got %q", token)
	}
	user, _ := deps.Session.User(context.Background())
	if user != "alice" {
		t.Errorf("expected stored user, got %q", user)
	}
}

func TestLoginWrongOTP(t *testing.T) {
	s, deps, _ := setup(t)
	requestOTP(t, s, "alice")

	s.otp.SetValue("000000")
	_, msgs := testutil.Pump(s, s.Login())

	if _, ok := testutil.Find[screen.ResetMsg](msgs); ok {
		t.Error("expected no navigation")
	}
	if s.Error() != InvalidTokenText {
		t.Errorf("expected %q, got %q", InvalidTokenText, s.Error())
	}
	if ok, _ := deps.Session.LoggedIn(context.Background()); ok {
		t.Error("expected no session")
	}
}

func TestLoginRequiresOTP(t *testing.T) {
	s, _, _ := setup(t)
	requestOTP(t, s, "alice")
	if s.Login() != nil {
		t.Error("expected no request without an OTP")
	}
	if s.Error() != "Please enter the OTP" {
		t.Errorf("unexpected error %q", s.Error())
	}
}

func TestEscReturnsToRequestStep(t *testing.T) {
	s, _, _ := setup(t)
	requestOTP(t, s, "alice")

	s.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if s.OTPRequested() {
		t.Error("expected the request step after esc")
	}
	if s.Username() != "alice" {
		t.Error("expected the username kept")
	}
}

func TestTabMovesFocus(t *testing.T) {
	s, _, _ := setup(t)
	s.Update(tea.KeyMsg{Type: tea.KeyTab})
	if s.focus != fieldServer {
		t.Errorf("expected focus to wrap to the server field, got %d", s.focus)
	}
}
