// ABOUTME: Login screen requesting a one-time password and exchanging it for a token
// ABOUTME: Server URL and username inputs, then an OTP input, with inline errors

package login

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/config"
	"github.com/poremland/open-rss-client/internal/tui/screen"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

// state represents the current step
type state int

const (
	stateRequest state = iota
	stateOTP
)

const (
	fieldServer = iota
	fieldUser
)

// InvalidTokenText is shown when the server accepts the OTP but returns no token
const InvalidTokenText = "Login Failed: Invalid token in response"

type otpRequestedMsg struct {
	owner *Screen
	err   error
}

type loggedInMsg struct {
	owner *Screen
	err   error
}

// Screen is the login form
type Screen struct {
	deps    *screen.Deps
	state   state
	inputs  []textinput.Model
	otp     textinput.Model
	focus   int
	loading bool
	spinner spinner.Model
	err     string
}

// New creates the login screen
func New(deps *screen.Deps) *Screen {
	server := textinput.New()
	server.Placeholder = "Server URL"
	server.CharLimit = 256
	server.Width = 50

	user := textinput.New()
	user.Placeholder = "Username"
	user.CharLimit = 128
	user.Width = 50

	otp := textinput.New()
	otp.Placeholder = "OTP"
	otp.CharLimit = 16
	otp.Width = 20

	return &Screen{
		deps:    deps,
		state:   stateRequest,
		inputs:  []textinput.Model{server, user},
		otp:     otp,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Cursor)),
	}
}

// Init loads the stored server URL and focuses the first empty field
func (s *Screen) Init() tea.Cmd {
	s.deps.SetMenu()
	ctx := context.Background()
	if url, err := s.deps.Session.ServerURL(ctx); err == nil && url != "" {
		s.inputs[fieldServer].SetValue(url)
	}
	if user, err := s.deps.Session.User(ctx); err == nil && user != "" {
		s.inputs[fieldUser].SetValue(user)
	}
	if s.inputs[fieldServer].Value() != "" {
		s.focus = fieldUser
	}
	return tea.Batch(s.inputs[s.focus].Focus(), textinput.Blink)
}

// CapturingInput implements screen.InputCapturer
func (s *Screen) CapturingInput() bool { return true }

// OTPRequested reports whether the OTP step is showing
func (s *Screen) OTPRequested() bool { return s.state == stateOTP }

// Error returns the inline error text
func (s *Screen) Error() string { return s.err }

// Username returns the entered username
func (s *Screen) Username() string { return strings.TrimSpace(s.inputs[fieldUser].Value()) }

// RequestOTP stores the server URL and asks the server to send an OTP
func (s *Screen) RequestOTP() tea.Cmd {
	serverURL := config.EnsureScheme(strings.TrimSpace(s.inputs[fieldServer].Value()))
	username := s.Username()
	if serverURL == "" || username == "" {
		s.err = "Please enter a server URL and username"
		return nil
	}
	s.loading = true
	s.err = ""
	return tea.Batch(s.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		if err := s.deps.Session.SetServerURL(ctx, serverURL); err != nil {
			return otpRequestedMsg{owner: s, err: err}
		}
		return otpRequestedMsg{owner: s, err: s.deps.Client.RequestOTP(ctx, username)}
	})
}

// Login exchanges the OTP for a token and starts the session
func (s *Screen) Login() tea.Cmd {
	username := s.Username()
	otp := strings.TrimSpace(s.otp.Value())
	if otp == "" {
		s.err = "Please enter the OTP"
		return nil
	}
	s.loading = true
	s.err = ""
	return tea.Batch(s.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		token, err := s.deps.Client.Login(ctx, username, otp)
		if err != nil {
			return loggedInMsg{owner: s, err: err}
		}
		return loggedInMsg{owner: s, err: s.deps.Session.Start(ctx, username, token)}
	})
}

// Update implements screen.Screen
func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case otpRequestedMsg:
		if msg.owner != s {
			return s, nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = "OTP Request Error: " + msg.err.Error()
			return s, nil
		}
		s.state = stateOTP
		s.inputs[s.focus].Blur()
		return s, s.otp.Focus()

	case loggedInMsg:
		if msg.owner != s {
			return s, nil
		}
		s.loading = false
		switch {
		case errors.Is(msg.err, client.ErrInvalidToken):
			s.err = InvalidTokenText
			return s, nil
		case msg.err != nil:
			s.err = "Login Error: " + msg.err.Error()
			return s, nil
		}
		return s, screen.Reset(screen.RouteFeedList)

	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		if s.loading {
			return s, nil
		}
		switch s.state {
		case stateRequest:
			return s.updateRequest(msg)
		case stateOTP:
			return s.updateOTP(msg)
		}
	}
	return s, nil
}

func (s *Screen) updateRequest(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return s, s.setFocus((s.focus + 1) % len(s.inputs))
	case "shift+tab", "up":
		return s, s.setFocus((s.focus + len(s.inputs) - 1) % len(s.inputs))
	case "enter":
		if s.focus == fieldServer {
			return s, s.setFocus(fieldUser)
		}
		return s, s.RequestOTP()
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s *Screen) updateOTP(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.state = stateRequest
		s.otp.SetValue("")
		s.otp.Blur()
		return s, s.setFocus(fieldUser)
	case "enter":
		return s, s.Login()
	}

	var cmd tea.Cmd
	s.otp, cmd = s.otp.Update(msg)
	return s, cmd
}

func (s *Screen) setFocus(i int) tea.Cmd {
	s.inputs[s.focus].Blur()
	s.focus = i
	return s.inputs[s.focus].Focus()
}

// View implements screen.Screen
func (s *Screen) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("Sign in"))
	sb.WriteString("\n")
	if s.err != "" {
		sb.WriteString(screen.ErrorLine(s.err))
		sb.WriteString("\n\n")
	}

	for _, in := range s.inputs {
		sb.WriteString(in.View())
		sb.WriteString("\n")
	}
	if s.state == stateOTP {
		sb.WriteString(s.otp.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch {
	case s.loading:
		sb.WriteString(s.spinner.View() + " Please wait...")
	case s.state == stateOTP:
		sb.WriteString(styles.KeyStyle.Render("[ Login ]"))
		sb.WriteString(styles.Help.Render(fmt.Sprintf("  OTP sent to %s", s.Username())))
	default:
		sb.WriteString(styles.KeyStyle.Render("[ Request OTP ]"))
	}
	return sb.String()
}

// Title implements screen.Screen
func (s *Screen) Title() string { return "Login" }

// Shortcuts implements screen.Screen
func (s *Screen) Shortcuts() []string {
	if s.state == stateOTP {
		return []string{"Enter Login", "Esc Back", "ctrl+c Quit"}
	}
	return []string{"Tab Next", "Enter Request", "ctrl+c Quit"}
}
