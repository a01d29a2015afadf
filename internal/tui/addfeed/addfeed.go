// ABOUTME: Add feed screen as a huh form embedded in a bubbletea model
// ABOUTME: Creates the subscription for the signed-in user and goes back on success

package addfeed

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/tui/screen"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

// ErrNotCreated is reported when the server answers without a feed id
var ErrNotCreated = errors.New("feed was not created")

type createdMsg struct {
	owner *Screen
	id    int64
	err   error
}

// Screen collects a feed name and URI
type Screen struct {
	deps   *screen.Deps
	form   *huh.Form
	name   string
	uri    string
	saving bool
	err    string
}

// New creates the add feed screen
func New(deps *screen.Deps) *Screen {
	s := &Screen{deps: deps}
	s.form = s.createForm()
	return s
}

func (s *Screen) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Feed name").
				Placeholder("FeedName").
				Value(&s.name),
			huh.NewInput().
				Title("Feed URI").
				Placeholder("https://example.com/rss.xml").
				Value(&s.uri).
				Validate(validateURI),
		).Title("Add New Feed").
			Description("Subscribe to an RSS or Atom feed"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func validateURI(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("feed URI is required")
	}
	return nil
}

// Init implements screen.Screen
func (s *Screen) Init() tea.Cmd {
	s.deps.SetMenu()
	return s.form.Init()
}

// CapturingInput implements screen.InputCapturer
func (s *Screen) CapturingInput() bool { return !s.saving }

// Submit sends the feed to the server
func (s *Screen) Submit() tea.Cmd {
	s.saving = true
	s.err = ""
	name, uri := strings.TrimSpace(s.name), strings.TrimSpace(s.uri)
	return func() tea.Msg {
		ctx := context.Background()
		user, err := s.deps.Session.User(ctx)
		if err != nil {
			return createdMsg{owner: s, err: err}
		}
		id, err := s.deps.Client.CreateFeed(ctx, client.NewFeed{URI: uri, Name: name, User: user})
		return createdMsg{owner: s, id: id, err: err}
	}
}

// Update implements screen.Screen
func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case createdMsg:
		if msg.owner != s {
			return s, nil
		}
		s.saving = false
		err := msg.err
		if err == nil && msg.id <= 0 {
			err = ErrNotCreated
		}
		if err != nil {
			var expire tea.Cmd
			s.err, expire = s.deps.ErrorText(err)
			s.form = s.createForm()
			return s, tea.Batch(s.form.Init(), expire)
		}
		return s, screen.Back(screen.Params{})

	case tea.KeyMsg:
		if s.saving {
			return s, nil
		}
		if msg.String() == "esc" {
			return s, screen.Back(screen.Params{})
		}
	}

	if s.saving {
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		return s, s.Submit()
	}
	return s, cmd
}

// View implements screen.Screen
func (s *Screen) View() string {
	var sb strings.Builder
	if s.err != "" {
		sb.WriteString(screen.ErrorLine(s.err))
		sb.WriteString("\n\n")
	}
	if s.saving {
		sb.WriteString(styles.Subtitle.Render("Adding feed..."))
		return sb.String()
	}
	sb.WriteString(s.form.View())
	return sb.String()
}

// Title implements screen.Screen
func (s *Screen) Title() string { return "Add Feed" }

// Shortcuts implements screen.Screen
func (s *Screen) Shortcuts() []string {
	return []string{"Tab Next", "Enter Confirm", "Esc Cancel"}
}
