// ABOUTME: Manage feeds screen listing every subscription for bulk removal
// ABOUTME: Deletes selected feeds concurrently and refreshes the list

package manage

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/selection"
	"github.com/poremland/open-rss-client/internal/tui/listscreen"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/screen"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

// EmptyText is shown when there are no subscriptions
const EmptyText = "No feeds to manage!"

type deletedMsg struct {
	owner *Screen
	err   error
	count int
}

// Screen lists all feeds
type Screen struct {
	deps     *screen.Deps
	list     *listscreen.List[client.Feed]
	err      string
	status   string
	deleting bool
}

// New creates the manage screen
func New(deps *screen.Deps) *Screen {
	res := fetch.New(deps.Client, client.PathAllFeeds,
		fetch.OnSessionExpired[[]client.Feed](deps.Expired),
	)
	s := &Screen{deps: deps}
	s.list = listscreen.New(listscreen.Config[client.Feed]{
		Resource:   res,
		ID:         func(f client.Feed) int64 { return f.ID },
		Text:       Row,
		EmptyText:  EmptyText,
		ExitPolicy: selection.ExitWhenEmpty,
	})
	return s
}

// Row renders a feed name over its URI
func Row(f client.Feed) string {
	name, uri := f.Name, f.URI
	if name == "" {
		name = "No Name"
	}
	if uri == "" {
		uri = "No Link"
	}
	return name + "\n" + uri
}

// List exposes the list body
func (s *Screen) List() *listscreen.List[client.Feed] { return s.list }

// Init implements screen.Screen
func (s *Screen) Init() tea.Cmd {
	s.publishMenu()
	return s.list.Load()
}

// Focus implements screen.Focuser
func (s *Screen) Focus(screen.Params) tea.Cmd {
	s.publishMenu()
	return s.list.Refresh()
}

func (s *Screen) publishMenu() {
	s.deps.SetMenu(s.MenuItems()...)
}

// MenuItems returns the actions for the current mode
func (s *Screen) MenuItems() []menu.Item {
	if s.list.Controller().Selecting() {
		return []menu.Item{
			{Label: "Select All", Action: s.selectAll},
			{Label: "Delete", Action: s.DeleteSelected},
			{Label: "Done", Action: s.done},
		}
	}
	return []menu.Item{s.deps.LogoutItem()}
}

func (s *Screen) selectAll() tea.Cmd {
	s.list.Controller().SelectAll()
	s.publishMenu()
	return nil
}

func (s *Screen) done() tea.Cmd {
	s.list.Controller().Done()
	s.publishMenu()
	return nil
}

// DeleteSelected removes the selected feeds and refreshes
func (s *Screen) DeleteSelected() tea.Cmd {
	ctrl := s.list.Controller()
	count := len(ctrl.Selected())
	if s.deleting || count == 0 {
		return nil
	}
	s.deleting = true
	s.status = fmt.Sprintf("Deleting %d feed(s)...", count)
	limit := s.deps.DeleteConcurrency
	return func() tea.Msg {
		var delErr error
		_ = ctrl.BulkAction(context.Background(), func(ctx context.Context, ids []int64) error {
			delErr = s.deps.Client.RemoveFeeds(ctx, ids, limit)
			return delErr
		})
		return deletedMsg{owner: s, err: delErr, count: count}
	}
}

// Update implements screen.Screen
func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listscreen.LoadedMsg:
		if s.list.Owns(msg) {
			s.list.Settle(msg)
			s.publishMenu()
		}
		return s, nil

	case deletedMsg:
		if msg.owner != s {
			return s, nil
		}
		s.deleting = false
		s.status = ""
		s.list.Settle(listscreen.LoadedMsg{Owner: s.list})
		s.publishMenu()
		if msg.err != nil {
			var cmd tea.Cmd
			s.err, cmd = s.deps.ErrorText(msg.err)
			return s, cmd
		}
		s.err = ""
		s.status = fmt.Sprintf("Deleted %d feed(s)", msg.count)
		return s, nil

	case tea.WindowSizeMsg:
		s.list.SetHeight((msg.Height - 8) / 2)
		return s, nil
	}

	handled, cmd := s.list.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		s.publishMenu()
	}
	if handled {
		return s, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "d":
			return s, s.DeleteSelected()
		case "esc", "b":
			return s, screen.Back(screen.Params{})
		}
	}
	return s, nil
}

// View implements screen.Screen
func (s *Screen) View() string {
	out := ""
	if s.err != "" {
		out += screen.ErrorLine(s.err) + "\n\n"
	}
	if s.status != "" {
		out += styles.Subtitle.Render(s.status) + "\n\n"
	}
	return out + s.list.View()
}

// Title implements screen.Screen
func (s *Screen) Title() string { return "Manage Feeds" }

// Shortcuts implements screen.Screen
func (s *Screen) Shortcuts() []string {
	if s.list.Controller().Selecting() {
		return append(s.list.Shortcuts(), "d Delete")
	}
	return append(s.list.Shortcuts(), "Esc Back")
}
