// ABOUTME: Feed list screen showing feeds with unread items from the feed tree
// ABOUTME: Opens a feed's items on enter and offers add, manage and log-out actions

package feeds

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/tui/icons"
	"github.com/poremland/open-rss-client/internal/tui/listscreen"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/screen"
)

// EmptyText is shown when every feed is read
const EmptyText = "Congratulations! No more feeds with unread items."

// Screen lists feeds with unread items
type Screen struct {
	deps *screen.Deps
	list *listscreen.List[client.Feed]
}

// New creates the feed list screen
func New(deps *screen.Deps) *Screen {
	res := fetch.New(deps.Client, client.PathFeedTree,
		fetch.WithDecoder(client.DecodeFeedTree),
		fetch.OnSessionExpired[[]client.Feed](deps.Expired),
	)
	s := &Screen{deps: deps}
	s.list = listscreen.New(listscreen.Config[client.Feed]{
		Resource:   res,
		ID:         func(f client.Feed) int64 { return f.ID },
		Text:       func(f client.Feed) string { return icons.Feed.String() + " " + Row(f) },
		EmptyText:  EmptyText,
		BrowseOnly: true,
		OnActivate: func(f client.Feed) tea.Cmd {
			feed := f
			return screen.Push(screen.RouteFeedItems, screen.Params{Feed: &feed})
		},
	})
	return s
}

// Row renders a feed as "<name> (<count>)"
func Row(f client.Feed) string {
	return fmt.Sprintf("%s (%d)", f.Name, f.Count)
}

// Init implements screen.Screen
func (s *Screen) Init() tea.Cmd {
	s.publishMenu()
	return s.list.Load()
}

// Focus refreshes the list when the screen is shown again
func (s *Screen) Focus(screen.Params) tea.Cmd {
	s.publishMenu()
	return s.list.Refresh()
}

// List exposes the list body
func (s *Screen) List() *listscreen.List[client.Feed] { return s.list }

func (s *Screen) publishMenu() {
	s.deps.SetMenu(s.MenuItems()...)
}

// MenuItems returns the feed list actions
func (s *Screen) MenuItems() []menu.Item {
	return []menu.Item{
		{Label: "Add Feed", Action: func() tea.Cmd {
			return screen.Push(screen.RouteAddFeed, screen.Params{})
		}},
		{Label: "Manage Feeds", Action: func() tea.Cmd {
			return screen.Push(screen.RouteManage, screen.Params{})
		}},
		s.deps.LogoutItem(),
	}
}

// Update implements screen.Screen
func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listscreen.LoadedMsg:
		if s.list.Owns(msg) {
			s.list.Settle(msg)
		}
		return s, nil
	case tea.WindowSizeMsg:
		s.list.SetHeight(msg.Height - 8)
		return s, nil
	}

	if handled, cmd := s.list.Update(msg); handled {
		return s, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "a":
			return s, screen.Push(screen.RouteAddFeed, screen.Params{})
		case "M":
			return s, screen.Push(screen.RouteManage, screen.Params{})
		}
	}
	return s, nil
}

// View implements screen.Screen
func (s *Screen) View() string { return s.list.View() }

// Title implements screen.Screen
func (s *Screen) Title() string { return "Feeds" }

// Shortcuts implements screen.Screen
func (s *Screen) Shortcuts() []string {
	return append(s.list.Shortcuts(), "a Add", "q Quit")
}
