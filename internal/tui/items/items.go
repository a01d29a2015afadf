// ABOUTME: Feed item list screen with multi-select mark-as-read
// ABOUTME: Goes back on its own once the feed has no unread items left

package items

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/feedtext"
	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/tui/listscreen"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/screen"
)

const (
	titleWidth       = 120
	descriptionWidth = 100
)

// actionDoneMsg reports a mark-read or delete call that settled
type actionDoneMsg struct {
	owner *Screen
	err   error
	back  bool
}

// Screen lists the items of one feed
type Screen struct {
	deps *screen.Deps
	feed client.Feed
	list *listscreen.List[client.FeedItem]
	err  string
	busy bool
}

// New creates the item list for p.Feed
func New(deps *screen.Deps, p screen.Params) *Screen {
	s := &Screen{deps: deps}
	if p.Feed != nil {
		s.feed = *p.Feed
	}
	res := fetch.New(deps.Client, client.FeedItemsPath(s.feed.ID),
		fetch.OnSessionExpired[[]client.FeedItem](deps.Expired),
	)
	s.list = listscreen.New(listscreen.Config[client.FeedItem]{
		Resource:   res,
		ID:         func(it client.FeedItem) int64 { return it.ID },
		Text:       Row,
		ExitPolicy: deps.ItemsExitPolicy,
		OnActivate: func(it client.FeedItem) tea.Cmd {
			feed, item := s.feed, it
			return screen.Push(screen.RouteDetail, screen.Params{Feed: &feed, Item: &item})
		},
	})
	return s
}

// Row renders the decoded title, the link and a one-line description
func Row(it client.FeedItem) string {
	link := it.Link
	if link == "" {
		link = "No Link"
	}
	desc := feedtext.StripTags(it.Description)
	if desc == "" {
		desc = "No Description"
	}
	lines := []string{
		feedtext.Truncate(feedtext.Title(it.Title), titleWidth),
		link,
		feedtext.Truncate(desc, descriptionWidth),
	}
	return strings.Join(lines, "\n")
}

// List exposes the list body
func (s *Screen) List() *listscreen.List[client.FeedItem] { return s.list }

// Init implements screen.Screen
func (s *Screen) Init() tea.Cmd {
	s.publishMenu()
	return s.list.Load()
}

// Focus drops an item the detail screen marked read, without a refetch
func (s *Screen) Focus(p screen.Params) tea.Cmd {
	s.publishMenu()
	if p.RemovedItemID != 0 {
		s.list.Remove(p.RemovedItemID)
	}
	return s.backIfEmpty()
}

func (s *Screen) backIfEmpty() tea.Cmd {
	st := s.list.Controller().State()
	if s.list.Loaded() && !st.Loading && st.Error == "" && len(st.Data) == 0 {
		return screen.Back(screen.Params{})
	}
	return nil
}

func (s *Screen) publishMenu() {
	s.deps.SetMenu(s.MenuItems()...)
}

// MenuItems returns the actions for the current mode
func (s *Screen) MenuItems() []menu.Item {
	if s.list.Controller().Selecting() {
		return []menu.Item{
			{Label: "Select All", Action: s.selectAll},
			{Label: "Mark Read", Action: s.MarkSelectedRead},
			{Label: "Done", Action: s.done},
		}
	}
	return []menu.Item{
		{Label: "Mark All As Read", Action: s.MarkAllRead},
		{Label: "Delete Feed", Action: s.DeleteFeed},
		s.deps.LogoutItem(),
	}
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

// MarkSelectedRead marks the selected items read and refreshes
func (s *Screen) MarkSelectedRead() tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	feedID := s.feed.ID
	ctrl := s.list.Controller()
	return func() tea.Msg {
		// A failed refresh already shows in the list and ran the expiry flow
		var markErr error
		_ = ctrl.BulkAction(context.Background(), func(ctx context.Context, ids []int64) error {
			markErr = s.deps.Client.MarkItemsAsRead(ctx, feedID, ids)
			return markErr
		})
		return actionDoneMsg{owner: s, err: markErr}
	}
}

// MarkAllRead marks every displayed item read and goes back
func (s *Screen) MarkAllRead() tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	feedID := s.feed.ID
	items := s.list.Controller().Snapshot()
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return func() tea.Msg {
		err := s.deps.Client.MarkItemsAsRead(context.Background(), feedID, ids)
		return actionDoneMsg{owner: s, err: err, back: true}
	}
}

// DeleteFeed unsubscribes from the feed and goes back
func (s *Screen) DeleteFeed() tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	feedID := s.feed.ID
	return func() tea.Msg {
		err := s.deps.Client.RemoveFeed(context.Background(), feedID)
		return actionDoneMsg{owner: s, err: err, back: true}
	}
}

// Update implements screen.Screen
func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listscreen.LoadedMsg:
		if !s.list.Owns(msg) {
			return s, nil
		}
		s.list.Settle(msg)
		s.publishMenu()
		if msg.Err != nil {
			return s, nil
		}
		return s, s.backIfEmpty()

	case actionDoneMsg:
		if msg.owner != s {
			return s, nil
		}
		s.busy = false
		s.list.Settle(listscreen.LoadedMsg{Owner: s.list})
		s.publishMenu()
		if msg.err != nil {
			var cmd tea.Cmd
			s.err, cmd = s.deps.ErrorText(msg.err)
			return s, cmd
		}
		s.err = ""
		if msg.back {
			return s, screen.Back(screen.Params{})
		}
		return s, s.backIfEmpty()

	case tea.WindowSizeMsg:
		s.list.SetHeight((msg.Height - 8) / 3)
		return s, nil
	}

	handled, cmd := s.list.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		s.publishMenu()
	}
	if handled {
		return s, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "esc" || key.String() == "b") {
		return s, screen.Back(screen.Params{})
	}
	return s, nil
}

// View implements screen.Screen
func (s *Screen) View() string {
	if s.err == "" {
		return s.list.View()
	}
	return screen.ErrorLine(s.err) + "\n\n" + s.list.View()
}

// Title implements screen.Screen
func (s *Screen) Title() string {
	if s.feed.Name == "" {
		return "Feed Items"
	}
	return s.feed.Name
}

// Shortcuts implements screen.Screen
func (s *Screen) Shortcuts() []string {
	return append(s.list.Shortcuts(), "Esc Back")
}
