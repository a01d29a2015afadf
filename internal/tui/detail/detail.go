// ABOUTME: Item detail screen rendering an article's text in a scrollable viewport
// ABOUTME: Offers mark-as-read, open, share-to-clipboard and log-out actions

package detail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/feedtext"
	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/tui/icons"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/screen"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

const (
	defaultWidth  = 78
	defaultHeight = 16
)

// Alert texts
const (
	CopiedTitle   = "Link Copied"
	CopiedMessage = "The link has been copied to your clipboard."
)

var (
	defaultClipboardWrite = clipboard.WriteAll
	clipboardWrite        = defaultClipboardWrite
)

type loadedMsg struct {
	owner *Screen
	err   error
}

type markedMsg struct {
	owner *Screen
	err   error
}

// Screen shows one feed item
type Screen struct {
	deps     *screen.Deps
	feed     client.Feed
	res      *fetch.Resource[client.FeedItem]
	viewport viewport.Model
	width    int
	err      string
	marking  bool
}

// New creates the detail screen for p.Item
func New(deps *screen.Deps, p screen.Params) *Screen {
	s := &Screen{
		deps:     deps,
		viewport: viewport.New(defaultWidth, defaultHeight),
		width:    defaultWidth,
	}
	if p.Feed != nil {
		s.feed = *p.Feed
	}
	var item client.FeedItem
	if p.Item != nil {
		item = *p.Item
	}
	s.res = fetch.New(deps.Client, client.FeedItemPath(item.ID),
		fetch.WithInitial(item),
		fetch.OnSessionExpired[client.FeedItem](deps.Expired),
	)
	s.refreshContent()
	return s
}

// Item returns the displayed item
func (s *Screen) Item() client.FeedItem { return s.res.Data() }

// Init implements screen.Screen. The item passed in is shown at once and
// replaced by the server copy when it arrives.
func (s *Screen) Init() tea.Cmd {
	s.publishMenu()
	if s.Item().ID == 0 {
		return screen.Back(screen.Params{})
	}
	return func() tea.Msg {
		_, err := s.res.Execute(context.Background(), nil)
		return loadedMsg{owner: s, err: err}
	}
}

// Focus implements screen.Focuser
func (s *Screen) Focus(screen.Params) tea.Cmd {
	s.publishMenu()
	return nil
}

func (s *Screen) publishMenu() {
	s.deps.SetMenu(s.MenuItems()...)
}

// MenuItems returns the detail actions
func (s *Screen) MenuItems() []menu.Item {
	return []menu.Item{
		{Label: "Mark As Read", Action: s.MarkAsRead},
		{Label: "Open Full Site", Action: s.OpenFullSite},
		{Label: "Share", Action: s.Share},
		s.deps.LogoutItem(),
	}
}

// MarkAsRead marks the item read and goes back, telling the list which item to drop
func (s *Screen) MarkAsRead() tea.Cmd {
	if s.marking {
		return nil
	}
	s.marking = true
	id := s.Item().ID
	return func() tea.Msg {
		return markedMsg{owner: s, err: s.deps.Client.MarkAsRead(context.Background(), id)}
	}
}

// OpenFullSite shows the article link
func (s *Screen) OpenFullSite() tea.Cmd {
	link := s.Item().Link
	if link == "" {
		return nil
	}
	return screen.Alert("Open Full Site", link)
}

// Share copies the link to the clipboard. Without a clipboard the share text is shown instead.
func (s *Screen) Share() tea.Cmd {
	item := s.Item()
	if item.Link == "" {
		return nil
	}
	if err := clipboardWrite(item.Link); err != nil {
		slog.Warn("Clipboard unavailable", "error", err)
		return screen.Alert("Share", fmt.Sprintf("%s: %s", feedtext.Title(item.Title), item.Link))
	}
	return screen.Alert(CopiedTitle, CopiedMessage)
}

// Update implements screen.Screen
func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.owner != s {
			return s, nil
		}
		if st := s.res.Snapshot(); st.Error != "" {
			s.err = st.Error
		}
		s.refreshContent()
		return s, nil

	case markedMsg:
		if msg.owner != s {
			return s, nil
		}
		s.marking = false
		if msg.err != nil {
			var cmd tea.Cmd
			s.err, cmd = s.deps.ErrorText(msg.err)
			return s, cmd
		}
		return s, screen.Back(screen.Params{RemovedItemID: s.Item().ID})

	case tea.WindowSizeMsg:
		s.width = max(msg.Width-4, 20)
		s.viewport.Width = s.width
		s.viewport.Height = max(msg.Height-12, 3)
		s.refreshContent()
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "b":
			return s, screen.Back(screen.Params{})
		case "r":
			return s, s.MarkAsRead()
		case "o":
			return s, s.OpenFullSite()
		case "s":
			return s, s.Share()
		}
	}

	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

func (s *Screen) refreshContent() {
	item := s.Item()
	var sb strings.Builder

	body := feedtext.StripTags(item.Description)
	if body == "" {
		body = "No Description"
	}
	sb.WriteString(lipgloss.NewStyle().Width(s.width).Render(body))

	if img := feedtext.FirstImage(item.Description); img != "" {
		sb.WriteString("\n\n")
		sb.WriteString(styles.Subtitle.Render("Image: ") + styles.Link.Render(img))
	}
	if item.Link != "" {
		sb.WriteString("\n\n" + icons.Link.String() + " [")
		sb.WriteString(styles.Link.Render(item.Link))
		sb.WriteString("]")
	}
	s.viewport.SetContent(sb.String())
}

// View implements screen.Screen
func (s *Screen) View() string {
	item := s.Item()
	title := feedtext.Title(item.Title)
	if title == "" {
		title = "No Title"
	}

	var sb strings.Builder
	if s.err != "" {
		sb.WriteString(screen.ErrorLine(s.err))
		sb.WriteString("\n\n")
	}
	sb.WriteString(styles.Title.Render(icons.Item.String() + " " + title))
	sb.WriteString("\n")
	sb.WriteString(s.viewport.View())
	return sb.String()
}

// Title implements screen.Screen
func (s *Screen) Title() string {
	if s.feed.Name == "" {
		return "Feed Item"
	}
	return s.feed.Name
}

// Shortcuts implements screen.Screen
func (s *Screen) Shortcuts() []string {
	return []string{"↑↓ Scroll", "r Read", "o Open", "s Share", "m Menu", "Esc Back"}
}
