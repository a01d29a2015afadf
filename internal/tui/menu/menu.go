// ABOUTME: Overflow menu shared by all screens and passed to them explicitly
// ABOUTME: Screens publish their actions; choosing one closes the menu and runs it

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/poremland/open-rss-client/internal/tui/icons"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

// Item is one menu entry
type Item struct {
	Label  string
	Action func() tea.Cmd
}

// Controller holds the active screen's menu items and the open/closed state
type Controller struct {
	items  []Item
	open   bool
	cursor int
}

// New creates a closed, empty menu
func New() *Controller {
	return &Controller{}
}

// SetItems replaces the menu entries. The cursor resets to the top.
func (c *Controller) SetItems(items ...Item) {
	c.items = items
	c.cursor = 0
	if len(items) == 0 {
		c.open = false
	}
}

// Items returns the labels of the current entries
func (c *Controller) Items() []string {
	labels := make([]string, len(c.items))
	for i, it := range c.items {
		labels[i] = it.Label
	}
	return labels
}

// IsOpen reports whether the menu is showing
func (c *Controller) IsOpen() bool { return c.open }

// Toggle opens or closes the menu. An empty menu never opens.
func (c *Controller) Toggle() {
	if c.open {
		c.Close()
		return
	}
	c.Open()
}

// Open shows the menu
func (c *Controller) Open() {
	if len(c.items) == 0 {
		return
	}
	c.open = true
	c.cursor = 0
}

// Close hides the menu
func (c *Controller) Close() { c.open = false }

// Select closes the menu and runs the entry with label
func (c *Controller) Select(label string) tea.Cmd {
	for _, it := range c.items {
		if it.Label == label {
			c.Close()
			if it.Action == nil {
				return nil
			}
			return it.Action()
		}
	}
	return nil
}

// Update handles keys while the menu is open
func (c *Controller) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.items)-1 {
			c.cursor++
		}
	case "enter":
		if c.cursor < len(c.items) {
			return c.Select(c.items[c.cursor].Label)
		}
	case "esc", "m", "q":
		c.Close()
	}
	return nil
}

var (
	selectedStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(styles.Text)
)

// View renders the open menu as a panel
func (c *Controller) View() string {
	if !c.open {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.Title.Render(icons.Menu.String() + " Menu"))
	b.WriteString("\n")
	for i, it := range c.items {
		cursor := "  "
		style := normalStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedStyle
		}
		b.WriteString(cursor + style.Render(it.Label) + "\n")
	}
	return styles.ActivePanel.Render(strings.TrimRight(b.String(), "\n"))
}
