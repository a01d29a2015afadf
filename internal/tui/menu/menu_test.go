// ABOUTME: Tests for the overflow menu controller
// ABOUTME: Validates open/close behaviour, navigation and action dispatch

package menu

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/tui/icons"
)

type ranMsg struct{ label string }

func action(label string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return ranMsg{label} }
	}
}

func newMenu() *Controller {
	c := New()
	c.SetItems(
		Item{Label: "Add Feed", Action: action("add")},
		Item{Label: "Manage Feeds", Action: action("manage")},
		Item{Label: "Log-out", Action: action("logout")},
	)
	return c
}

func TestEmptyMenuNeverOpens(t *testing.T) {
	c := New()
	c.Toggle()
	if c.IsOpen() {
		t.Error("expected empty menu to stay closed")
	}
}

func TestToggle(t *testing.T) {
	c := newMenu()
	c.Toggle()
	if !c.IsOpen() {
		t.Fatal("expected menu open")
	}
	c.Toggle()
	if c.IsOpen() {
		t.Error("expected menu closed")
	}
}

func TestItems(t *testing.T) {
	got := strings.Join(newMenu().Items(), ",")
	if got != "Add Feed,Manage Feeds,Log-out" {
		t.Errorf("unexpected items %q", got)
	}
}

func TestSelectClosesThenRuns(t *testing.T) {
	c := newMenu()
	c.Open()
	cmd := c.Select("Manage Feeds")
	if c.IsOpen() {
		t.Error("expected menu closed after select")
	}
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd().(ranMsg); msg.label != "manage" {
		t.Errorf("expected manage action, got %q", msg.label)
	}
	if c.Select("Missing") != nil {
		t.Error("expected nil command for unknown label")
	}
}

func TestKeyboardNavigation(t *testing.T) {
	c := newMenu()
	c.Open()

	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command from enter")
	}
	if msg := cmd().(ranMsg); msg.label != "logout" {
		t.Errorf("expected cursor clamped to last item, got %q", msg.label)
	}
}

func TestEscCloses(t *testing.T) {
	c := newMenu()
	c.Open()
	c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if c.IsOpen() {
		t.Error("expected esc to close the menu")
	}
}

func TestSetItemsClosesWhenEmpty(t *testing.T) {
	c := newMenu()
	c.Open()
	c.SetItems()
	if c.IsOpen() {
		t.Error("expected menu closed after clearing items")
	}
}

func TestView(t *testing.T) {
	c := newMenu()
	if c.View() != "" {
		t.Error("expected closed menu to render nothing")
	}
	c.Open()
	view := c.View()
	if !strings.Contains(view, icons.Menu.String()+" Menu") {
		t.Errorf("expected menu header, got %q", view)
	}
	if !strings.Contains(view, "> ") || !strings.Contains(view, "Log-out") {
		t.Errorf("expected cursor and items in view, got %q", view)
	}
}
