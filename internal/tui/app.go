// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Owns the navigation stack, menu and alert overlays, and routes input to the top screen

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/poremland/open-rss-client/internal/tui/addfeed"
	"github.com/poremland/open-rss-client/internal/tui/detail"
	"github.com/poremland/open-rss-client/internal/tui/feeds"
	"github.com/poremland/open-rss-client/internal/tui/icons"
	"github.com/poremland/open-rss-client/internal/tui/items"
	"github.com/poremland/open-rss-client/internal/tui/listscreen"
	"github.com/poremland/open-rss-client/internal/tui/login"
	"github.com/poremland/open-rss-client/internal/tui/manage"
	"github.com/poremland/open-rss-client/internal/tui/screen"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
)

// App is the root model for the TUI
type App struct {
	deps       *screen.Deps
	stack      []screen.Screen
	alerts     []screen.AlertMsg
	width      int
	height     int
	user       string
	lastUpdate time.Time
}

// New creates a new TUI application
func New(deps *screen.Deps) *App {
	return &App{deps: deps}
}

// Init implements tea.Model. A stored token skips the login screen.
func (a *App) Init() tea.Cmd {
	logged, err := a.deps.Session.LoggedIn(context.Background())
	if err != nil {
		slog.Warn("Failed to read session", "error", err)
	}
	if logged {
		return a.reset(screen.RouteFeedList)
	}
	return a.reset(screen.RouteLogin)
}

// Top returns the visible screen
func (a *App) Top() screen.Screen {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// Depth returns the navigation stack size
func (a *App) Depth() int { return len(a.stack) }

// Alerts returns the pending alerts, oldest first
func (a *App) Alerts() []screen.AlertMsg { return a.alerts }

func (a *App) build(route screen.Route, p screen.Params) screen.Screen {
	switch route {
	case screen.RouteLogin:
		return login.New(a.deps)
	case screen.RouteFeedList:
		return feeds.New(a.deps)
	case screen.RouteFeedItems:
		return items.New(a.deps, p)
	case screen.RouteDetail:
		return detail.New(a.deps, p)
	case screen.RouteManage:
		return manage.New(a.deps)
	case screen.RouteAddFeed:
		return addfeed.New(a.deps)
	}
	slog.Error("Unknown route", "route", route)
	return nil
}

// open builds route, sizes it and runs its Init
func (a *App) open(route screen.Route, p screen.Params) (screen.Screen, tea.Cmd) {
	s := a.build(route, p)
	if s == nil {
		return nil, nil
	}
	var sizeCmd tea.Cmd
	if a.width > 0 {
		s, sizeCmd = s.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	return s, tea.Batch(sizeCmd, s.Init())
}

func (a *App) push(route screen.Route, p screen.Params) tea.Cmd {
	s, cmd := a.open(route, p)
	if s == nil {
		return nil
	}
	a.deps.Menu.Close()
	a.stack = append(a.stack, s)
	return cmd
}

func (a *App) back(p screen.Params) tea.Cmd {
	if len(a.stack) <= 1 {
		return nil
	}
	a.deps.Menu.Close()
	a.stack = a.stack[:len(a.stack)-1]
	if f, ok := a.Top().(screen.Focuser); ok {
		return f.Focus(p)
	}
	return nil
}

func (a *App) reset(route screen.Route) tea.Cmd {
	s, cmd := a.open(route, screen.Params{})
	if s == nil {
		return nil
	}
	a.deps.Menu.Close()
	a.stack = []screen.Screen{s}

	a.user = ""
	if route == screen.RouteFeedList {
		if user, err := a.deps.Session.User(context.Background()); err == nil {
			a.user = user
		}
		return tea.Batch(cmd, a.refreshToken())
	}
	return cmd
}

// refreshToken swaps the stored token for a fresh one in the background
func (a *App) refreshToken() tea.Cmd {
	deps := a.deps
	return func() tea.Msg {
		deps.Session.RefreshOnLoad(context.Background(), deps.Client)
		return nil
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.broadcast(msg)

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case screen.PushMsg:
		return a, a.push(msg.Route, msg.Params)

	case screen.BackMsg:
		return a, a.back(msg.Params)

	case screen.ResetMsg:
		return a, a.reset(msg.Route)

	case screen.AlertMsg:
		a.alerts = append(a.alerts, msg)
		return a, nil

	case listscreen.LoadedMsg:
		if msg.Err == nil {
			a.lastUpdate = time.Now()
		}
	}

	return a, a.broadcast(msg)
}

// broadcast delivers msg to every screen on the stack. Screens ignore
// results they did not start.
func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, s := range a.stack {
		var cmd tea.Cmd
		a.stack[i], cmd = s.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Handle global quit
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if len(a.alerts) > 0 {
		switch msg.String() {
		case "enter", "esc", " ", "q":
			a.alerts = a.alerts[1:]
		}
		return nil
	}

	if a.deps.Menu.IsOpen() {
		return a.deps.Menu.Update(msg)
	}

	top := a.Top()
	if top == nil {
		return nil
	}

	capturing := false
	if c, ok := top.(screen.InputCapturer); ok {
		capturing = c.CapturingInput()
	}
	if !capturing {
		switch msg.String() {
		case "q":
			return tea.Quit
		case "m":
			a.deps.Menu.Toggle()
			return nil
		}
	}

	var cmd tea.Cmd
	a.stack[len(a.stack)-1], cmd = top.Update(msg)
	return cmd
}

// View implements tea.Model
func (a *App) View() string {
	content := ""
	if top := a.Top(); top != nil {
		content = top.View()
	}

	if a.deps.Menu.IsOpen() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, "  ", a.deps.Menu.View())
	}
	if len(a.alerts) > 0 {
		content = a.renderAlert(a.alerts[0]) + "\n\n" + content
	}

	return a.wrapWithFrame(content)
}

// renderAlert draws the oldest pending alert
func (a *App) renderAlert(alert screen.AlertMsg) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Warning.String() + " " + alert.Title))
	sb.WriteString("\n")
	sb.WriteString(alert.Message)
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("Enter to dismiss"))
	return styles.AlertPanel.Render(sb.String())
}

// frameWidth is the terminal width less one column, clamped to the minimum
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	icon := icons.App.String()
	title := "Open RSS Reader"

	// Build left content
	leftText := fmt.Sprintf(" %s %s ", icon, titleStyle.Render(title))

	// Right side shows the screen title and the signed-in user
	var parts []string
	if top := a.Top(); top != nil {
		parts = append(parts, top.Title())
	}
	if a.user != "" {
		parts = append(parts, a.user)
	}
	rightText := ""
	if len(parts) > 0 {
		rightText = " " + contextStyle.Render(strings.Join(parts, " · ")) + " "
	}

	// Calculate fill needed
	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	fill := strings.Repeat("─", fillWidth)

	header := "╭─" + leftText + fill + rightText + "─╮"

	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch {
	case len(a.alerts) > 0:
		shortcuts = []string{"Enter Dismiss"}
	case a.deps.Menu.IsOpen():
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "Esc Close"}
	case a.Top() != nil:
		shortcuts = a.Top().Shortcuts()
	}

	// Build styled shortcuts
	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ") + " "

	// Right side status (last update time)
	rightText := ""
	if !a.lastUpdate.IsZero() {
		rightText = statusStyle.Render("Updated "+formatTimeSince(a.lastUpdate)) + " "
	}

	// Shortcuts that do not fit are dropped from the end
	for len(styledShortcuts) > 0 && lipgloss.Width(leftText)+lipgloss.Width(rightText)+4 > width {
		styledShortcuts = styledShortcuts[:len(styledShortcuts)-1]
		leftText = " " + strings.Join(styledShortcuts, "  ") + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	fill := strings.Repeat("─", fillWidth)

	footer := "╰─" + leftText + fill + rightText + "─╯"

	return borderStyle.Render(footer)
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	}

	hours := int(d.Hours())
	if hours == 1 {
		return "1h ago"
	}
	return fmt.Sprintf("%dh ago", hours)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI
func Run(deps *screen.Deps) error {
	app := New(deps)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	deps.Bridge.SetSender(p.Send)
	_, err := p.Run()
	return err
}
