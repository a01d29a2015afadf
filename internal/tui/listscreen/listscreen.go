// ABOUTME: Generic selectable list body shared by the feed, item and manage screens
// ABOUTME: Maps keys to list gestures and renders loading, error, empty and row states

package listscreen

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/listview"
	"github.com/poremland/open-rss-client/internal/selection"
	"github.com/poremland/open-rss-client/internal/tui/icons"
	"github.com/poremland/open-rss-client/internal/tui/styles"
	"github.com/poremland/open-rss-client/internal/tui/widgets"
)

// LoadedMsg reports that a load or refresh settled. Owner identifies the
// list that started it so stacked screens ignore each other's results.
type LoadedMsg struct {
	Owner   any
	Err     error
	Refresh bool
}

// Config describes one list screen
type Config[T any] struct {
	Resource   *fetch.Resource[[]T]
	ID         func(T) int64
	Text       func(T) string
	EmptyText  string
	ExitPolicy selection.ExitPolicy
	OnActivate func(T) tea.Cmd

	// BrowseOnly disables multi-select gestures
	BrowseOnly bool
}

// List is the body of a list screen
type List[T any] struct {
	ctrl      *listview.Controller[T]
	text      func(T) string
	empty     string
	cursor    int
	height    int
	loaded    bool
	spinner   spinner.Model
	activate  func(T) tea.Cmd
	activated tea.Cmd
	browse    bool
}

// New creates a list from cfg
func New[T any](cfg Config[T]) *List[T] {
	l := &List[T]{
		text:     cfg.Text,
		empty:    cfg.EmptyText,
		activate: cfg.OnActivate,
		browse:   cfg.BrowseOnly,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Cursor),
		),
	}
	l.ctrl = listview.New(cfg.Resource, cfg.ID,
		listview.WithExitPolicy[T](cfg.ExitPolicy),
		listview.WithRender(l.renderRow),
		listview.OnActivate(func(it T) {
			if l.activate != nil {
				l.activated = l.activate(it)
			}
		}),
	)
	return l
}

// Controller exposes the underlying list controller
func (l *List[T]) Controller() *listview.Controller[T] { return l.ctrl }

// Loaded reports whether the first load has settled
func (l *List[T]) Loaded() bool { return l.loaded }

// Cursor returns the highlighted row
func (l *List[T]) Cursor() int { return l.cursor }

// Current returns the highlighted item
func (l *List[T]) Current() (T, bool) {
	items := l.ctrl.Snapshot()
	if l.cursor < 0 || l.cursor >= len(items) {
		var zero T
		return zero, false
	}
	return items[l.cursor], true
}

// SetHeight limits how many rows are drawn
func (l *List[T]) SetHeight(h int) { l.height = h }

// Load returns a command running the initial fetch plus the spinner
func (l *List[T]) Load() tea.Cmd {
	return tea.Batch(l.spinner.Tick, func() tea.Msg {
		_, err := l.ctrl.Load(context.Background())
		return LoadedMsg{Owner: l, Err: err}
	})
}

// Refresh returns a command re-fetching the list
func (l *List[T]) Refresh() tea.Cmd {
	return tea.Batch(l.spinner.Tick, func() tea.Msg {
		_, err := l.ctrl.Refresh(context.Background())
		return LoadedMsg{Owner: l, Err: err, Refresh: true}
	})
}

// Owns reports whether msg belongs to this list
func (l *List[T]) Owns(msg LoadedMsg) bool { return msg.Owner == l }

// Settle records a LoadedMsg for this list
func (l *List[T]) Settle(LoadedMsg) {
	l.loaded = true
	l.clamp()
}

// Remove drops id locally without a request
func (l *List[T]) Remove(id int64) bool {
	ok := l.ctrl.Remove(id)
	l.clamp()
	return ok
}

func (l *List[T]) clamp() {
	n := l.ctrl.Len()
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// Update handles list keys and spinner ticks. handled is false for keys the
// list does not consume so the screen can act on them.
func (l *List[T]) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !l.ctrl.State().Loading {
			return true, nil
		}
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		return true, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if l.cursor > 0 {
				l.cursor--
			}
		case "down", "j":
			if l.cursor < l.ctrl.Len()-1 {
				l.cursor++
			}
		case "home", "g":
			l.cursor = 0
		case "end", "G":
			l.cursor = max(l.ctrl.Len()-1, 0)
		case "enter":
			l.activated = nil
			l.ctrl.Press(l.cursor)
			cmd, l.activated = l.activated, nil
			return true, cmd
		case " ", "x":
			if l.browse {
				return false, nil
			}
			l.ctrl.LongPress(l.cursor)
		case "a":
			if !l.ctrl.Selecting() {
				return false, nil
			}
			l.ctrl.SelectAll()
		case "r":
			return true, l.Refresh()
		case "esc":
			if !l.ctrl.Selecting() {
				return false, nil
			}
			l.ctrl.Done()
		default:
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

// Shortcuts lists the keys valid in the current mode
func (l *List[T]) Shortcuts() []string {
	if l.ctrl.Selecting() {
		return []string{"↑↓ Navigate", "Enter Toggle", "a All", "Esc Done", "m Menu"}
	}
	if l.browse {
		return []string{"↑↓ Navigate", "Enter Open", "r Refresh", "m Menu"}
	}
	return []string{"↑↓ Navigate", "Enter Open", "Space Select", "r Refresh", "m Menu"}
}

func (l *List[T]) renderRow(r listview.Row[T]) string {
	return widgets.Row(l.text(r.Item), widgets.RowState{
		Cursor:    r.Index == l.cursor,
		Selecting: l.ctrl.Selecting(),
		Selected:  r.IsItemSelected,
	})
}

// View draws the list state
func (l *List[T]) View() string {
	st := l.ctrl.State()
	var sb strings.Builder

	if st.Loading && !l.ctrl.Refreshing() && len(st.Data) == 0 {
		sb.WriteString(l.spinner.View() + " Loading...")
		return sb.String()
	}
	if l.ctrl.Refreshing() {
		sb.WriteString(l.spinner.View() + " " + icons.Refresh.String() + " Refreshing...\n\n")
	}
	if st.Error != "" {
		sb.WriteString(widgets.StatusText("Error: "+st.Error, widgets.StatusCritical))
		sb.WriteString("\n\n")
	}
	if len(st.Data) == 0 {
		if l.loaded && st.Error == "" {
			sb.WriteString(styles.Subtitle.Render(l.empty))
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	if l.ctrl.Selecting() {
		sb.WriteString(widgets.SelectionBadge(len(l.ctrl.Selected()), len(st.Data)))
		sb.WriteString("\n\n")
	}

	rows := l.ctrl.Render()
	start, end := widgets.Window(len(rows), l.cursor, l.height)
	sb.WriteString(strings.Join(rows[start:end], "\n"))
	return sb.String()
}
