// ABOUTME: List controller combining a fetch resource with multi-select state
// ABOUTME: Exposes refresh, snapshot and replace commands plus row rendering delegation

package listview

import (
	"context"
	"slices"
	"sync"

	"github.com/poremland/open-rss-client/internal/fetch"
	"github.com/poremland/open-rss-client/internal/selection"
)

// Row is what a render callback receives for one list entry
type Row[T any] struct {
	Item           T
	Index          int
	IsItemSelected bool
	OnPress        func()
	OnLongPress    func()
}

// RenderFunc draws a single row
type RenderFunc[T any] func(Row[T]) string

// Controller owns the list data, the refreshing flag and the selection
type Controller[T any] struct {
	res        *fetch.Resource[[]T]
	sel        *selection.Machine
	id         func(T) int64
	render     RenderFunc[T]
	onActivate func(T)

	// mu guards sel and refreshing; Load may settle on a worker goroutine
	mu         sync.Mutex
	refreshing bool
}

// Option configures a Controller
type Option[T any] func(*Controller[T])

// WithExitPolicy sets how multi-select ends
func WithExitPolicy[T any](p selection.ExitPolicy) Option[T] {
	return func(c *Controller[T]) { c.sel = selection.New(p) }
}

// WithRender sets the row renderer
func WithRender[T any](fn RenderFunc[T]) Option[T] {
	return func(c *Controller[T]) { c.render = fn }
}

// OnActivate sets the callback for a press while browsing
func OnActivate[T any](fn func(T)) Option[T] {
	return func(c *Controller[T]) { c.onActivate = fn }
}

// New creates a controller over res. id extracts the numeric identifier of an item.
func New[T any](res *fetch.Resource[[]T], id func(T) int64, opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		res: res,
		sel: selection.New(selection.ExitOnDone),
		id:  id,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load runs the initial fetch
func (c *Controller[T]) Load(ctx context.Context) ([]T, error) {
	items, err := c.res.Execute(ctx, nil)
	c.prune()
	return items, err
}

// Refresh re-fetches the list. Refreshing is true until the fetch settles,
// whatever the outcome.
func (c *Controller[T]) Refresh(ctx context.Context) ([]T, error) {
	c.setRefreshing(true)
	defer c.setRefreshing(false)
	return c.Load(ctx)
}

func (c *Controller[T]) setRefreshing(v bool) {
	c.mu.Lock()
	c.refreshing = v
	c.mu.Unlock()
}

// Refreshing reports whether a pull-to-refresh is in flight
func (c *Controller[T]) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// State returns the underlying fetch state
func (c *Controller[T]) State() fetch.State[[]T] { return c.res.Snapshot() }

// Snapshot returns a copy of the current items
func (c *Controller[T]) Snapshot() []T { return slices.Clone(c.res.Data()) }

// Len returns the number of items
func (c *Controller[T]) Len() int { return len(c.res.Data()) }

// Replace swaps in items without a request
func (c *Controller[T]) Replace(items []T) {
	c.res.SetData(func([]T) []T { return slices.Clone(items) })
	c.prune()
}

// Remove drops the item with id locally and reports whether it was present
func (c *Controller[T]) Remove(id int64) bool {
	removed := false
	c.res.SetData(func(items []T) []T {
		out := slices.DeleteFunc(slices.Clone(items), func(it T) bool { return c.id(it) == id })
		removed = len(out) != len(items)
		return out
	})
	c.prune()
	return removed
}

func (c *Controller[T]) prune() {
	ids := c.ids()
	c.mu.Lock()
	c.sel.Prune(ids)
	c.mu.Unlock()
}

func (c *Controller[T]) ids() []int64 {
	items := c.res.Data()
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = c.id(it)
	}
	return ids
}

// Mode returns Browsing or Selecting
func (c *Controller[T]) Mode() selection.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Mode()
}

// Selecting reports whether multi-select is active
func (c *Controller[T]) Selecting() bool { return c.Mode() == selection.Selecting }

// Selected returns the selected ids
func (c *Controller[T]) Selected() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Selected()
}

// IsSelected reports whether id is selected
func (c *Controller[T]) IsSelected(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.IsSelected(id)
}

// Press handles a tap on the row at index. While browsing it activates the item.
func (c *Controller[T]) Press(index int) {
	item, ok := c.at(index)
	if !ok {
		return
	}
	c.mu.Lock()
	activate := c.sel.Tap(c.id(item))
	c.mu.Unlock()
	if activate && c.onActivate != nil {
		c.onActivate(item)
	}
}

// LongPress handles a long-press on the row at index
func (c *Controller[T]) LongPress(index int) {
	if item, ok := c.at(index); ok {
		c.mu.Lock()
		c.sel.LongPress(c.id(item))
		c.mu.Unlock()
	}
}

// SelectAll selects every displayed item
func (c *Controller[T]) SelectAll() {
	ids := c.ids()
	c.mu.Lock()
	c.sel.SelectAll(ids)
	c.mu.Unlock()
}

// Done leaves multi-select
func (c *Controller[T]) Done() {
	c.mu.Lock()
	c.sel.Done()
	c.mu.Unlock()
}

func (c *Controller[T]) at(index int) (T, bool) {
	items := c.res.Data()
	if index < 0 || index >= len(items) {
		var zero T
		return zero, false
	}
	return items[index], true
}

// BulkAction runs fn over the selected ids and refreshes the list whatever
// the outcome. On success the selection resets. On failure only the ids still
// displayed stay selected, and fn's error is returned.
func (c *Controller[T]) BulkAction(ctx context.Context, fn func(ctx context.Context, ids []int64) error) error {
	ids := c.Selected()
	if len(ids) == 0 {
		return nil
	}
	if err := fn(ctx, ids); err != nil {
		// Refresh prunes the selection; its own failure shows in the list state
		_, _ = c.Refresh(ctx)
		return err
	}
	c.mu.Lock()
	c.sel.Reset()
	c.mu.Unlock()
	_, err := c.Refresh(ctx)
	return err
}

// Rows builds the render input for every item
func (c *Controller[T]) Rows() []Row[T] {
	items := c.res.Data()
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]Row[T], len(items))
	for i, it := range items {
		rows[i] = Row[T]{
			Item:           it,
			Index:          i,
			IsItemSelected: c.sel.IsSelected(c.id(it)),
			OnPress:        func() { c.Press(i) },
			OnLongPress:    func() { c.LongPress(i) },
		}
	}
	return rows
}

// Render draws every row with the configured renderer
func (c *Controller[T]) Render() []string {
	if c.render == nil {
		return nil
	}
	rows := c.Rows()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = c.render(r)
	}
	return out
}
