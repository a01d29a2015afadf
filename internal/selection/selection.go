// ABOUTME: Multi-select state machine turning press and long-press gestures into selection changes
// ABOUTME: Supports exit-on-Done and exit-when-empty policies per list

package selection

import "slices"

// Mode is the list's interaction mode
type Mode int

const (
	Browsing Mode = iota
	Selecting
)

func (m Mode) String() string {
	if m == Selecting {
		return "selecting"
	}
	return "browsing"
}

// ExitPolicy decides when Selecting ends
type ExitPolicy int

const (
	// ExitOnDone stays in Selecting until Done, even with nothing selected
	ExitOnDone ExitPolicy = iota
	// ExitWhenEmpty leaves Selecting as soon as the last item is toggled off
	ExitWhenEmpty
)

// Machine holds the selected ids and the active flag. Not safe for concurrent
// use; it is owned by one list.
type Machine struct {
	policy ExitPolicy
	ids    []int64
	active bool
}

// New creates a machine in Browsing
func New(policy ExitPolicy) *Machine {
	return &Machine{policy: policy}
}

// Policy returns the exit policy
func (m *Machine) Policy() ExitPolicy { return m.policy }

// Mode returns Browsing or Selecting
func (m *Machine) Mode() Mode {
	if m.active {
		return Selecting
	}
	return Browsing
}

// Active reports whether multi-select is on
func (m *Machine) Active() bool { return m.active }

// Selected returns the selected ids in insertion order
func (m *Machine) Selected() []int64 { return slices.Clone(m.ids) }

// Count returns the number of selected ids
func (m *Machine) Count() int { return len(m.ids) }

// IsSelected reports whether id is selected
func (m *Machine) IsSelected(id int64) bool { return slices.Contains(m.ids, id) }

// LongPress enters Selecting with only id selected. It is a no-op while
// already selecting and reports whether the state changed.
func (m *Machine) LongPress(id int64) bool {
	if m.active {
		return false
	}
	m.active = true
	m.ids = []int64{id}
	return true
}

// Tap toggles id while selecting. While browsing it leaves the selection
// alone and returns true, meaning the caller should activate the item.
func (m *Machine) Tap(id int64) (activate bool) {
	if !m.active {
		return true
	}
	if i := slices.Index(m.ids, id); i >= 0 {
		m.ids = slices.Delete(m.ids, i, i+1)
	} else {
		m.ids = append(m.ids, id)
	}
	if len(m.ids) == 0 && m.policy == ExitWhenEmpty {
		m.active = false
	}
	return false
}

// SelectAll selects every displayed id in display order, replacing any prior
// selection. It enters Selecting when there is anything to select.
func (m *Machine) SelectAll(displayed []int64) {
	m.ids = slices.Clone(displayed)
	if len(m.ids) > 0 {
		m.active = true
	} else if m.policy == ExitWhenEmpty {
		m.active = false
	}
}

// Done leaves Selecting and clears the selection
func (m *Machine) Done() {
	m.ids = nil
	m.active = false
}

// Reset returns to Browsing after a bulk action consumed the selection
func (m *Machine) Reset() { m.Done() }

// Prune drops selected ids that are no longer displayed
func (m *Machine) Prune(displayed []int64) {
	if len(m.ids) == 0 {
		return
	}
	m.ids = slices.DeleteFunc(m.ids, func(id int64) bool {
		return !slices.Contains(displayed, id)
	})
	if len(m.ids) == 0 && m.policy == ExitWhenEmpty {
		m.active = false
	}
}
