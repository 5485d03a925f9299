package manager

// SelectorState is the lifecycle state of a Selector.
type SelectorState int

const (
	// StateBrowsing means the selector is still accepting navigation events.
	StateBrowsing SelectorState = iota
	// StateSelected means a leaf was chosen; see Selector.Selected.
	StateSelected
	// StateCancelled means the user left without choosing a host.
	StateCancelled
)

// Entry is one selectable item in a frame. Back entries are synthetic and
// carry no node.
type Entry struct {
	Node *Node
	Back bool
}

// Frame is one level of the navigation stack.
type Frame struct {
	Entries []Entry
	Index   int

	// Title is the name of the group this frame was opened from ("" for the root).
	Title string
}

// RowKind distinguishes how a row is rendered.
type RowKind int

const (
	RowLeaf RowKind = iota
	RowGroup
	RowBack
)

// Row is the render-ready projection of an Entry.
type Row struct {
	Kind       RowKind
	Name       string
	Address    string
	ChildCount int
	Active     bool
}

// Selector is the tree navigation state machine behind the host menu. It
// performs no I/O: callers feed it discrete events and render Rows.
//
// Entering a group pushes a new frame whose first entry is a synthetic
// "back" entry; leaving pops it, so the previous list and index are restored
// exactly. Node slices are never modified.
type Selector struct {
	stack    []Frame
	state    SelectorState
	selected *Node
}

// NewSelector returns a selector positioned on the first top-level node.
func NewSelector(roots []*Node) *Selector {
	entries := make([]Entry, 0, len(roots))
	for _, n := range roots {
		entries = append(entries, Entry{Node: n})
	}
	return &Selector{stack: []Frame{{Entries: entries}}}
}

// State returns the current lifecycle state.
func (s *Selector) State() SelectorState { return s.state }

// Done reports whether the selector reached a terminal state.
func (s *Selector) Done() bool { return s.state != StateBrowsing }

// Selected returns the chosen leaf, or nil unless State is StateSelected.
func (s *Selector) Selected() *Node { return s.selected }

// Depth returns the number of frames on the stack (1 at the top level).
func (s *Selector) Depth() int { return len(s.stack) }

// Top returns a copy of the currently displayed frame.
func (s *Selector) Top() Frame { return s.stack[len(s.stack)-1] }

// Breadcrumb returns the titles of the groups entered so far, outermost first.
func (s *Selector) Breadcrumb() []string {
	out := make([]string, 0, len(s.stack)-1)
	for _, f := range s.stack[1:] {
		out = append(out, f.Title)
	}
	return out
}

func (s *Selector) top() *Frame { return &s.stack[len(s.stack)-1] }

// MoveUp moves the cursor up, wrapping from the first row to the last.
func (s *Selector) MoveUp() { s.move(-1) }

// MoveDown moves the cursor down, wrapping from the last row to the first.
func (s *Selector) MoveDown() { s.move(1) }

func (s *Selector) move(delta int) {
	if s.Done() {
		return
	}
	f := s.top()
	n := len(f.Entries)
	if n == 0 {
		return
	}
	f.Index = ((f.Index+delta)%n + n) % n
}

// Select acts on the active entry: a leaf ends the selection, a group is
// entered, and the back entry returns to the parent level.
func (s *Selector) Select() {
	if s.Done() {
		return
	}
	f := s.top()
	if len(f.Entries) == 0 {
		return
	}
	e := f.Entries[f.Index]
	switch {
	case e.Back:
		s.SelectBack()
	case e.Node.IsGroup():
		entries := make([]Entry, 0, len(e.Node.Children)+1)
		entries = append(entries, Entry{Back: true})
		for _, c := range e.Node.Children {
			entries = append(entries, Entry{Node: c})
		}
		s.stack = append(s.stack, Frame{Entries: entries, Title: e.Node.Name})
	default:
		s.selected = e.Node
		s.state = StateSelected
	}
}

// SelectBack pops the current frame. It is a no-op at the top level.
func (s *Selector) SelectBack() {
	if s.Done() || len(s.stack) <= 1 {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Cancel ends the selection without a result.
func (s *Selector) Cancel() {
	if s.Done() {
		return
	}
	s.state = StateCancelled
}

// Rows projects the top frame into render-ready rows.
func (s *Selector) Rows() []Row {
	f := s.Top()
	rows := make([]Row, 0, len(f.Entries))
	for i, e := range f.Entries {
		r := Row{Active: i == f.Index}
		switch {
		case e.Back:
			r.Kind = RowBack
			r.Name = ".."
		case e.Node.IsGroup():
			r.Kind = RowGroup
			r.Name = e.Node.Name
			r.ChildCount = len(e.Node.Children)
		default:
			r.Kind = RowLeaf
			r.Name = e.Node.Name
			r.Address = e.Node.Address()
		}
		rows = append(rows, r)
	}
	return rows
}
