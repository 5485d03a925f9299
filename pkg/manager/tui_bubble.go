package manager

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// RunTUI shows the host menu and blocks until the user picks a leaf or
// cancels. A nil node with a nil error means the user cancelled.
func RunTUI(roots []*Node, opts Options) (*Node, error) {
	if len(roots) == 0 {
		return nil, errors.New("no hosts to select from")
	}
	m := newModel(roots, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(model)
	if !ok {
		return nil, errors.New("unexpected model type")
	}
	return fm.sel.Selected(), nil
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "right", "l"),
			key.WithHelp("enter", "connect/open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "left", "h", "backspace"),
			key.WithHelp("esc/h", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Select, k.Back},
		{k.Quit, k.Help},
	}
}

type model struct {
	sel    *Selector
	theme  Theme
	title  string
	keys   keyMap
	help   help.Model
	width  int
	height int
}

func newModel(roots []*Node, opts Options) model {
	title := opts.Title
	if title == "" {
		title = "✨ Select host"
	}
	th := NewTheme(opts.Style)
	h := help.New()
	h.Styles.ShortKey = th.Help
	h.Styles.ShortDesc = th.Help
	h.Styles.FullKey = th.Help
	h.Styles.FullDesc = th.Help
	return model{
		sel:   NewSelector(roots),
		theme: th,
		title: title,
		keys:  defaultKeyMap(),
		help:  h,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.sel.Cancel()
		case key.Matches(msg, m.keys.Up):
			m.sel.MoveUp()
		case key.Matches(msg, m.keys.Down):
			m.sel.MoveDown()
		case key.Matches(msg, m.keys.Select):
			m.sel.Select()
		case key.Matches(msg, m.keys.Back):
			m.sel.SelectBack()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		if m.sel.Done() {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.sel.Done() {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Dim.Render("Use the arrow keys to navigate (support vim style): ↓ ↑") + "\n")

	title := m.title
	if crumbs := m.sel.Breadcrumb(); len(crumbs) > 0 {
		title += " " + m.theme.Dim.Render("/ "+strings.Join(crumbs, " / "))
	}
	b.WriteString(m.theme.Header.Render(title) + "\n")

	rows := RenderRows(m.sel.Rows(), m.theme)
	start, end := visibleWindow(len(rows), m.sel.Top().Index, m.listHeight())
	for _, line := range rows[start:end] {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// listHeight is the number of rows available for hosts; 0 means unlimited.
func (m model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	// header (2) + blank line + help
	reserved := 3 + 1
	if m.help.ShowAll {
		reserved += 2
	}
	if h := m.height - reserved; h > 0 {
		return h
	}
	return 1
}

// visibleWindow returns the [start, end) slice of rows that keeps the active
// index on screen.
func visibleWindow(total, active, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := active - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}
