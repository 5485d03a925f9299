package manager

import (
	"fmt"
	"strings"
)

// Options controls the selector UI.
type Options struct {
	Style Style

	// Title is shown above the host list.
	Title string
}

const (
	activeMarker   = "  ➤ "
	inactiveMarker = "    "
)

// RenderRow renders a single selector row. It is a pure function of its
// inputs; painting to the terminal is left to the caller.
//
// Leaves show the name followed by a dim user@host, groups show
// "+ name(N)" in the group style, and the synthetic back entry shows "..".
func RenderRow(r Row, t Theme) string {
	var label string
	switch r.Kind {
	case RowGroup:
		label = fmt.Sprintf("+ %s(%d)", r.Name, r.ChildCount)
	default:
		label = r.Name
	}

	var b strings.Builder
	if r.Active {
		b.WriteString(t.Active.Render(activeMarker))
	} else {
		b.WriteString(inactiveMarker)
	}

	switch {
	case r.Kind == RowGroup:
		b.WriteString(t.Group.Render(label))
	case r.Active:
		b.WriteString(t.Name.Render(label))
	default:
		b.WriteString(t.Dim.Render(label))
	}

	if r.Kind == RowLeaf && r.Address != "" {
		b.WriteString(" " + t.Dim.Render(r.Address))
	}
	return b.String()
}

// RenderRows renders every row of the selector's current frame.
func RenderRows(rows []Row, t Theme) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, RenderRow(r, t))
	}
	return out
}
