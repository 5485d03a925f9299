package manager

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style is the color configuration handed to the selector at construction.
// Values are lipgloss colors: ANSI indexes ("1", "245") or hex ("#44ff00").
// An empty value leaves that element unstyled.
type Style struct {
	ActiveColor string
	GroupColor  string
	LeafColor   string
	DimColor    string
	HeaderColor string
	NoColor     bool
}

// DefaultStyle mirrors the classic palette: red cursor, cyan names, gray details.
func DefaultStyle() Style {
	return Style{
		ActiveColor: "1",
		GroupColor:  "6",
		LeafColor:   "6",
		DimColor:    "245",
		HeaderColor: "10",
	}
}

// LightStyle is tuned for light terminal backgrounds.
func LightStyle() Style {
	return Style{
		ActiveColor: "160",
		GroupColor:  "25",
		LeafColor:   "25",
		DimColor:    "242",
		HeaderColor: "28",
	}
}

// StyleFromEnv picks a style from SSHG_THEME (dark | light | none), honoring
// NO_COLOR and dumb terminals.
func StyleFromEnv() Style {
	if !terminalSupportsColor() {
		return Style{NoColor: true}
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SSHG_THEME"))) {
	case "none", "off", "disabled":
		return Style{NoColor: true}
	case "light":
		return LightStyle()
	default:
		return DefaultStyle()
	}
}

// Theme holds the lipgloss styles derived from a Style.
type Theme struct {
	Active lipgloss.Style
	Name   lipgloss.Style
	Group  lipgloss.Style
	Dim    lipgloss.Style
	Header lipgloss.Style
	Help   lipgloss.Style
}

// NewTheme builds lipgloss styles for s.
func NewTheme(s Style) Theme {
	plain := lipgloss.NewStyle()
	if s.NoColor {
		return Theme{
			Active: plain,
			Name:   plain,
			Group:  plain.Bold(true),
			Dim:    plain,
			Header: plain,
			Help:   plain,
		}
	}
	return Theme{
		Active: fg(plain, s.ActiveColor),
		Name:   fg(plain, s.LeafColor),
		Group:  fg(plain, s.GroupColor).Bold(true),
		Dim:    fg(plain, s.DimColor),
		Header: fg(plain, s.HeaderColor),
		Help:   fg(plain, s.DimColor),
	}
}

func fg(st lipgloss.Style, color string) lipgloss.Style {
	if strings.TrimSpace(color) == "" {
		return st
	}
	return st.Foreground(lipgloss.Color(color))
}

func terminalSupportsColor() bool {
	// Respect NO_COLOR https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return term != "dumb"
}
