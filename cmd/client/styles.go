package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	themeLight = "light"
	themeDark  = "dark"
)

type theme struct {
	name      string
	title     lipgloss.Style
	label     lipgloss.Style
	subtle    lipgloss.Style
	accent    lipgloss.Style
	on        lipgloss.Style
	off       lipgloss.Style
	err       lipgloss.Style
	help      lipgloss.Style
	rule      lipgloss.Style
	alertBody lipgloss.Style
}

type palette struct {
	title, label, subtle, accent, on, off, err, help, rule string
}

var palettes = map[string]palette{
	themeDark: {
		title:  "212",
		label:  "252",
		subtle: "245",
		accent: "69",
		on:     "114",
		off:    "240",
		err:    "196",
		help:   "241",
		rule:   "238",
	},
	themeLight: {
		title:  "162",
		label:  "235",
		subtle: "242",
		accent: "25",
		on:     "28",
		off:    "248",
		err:    "160",
		help:   "244",
		rule:   "250",
	},
}

func newTheme(name string) (theme, error) {
	return newThemeWithRenderer(name, lipgloss.DefaultRenderer())
}

// newThemeWithRenderer binds every style to r, which decides the color
// profile the styles render with.
func newThemeWithRenderer(name string, r *lipgloss.Renderer) (theme, error) {
	p, ok := palettes[name]
	if !ok {
		return theme{}, fmt.Errorf("theme must be %s or %s", themeLight, themeDark)
	}
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return theme{
		name:      name,
		title:     fg(p.title).Bold(true),
		label:     fg(p.label).Bold(true),
		subtle:    fg(p.subtle),
		accent:    fg(p.accent),
		on:        fg(p.on).Bold(true),
		off:       fg(p.off),
		err:       fg(p.err).Bold(true),
		help:      fg(p.help),
		rule:      fg(p.rule),
		alertBody: fg(p.label),
	}, nil
}

func (t theme) toggle(on bool) lipgloss.Style {
	if on {
		return t.on
	}
	return t.off
}

func (t theme) separator(width int) string {
	w := width - 4
	if w < 1 {
		w = 1
	}
	return t.rule.Render("  " + strings.Repeat("─", w))
}
