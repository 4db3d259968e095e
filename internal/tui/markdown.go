package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

func stringPtr(s string) *string { return &s }

// markdownStyle is Dracula with inline code drawn without a background box.
func markdownStyle(color bool) ansi.StyleConfig {
	if !color {
		return styles.NoTTYStyleConfig
	}
	s := styles.DraculaStyleConfig
	s.Code = ansi.StyleBlock{
		StylePrimitive: ansi.StylePrimitive{
			Color:           stringPtr("229"),
			BackgroundColor: stringPtr(""),
		},
	}
	return s
}

// markdown renders Markdown blocks for a fixed wrap width.
type markdown struct {
	r     *glamour.TermRenderer
	width int
	color bool
}

func newMarkdown(width int, color bool) *markdown {
	m := &markdown{width: width, color: color}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(color)),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		m.r = r
	}
	return m
}

// Render returns the terminal form of src, or src itself when rendering
// fails.
func (m *markdown) Render(src string) string {
	if m == nil || m.r == nil {
		return src
	}
	out, err := m.r.Render(src)
	if err != nil {
		return src
	}
	return strings.Trim(out, "\n")
}
