// Package tui is the terminal front end of the chat client: a bubbletea
// program for interactive terminals and a line-oriented fallback for pipes.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#2563EB") // Blue
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorAccent    = lipgloss.Color("#F59E0B") // Amber

	ColorSuccess = lipgloss.Color("#10B981")
	ColorError   = lipgloss.Color("#EF4444")

	ColorText      = lipgloss.Color("#E5E7EB")
	ColorTextMuted = lipgloss.Color("#9CA3AF")
	ColorFaint     = lipgloss.Color("#4B5563")
	ColorBorder    = lipgloss.Color("#374151")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	userTextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	botLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	actionStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	tipStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			PaddingLeft(2)

	hiddenStyle = lipgloss.NewStyle().
			Foreground(ColorFaint)

	chipStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginBottom(1)

	badgeStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	linkStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Underline(true)

	feedbackStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			PaddingLeft(2)

	feedbackDoneStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	footerStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	suggestStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	inputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(ColorBorder)
)
