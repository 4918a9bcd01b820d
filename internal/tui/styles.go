package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
const (
	colorAccent = lipgloss.Color("39")
	colorText   = lipgloss.Color("252")
	colorMuted  = lipgloss.Color("244")
	colorFaint  = lipgloss.Color("240")
	colorOK     = lipgloss.Color("42")
	colorWarn   = lipgloss.Color("178")
	colorErr    = lipgloss.Color("203")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().Foreground(colorOK)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(colorErr)
	dimStyle     = lipgloss.NewStyle().Foreground(colorFaint)

	userMsgStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("117"))
	assistantMsgStyle = lipgloss.NewStyle().Foreground(colorText)
	sourceStyle       = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listItemStyle = lipgloss.NewStyle().Foreground(colorText)
	helpStyle     = lipgloss.NewStyle().Foreground(colorFaint)
)
