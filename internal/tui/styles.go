package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	subtitleStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("183"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("218"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("177"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("219")).
			Padding(0, 1)
	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("177")).
			Padding(0, 1)

	boxChecked   = "👑"
	boxUnchecked = "♡"
)
