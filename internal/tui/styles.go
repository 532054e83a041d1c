package tui

import "github.com/charmbracelet/lipgloss"

//nolint:gochecknoglobals // Styles are shared by every view.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(1, 2)

	readoutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Align(lipgloss.Center)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	cityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(14)
)
