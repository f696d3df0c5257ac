package ui

import "github.com/charmbracelet/lipgloss"

var (
	brandPurple = lipgloss.Color("#7C3AED")

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(brandPurple).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	HelpSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#334155"))
)
