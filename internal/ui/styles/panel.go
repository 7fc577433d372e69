package styles

import "github.com/charmbracelet/lipgloss"

// PanelStyle is the bordered frame around the phrase list. The border
// lights up while a session is playing.
func PanelStyle(active bool) lipgloss.Style {
	border := T().Border
	if active {
		border = T().BorderFocus
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border)
}

// BoxStyle frames a floating box such as the help overlay.
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(T().BorderFocus).
		Padding(0, 1)
}
