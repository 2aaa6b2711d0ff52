package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Spinner   lipgloss.Style
	Input     lipgloss.Style
}

func defaultStyles() styles {
	accent := lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#58a6ff"}
	return styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(accent).
			Padding(0, 1),
		User:      lipgloss.NewStyle().Bold(true).Foreground(accent).MarginTop(1),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}).MarginTop(1),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#57606a", Dark: "#8b949e"}),
		Spinner:   lipgloss.NewStyle().Foreground(accent),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
	}
}
