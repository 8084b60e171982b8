// Package display renders seat views, scoreboards and event logs for the
// terminal with lipgloss.
package display

import "github.com/charmbracelet/lipgloss"

// Styles contains all styling for terminal output
type Styles struct {
	// Pane styles
	Table lipgloss.Style
	Score lipgloss.Style

	// Content styles
	Header    lipgloss.Style
	Label     lipgloss.Style
	Turn      lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style
	Index     lipgloss.Style

	// Status styles
	Success lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

// DefaultStyles returns the colored palette
func DefaultStyles() *Styles {
	return &Styles{
		Table: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Score: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Turn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		RedCard: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		BlackCard: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		Index: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// PlainStyles renders without color or borders, for logs and tests
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Table:     plain,
		Score:     plain,
		Header:    plain,
		Label:     plain,
		Turn:      plain,
		RedCard:   plain,
		BlackCard: plain,
		Index:     plain,
		Success:   plain,
		Error:     plain,
		Info:      plain,
	}
}
