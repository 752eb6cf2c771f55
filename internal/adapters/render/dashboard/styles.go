package dashboard

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	heading    lipgloss.Style
	section    lipgloss.Style
	detail     lipgloss.Style
	faint      lipgloss.Style
	empty      lipgloss.Style
	warning    lipgloss.Style
	robotIdle  lipgloss.Style
	robotBusy  lipgloss.Style
	free       lipgloss.Style
	occupied   lipgloss.Style
	reserved   lipgloss.Style
	completed  lipgloss.Style
	failed     lipgloss.Style
	pending    lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		heading:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		section:    lipgloss.NewStyle().MarginTop(1),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		faint:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:      lipgloss.NewStyle().Faint(true),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		robotIdle:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		robotBusy:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		free:       lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		occupied:   lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		reserved:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		completed:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		failed:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
