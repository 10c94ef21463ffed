package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Foreground(Text).
		Padding(0, 1)

	PaneActive = Pane.BorderForeground(Lavender)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Done  = lipgloss.NewStyle().Foreground(Green)
	Alert = lipgloss.NewStyle().Foreground(Red).Bold(true)

	BarFilled = lipgloss.NewStyle().Foreground(Green)
	BarEmpty  = lipgloss.NewStyle().Foreground(Surface1)
)

// StateStyle colors a session state label.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "active":
		return Done
	case "paused":
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	case "rescheduling":
		return Hot
	default:
		return Muted
	}
}
