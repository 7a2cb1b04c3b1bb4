package cli

import "github.com/charmbracelet/lipgloss"

const (
	ColorGreen  = lipgloss.Color("82")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorCyan   = lipgloss.Color("45")
)

var (
	// StateStyle renders state names (green).
	StateStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true) //nolint:gochecknoglobals

	// EventStyle renders event names (cyan).
	EventStyle = lipgloss.NewStyle().Foreground(ColorCyan) //nolint:gochecknoglobals

	// PendingStyle marks a transition held open by an async callback (orange).
	PendingStyle = lipgloss.NewStyle().Foreground(ColorOrange).Italic(true) //nolint:gochecknoglobals

	// ErrorStyle renders failures (red).
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed) //nolint:gochecknoglobals
)

func State(name string) string {
	return StateStyle.Render(name)
}

func Event(name string) string {
	return EventStyle.Render(name)
}

func Pending(msg string) string {
	return PendingStyle.Render(msg)
}

func Failure(err error) string {
	if err == nil {
		return ""
	}

	return ErrorStyle.Render(err.Error())
}
