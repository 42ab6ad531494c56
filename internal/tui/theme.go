package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/srg/peltctl/internal/notify"
)

// Toast background colors per notification kind.
var toastColors = map[notify.Kind]lipgloss.Color{
	notify.KindSuccess: lipgloss.Color("#4CAF50"),
	notify.KindError:   lipgloss.Color("#F44336"),
	notify.KindWarning: lipgloss.Color("#FF9800"),
	notify.KindInfo:    lipgloss.Color("#2196F3"),
}

var (
	colorAccent = lipgloss.Color("#2196F3")
	colorMuted  = lipgloss.Color("#8A8A8A")
	colorOn     = lipgloss.Color("#4CAF50")
	colorOff    = lipgloss.Color("#F44336")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted)
	selectedButtonStyle = buttonStyle.
				BorderForeground(colorAccent).
				Foreground(colorAccent).
				Bold(true)

	modalStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent)
	cursorStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	logStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorMuted).
			Foreground(colorMuted)
)

func toastStyle(kind notify.Kind) lipgloss.Style {
	bg, ok := toastColors[kind]
	if !ok {
		bg = toastColors[notify.KindInfo]
	}
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(lipgloss.Color("#010101")).
		Padding(0, 1)
}

func flagStyle(on bool) lipgloss.Style {
	if on {
		return lipgloss.NewStyle().Foreground(colorOn).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colorOff)
}
