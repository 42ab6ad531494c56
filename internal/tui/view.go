package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/device"
)

const (
	defaultLoaderMessage = "Processing..."
	searchingMessage     = "Searching for devices..."
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.state.TargetName + " Controller"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if m.state.DeviceListVisible {
		b.WriteString(m.deviceListView())
	} else {
		b.WriteString(m.buttonsView())
	}
	b.WriteString("\n")

	if m.state.Loading {
		msg := m.state.LoadingMessage
		if msg == "" {
			msg = defaultLoaderMessage
		}
		b.WriteString(m.spinner.View() + " " + msg + "\n")
	}

	if m.toast != nil {
		b.WriteString(toastStyle(m.toast.Kind).Render(m.toast.String()))
		b.WriteString("\n")
	}

	if m.showLogs {
		b.WriteString(logStyle.Render(strings.Join(m.logLines, "\n")))
		b.WriteString("\n")
	}

	if m.state.DeviceListVisible {
		b.WriteString(m.help.View(listKeys{m.keys}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) statusLine() string {
	s := m.state
	link := "Disconnected"
	if s.Connected {
		link = "Connected"
	}

	parts := []string{
		"Bluetooth: " + flagStyle(s.Adapter == device.StatePoweredOn).Render(s.Adapter.String()),
		"Device: " + flagStyle(s.Connected).Render(link),
		mutedStyle.Render(s.Target),
	}
	if s.Connected && s.MTU > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("MTU %d, %d services", s.MTU, len(s.Services))))
	}
	if s.Scanning {
		parts = append(parts, mutedStyle.Render("scanning"))
	}
	return strings.Join(parts, "  •  ")
}

func button(label string, selected bool) string {
	if selected {
		return selectedButtonStyle.Render(label)
	}
	return buttonStyle.Render(label)
}

func (m *Model) buttonsView() string {
	s := m.state

	connectLabel := "CONNECT"
	if s.Connected {
		connectLabel = "CONNECTED"
	}

	levels := make([]string, 0, len(controller.Levels))
	for _, l := range controller.Levels {
		levels = append(levels, button(string(l), s.Level == l))
	}

	rows := []string{
		button(connectLabel, s.Connected),
		lipgloss.JoinHorizontal(lipgloss.Top, levels...),
		lipgloss.JoinHorizontal(lipgloss.Top,
			button(string(controller.PoleUp), s.Pole == controller.PoleUp),
			button(string(controller.PoleDown), s.Pole == controller.PoleDown),
		),
		button("OFF", s.OffUsed),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) deviceListView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Available Devices"))
	b.WriteString("\n\n")

	if len(m.state.Devices) == 0 {
		b.WriteString(mutedStyle.Render(searchingMessage))
	}
	for i, d := range m.state.Devices {
		prefix := "  "
		line := fmt.Sprintf("%-24s %s  %d dBm", d.DisplayName(), d.ID(), d.RSSI())
		if m.state.IsTarget(d.ID()) {
			line += "  ★"
		}
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
			line = cursorStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	return modalStyle.Render(strings.TrimRight(b.String(), "\n"))
}
