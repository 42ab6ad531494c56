// Package tui is the interactive LKZ_PELT control screen.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/notify"
)

const (
	logPaneLines = 8
	logPoll      = 500 * time.Millisecond
)

// Controller is the part of *controller.Controller the screen drives.
type Controller interface {
	State() controller.State
	Events() <-chan controller.State
	PressConnect(ctx context.Context) error
	ConnectToDevice(ctx context.Context, id string) error
	Disconnect() error
	PressOff(ctx context.Context) error
	PressPercent(level controller.Level) error
	PressPole(pole controller.Pole) error
	ToggleBluetooth(ctx context.Context, on bool) error
	CloseDeviceList()
}

var _ Controller = (*controller.Controller)(nil)

type (
	stateMsg       controller.State
	stateClosedMsg struct{}
	toastsMsg      []notify.Notification
	toastExpiryMsg struct{ shown time.Time }
	logTickMsg     struct{ gen uint64 }
	actionDoneMsg  struct{ err error }
)

// Model is the Bubble Tea model of the screen.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	toasts *notify.Queue
	logs   *LogTail

	state controller.State

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	cursor   int
	toast    *notify.Notification
	showLogs bool
	logGen   uint64 // only ticks of the newest poll chain are honored
	logLines []string

	width int
}

var _ tea.Model = (*Model)(nil)

// NewModel builds the screen. toasts and logs may be nil.
func NewModel(ctx context.Context, ctrl Controller, toasts *notify.Queue, logs *LogTail) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cursorStyle

	return &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		toasts:  toasts,
		logs:    logs,
		state:   ctrl.State(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForState(m.ctrl.Events()),
		waitForToasts(m.toasts),
	)
}

func waitForState(ch <-chan controller.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return stateClosedMsg{}
		}
		return stateMsg(s)
	}
}

func waitForToasts(q *notify.Queue) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		<-q.Ready()
		return toastsMsg(q.Drain())
	}
}

func expireToast(shown time.Time) tea.Cmd {
	return tea.Tick(notify.DefaultDuration, func(time.Time) tea.Msg {
		return toastExpiryMsg{shown: shown}
	})
}

func pollLogs(gen uint64) tea.Cmd {
	return tea.Tick(logPoll, func(time.Time) tea.Msg { return logTickMsg{gen: gen} })
}

// action runs a controller call off the update loop; failures already
// reach the user as toasts.
func action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		m.state = controller.State(msg)
		m.clampCursor()
		return m, waitForState(m.ctrl.Events())

	case stateClosedMsg:
		return m, tea.Quit

	case toastsMsg:
		var cmd tea.Cmd
		if len(msg) > 0 {
			latest := msg[len(msg)-1]
			m.toast = &latest
			cmd = expireToast(latest.Time)
		}
		return m, tea.Batch(cmd, waitForToasts(m.toasts))

	case toastExpiryMsg:
		if m.toast != nil && m.toast.Time.Equal(msg.shown) {
			m.toast = nil
		}
		return m, nil

	case logTickMsg:
		if !m.showLogs || msg.gen != m.logGen {
			return m, nil
		}
		m.drainLogs()
		return m, pollLogs(m.logGen)

	case actionDoneMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.state.DeviceListVisible {
			return m.updateDeviceList(msg)
		}
		return m.updateMain(msg)
	}

	return m, nil
}

func (m *Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	switch {
	case key.Matches(msg, m.keys.Connect):
		return m, action(func() error { return m.ctrl.PressConnect(ctx) })
	case key.Matches(msg, m.keys.Off):
		return m, action(func() error { return m.ctrl.PressOff(ctx) })
	case key.Matches(msg, m.keys.Level25):
		return m, action(func() error { return m.ctrl.PressPercent(controller.Level25) })
	case key.Matches(msg, m.keys.Level50):
		return m, action(func() error { return m.ctrl.PressPercent(controller.Level50) })
	case key.Matches(msg, m.keys.Level75):
		return m, action(func() error { return m.ctrl.PressPercent(controller.Level75) })
	case key.Matches(msg, m.keys.Level100):
		return m, action(func() error { return m.ctrl.PressPercent(controller.Level100) })
	case key.Matches(msg, m.keys.PoleUp):
		return m, action(func() error { return m.ctrl.PressPole(controller.PoleUp) })
	case key.Matches(msg, m.keys.PoleDown):
		return m, action(func() error { return m.ctrl.PressPole(controller.PoleDown) })
	case key.Matches(msg, m.keys.PowerOn):
		return m, action(func() error { return m.ctrl.ToggleBluetooth(ctx, true) })
	case key.Matches(msg, m.keys.PowerOff):
		return m, action(func() error { return m.ctrl.ToggleBluetooth(ctx, false) })
	case key.Matches(msg, m.keys.Disconnect):
		return m, action(m.ctrl.Disconnect)
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		if m.showLogs && m.logs != nil {
			m.logGen++
			m.drainLogs()
			return m, pollLogs(m.logGen)
		}
	}
	return m, nil
}

func (m *Model) updateDeviceList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Devices)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Close):
		m.ctrl.CloseDeviceList()
		m.state.DeviceListVisible = false
	case key.Matches(msg, m.keys.Select):
		if len(m.state.Devices) == 0 {
			return m, nil
		}
		ctx := m.ctx
		id := m.state.Devices[m.cursor].ID()
		return m, action(func() error { return m.ctrl.ConnectToDevice(ctx, id) })
	}
	return m, nil
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Devices) {
		m.cursor = len(m.state.Devices) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) drainLogs() {
	if m.logs == nil {
		return
	}
	if chunk := m.logs.Drain(); chunk != "" {
		m.logLines = appendLines(m.logLines, chunk, logPaneLines)
	}
}
