package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/notify"
	"github.com/srg/peltctl/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockController struct {
	mock.Mock
	mu     sync.Mutex
	state  controller.State
	events chan controller.State
}

func newMockController(s controller.State) *mockController {
	return &mockController{state: s, events: make(chan controller.State, 4)}
}

func (c *mockController) State() controller.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *mockController) Events() <-chan controller.State { return c.events }

func (c *mockController) PressConnect(ctx context.Context) error {
	return c.Called().Error(0)
}

func (c *mockController) ConnectToDevice(ctx context.Context, id string) error {
	return c.Called(id).Error(0)
}

func (c *mockController) Disconnect() error { return c.Called().Error(0) }

func (c *mockController) PressOff(ctx context.Context) error { return c.Called().Error(0) }

func (c *mockController) PressPercent(level controller.Level) error {
	return c.Called(level).Error(0)
}

func (c *mockController) PressPole(pole controller.Pole) error {
	return c.Called(pole).Error(0)
}

func (c *mockController) ToggleBluetooth(ctx context.Context, on bool) error {
	return c.Called(on).Error(0)
}

func (c *mockController) CloseDeviceList() { c.Called() }

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command, as the program would.
func press(t *testing.T, m *Model, k string) tea.Msg {
	t.Helper()
	_, cmd := m.Update(keyPress(k))
	if cmd == nil {
		return nil
	}
	return cmd()
}

func baseState() controller.State {
	return controller.State{
		Target:     "94:51:DC:58:55:6A",
		TargetName: "LKZ_PELT",
		Adapter:    device.StatePoweredOn,
	}
}

func TestModel_ButtonKeys(t *testing.T) {
	tests := []struct {
		key    string
		method string
		args   []interface{}
	}{
		{"c", "PressConnect", nil},
		{"0", "PressOff", nil},
		{"1", "PressPercent", []interface{}{controller.Level25}},
		{"2", "PressPercent", []interface{}{controller.Level50}},
		{"3", "PressPercent", []interface{}{controller.Level75}},
		{"4", "PressPercent", []interface{}{controller.Level100}},
		{"u", "PressPole", []interface{}{controller.PoleUp}},
		{"d", "PressPole", []interface{}{controller.PoleDown}},
		{"p", "ToggleBluetooth", []interface{}{true}},
		{"P", "ToggleBluetooth", []interface{}{false}},
		{"x", "Disconnect", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ctrl := newMockController(baseState())
			ctrl.On(tt.method, tt.args...).Return(nil).Once()
			m := NewModel(context.Background(), ctrl, nil, nil)

			msg := press(t, m, tt.key)

			assert.IsType(t, actionDoneMsg{}, msg)
			ctrl.AssertExpectations(t)
		})
	}
}

func TestModel_DeviceList(t *testing.T) {
	// GOAL: Verify the device list modal navigation and selection
	//
	// TEST SCENARIO: list with 2 devices → move down → enter connects the second → esc closes
	s := baseState()
	s.DeviceListVisible = true
	s.Devices = []device.DeviceInfo{
		testutils.CreateMockAdvertisement("Other", "AA:BB:CC:DD:EE:FF", -70).BuildDevice(),
		testutils.CreateMockAdvertisement("LKZ_PELT", "94:51:DC:58:55:6A", -48).BuildDevice(),
	}
	ctrl := newMockController(s)
	ctrl.On("ConnectToDevice", "94:51:DC:58:55:6A").Return(nil).Once()
	ctrl.On("CloseDeviceList").Return().Once()
	m := NewModel(context.Background(), ctrl, nil, nil)

	view := m.View()
	assert.Contains(t, view, "Available Devices")
	assert.Contains(t, view, "AA:BB:CC:DD:EE:FF  -70 dBm")
	assert.Contains(t, view, "★", "the target MUST be marked")

	press(t, m, "down")
	press(t, m, "down")
	assert.Equal(t, 1, m.cursor, "the cursor MUST stop at the last device")

	assert.IsType(t, actionDoneMsg{}, press(t, m, "enter"))

	press(t, m, "1")
	ctrl.AssertNotCalled(t, "PressPercent", mock.Anything)

	press(t, m, "esc")
	assert.False(t, m.state.DeviceListVisible)
	ctrl.AssertExpectations(t)
}

func TestModel_EmptyDeviceListAndLoader(t *testing.T) {
	s := baseState()
	s.DeviceListVisible = true
	s.Loading = true
	m := NewModel(context.Background(), newMockController(s), nil, nil)

	view := m.View()
	assert.Contains(t, view, "Searching for devices...")
	assert.Contains(t, view, "Processing...", "an empty loader message MUST fall back to the default")
	assert.Nil(t, press(t, m, "enter"), "enter on an empty list MUST do nothing")

	s.LoadingMessage = "Connecting Bluetooth..."
	m.Update(stateMsg(s))
	assert.Contains(t, m.View(), "Connecting Bluetooth...")
}

func TestModel_StateUpdates(t *testing.T) {
	ctrl := newMockController(baseState())
	m := NewModel(context.Background(), ctrl, nil, nil)
	assert.Contains(t, m.View(), "Disconnected")

	s := baseState()
	s.Connected = true
	s.MTU = 247
	s.Level = controller.Level75
	_, cmd := m.Update(stateMsg(s))
	require.NotNil(t, cmd, "the model MUST keep listening for state")

	view := m.View()
	assert.Contains(t, view, "Connected")
	assert.Contains(t, view, "MTU 247")
	assert.Contains(t, view, "CONNECTED")

	close(ctrl.events)
	assert.IsType(t, stateClosedMsg{}, cmd())
}

func TestModel_Toasts(t *testing.T) {
	q := notify.NewQueue(4)
	m := NewModel(context.Background(), newMockController(baseState()), q, nil)

	q.Notify(notify.New(notify.KindSuccess, "Bluetooth turned on"))
	q.Notify(notify.New(notify.KindWarning, "Please turn on Bluetooth to connect to devices."))

	msg := waitForToasts(q)()
	m.Update(msg)

	assert.Contains(t, m.View(), "Please turn on Bluetooth", "the newest toast MUST be shown")
	require.NotNil(t, m.toast)

	m.Update(toastExpiryMsg{shown: m.toast.Time.Add(-time.Second)})
	assert.NotNil(t, m.toast, "a stale expiry MUST not hide a newer toast")

	m.Update(toastExpiryMsg{shown: m.toast.Time})
	assert.Nil(t, m.toast)
	assert.NotContains(t, m.View(), "Please turn on Bluetooth")
}

func TestModel_LogPane(t *testing.T) {
	logs := NewLogTail(1024)
	m := NewModel(context.Background(), newMockController(baseState()), nil, logs)

	_, _ = logs.Write([]byte("level=info msg=\"Scan started\"\n"))
	_, cmd := m.Update(keyPress("l"))

	require.NotNil(t, cmd, "opening the log pane MUST start polling")
	assert.Contains(t, m.View(), "Scan started")

	m.Update(keyPress("l"))
	assert.NotContains(t, m.View(), "Scan started")
}

func TestModel_LogPaneSinglePollChain(t *testing.T) {
	// GOAL: Verify reopening the log pane does not leave two polling chains
	//
	// TEST SCENARIO: open → close → reopen before the first tick → stale tick dropped → current tick keeps polling
	m := NewModel(context.Background(), newMockController(baseState()), nil, NewLogTail(1024))

	m.Update(keyPress("l"))
	stale := logTickMsg{gen: m.logGen}
	m.Update(keyPress("l"))
	m.Update(keyPress("l"))
	require.True(t, m.showLogs)

	_, cmd := m.Update(stale)
	assert.Nil(t, cmd, "a tick from a replaced chain MUST end that chain")

	_, cmd = m.Update(logTickMsg{gen: m.logGen})
	assert.NotNil(t, cmd, "the current chain MUST keep polling")
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), newMockController(baseState()), nil, nil)

	_, cmd := m.Update(keyPress("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLogTail_DiscardsOldest(t *testing.T) {
	tail := NewLogTail(16)

	n, err := tail.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = tail.Write([]byte("abcdefghij"))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "Write MUST always report the full length")

	assert.Equal(t, "456789abcdefghij", tail.Drain())
	assert.Equal(t, uint64(4), tail.Dropped())
	assert.Empty(t, tail.Drain())

	_, _ = tail.Write([]byte(strings.Repeat("x", 20) + "END"))
	got := tail.Drain()
	assert.Len(t, got, 16)
	assert.True(t, strings.HasSuffix(got, "END"))
}

func TestAppendLines(t *testing.T) {
	lines := appendLines(nil, "a\nb\n\nc\n", 2)
	assert.Equal(t, []string{"b", "c"}, lines)
}
