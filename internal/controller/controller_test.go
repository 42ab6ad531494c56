package controller_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/notify"
	"github.com/srg/peltctl/internal/radio"
	"github.com/srg/peltctl/internal/testutils"
	"github.com/srg/peltctl/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	target = "94:51:DC:58:55:6A"
	other  = "AA:BB:CC:DD:EE:FF"

	eventually = time.Second
	tick       = 5 * time.Millisecond
)

// mockRadio is a testify mock of radio.Radio whose Watch forwards whatever
// the test pushes into States.
type mockRadio struct {
	mock.Mock
	States chan device.AdapterState
}

func newMockRadio() *mockRadio {
	return &mockRadio{States: make(chan device.AdapterState, 4)}
}

func (r *mockRadio) State(ctx context.Context) (device.AdapterState, error) {
	args := r.Called(ctx)
	return args.Get(0).(device.AdapterState), args.Error(1)
}

func (r *mockRadio) Watch(ctx context.Context) (<-chan device.AdapterState, error) {
	out := make(chan device.AdapterState)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-r.States:
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *mockRadio) SetPowered(ctx context.Context, on bool) error {
	return r.Called(ctx, on).Error(0)
}

func (r *mockRadio) CanToggle() bool {
	return r.Called().Bool(0)
}

func (r *mockRadio) Authorize(ctx context.Context) error {
	return r.Called(ctx).Error(0)
}

func (r *mockRadio) Close() error { return nil }

var _ radio.Radio = (*mockRadio)(nil)

// fakeLink is an in-memory device.Connection.
type fakeLink struct {
	mu             sync.Mutex
	connected      bool
	connectErr     error
	disconnectErr  error
	connects       int
	lastOptions    *device.ConnectOptions
	lastAddress    string
	onDisconnected func(error)
	beforeConnect  func()
}

func (l *fakeLink) Connect(_ context.Context, address string, opts *device.ConnectOptions) error {
	if l.beforeConnect != nil {
		l.beforeConnect()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connects++
	l.lastAddress = address
	l.lastOptions = opts
	if l.connectErr != nil {
		return l.connectErr
	}
	l.connected = true
	l.onDisconnected = opts.OnDisconnected
	return nil
}

func (l *fakeLink) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disconnectErr != nil {
		return l.disconnectErr
	}
	l.connected = false
	return nil
}

func (l *fakeLink) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *fakeLink) Services() []device.Service {
	return []device.Service{{UUID: "180f", Characteristics: []device.Characteristic{{UUID: "2a19", Properties: []string{"read"}}}}}
}

func (l *fakeLink) MTU() int { return 247 }

// drop simulates the peripheral going away.
func (l *fakeLink) drop() {
	l.mu.Lock()
	l.connected = false
	cb := l.onDisconnected
	l.mu.Unlock()
	if cb != nil {
		cb(device.ErrNotConnected)
	}
}

func (l *fakeLink) connectCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connects
}

// fakeScanner returns Results, optionally after streaming Live as events
// and blocking until its context ends. Like go-ble, it can take Linger to
// return once its context ends.
type fakeScanner struct {
	mu      sync.Mutex
	Results []device.DeviceInfo
	Live    []device.DeviceInfo
	Block   bool
	Linger  time.Duration
	OnScan  func()
	Err     error
	scans   int
	active  int
	peak    int
	events  chan scanner.DeviceEvent
}

func newFakeScanner() *fakeScanner {
	return &fakeScanner{events: make(chan scanner.DeviceEvent, 16)}
}

func (s *fakeScanner) Scan(ctx context.Context, _ *scanner.ScanOptions, _ scanner.ProgressCallback) ([]device.DeviceInfo, error) {
	s.mu.Lock()
	s.scans++
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	live := s.Live
	block := s.Block
	linger := s.Linger
	onScan := s.OnScan
	results := s.Results
	err := s.Err
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if onScan != nil {
		onScan()
	}
	for _, d := range live {
		s.events <- scanner.DeviceEvent{Type: scanner.EventNew, DeviceInfo: d}
	}
	if block {
		<-ctx.Done()
		time.Sleep(linger)
	}
	return results, err
}

func (s *fakeScanner) activeScans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *fakeScanner) peakScans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func (s *fakeScanner) Events() <-chan scanner.DeviceEvent { return s.events }

func (s *fakeScanner) scanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans
}

// toasts records notifications.
type toasts struct {
	mu   sync.Mutex
	list []notify.Notification
}

func (t *toasts) Notify(n notify.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.list = append(t.list, n)
}

func (t *toasts) messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.list))
	for _, n := range t.list {
		out = append(out, n.Kind.String()+": "+n.Message)
	}
	return out
}

type fixture struct {
	ctrl    *controller.Controller
	radio   *mockRadio
	link    *fakeLink
	scanner *fakeScanner
	toasts  *toasts
	resets  chan struct{}
}

func newFixture(t *testing.T, configure ...func(*controller.Options)) *fixture {
	t.Helper()

	f := &fixture{
		radio:   newMockRadio(),
		link:    &fakeLink{},
		scanner: newFakeScanner(),
		toasts:  &toasts{},
		resets:  make(chan struct{}, 8),
	}
	f.radio.On("Authorize", mock.Anything).Return(nil).Maybe()
	f.radio.On("CanToggle").Return(true).Maybe()

	logger, _ := testutils.CapturingLogger()
	opts := controller.Options{
		ScanTimeout:          50 * time.Millisecond,
		ConnectionCheckDelay: 20 * time.Millisecond,
		SettleDelay:          10 * time.Millisecond,
		PowerOffCheckDelay:   10 * time.Millisecond,
		Logger:               logger,
		Notifier:             f.toasts,
		ResetCentral: func() error {
			f.resets <- struct{}{}
			return nil
		},
		AdapterHeld: func() bool { return false },
	}
	for _, fn := range configure {
		fn(&opts)
	}
	f.ctrl = controller.New(f.radio, f.link, f.scanner, opts)
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.ctrl.ConnectToDevice(context.Background(), target))
	require.Eventually(t, func() bool { return f.ctrl.State().Connected }, eventually, tick)
}

func dev(name, addr string) device.DeviceInfo {
	return testutils.CreateMockAdvertisement(name, addr, -60).BuildDevice()
}

func deviceIDs(s controller.State) []string {
	ids := make([]string, 0, len(s.Devices))
	for _, d := range s.Devices {
		ids = append(ids, d.ID())
	}
	return ids
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.State()

	assert.Equal(t, target, s.Target)
	assert.Equal(t, "LKZ_PELT", s.TargetName)
	assert.Equal(t, device.StateUnknown, s.Adapter)
	assert.False(t, s.Connected)
	assert.Empty(t, s.Devices)
	assert.True(t, s.IsTarget("94-51-dc-58-55-6a"))
}

func TestStart_FollowsAdapterState(t *testing.T) {
	// GOAL: Verify the adapter state drives scanning and clearing
	//
	// TEST SCENARIO: PoweredOn → scan fills list → PoweredOff → list cleared, central reset
	f := newFixture(t)
	f.scanner.Results = []device.DeviceInfo{dev("LKZ_PELT", target)}

	require.NoError(t, f.ctrl.Start(context.Background()))

	f.radio.States <- device.StatePoweredOn
	require.Eventually(t, func() bool {
		s := f.ctrl.State()
		return s.Adapter == device.StatePoweredOn && len(s.Devices) == 1 && !s.Scanning
	}, eventually, tick, "PoweredOn MUST start a scan")

	f.radio.States <- device.StatePoweredOff
	require.Eventually(t, func() bool {
		s := f.ctrl.State()
		return s.Adapter == device.StatePoweredOff && len(s.Devices) == 0
	}, eventually, tick, "leaving PoweredOn MUST clear the device list")

	select {
	case <-f.resets:
	case <-time.After(eventually):
		t.Fatal("leaving PoweredOn MUST reset the shared central")
	}
	s := f.ctrl.State()
	assert.False(t, s.Loading)
	assert.Empty(t, s.LoadingMessage)
}

func TestStart_PermissionDenied(t *testing.T) {
	f := &fixture{radio: newMockRadio(), link: &fakeLink{}, scanner: newFakeScanner(), toasts: &toasts{}}
	f.radio.On("Authorize", mock.Anything).Return(device.ErrUnauthorized)
	f.ctrl = controller.New(f.radio, f.link, f.scanner, controller.Options{Notifier: f.toasts, ResetCentral: func() error { return nil }})
	t.Cleanup(f.ctrl.Close)

	err := f.ctrl.Start(context.Background())

	require.ErrorIs(t, err, device.ErrUnauthorized)
	assert.Equal(t, device.StateUnauthorized, f.ctrl.State().Adapter)
	assert.Equal(t, []string{"error: " + controller.MsgPermissionDenied}, f.toasts.messages())
}

func TestStartScan_KeepsFirstSightingInDiscoveryOrder(t *testing.T) {
	f := newFixture(t)
	f.scanner.Results = []device.DeviceInfo{
		dev("B", "22:22:22:22:22:22"),
		dev("", "11:11:11:11:11:11"),
		dev("B again", "22-22-22-22-22-22"),
	}

	f.ctrl.StartScan(context.Background())

	require.Eventually(t, func() bool { return !f.ctrl.State().Scanning }, eventually, tick)
	s := f.ctrl.State()
	assert.Equal(t, []string{"22:22:22:22:22:22", "11:11:11:11:11:11"}, deviceIDs(s))
	assert.Equal(t, "B", s.Devices[0].DisplayName())
	assert.Equal(t, "Unnamed (11:11:11:11:11:11)", s.Devices[1].DisplayName())
	assert.False(t, s.Loading, "the loader MUST be hidden once the scan is running")
}

func TestStartScan_ListFillsWhileScanning(t *testing.T) {
	f := newFixture(t, func(o *controller.Options) { o.ScanTimeout = 300 * time.Millisecond })
	f.scanner.Block = true
	f.scanner.Live = []device.DeviceInfo{dev("LKZ_PELT", target), dev("Other", other)}

	f.ctrl.StartScan(context.Background())

	require.Eventually(t, func() bool {
		s := f.ctrl.State()
		return s.Scanning && len(s.Devices) == 2
	}, eventually, tick, "live discoveries MUST appear before the scan ends")

	require.Eventually(t, func() bool { return !f.ctrl.State().Scanning }, eventually, tick,
		"the scan MUST end after the scan timeout")
}

func TestStartScan_SchedulesConnectionCheck(t *testing.T) {
	f := newFixture(t)
	f.link.connected = true

	f.ctrl.StartScan(context.Background())

	require.Eventually(t, func() bool { return f.ctrl.State().Connected }, eventually, tick,
		"the connection check MUST refresh the connected flag")
	assert.Equal(t, 247, f.ctrl.State().MTU)
}

func TestStopScan(t *testing.T) {
	f := newFixture(t, func(o *controller.Options) { o.ScanTimeout = time.Minute })
	f.scanner.Block = true
	f.scanner.Results = []device.DeviceInfo{dev("late", other)}

	f.ctrl.StartScan(context.Background())
	require.True(t, f.ctrl.State().Scanning)

	f.ctrl.StopScan()

	assert.False(t, f.ctrl.State().Scanning)
	assert.Never(t, func() bool { return len(f.ctrl.State().Devices) > 0 }, 50*time.Millisecond, tick,
		"results of a stopped scan MUST be discarded")
}

func TestStartScan_OneScanAtATime(t *testing.T) {
	// GOAL: Verify scans and dials never overlap on the shared central
	//
	// TEST SCENARIO: scan → rescan while the first is still stopping → connect → at most one Scan at a time, none during the dial
	f := newFixture(t, func(o *controller.Options) {
		o.ScanTimeout = time.Minute
		o.ConnectionCheckDelay = time.Minute
	})
	f.scanner.Block = true
	f.scanner.Linger = 20 * time.Millisecond

	scansAtDial := -1
	f.link.beforeConnect = func() { scansAtDial = f.scanner.activeScans() }

	f.ctrl.StartScan(context.Background())
	require.Eventually(t, func() bool { return f.scanner.scanCount() == 1 }, eventually, tick)

	time.Sleep(10 * time.Millisecond)
	f.ctrl.StartScan(context.Background())
	assert.True(t, f.ctrl.State().Scanning)
	require.Eventually(t, func() bool { return f.scanner.scanCount() == 2 }, eventually, tick,
		"the second scan MUST start once the first has stopped")

	require.NoError(t, f.ctrl.ConnectToDevice(context.Background(), target))

	assert.Equal(t, 1, f.scanner.peakScans(), "scans MUST NOT overlap on the shared central")
	assert.Zero(t, scansAtDial, "the dial MUST wait for the scan to stop")
}

func TestStart_IgnoresStatesCausedByHeldAdapter(t *testing.T) {
	// GOAL: Verify opening the central for a scan does not tear that scan down
	//
	// TEST SCENARIO: PoweredOn → scan opens the central and BlueZ reports PoweredOff → ignored → adapter released and PoweredOff → list cleared
	var held atomic.Bool
	f := newFixture(t, func(o *controller.Options) {
		o.ScanTimeout = time.Minute
		o.AdapterHeld = held.Load
	})
	f.scanner.Block = true
	f.scanner.Results = []device.DeviceInfo{dev("LKZ_PELT", target)}
	f.scanner.OnScan = func() {
		held.Store(true)
		f.radio.States <- device.StatePoweredOff
	}
	require.NoError(t, f.ctrl.Start(context.Background()))

	f.radio.States <- device.StatePoweredOn
	require.Eventually(t, func() bool { return f.scanner.scanCount() == 1 }, eventually, tick)

	assert.Never(t, func() bool {
		s := f.ctrl.State()
		return s.Adapter != device.StatePoweredOn || !s.Scanning
	}, 100*time.Millisecond, tick, "a state caused by our own central MUST NOT stop the scan")
	assert.Empty(t, f.resets, "the central MUST NOT be reset")

	held.Store(false)
	f.radio.States <- device.StatePoweredOff
	require.Eventually(t, func() bool {
		s := f.ctrl.State()
		return s.Adapter == device.StatePoweredOff && !s.Scanning
	}, eventually, tick)
	select {
	case <-f.resets:
	case <-time.After(eventually):
		t.Fatal("a real power-off MUST reset the shared central")
	}
	assert.Equal(t, 1, f.scanner.scanCount())
}

func TestConnectToDevice_RefusesOtherDevices(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.ConnectToDevice(context.Background(), other)

	require.ErrorIs(t, err, device.ErrAccessDenied)
	assert.Zero(t, f.link.connectCount(), "non-target devices MUST never be dialed")
	assert.Equal(t, []string{"error: Access Denied: This app is restricted to LKZ_PELT hardware."}, f.toasts.messages())
}

func TestConnectToDevice_Success(t *testing.T) {
	// GOAL: Verify the connect flow: loader, link options, settle, list closed
	//
	// TEST SCENARIO: list open → connect lower-case target id → connected after settle → list closed
	f := newFixture(t, func(o *controller.Options) {
		o.SettleDelay = 200 * time.Millisecond
		o.ConnectionCheckDelay = time.Minute
	})
	f.radio.States <- device.StatePoweredOn
	require.NoError(t, f.ctrl.Start(context.Background()))
	require.Eventually(t, func() bool { return f.ctrl.State().Adapter == device.StatePoweredOn }, eventually, tick)
	require.NoError(t, f.ctrl.PressConnect(context.Background()))
	require.True(t, f.ctrl.State().DeviceListVisible)

	require.NoError(t, f.ctrl.ConnectToDevice(context.Background(), "94:51:dc:58:55:6a"))

	s := f.ctrl.State()
	assert.True(t, s.Loading)
	assert.Equal(t, controller.MsgConnecting, s.LoadingMessage)
	assert.False(t, s.Scanning, "connecting MUST stop the scan")

	require.Eventually(t, func() bool {
		s := f.ctrl.State()
		return s.Connected && !s.Loading && !s.DeviceListVisible
	}, eventually, tick)

	assert.Equal(t, target, f.link.lastAddress)
	assert.Equal(t, 512, f.link.lastOptions.MTU)
	assert.Equal(t, controller.DefaultConnectTimeout, f.link.lastOptions.ConnectTimeout)
	assert.Len(t, f.ctrl.State().Services, 1)
}

func TestConnectToDevice_Failure(t *testing.T) {
	f := newFixture(t)
	f.link.connectErr = device.ErrTimeout

	err := f.ctrl.ConnectToDevice(context.Background(), target)

	require.ErrorIs(t, err, device.ErrTimeout)
	s := f.ctrl.State()
	assert.False(t, s.Loading, "a failed connect MUST hide the loader")
	assert.False(t, s.Connected)
	assert.Equal(t, []string{"error: Failed to connect to LKZ_PELT"}, f.toasts.messages())
}

func TestConnectionLoss(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	f.link.drop()

	assert.False(t, f.ctrl.State().Connected)
	assert.Contains(t, f.toasts.messages(), "warning: "+controller.MsgConnectionLost)
}

func TestDisconnect(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		toast   string
		connect bool
	}{
		{"success", nil, "success: Device Disconnected successfully", true},
		{"failure", errors.New("boom"), "error: Failed to disconnect device", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.connect(t)
			f.link.disconnectErr = tt.err

			err := f.ctrl.Disconnect()

			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.True(t, f.ctrl.State().Connected)
			} else {
				require.NoError(t, err)
				assert.False(t, f.ctrl.State().Connected)
			}
			assert.Equal(t, []string{tt.toast}, f.toasts.messages())
		})
	}
}

func TestPressPercentAndPole(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.PressPercent(controller.Level50)
	require.ErrorIs(t, err, device.ErrNotConnected)
	err = f.ctrl.PressPole(controller.PoleUp)
	require.ErrorIs(t, err, device.ErrNotConnected)

	assert.Equal(t, []string{
		"warning: Please connect to LKZ_PELT Bluetooth device first.",
		"warning: Please connect to LKZ_PELT Bluetooth device first.",
	}, f.toasts.messages())
	assert.Empty(t, f.ctrl.State().Level, "buttons MUST be ignored while disconnected")

	f.connect(t)
	require.NoError(t, f.ctrl.PressPercent(controller.Level75))
	require.NoError(t, f.ctrl.PressPole(controller.PoleDown))

	s := f.ctrl.State()
	assert.Equal(t, controller.Level75, s.Level)
	assert.Equal(t, controller.PoleDown, s.Pole)
}

func TestPressConnect_PoweredOff(t *testing.T) {
	f := newFixture(t)
	f.radio.On("SetPowered", mock.Anything, true).Return(nil).Once()

	require.NoError(t, f.ctrl.PressConnect(context.Background()))

	f.radio.AssertCalled(t, "SetPowered", mock.Anything, true)
	assert.False(t, f.ctrl.State().DeviceListVisible)
	assert.Equal(t, []string{
		"success: Bluetooth turned on",
		"warning: Please turn on Bluetooth to connect to devices.",
	}, f.toasts.messages())
	require.Eventually(t, func() bool { return f.scanner.scanCount() == 1 }, eventually, tick,
		"powering on MUST start a scan")
}

func TestToggleBluetooth(t *testing.T) {
	tests := []struct {
		name     string
		on       bool
		authErr  error
		powerErr error
		toast    string
	}{
		{"on", true, nil, nil, "success: Bluetooth turned on"},
		{"off", false, nil, nil, "success: Bluetooth turned off"},
		{"unsupported", true, nil, radio.ErrToggleUnsupported, "error: Programmatic radio toggling is not supported on this platform."},
		{"failure", false, nil, errors.New("dbus: no reply"), "error: Error toggling Bluetooth radio"},
		{"not authorized", true, device.ErrUnauthorized, nil, "error: Bluetooth Connect permission denied. Cannot enable."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fixture{radio: newMockRadio(), link: &fakeLink{}, scanner: newFakeScanner(), toasts: &toasts{}}
			f.radio.On("Authorize", mock.Anything).Return(tt.authErr)
			f.radio.On("SetPowered", mock.Anything, tt.on).Return(tt.powerErr).Maybe()
			f.ctrl = controller.New(f.radio, f.link, f.scanner, controller.Options{
				Notifier:           f.toasts,
				PowerOffCheckDelay: time.Millisecond,
				ResetCentral:       func() error { return nil },
			})
			t.Cleanup(f.ctrl.Close)

			err := f.ctrl.ToggleBluetooth(context.Background(), tt.on)

			switch {
			case tt.authErr != nil:
				require.ErrorIs(t, err, tt.authErr)
				f.radio.AssertNotCalled(t, "SetPowered", mock.Anything, mock.Anything)
			case tt.powerErr != nil:
				require.ErrorIs(t, err, tt.powerErr)
			default:
				require.NoError(t, err)
			}
			assert.Equal(t, []string{tt.toast}, f.toasts.messages())
		})
	}
}

func TestPressOff(t *testing.T) {
	f := newFixture(t)
	f.radio.On("SetPowered", mock.Anything, false).Return(nil).Once()
	f.connect(t)

	require.NoError(t, f.ctrl.PressOff(context.Background()))

	s := f.ctrl.State()
	assert.True(t, s.OffUsed)
	assert.False(t, s.Connected)
	assert.False(t, f.link.IsConnected())
	f.radio.AssertCalled(t, "SetPowered", mock.Anything, false)
	assert.Equal(t, []string{
		"success: Device Disconnected successfully",
		"success: Bluetooth turned off",
	}, f.toasts.messages())
}

func TestPressOff_WithoutToggleSupport(t *testing.T) {
	f := &fixture{radio: newMockRadio(), link: &fakeLink{}, scanner: newFakeScanner(), toasts: &toasts{}}
	f.radio.On("CanToggle").Return(false)
	f.ctrl = controller.New(f.radio, f.link, f.scanner, controller.Options{Notifier: f.toasts, ResetCentral: func() error { return nil }})
	t.Cleanup(f.ctrl.Close)

	require.NoError(t, f.ctrl.PressOff(context.Background()))

	f.radio.AssertNotCalled(t, "SetPowered", mock.Anything, mock.Anything)
	assert.True(t, f.ctrl.State().OffUsed)
}

func TestEventsAndClose(t *testing.T) {
	f := newFixture(t)

	f.ctrl.CloseDeviceList()

	select {
	case s := <-f.ctrl.Events():
		assert.False(t, s.DeviceListVisible)
	case <-time.After(eventually):
		t.Fatal("every change MUST publish a snapshot")
	}

	f.ctrl.Close()
	f.ctrl.Close()

	for range f.ctrl.Events() {
	}
	f.ctrl.StartScan(context.Background())
	assert.Zero(t, f.scanner.scanCount(), "a closed controller MUST not start scans")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    controller.Level
		wantErr bool
	}{
		{"25", controller.Level25, false},
		{"50%", controller.Level50, false},
		{" 75 ", controller.Level75, false},
		{"100", controller.Level100, false},
		{"30", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := controller.ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParsePole(t *testing.T) {
	up, err := controller.ParsePole("up")
	require.NoError(t, err)
	assert.Equal(t, controller.PoleUp, up)

	down, err := controller.ParsePole("POLE DOWN")
	require.NoError(t, err)
	assert.Equal(t, controller.PoleDown, down)

	_, err = controller.ParsePole("sideways")
	assert.Error(t, err)
}
