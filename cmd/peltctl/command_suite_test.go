package main

import (
	"context"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/radio"
	"github.com/srg/peltctl/internal/testutils"
	"github.com/srg/peltctl/internal/tui"
	"github.com/srg/peltctl/scanner"
)

const (
	targetAddress = "94:51:DC:58:55:6A"
	otherAddress  = "AA:BB:CC:DD:EE:FF"
)

// fakeRadio is an in-memory adapter.
type fakeRadio struct {
	mu        sync.Mutex
	state     device.AdapterState
	authErr   error
	canToggle bool
	setErr    error
	powered   []bool
}

var _ radio.Radio = (*fakeRadio)(nil)

func (r *fakeRadio) State(context.Context) (device.AdapterState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *fakeRadio) Watch(ctx context.Context) (<-chan device.AdapterState, error) {
	ch := make(chan device.AdapterState, 1)
	ch <- r.state
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (r *fakeRadio) SetPowered(_ context.Context, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.powered = append(r.powered, on)
	if on {
		r.state = device.StatePoweredOn
	} else {
		r.state = device.StatePoweredOff
	}
	return nil
}

func (r *fakeRadio) CanToggle() bool                  { return r.canToggle }
func (r *fakeRadio) Authorize(context.Context) error { return r.authErr }
func (r *fakeRadio) Close() error                     { return nil }

// CommandTestSuite runs commands against the mocked BLE central and a fake radio.
type CommandTestSuite struct {
	testutils.MockPeripheralSuite

	Radio *fakeRadio
	Out   *testutils.SyncBuffer

	originalOpenRadio  func(radio.Options) (radio.Radio, error)
	originalIsTerminal func(*os.File) bool
}

func (s *CommandTestSuite) SetupTest() {
	if s.PeripheralBuilder == nil {
		s.WithPeripheral().
			WithService("180F").
			WithCharacteristic("2A19", "read,notify").
			WithAdvertisements(
				testutils.CreateMockAdvertisement("Other", otherAddress, -70),
				testutils.CreateMockAdvertisement("LKZ_PELT", targetAddress, -48),
			)
	}
	s.MockPeripheralSuite.SetupTest()

	resetFlags()
	dir := s.T().TempDir()
	s.T().Setenv("XDG_CONFIG_HOME", dir)
	s.T().Setenv("HOME", dir)

	s.Radio = &fakeRadio{state: device.StatePoweredOn, canToggle: true}
	s.originalOpenRadio = openRadio
	openRadio = func(radio.Options) (radio.Radio, error) { return s.Radio, nil }

	s.originalIsTerminal = isTerminal
	isTerminal = func(*os.File) bool { return false }

	s.Out = &testutils.SyncBuffer{}
}

func (s *CommandTestSuite) TearDownTest() {
	openRadio = s.originalOpenRadio
	isTerminal = s.originalIsTerminal
	s.MockPeripheralSuite.TearDownTest()
}

// ExecuteCommand runs the root command with args and returns its output.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	rootCmd.SetOut(s.Out)
	rootCmd.SetErr(s.Out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return s.Out.String(), err
}

func resetFlags() {
	configPath = ""
	logLevelFlag = ""
	verboseFlag = false
	targetFlag = ""
	adapterFlag = ""

	scanDuration = 0
	scanFormat = ""
	scanTargetOnly = false
	statusFormat = ""
	connectFormat = ""
	connectOnce = false
	uiLogBuffer = tui.DefaultLogTailSize
}

// recordingScanner is the real scanner that also keeps the options it was given.
type recordingScanner struct {
	*scanner.Scanner
	mu   sync.Mutex
	opts []*scanner.ScanOptions
}

func newRecordingScanner(logger *logrus.Logger) *recordingScanner {
	return &recordingScanner{Scanner: scanner.NewScanner(logger)}
}

func (r *recordingScanner) Scan(ctx context.Context, opts *scanner.ScanOptions, progress scanner.ProgressCallback) ([]device.DeviceInfo, error) {
	r.mu.Lock()
	r.opts = append(r.opts, opts)
	r.mu.Unlock()
	return r.Scanner.Scan(ctx, opts, progress)
}

func (r *recordingScanner) last() *scanner.ScanOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opts) == 0 {
		return nil
	}
	return r.opts[len(r.opts)-1]
}
