// Package controller holds the state of the LKZ_PELT control screen and
// drives the connection lifecycle behind it: following the adapter state,
// scanning with a timeout, connecting to the target only and reacting to
// link loss. Every mutation publishes a State snapshot on Events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/groutine"
	"github.com/srg/peltctl/internal/notify"
	"github.com/srg/peltctl/internal/radio"
	"github.com/srg/peltctl/internal/ringchan"
	"github.com/srg/peltctl/scanner"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// User-facing messages.
const (
	MsgInitializing       = "Initializing Bluetooth..."
	MsgConnecting         = "Connecting Bluetooth..."
	MsgTurnedOn           = "Bluetooth turned on"
	MsgTurnedOff          = "Bluetooth turned off"
	MsgToggleUnsupported  = "Programmatic radio toggling is not supported on this platform."
	MsgToggleFailed       = "Error toggling Bluetooth radio"
	MsgPermissionDenied   = "Bluetooth Connect permission denied. Cannot enable."
	MsgTurnOnToConnect    = "Please turn on Bluetooth to connect to devices."
	MsgDisconnected       = "Device Disconnected successfully"
	MsgDisconnectFailed   = "Failed to disconnect device"
	MsgConnectionLost     = "Device disconnected"
	MsgAccessDeniedFormat = "Access Denied: This app is restricted to %s hardware."
	MsgConnectFirstFormat = "Please connect to %s Bluetooth device first."
	MsgConnectFailedFmt   = "Failed to connect to %s"
)

// StateBufferSize is the number of unread snapshots kept before the oldest is dropped.
const StateBufferSize = 32

// Scanner discovers peripherals. *scanner.Scanner implements it.
type Scanner interface {
	Scan(ctx context.Context, opts *scanner.ScanOptions, progress scanner.ProgressCallback) ([]device.DeviceInfo, error)
	Events() <-chan scanner.DeviceEvent
}

var _ Scanner = (*scanner.Scanner)(nil)

// Controller is the screen state holder. All methods are safe for concurrent use.
type Controller struct {
	opts     Options
	logger   *logrus.Logger
	notifier notify.Notifier

	radio   radio.Radio
	link    device.Connection
	scanner Scanner

	mu             sync.Mutex
	adapter        device.AdapterState
	devices        *orderedmap.OrderedMap[string, device.DeviceInfo]
	scanning       bool
	scanGen        uint64
	scanCancel     context.CancelFunc
	scanDone       chan struct{}
	connected      bool
	services       []device.Service
	mtu            int
	loading        bool
	loadingMessage string
	listVisible    bool
	level          Level
	pole           Pole
	offUsed        bool
	stopWatch      context.CancelFunc
	timers         map[uint64]*time.Timer
	nextTimer      uint64
	closed         bool

	events *ringchan.RingChannel[State]
	group  groutine.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Controller. Nothing happens until Start or an operation is called.
func New(r radio.Radio, link device.Connection, s Scanner, opts Options) *Controller {
	opts.normalize()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		opts:     opts,
		logger:   opts.Logger,
		notifier: opts.Notifier,
		radio:    r,
		link:     link,
		scanner:  s,
		devices:  orderedmap.New[string, device.DeviceInfo](),
		scanDone: closedChan(),
		timers:   make(map[uint64]*time.Timer),
		events:   ringchan.NewRingChannel[State](StateBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	c.group.Go(ctx, "controller-scan-events", c.followScanEvents)
	return c
}

// Start checks permissions and then follows the adapter state until ctx
// ends or the controller is closed.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.radio.Authorize(ctx); err != nil {
		c.logger.WithField("error", err).Warn("Bluetooth permissions not granted")
		c.update(func() { c.adapter = device.StateUnauthorized })
		c.toast(notify.KindError, MsgPermissionDenied)
		return fmt.Errorf("bluetooth permission check failed: %w", err)
	}

	watchCtx, stop := context.WithCancel(ctx)
	states, err := c.radio.Watch(watchCtx)
	if err != nil {
		stop()
		return fmt.Errorf("failed to watch adapter state: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		stop()
		return errors.New("controller is closed")
	}
	if c.stopWatch != nil {
		c.stopWatch()
	}
	c.stopWatch = stop
	c.group.Go(watchCtx, "controller-adapter-watch", func(ctx context.Context) {
		for state := range states {
			c.onStateChange(ctx, state)
		}
	})
	c.mu.Unlock()

	c.logger.WithField("target", c.opts.Target).Info("Controller started")
	return nil
}

func (c *Controller) onStateChange(ctx context.Context, state device.AdapterState) {
	if state != device.StatePoweredOn && c.opts.AdapterHeld() {
		c.logger.WithField("state", state).Debug("Ignoring adapter state while the central holds the adapter")
		return
	}
	c.logger.WithField("state", state).Info("Adapter state changed")
	c.update(func() { c.adapter = state })

	if state == device.StatePoweredOn {
		c.StartScan(ctx)
		return
	}

	scanStopped := c.stopScan()
	c.update(func() {
		c.devices = orderedmap.New[string, device.DeviceInfo]()
		c.loading = false
		c.loadingMessage = ""
	})
	select {
	case <-scanStopped:
	case <-ctx.Done():
		return
	}
	if err := c.opts.ResetCentral(); err != nil {
		c.logger.WithField("error", err).Debug("Failed to reset BLE central")
	}
}

// StartScan clears the device list and scans for ScanTimeout. The connected
// flag is refreshed ConnectionCheckDelay later.
func (c *Controller) StartScan(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.scanCancel != nil {
		c.scanCancel()
	}
	c.scanGen++
	gen := c.scanGen
	scanCtx, cancel := context.WithTimeout(ctx, c.opts.ScanTimeout)
	c.scanCancel = cancel
	prev, done := c.scanDone, make(chan struct{})
	c.scanDone = done
	c.scanning = true
	c.devices = orderedmap.New[string, device.DeviceInfo]()
	c.loading = true
	c.loadingMessage = MsgInitializing
	snapshot := c.snapshotLocked()

	c.group.Go(scanCtx, "controller-scan", func(ctx context.Context) {
		defer close(done)
		// the central stops scanning only after the previous Scan returns
		<-prev
		c.runScan(ctx, gen)
	})
	c.mu.Unlock()
	c.events.Send(snapshot)

	c.logger.WithField("timeout", c.opts.ScanTimeout).Info("Scan started")
	c.after(c.opts.ConnectionCheckDelay, c.CheckConnection)
	c.hideLoader()
}

func (c *Controller) hideLoader() {
	c.update(func() {
		c.loading = false
		c.loadingMessage = ""
	})
}

func (c *Controller) runScan(ctx context.Context, gen uint64) {
	var found []device.DeviceInfo
	var err error
	if ctx.Err() == nil {
		found, err = c.scanner.Scan(ctx, &scanner.ScanOptions{DuplicateFilter: true}, nil)
	}

	c.mu.Lock()
	current := gen == c.scanGen
	if current {
		c.scanning = false
		if c.scanCancel != nil {
			c.scanCancel()
			c.scanCancel = nil
		}
		for _, d := range found {
			c.addDeviceLocked(d)
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.WithField("error", err).Error("Scan failed")
		c.hideLoader()
		return
	}
	if current {
		c.logger.WithField("device_count", len(snapshot.Devices)).Info("Scan finished")
		c.events.Send(snapshot)
	}
}

// followScanEvents adds devices as they are discovered so the list fills
// while the scan runs.
func (c *Controller) followScanEvents(ctx context.Context) {
	events := c.scanner.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != scanner.EventNew {
				continue
			}
			c.mu.Lock()
			added := c.scanning && c.addDeviceLocked(ev.DeviceInfo)
			snapshot := c.snapshotLocked()
			c.mu.Unlock()
			if added {
				c.events.Send(snapshot)
			}
		}
	}
}

// addDeviceLocked keeps the first sighting of every id.
func (c *Controller) addDeviceLocked(d device.DeviceInfo) bool {
	id := device.NormalizeAddress(d.ID())
	if _, exists := c.devices.Get(id); exists {
		return false
	}
	c.devices.Set(id, d)
	return true
}

// StopScan ends the running scan. Results it has not reported yet are discarded.
func (c *Controller) StopScan() {
	c.stopScan()
}

// stopScan cancels the running scan and returns a channel that is closed
// once the central has stopped scanning.
func (c *Controller) stopScan() <-chan struct{} {
	var done <-chan struct{}
	c.update(func() {
		if c.scanCancel != nil {
			c.scanCancel()
			c.scanCancel = nil
		}
		c.scanGen++
		c.scanning = false
		done = c.scanDone
	})
	return done
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// CheckConnection refreshes the connected flag from the link.
func (c *Controller) CheckConnection() {
	connected := c.link.IsConnected()
	var services []device.Service
	mtu := 0
	if connected {
		services = c.link.Services()
		mtu = c.link.MTU()
	}

	c.update(func() {
		c.connected = connected
		c.services = services
		c.mtu = mtu
	})
}

// ToggleBluetooth powers the adapter on or off.
func (c *Controller) ToggleBluetooth(ctx context.Context, on bool) error {
	if err := c.radio.Authorize(ctx); err != nil {
		c.logger.WithField("error", err).Warn("Radio toggle not authorized")
		c.toast(notify.KindError, MsgPermissionDenied)
		return err
	}

	if !on {
		select {
		case <-c.stopScan():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := c.radio.SetPowered(ctx, on); err != nil {
		c.logger.WithFields(logrus.Fields{
			"on":    on,
			"error": err,
		}).Error("Failed to toggle Bluetooth radio")
		if errors.Is(err, radio.ErrToggleUnsupported) {
			c.toast(notify.KindError, MsgToggleUnsupported)
		} else {
			c.toast(notify.KindError, MsgToggleFailed)
		}
		return err
	}

	if on {
		c.StartScan(ctx)
		c.toast(notify.KindSuccess, MsgTurnedOn)
	} else {
		c.after(c.opts.PowerOffCheckDelay, c.CheckConnection)
		c.toast(notify.KindSuccess, MsgTurnedOff)
	}
	return nil
}

// PressConnect opens the device list with a fresh scan, or asks for the
// radio to be powered on first.
func (c *Controller) PressConnect(ctx context.Context) error {
	c.mu.Lock()
	poweredOn := c.adapter == device.StatePoweredOn
	c.mu.Unlock()

	if poweredOn {
		c.StartScan(ctx)
		c.update(func() { c.listVisible = true })
		return nil
	}

	err := c.ToggleBluetooth(ctx, true)
	c.toast(notify.KindWarning, MsgTurnOnToConnect)
	return err
}

// ConnectToDevice connects to id when it is the target and refuses anything else.
func (c *Controller) ConnectToDevice(ctx context.Context, id string) error {
	if !device.SameAddress(id, c.opts.Target) {
		c.logger.WithField("id", id).Warn("Refusing connection to non-target device")
		c.toast(notify.KindError, fmt.Sprintf(MsgAccessDeniedFormat, c.opts.TargetName))
		return fmt.Errorf("device %q: %w", id, device.ErrAccessDenied)
	}

	scanStopped := c.stopScan()
	c.update(func() {
		c.loading = true
		c.loadingMessage = MsgConnecting
	})

	select {
	case <-scanStopped:
	case <-ctx.Done():
		c.hideLoader()
		return ctx.Err()
	}

	err := c.link.Connect(ctx, c.opts.Target, &device.ConnectOptions{
		ConnectTimeout: c.opts.ConnectTimeout,
		MTU:            c.opts.MTU,
		OnDisconnected: c.onDisconnected,
	})
	if err != nil && !errors.Is(err, device.ErrAlreadyConnected) {
		c.logger.WithFields(logrus.Fields{
			"target": c.opts.Target,
			"error":  err,
		}).Error("Connection failed")
		c.hideLoader()
		c.CheckConnection()
		c.toast(notify.KindError, fmt.Sprintf(MsgConnectFailedFmt, c.opts.TargetName))
		return err
	}

	c.after(c.opts.SettleDelay, func() {
		c.CheckConnection()
		c.update(func() {
			c.loading = false
			c.loadingMessage = ""
			c.listVisible = false
		})
	})
	return nil
}

func (c *Controller) onDisconnected(err error) {
	c.logger.WithField("error", err).Warn("Device disconnected!")
	c.update(func() {
		c.connected = false
		c.services = nil
		c.mtu = 0
	})
	c.toast(notify.KindWarning, MsgConnectionLost)
}

// Disconnect cancels the link to the target.
func (c *Controller) Disconnect() error {
	if err := c.link.Disconnect(); err != nil {
		c.logger.WithField("error", err).Error("Disconnection failed")
		c.toast(notify.KindError, MsgDisconnectFailed)
		return err
	}

	c.update(func() {
		c.connected = false
		c.services = nil
		c.mtu = 0
	})
	c.toast(notify.KindSuccess, MsgDisconnected)
	return nil
}

// PressOff records the OFF button, disconnects and powers the radio off
// where the platform allows it.
func (c *Controller) PressOff(ctx context.Context) error {
	c.update(func() { c.offUsed = true })

	err := c.Disconnect()
	if c.radio.CanToggle() {
		err = errors.Join(err, c.ToggleBluetooth(ctx, false))
	}
	return err
}

// PressPercent records level while connected.
func (c *Controller) PressPercent(level Level) error {
	return c.press(func() { c.level = level })
}

// PressPole records pole while connected.
func (c *Controller) PressPole(pole Pole) error {
	return c.press(func() { c.pole = pole })
}

func (c *Controller) press(set func()) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		c.toast(notify.KindWarning, fmt.Sprintf(MsgConnectFirstFormat, c.opts.TargetName))
		return device.ErrNotConnected
	}
	set()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.events.Send(snapshot)
	return nil
}

func (c *Controller) CloseDeviceList() {
	c.update(func() { c.listVisible = false })
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Events streams a snapshot after every change. Unread snapshots are
// dropped oldest first; the channel closes on Close.
func (c *Controller) Events() <-chan State {
	return c.events.C()
}

// Close cancels the scan, pending timers and the adapter watch, then waits
// for the controller's goroutines. The link is left as is.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	if c.scanCancel != nil {
		c.scanCancel()
		c.scanCancel = nil
	}
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.mu.Unlock()

	c.cancel()
	c.group.Wait()
	c.events.Close()
}

// after runs fn once d has passed unless the controller is closed first.
func (c *Controller) after(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.nextTimer++
	id := c.nextTimer
	c.timers[id] = time.AfterFunc(d, func() {
		c.mu.Lock()
		_, pending := c.timers[id]
		delete(c.timers, id)
		c.mu.Unlock()
		if pending {
			fn()
		}
	})
}

// update applies fn under the lock and publishes the resulting snapshot.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.events.Send(snapshot)
}

func (c *Controller) snapshotLocked() State {
	devices := make([]device.DeviceInfo, 0, c.devices.Len())
	for pair := c.devices.Oldest(); pair != nil; pair = pair.Next() {
		devices = append(devices, pair.Value)
	}

	return State{
		Target:            c.opts.Target,
		TargetName:        c.opts.TargetName,
		Adapter:           c.adapter,
		Devices:           devices,
		Scanning:          c.scanning,
		Connected:         c.connected,
		Services:          append([]device.Service(nil), c.services...),
		MTU:               c.mtu,
		Loading:           c.loading,
		LoadingMessage:    c.loadingMessage,
		DeviceListVisible: c.listVisible,
		Level:             c.level,
		Pole:              c.pole,
		OffUsed:           c.offUsed,
	}
}

func (c *Controller) toast(kind notify.Kind, message string) {
	c.notifier.Notify(notify.New(kind, message))
}
