//go:build linux

package radio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/srg/peltctl/internal/groutine"
)

// adapterReturnTimeout bounds the wait for BlueZ to re-register the adapter
// after the HCI user channel is released.
const adapterReturnTimeout = 2 * time.Second

const (
	bluezBus       = "org.bluez"
	bluezAdapter1  = "org.bluez.Adapter1"
	dbusProperties = "org.freedesktop.DBus.Properties"
)

func newPlatformRadio(opts Options) (Radio, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		opts.Logger.WithField("error", err).Warn("System D-Bus unavailable, falling back to adapter probing")
		return NewProbeRadio(opts), nil
	}
	return NewBlueZRadio(conn, opts), nil
}

// BlueZRadio drives org.bluez.Adapter1 over the system bus.
type BlueZRadio struct {
	conn    *dbus.Conn
	adapter string
	path    dbus.ObjectPath
	logger  *logrus.Logger

	// held and release default to goble.AdapterHeld and goble.ResetCentral.
	held    func() bool
	release func() error
}

var _ Radio = (*BlueZRadio)(nil)

// NewBlueZRadio uses conn, which is typically the shared dbus.SystemBus().
// Close does not close it.
func NewBlueZRadio(conn *dbus.Conn, opts Options) *BlueZRadio {
	opts.normalize()
	return &BlueZRadio{
		conn:    conn,
		adapter: opts.Adapter,
		path:    dbus.ObjectPath("/org/bluez/" + opts.Adapter),
		logger:  opts.Logger,
		held:    goble.AdapterHeld,
		release: goble.ResetCentral,
	}
}

// State reports PoweredOn while our own central holds the adapter; BlueZ
// then sees it down or gone.
func (r *BlueZRadio) State(ctx context.Context) (device.AdapterState, error) {
	if r.held() {
		return device.StatePoweredOn, nil
	}

	powered, err := getDBusProperty[bool](ctx, r.conn, r.path, bluezAdapter1, "Powered")
	if err != nil {
		err = normalizeDBusError(r.adapter, err)
		return device.StateFromError(err), err
	}

	// PowerState (BlueZ 5.66+) exposes transitions and rfkill blocks.
	if ps, err := getDBusProperty[string](ctx, r.conn, r.path, bluezAdapter1, "PowerState"); err == nil {
		if state, ok := powerStates[ps]; ok {
			return state, nil
		}
	}

	if powered {
		return device.StatePoweredOn, nil
	}
	return device.StatePoweredOff, nil
}

var powerStates = map[string]device.AdapterState{
	"on":           device.StatePoweredOn,
	"off":          device.StatePoweredOff,
	"off-enabling": device.StateResetting,
	"on-disabling": device.StateResetting,
	"off-blocked":  device.StateUnauthorized,
}

// Watch subscribes to PropertiesChanged on the adapter object.
func (r *BlueZRadio) Watch(ctx context.Context) (<-chan device.AdapterState, error) {
	matchOpts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(r.path),
		dbus.WithMatchInterface(dbusProperties),
		dbus.WithMatchMember("PropertiesChanged"),
	}
	if err := r.conn.AddMatchSignal(matchOpts...); err != nil {
		return nil, fmt.Errorf("failed to watch adapter %s: %w", r.adapter, normalizeDBusError(r.adapter, err))
	}

	sigCh := make(chan *dbus.Signal, 16)
	r.conn.Signal(sigCh)
	out := make(chan device.AdapterState, 1)

	groutine.Go(ctx, "bluez-adapter-watch", func(ctx context.Context) {
		defer func() {
			r.conn.RemoveSignal(sigCh)
			if err := r.conn.RemoveMatchSignal(matchOpts...); err != nil {
				r.logger.WithField("error", err).Debug("Failed to remove D-Bus match")
			}
			close(out)
		}()

		last := device.AdapterState(-1)
		emit := func() bool {
			state, err := r.State(ctx)
			if err != nil {
				r.logger.WithField("error", err).Debug("Adapter state read failed")
			}
			if state == last {
				return true
			}
			last = state
			select {
			case out <- state:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-sigCh:
				if !ok {
					return
				}
				if !isAdapterPowerChange(sig, r.path) {
					continue
				}
				if !emit() {
					return
				}
			}
		}
	})

	return out, nil
}

// isAdapterPowerChange filters PropertiesChanged(Adapter1, {Powered|PowerState}) on path.
func isAdapterPowerChange(sig *dbus.Signal, path dbus.ObjectPath) bool {
	if sig == nil || sig.Path != path || sig.Name != dbusProperties+".PropertiesChanged" {
		return false
	}
	if len(sig.Body) < 2 {
		return false
	}
	if iface, ok := sig.Body[0].(string); !ok || iface != bluezAdapter1 {
		return false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false
	}
	_, powered := changed["Powered"]
	_, powerState := changed["PowerState"]
	return powered || powerState
}

// SetPowered hands the adapter back to BlueZ before changing its power.
func (r *BlueZRadio) SetPowered(ctx context.Context, on bool) error {
	wasHeld := r.held()
	if err := r.release(); err != nil {
		return fmt.Errorf("failed to release %s: %w", r.adapter, err)
	}
	if wasHeld {
		r.waitForAdapter(ctx)
	}

	obj := r.conn.Object(bluezBus, r.path)
	call := obj.CallWithContext(ctx, dbusProperties+".Set", 0, bluezAdapter1, "Powered", dbus.MakeVariant(on))
	if call.Err != nil {
		return fmt.Errorf("failed to set %s powered=%t: %w", r.adapter, on, normalizeDBusError(r.adapter, call.Err))
	}
	r.logger.WithFields(logrus.Fields{
		"adapter": r.adapter,
		"powered": on,
	}).Info("Adapter power changed")
	return nil
}

// waitForAdapter polls until the adapter object is back on the bus or
// adapterReturnTimeout passes. A missing adapter surfaces as the Set error.
func (r *BlueZRadio) waitForAdapter(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, adapterReturnTimeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := getDBusProperty[bool](ctx, r.conn, r.path, bluezAdapter1, "Powered"); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			r.logger.WithField("adapter", r.adapter).Debug("Adapter did not return to BlueZ in time")
			return
		case <-ticker.C:
		}
	}
}

func (r *BlueZRadio) CanToggle() bool { return true }

// Authorize needs a readable adapter object and the capabilities raw HCI access requires.
func (r *BlueZRadio) Authorize(ctx context.Context) error {
	if _, err := getDBusProperty[bool](ctx, r.conn, r.path, bluezAdapter1, "Powered"); err != nil {
		if err := normalizeDBusError(r.adapter, err); errors.Is(err, device.ErrUnauthorized) {
			return err
		}
	}
	return checkCapabilities()
}

func (r *BlueZRadio) Close() error { return nil }

func getDBusProperty[T any](ctx context.Context, conn *dbus.Conn, path dbus.ObjectPath, iface, property string) (T, error) {
	var zero T
	obj := conn.Object(bluezBus, path)

	var variant dbus.Variant
	call := obj.CallWithContext(ctx, dbusProperties+".Get", 0, iface, property)
	if call.Err != nil {
		return zero, call.Err
	}
	if err := call.Store(&variant); err != nil {
		return zero, err
	}

	val, ok := variant.Value().(T)
	if !ok {
		return zero, fmt.Errorf("property %s.%s has unexpected type %T", iface, property, variant.Value())
	}
	return val, nil
}

// normalizeDBusError maps well-known D-Bus error names to the device sentinels.
func normalizeDBusError(adapter string, err error) error {
	var dbusErr dbus.Error
	if !errors.As(err, &dbusErr) {
		var dbusErrPtr *dbus.Error
		if !errors.As(err, &dbusErrPtr) {
			return err
		}
		dbusErr = *dbusErrPtr
	}

	switch dbusErr.Name {
	case "org.freedesktop.DBus.Error.AccessDenied", "org.bluez.Error.NotAuthorized", "org.bluez.Error.NotPermitted":
		return fmt.Errorf("%w: %v", device.ErrUnauthorized, err)
	case "org.freedesktop.DBus.Error.ServiceUnknown", "org.freedesktop.DBus.Error.UnknownObject",
		"org.freedesktop.DBus.Error.UnknownMethod", "org.freedesktop.DBus.Error.InvalidArgs":
		return fmt.Errorf("adapter %s: %w: %v", adapter, device.ErrUnsupported, err)
	case "org.bluez.Error.Busy", "org.bluez.Error.InProgress":
		return fmt.Errorf("adapter %s resetting: %v", adapter, err)
	case "org.bluez.Error.NotReady", "org.bluez.Error.Failed":
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	default:
		return err
	}
}
