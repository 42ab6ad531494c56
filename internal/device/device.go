package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotFoundError represents an error when a BLE resource is not found
type NotFoundError struct {
	Resource string   // "service", "characteristic"
	UUIDs    []string // One or more UUIDs (e.g., [serviceUUID] or [serviceUUID, charUUID])
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	NotInitialized   ConnectionState = "not_initialized"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrNotInitialized   = &ConnectionError{State: NotInitialized}
)

// Adapter and operation errors
var (
	ErrBluetoothOff = errors.New("bluetooth is turned off")
	ErrUnauthorized = errors.New("bluetooth access is not authorized")
	ErrUnsupported  = errors.New("unsupported")
	ErrTimeout      = errors.New("timeout")

	// ErrAccessDenied is returned when a connection to anything but the
	// configured target peripheral is requested.
	ErrAccessDenied = errors.New("access denied")
)

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// AdapterState mirrors the power/authorization state of the local Bluetooth adapter.
type AdapterState int

const (
	StateUnknown AdapterState = iota
	StateResetting
	StateUnsupported
	StateUnauthorized
	StatePoweredOff
	StatePoweredOn
)

var adapterStateNames = map[AdapterState]string{
	StateUnknown:      "Unknown",
	StateResetting:    "Resetting",
	StateUnsupported:  "Unsupported",
	StateUnauthorized: "Unauthorized",
	StatePoweredOff:   "PoweredOff",
	StatePoweredOn:    "PoweredOn",
}

func (s AdapterState) String() string {
	if name, ok := adapterStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AdapterState(%d)", int(s))
}

// MarshalText renders the state by name so it reads well in JSON output.
func (s AdapterState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateFromError classifies an error returned while opening or using the
// adapter. A nil error means the adapter is usable.
func StateFromError(err error) AdapterState {
	switch {
	case err == nil:
		return StatePoweredOn
	case errors.Is(err, ErrBluetoothOff):
		return StatePoweredOff
	case errors.Is(err, ErrUnauthorized):
		return StateUnauthorized
	case errors.Is(err, ErrUnsupported):
		return StateUnsupported
	case containsIgnoreCase(err.Error(), "resetting"):
		return StateResetting
	default:
		return StateUnknown
	}
}

// ScanningDevice represents a BLE device capable of scanning for advertisements
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

type Advertisement interface {
	LocalName() string
	ManufacturerData() []byte
	Services() []string
	TxPowerLevel() int
	Connectable() bool
	RSSI() int
	Addr() string
}

//nolint:revive // DeviceInfo name is intentional for clarity when used as a device.DeviceInfo
type DeviceInfo interface {
	ID() string
	Name() string
	DisplayName() string
	Address() string
	RSSI() int
	TxPower() *int
	IsConnectable() bool
	AdvertisedServices() []string
	ManufacturerData() []byte
	LastSeen() time.Time
}

// Connection is a live GATT link to a single peripheral.
type Connection interface {
	Connect(ctx context.Context, address string, opts *ConnectOptions) error
	Disconnect() error
	IsConnected() bool
	Services() []Service
	MTU() int
}

// Service is a discovered GATT service with its characteristics.
type Service struct {
	UUID            string           `json:"uuid"`
	Characteristics []Characteristic `json:"characteristics"`
}

// Characteristic is a discovered GATT characteristic.
type Characteristic struct {
	UUID       string   `json:"uuid"`
	Properties []string `json:"properties"`
}

// ConnectOptions defines BLE connection options
type ConnectOptions struct {
	ConnectTimeout time.Duration
	// MTU requested after discovery; 0 skips the exchange.
	MTU int
	// OnDisconnected is invoked once when the link drops without a
	// Disconnect call. It runs on its own goroutine.
	OnDisconnected func(err error)
}
