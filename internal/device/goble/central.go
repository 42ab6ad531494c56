package goble

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-ble/ble"
	"github.com/srg/peltctl/internal/device"
)

// Central is the part of ble.Device the application drives.
type Central interface {
	Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error
	Dial(ctx context.Context, address string) (Client, error)
	Stop() error
}

// Client is the part of ble.Client used after a successful dial.
type Client interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	ExchangeMTU(rxMTU int) (txMTU int, err error)
	CancelConnection() error
}

// adapterID is the HCI index used by the Linux backend.
var adapterID atomic.Int32

// SetAdapter selects the local adapter by name ("hci0", "hci1", ...).
// It only has an effect on Linux and must be called before the first central is opened.
func SetAdapter(name string) error {
	idx, err := ParseAdapter(name)
	if err != nil {
		return err
	}
	adapterID.Store(int32(idx))
	return nil
}

// ParseAdapter returns the HCI index of an adapter name.
func ParseAdapter(name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(name), "hci"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid adapter %q: expected a name like hci0", name)
	}
	return n, nil
}

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// CentralFactory opens a Central. The default wraps DeviceFactory.
var CentralFactory = func() (Central, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, NormalizeError(err)
	}
	return &bleCentral{dev: dev}, nil
}

var (
	sharedMu      sync.Mutex
	sharedCentral Central
)

// SharedCentral returns the process-wide central, opening it on first use.
// A failed open is not cached, the next call retries.
func SharedCentral() (Central, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCentral != nil {
		return sharedCentral, nil
	}
	c, err := CentralFactory()
	if err != nil {
		return nil, err
	}
	sharedCentral = c
	return c, nil
}

// AdapterHeld reports whether the shared central is open on a backend that
// takes the adapter away from the OS Bluetooth stack. While it is, power
// and presence changes reported by the OS stack are caused by this process.
func AdapterHeld() bool {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return exclusiveAdapter && sharedCentral != nil
}

// ResetCentral stops and drops the shared central. The next SharedCentral
// call opens a fresh one.
func ResetCentral() error {
	sharedMu.Lock()
	c := sharedCentral
	sharedCentral = nil
	sharedMu.Unlock()

	if c == nil {
		return nil
	}
	return NormalizeError(c.Stop())
}

// bleCentral adapts ble.Device to Central
type bleCentral struct {
	dev ble.Device
}

// Scan converts ble.Advertisement to device.Advertisement for the handler
func (c *bleCentral) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	err := c.dev.Scan(ctx, allowDup, func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	})
	return NormalizeError(err)
}

func (c *bleCentral) Dial(ctx context.Context, address string) (Client, error) {
	client, err := c.dev.Dial(ctx, ble.NewAddr(address))
	if err != nil {
		return nil, NormalizeError(err)
	}
	return client, nil
}

func (c *bleCentral) Stop() error {
	return c.dev.Stop()
}

// bleScanner implements device.ScanningDevice on top of the shared central
type bleScanner struct{}

// NewScanner creates a device.ScanningDevice backed by the shared central.
func NewScanner() (device.ScanningDevice, error) {
	if _, err := SharedCentral(); err != nil {
		return nil, err
	}
	return bleScanner{}, nil
}

func (bleScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	c, err := SharedCentral()
	if err != nil {
		return err
	}
	return c.Scan(ctx, allowDup, handler)
}
