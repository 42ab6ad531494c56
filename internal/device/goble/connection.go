package goble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/groutine"
)

const (
	// DefaultConnectTimeout bounds dialing when ConnectOptions leaves it unset.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultMTU is the ATT MTU before any exchange.
	DefaultMTU = 23
)

// BLEConnection is a live GATT link to one peripheral. It implements device.Connection.
type BLEConnection struct {
	logger *logrus.Logger

	// dialMu serializes Connect; connMu guards the fields below it and is
	// never held across BLE calls.
	dialMu      sync.Mutex
	connMu      sync.RWMutex
	client      Client
	address     string
	isConnected bool
	services    []device.Service
	mtu         int
	cancel      context.CancelFunc

	central func() (Central, error)
}

var _ device.Connection = (*BLEConnection)(nil)

// NewBLEConnection creates an unconnected BLEConnection that dials through SharedCentral.
func NewBLEConnection(logger *logrus.Logger) *BLEConnection {
	if logger == nil {
		logger = logrus.New()
	}
	return &BLEConnection{
		logger:  logger,
		mtu:     DefaultMTU,
		central: SharedCentral,
	}
}

// Connect dials address, discovers the full GATT profile and, where the
// platform allows it, exchanges the MTU. Disconnection that was not requested
// through Disconnect is reported once through opts.OnDisconnected.
func (c *BLEConnection) Connect(ctx context.Context, address string, opts *device.ConnectOptions) error {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	if strings.TrimSpace(address) == "" {
		c.logger.Error("Connection attempt with empty address")
		return fmt.Errorf("device address is empty")
	}
	if c.IsConnected() {
		c.logger.WithField("address", address).Warn("Connection attempt while already connected")
		return device.ErrAlreadyConnected
	}

	var o device.ConnectOptions
	if opts != nil {
		o = *opts
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}

	c.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": o.ConnectTimeout,
	}).Info("Connecting to BLE device...")

	central, err := c.central()
	if err != nil {
		c.logger.WithField("error", err).Error("Failed to open BLE central")
		return fmt.Errorf("failed to open BLE central: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	c.logger.WithField("address", address).Debug("Dialing BLE device...")
	client, err := central.Dial(connCtx, address)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Error("Failed to dial BLE device")
		if errors.Is(connCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("failed to connect to device with address %q: %w after %s", address, device.ErrTimeout, o.ConnectTimeout)
		}
		return fmt.Errorf("failed to connect to device with address %q: %w", address, err)
	}

	c.logger.WithField("address", address).Debug("Discovering services and characteristics...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Error("Failed to discover profile")
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			c.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return fmt.Errorf("failed to discover profile: %w", NormalizeError(err))
	}
	services := servicesFromProfile(profile)

	mtu := DefaultMTU
	if o.MTU > 0 && mtuExchangeSupported {
		if txMTU, err := client.ExchangeMTU(o.MTU); err != nil {
			c.logger.WithFields(logrus.Fields{
				"requested": o.MTU,
				"error":     err,
			}).Warn("MTU exchange failed, keeping default")
		} else {
			mtu = txMTU
			c.logger.WithField("mtu", mtu).Debug("MTU negotiated")
		}
	}

	monitorCtx, monitorCancel := context.WithCancel(context.Background())

	c.connMu.Lock()
	c.client = client
	c.address = address
	c.services = services
	c.mtu = mtu
	c.isConnected = true
	c.cancel = monitorCancel
	c.connMu.Unlock()

	c.startMonitor(monitorCtx, client, o.OnDisconnected)

	totalChars := 0
	for _, svc := range services {
		totalChars += len(svc.Characteristics)
	}
	c.logger.WithFields(logrus.Fields{
		"address":         address,
		"services":        len(services),
		"characteristics": totalChars,
		"mtu":             mtu,
	}).Info("BLE device connected successfully")
	return nil
}

// startMonitor watches the client's Disconnected() channel when the backend
// provides one (both the CoreBluetooth and HCI clients do).
func (c *BLEConnection) startMonitor(ctx context.Context, client Client, onDisconnected func(error)) {
	dc, ok := client.(interface{ Disconnected() <-chan struct{} })
	if !ok {
		c.logger.Debug("Client does not support Disconnected() channel")
		return
	}

	groutine.Go(ctx, "ble-connection-monitor", func(ctx context.Context) {
		select {
		case <-dc.Disconnected():
		case <-ctx.Done():
			return
		}

		c.connMu.Lock()
		unexpected := c.client == client && c.isConnected
		if unexpected {
			c.markDisconnectedLocked()
		}
		c.connMu.Unlock()

		if !unexpected {
			return
		}
		c.logger.Warn("Peripheral reported disconnection")
		if onDisconnected != nil {
			onDisconnected(device.ErrNotConnected)
		}
	})
}

// Disconnect cancels the link. Calling it while disconnected is a no-op.
func (c *BLEConnection) Disconnect() error {
	c.connMu.Lock()
	if c.client == nil || !c.isConnected {
		c.connMu.Unlock()
		c.logger.Debug("Disconnect called but already disconnected")
		return nil
	}
	client := c.client
	address := c.address
	c.markDisconnectedLocked()
	c.connMu.Unlock()

	c.logger.WithField("address", address).Info("Disconnecting BLE device...")

	if err := client.CancelConnection(); err != nil {
		c.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		return NormalizeError(err)
	}
	c.logger.Info("BLE device disconnected successfully")
	return nil
}

// markDisconnectedLocked requires connMu held for writing.
func (c *BLEConnection) markDisconnectedLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.client = nil
	c.cancel = nil
	c.isConnected = false
	c.services = nil
	c.mtu = DefaultMTU
}

func (c *BLEConnection) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.client != nil && c.isConnected
}

// Services returns the discovered services sorted by UUID.
func (c *BLEConnection) Services() []device.Service {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return append([]device.Service(nil), c.services...)
}

func (c *BLEConnection) MTU() int {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.mtu
}

// Address returns the peer address, or "" when disconnected.
func (c *BLEConnection) Address() string {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	if !c.isConnected {
		return ""
	}
	return c.address
}

func servicesFromProfile(profile *ble.Profile) []device.Service {
	if profile == nil {
		return nil
	}

	result := make([]device.Service, 0, len(profile.Services))
	for _, bleSvc := range profile.Services {
		svc := device.Service{
			UUID:            device.NormalizeUUID(bleSvc.UUID.String()),
			Characteristics: make([]device.Characteristic, 0, len(bleSvc.Characteristics)),
		}
		for _, bleChar := range bleSvc.Characteristics {
			svc.Characteristics = append(svc.Characteristics, device.Characteristic{
				UUID:       device.NormalizeUUID(bleChar.UUID.String()),
				Properties: PropertyNames(bleChar.Property),
			})
		}
		sort.Slice(svc.Characteristics, func(i, j int) bool {
			return svc.Characteristics[i].UUID < svc.Characteristics[j].UUID
		})
		result = append(result, svc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UUID < result[j].UUID
	})
	return result
}
