package controller

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/srg/peltctl/internal/notify"
)

const (
	// DefaultTarget is the hardware address of the LKZ_PELT peripheral.
	DefaultTarget     = "94:51:DC:58:55:6A"
	DefaultTargetName = "LKZ_PELT"

	DefaultScanTimeout          = 10 * time.Second
	DefaultConnectionCheckDelay = 13 * time.Second
	DefaultConnectTimeout       = 10 * time.Second
	DefaultSettleDelay          = 1500 * time.Millisecond
	DefaultPowerOffCheckDelay   = time.Second
	DefaultMTU                  = 512
)

// Options configures a Controller. Zero values take the defaults above.
type Options struct {
	Target     string
	TargetName string

	ScanTimeout time.Duration
	// ConnectionCheckDelay is how long after a scan starts the connected
	// flag is refreshed.
	ConnectionCheckDelay time.Duration
	ConnectTimeout       time.Duration
	// SettleDelay is the pause after a successful connect before the
	// loader is hidden and the device list closed.
	SettleDelay        time.Duration
	PowerOffCheckDelay time.Duration
	MTU                int

	Logger   *logrus.Logger
	Notifier notify.Notifier

	// ResetCentral drops the shared BLE central when the adapter leaves
	// PoweredOn. Defaults to goble.ResetCentral.
	ResetCentral func() error

	// AdapterHeld reports whether the shared central owns the adapter, in
	// which case non-PoweredOn states are side effects of opening it.
	// Defaults to goble.AdapterHeld.
	AdapterHeld func() bool
}

func (o *Options) normalize() {
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	o.Target = device.NormalizeAddress(o.Target)
	if o.TargetName == "" {
		o.TargetName = DefaultTargetName
	}
	if o.ScanTimeout <= 0 {
		o.ScanTimeout = DefaultScanTimeout
	}
	if o.ConnectionCheckDelay <= 0 {
		o.ConnectionCheckDelay = DefaultConnectionCheckDelay
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.PowerOffCheckDelay <= 0 {
		o.PowerOffCheckDelay = DefaultPowerOffCheckDelay
	}
	if o.MTU <= 0 {
		o.MTU = DefaultMTU
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	if o.Notifier == nil {
		o.Notifier = notify.Discard
	}
	if o.ResetCentral == nil {
		o.ResetCentral = goble.ResetCentral
	}
	if o.AdapterHeld == nil {
		o.AdapterHeld = goble.AdapterHeld
	}
}
