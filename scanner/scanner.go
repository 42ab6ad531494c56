package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/srg/peltctl/internal/ringchan"
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

const (
	PhaseScanning   = "Scanning"
	PhaseProcessing = "Processing results"
)

// DeviceEventType marks if the device was newly discovered or updated
type DeviceEventType int

const (
	EventNew DeviceEventType = iota
	EventUpdated
)

func (t DeviceEventType) String() string {
	if t == EventNew {
		return "new"
	}
	return "updated"
}

type DeviceEvent struct {
	Type       DeviceEventType
	DeviceInfo device.DeviceInfo
}

// EventBufferSize is the number of unread events kept before the oldest is dropped.
const EventBufferSize = 100

// Scanner handles BLE device discovery
type Scanner struct {
	events *ringchan.RingChannel[DeviceEvent]
	logger *logrus.Logger

	// open returns the scanning device; goble.NewScanner by default.
	open func() (device.ScanningDevice, error)
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	// Duration bounds the scan; 0 scans until ctx ends.
	Duration        time.Duration
	DuplicateFilter bool
	ServiceUUIDs    []string
	AllowList       []string
	BlockList       []string
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:        10 * time.Second,
		DuplicateFilter: true,
	}
}

// NewScanner creates a new BLE scanner
func NewScanner(logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}

	return &Scanner{
		events: ringchan.NewRingChannel[DeviceEvent](EventBufferSize),
		logger: logger,
		open:   goble.NewScanner,
	}
}

// scanRun is the state of a single Scan call.
type scanRun struct {
	devices      *hashmap.Map[string, *device.Discovered]
	opts         *ScanOptions
	serviceUUIDs []string
}

// Scan performs BLE discovery with provided options. Stopping early through
// ctx is not an error; the devices seen so far are returned.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) ([]device.DeviceInfo, error) {
	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	run := &scanRun{
		devices:      hashmap.New[string, *device.Discovered](),
		opts:         opts,
		serviceUUIDs: device.NormalizeUUIDs(opts.ServiceUUIDs),
	}

	scanDevice, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	s.logger.WithField("duration", opts.Duration).Info("Starting BLE scan...")
	progressCallback(PhaseScanning)

	err = scanDevice.Scan(scanCtx, !opts.DuplicateFilter, func(adv device.Advertisement) {
		s.handleAdvertisement(run, adv)
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("device_count", run.devices.Len()).Info("BLE scan completed")
	progressCallback(PhaseProcessing)

	return run.snapshot(), nil
}

// handleAdvertisement updates existing or adds a new device
func (s *Scanner) handleAdvertisement(run *scanRun, adv device.Advertisement) {
	deviceID := device.NormalizeAddress(adv.Addr())
	if deviceID == "" {
		return
	}

	dev, existing := run.devices.Get(deviceID)
	if !existing {
		if !run.shouldInclude(deviceID, adv) {
			return
		}
		dev, existing = run.devices.GetOrInsert(deviceID, device.NewDeviceFromAdvertisement(adv))
	}

	event := DeviceEvent{DeviceInfo: dev}
	if existing {
		dev.Update(adv)
		event.Type = EventUpdated
	} else {
		s.logger.WithFields(logrus.Fields{
			"device":  dev.DisplayName(),
			"address": dev.Address(),
			"rssi":    dev.RSSI(),
		}).Info("Discovered new device")
		event.Type = EventNew
	}

	s.events.Send(event)
}

// shouldInclude applies block/allow/service filters
func (r *scanRun) shouldInclude(addr string, adv device.Advertisement) bool {
	for _, blocked := range r.opts.BlockList {
		if device.SameAddress(addr, blocked) {
			return false
		}
	}

	if len(r.opts.AllowList) > 0 {
		allowed := false
		for _, a := range r.opts.AllowList {
			if device.SameAddress(addr, a) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if len(r.serviceUUIDs) > 0 {
		advertised := device.NormalizeUUIDs(adv.Services())
		for _, required := range r.serviceUUIDs {
			for _, uuid := range advertised {
				if uuid == required {
					return true
				}
			}
		}
		return false
	}

	return true
}

// snapshot returns the discovered devices sorted by address.
func (r *scanRun) snapshot() []device.DeviceInfo {
	devs := make([]device.DeviceInfo, 0, r.devices.Len())
	r.devices.Range(func(_ string, value *device.Discovered) bool {
		devs = append(devs, value)
		return true
	})
	sort.Slice(devs, func(i, j int) bool {
		return devs[i].Address() < devs[j].Address()
	})
	return devs
}

// Events returns a read-only channel of device events. Unread events are
// dropped oldest first.
func (s *Scanner) Events() <-chan DeviceEvent {
	return s.events.C()
}

// Close ends the Events stream.
func (s *Scanner) Close() {
	s.events.Close()
}
