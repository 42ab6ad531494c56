package radio

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/device/goble"
)

// ProbeRadio infers the adapter state from whether a BLE central can be
// opened. It cannot change power and relies on the OS to prompt for access.
type ProbeRadio struct {
	open   func() (goble.Central, error)
	held   func() bool
	poller *Poller
	logger *logrus.Logger
}

var _ Radio = (*ProbeRadio)(nil)

// NewProbeRadio creates a ProbeRadio that opens centrals through goble.CentralFactory.
func NewProbeRadio(opts Options) *ProbeRadio {
	opts.normalize()
	r := &ProbeRadio{
		open:   func() (goble.Central, error) { return goble.CentralFactory() },
		held:   goble.AdapterHeld,
		logger: opts.Logger,
	}
	r.poller = NewPoller(r.probe, opts.PollInterval, opts.Logger)
	return r
}

func (r *ProbeRadio) probe(context.Context) device.AdapterState {
	// a second HCI user channel on a held adapter fails with EBUSY
	if r.held() {
		return device.StatePoweredOn
	}
	c, err := r.open()
	if err != nil {
		r.logger.WithField("error", err).Debug("Adapter probe failed")
		return device.StateFromError(err)
	}
	if err := c.Stop(); err != nil {
		r.logger.WithField("error", err).Debug("Failed to stop probe central")
	}
	return device.StatePoweredOn
}

func (r *ProbeRadio) State(ctx context.Context) (device.AdapterState, error) {
	return r.probe(ctx), nil
}

func (r *ProbeRadio) Watch(ctx context.Context) (<-chan device.AdapterState, error) {
	return r.poller.Watch(ctx), nil
}

func (r *ProbeRadio) SetPowered(context.Context, bool) error {
	return ErrToggleUnsupported
}

func (r *ProbeRadio) CanToggle() bool { return false }

func (r *ProbeRadio) Authorize(context.Context) error { return nil }

func (r *ProbeRadio) Close() error { return nil }
