// Package radio reports and controls the local Bluetooth adapter: its power
// state, whether it can be toggled programmatically and whether this process
// is allowed to use it.
package radio

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
)

// ErrToggleUnsupported is returned by SetPowered on platforms where the OS
// reserves radio power control for the user.
var ErrToggleUnsupported = errors.New("programmatic radio toggling is not supported on this platform")

// Radio is the local adapter.
type Radio interface {
	// State returns the current adapter state.
	State(ctx context.Context) (device.AdapterState, error)

	// Watch emits the current state first and then every change until ctx
	// ends. The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan device.AdapterState, error)

	SetPowered(ctx context.Context, on bool) error
	CanToggle() bool

	// Authorize checks that the process may use the adapter. It returns an
	// error wrapping device.ErrUnauthorized when it may not.
	Authorize(ctx context.Context) error

	Close() error
}

// Options configures New.
type Options struct {
	Adapter      string        // defaults to hci0
	PollInterval time.Duration // defaults to 1s, used where state must be polled
	Logger       *logrus.Logger
}

func (o *Options) normalize() {
	if o.Adapter == "" {
		o.Adapter = "hci0"
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
}

// New opens the platform radio.
func New(opts Options) (Radio, error) {
	opts.normalize()
	return newPlatformRadio(opts)
}
