package radio

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/groutine"
)

// ProbeFunc reports the adapter state at one point in time.
type ProbeFunc func(ctx context.Context) device.AdapterState

// Poller turns a ProbeFunc into a change stream.
type Poller struct {
	probe    ProbeFunc
	interval time.Duration
	logger   *logrus.Logger
}

func NewPoller(probe ProbeFunc, interval time.Duration, logger *logrus.Logger) *Poller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Poller{probe: probe, interval: interval, logger: logger}
}

// Watch probes immediately, then every interval, and emits only changes.
func (p *Poller) Watch(ctx context.Context) <-chan device.AdapterState {
	out := make(chan device.AdapterState, 1)

	groutine.Go(ctx, "radio-poller", func(ctx context.Context) {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		last := device.AdapterState(-1)
		for {
			if state := p.probe(ctx); state != last {
				p.logger.WithFields(logrus.Fields{
					"from": last,
					"to":   state,
				}).Debug("Adapter state changed")
				last = state
				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	})

	return out
}
