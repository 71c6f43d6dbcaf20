package reconcile

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srthuanan/stockhold/internal/domain"
)

// SnapshotSource is the read path the poller reconciles against,
// typically the engine's ListVehicles.
type SnapshotSource interface {
	ListVehicles(ctx context.Context, status *domain.VehicleStatus) ([]domain.Vehicle, error)
}

// Poller drives a Tracker from periodic registry snapshots. Push consumers
// can feed Tracker.Observe directly from an event subscription instead;
// polling is the baseline that works without a broker.
type Poller struct {
	source   SnapshotSource
	tracker  *Tracker
	interval time.Duration
	log      logrus.FieldLogger
}

func NewPoller(source SnapshotSource, tracker *Tracker, interval time.Duration, log logrus.FieldLogger) *Poller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{
		source:   source,
		tracker:  tracker,
		interval: interval,
		log:      log,
	}
}

// Run polls until ctx is cancelled. A failed poll still sweeps the watchdog,
// so pending actions are bounded even when the server is unreachable.
func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	vehicles, err := p.source.ListVehicles(ctx, nil)
	if err != nil {
		p.log.WithError(err).Warn("snapshot poll failed")
	} else {
		p.tracker.ObserveAll(vehicles)
	}

	for _, action := range p.tracker.Sweep() {
		p.log.WithFields(logrus.Fields{
			"vin":       action.VIN,
			"issued_at": action.IssuedAt,
		}).Warn("pending action timed out")
	}
}
