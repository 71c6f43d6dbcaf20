package reconcile

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srthuanan/stockhold/internal/domain"
)

// EventSource is a push stream of registry changes, typically a broker
// subscription such as events.RedisBroker.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error)
}

// Subscriber drives a Tracker from a push event stream instead of polling.
// The watchdog still sweeps on its own cadence, so a stalled stream cannot
// wedge pending actions.
type Subscriber struct {
	source        EventSource
	tracker       *Tracker
	sweepInterval time.Duration
	log           logrus.FieldLogger
}

func NewSubscriber(source EventSource, tracker *Tracker, sweepInterval time.Duration, log logrus.FieldLogger) *Subscriber {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Subscriber{
		source:        source,
		tracker:       tracker,
		sweepInterval: sweepInterval,
		log:           log,
	}
}

// Run consumes events until ctx is cancelled or the stream closes.
func (s *Subscriber) Run(ctx context.Context) error {
	events, err := s.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	t := time.NewTicker(s.sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.sweep()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.tracker.Observe(ev.Vehicle)
		}
	}
}

func (s *Subscriber) sweep() {
	for _, action := range s.tracker.Sweep() {
		s.log.WithFields(logrus.Fields{
			"vin":       action.VIN,
			"issued_at": action.IssuedAt,
		}).Warn("pending action timed out")
	}
}
