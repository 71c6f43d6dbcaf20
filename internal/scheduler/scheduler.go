package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Expirer sweeps lapsed holds. Implemented by app.ReservationService.
type Expirer interface {
	ExpireDue(ctx context.Context) ([]string, error)
}

// Scheduler returns lapsed holds to the floor on a fixed tick. The engine
// rechecks every deadline under the vehicle's row lock, so running the
// sweeper concurrently with user Hold/Release traffic is safe.
type Scheduler struct {
	expirer  Expirer
	interval time.Duration
	log      logrus.FieldLogger
}

func New(expirer Expirer, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		expirer:  expirer,
		interval: interval,
		log:      log,
	}
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	expired, err := s.expirer.ExpireDue(ctx)
	if err != nil {
		s.log.WithError(err).Error("expiry sweep failed")
		return
	}
	if len(expired) > 0 {
		s.log.WithFields(logrus.Fields{
			"count": len(expired),
			"vins":  expired,
		}).Info("expired lapsed holds")
	}
}
