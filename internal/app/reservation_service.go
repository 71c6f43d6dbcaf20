package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/domain"
	"github.com/srthuanan/stockhold/internal/events"
)

// VehicleRepository is the registry contract the engine mutates through.
// GetVehicleForUpdate must take a per-VIN exclusive lock for the duration of
// the surrounding WithTx, so that concurrent transitions on the same VIN
// serialize in receipt order while different VINs proceed in parallel.
type VehicleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVehicleForUpdate(ctx context.Context, vin string) (domain.Vehicle, error)
	GetVehicle(ctx context.Context, vin string) (domain.Vehicle, error)
	ListVehicles(ctx context.Context, status *domain.VehicleStatus) ([]domain.Vehicle, error)
	ListDueVINs(ctx context.Context, now time.Time) ([]string, error)
	UpdateReservation(ctx context.Context, v domain.Vehicle) error
}

// ReservationService is the single mutation path for vehicle reservation
// state. All transitions run inside a repository transaction holding the
// vehicle's row lock.
type ReservationService struct {
	repo      VehicleRepository
	clock     clock.Clock
	publisher events.Publisher
	log       logrus.FieldLogger
	holdTTL   time.Duration
}

const defaultHoldTTL = 30 * time.Minute

func NewReservationService(repo VehicleRepository, clk clock.Clock, opts ...ReservationOption) *ReservationService {
	svc := &ReservationService{
		repo:      repo,
		clock:     clk,
		publisher: events.Nop{},
		log:       logrus.StandardLogger(),
		holdTTL:   defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationOption func(*ReservationService)

// WithHoldTTL overrides how long a hold lasts before it is eligible for expiry.
func WithHoldTTL(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithPublisher sets the sink for state-change events.
func WithPublisher(p events.Publisher) ReservationOption {
	return func(s *ReservationService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger overrides the default logrus logger.
func WithLogger(log logrus.FieldLogger) ReservationOption {
	return func(s *ReservationService) {
		if log != nil {
			s.log = log
		}
	}
}

// Hold places an exclusive, time-boxed claim on a vehicle for the actor.
// A repeat Hold by the current holder refreshes the deadline; duplicate
// clicks from the dashboard are expected and should not error. A vehicle
// whose previous hold has lapsed but not yet been swept counts as available.
func (s *ReservationService) Hold(ctx context.Context, vin string, actor domain.Actor) (domain.Vehicle, error) {
	if vin == "" {
		return domain.Vehicle{}, domain.ErrVINRequired
	}
	if actor.Name == "" {
		return domain.Vehicle{}, domain.ErrActorRequired
	}

	now := s.clock.Now()
	var result domain.Vehicle

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		v, err := s.repo.GetVehicleForUpdate(txCtx, vin)
		if err != nil {
			return err
		}

		switch v.Status {
		case domain.StatusMatched:
			return domain.ErrVehicleMatched
		case domain.StatusHeld:
			if !v.HeldBy(actor.Name) && !v.HoldLapsed(now) {
				return domain.ErrVehicleHeld
			}
		}

		expires := now.Add(s.holdTTL)
		v.Status = domain.StatusHeld
		v.Holder = &actor.Name
		v.HoldExpiresAt = &expires
		v.UpdatedAt = now

		if err := s.repo.UpdateReservation(txCtx, v); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	s.publish(ctx, domain.ChangeHeld, actor, result)
	return result, nil
}

// Release vacates a held vehicle. Only the current holder may release,
// unless the actor carries the admin capability (force release).
func (s *ReservationService) Release(ctx context.Context, vin string, actor domain.Actor) (domain.Vehicle, error) {
	if vin == "" {
		return domain.Vehicle{}, domain.ErrVINRequired
	}
	if actor.Name == "" {
		return domain.Vehicle{}, domain.ErrActorRequired
	}

	now := s.clock.Now()
	var result domain.Vehicle

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		v, err := s.repo.GetVehicleForUpdate(txCtx, vin)
		if err != nil {
			return err
		}

		if v.Status != domain.StatusHeld {
			return domain.ErrVehicleNotHeld
		}
		if !v.HeldBy(actor.Name) && !actor.Admin {
			return domain.ErrNotHolder
		}

		v.Status = domain.StatusAvailable
		v.Holder = nil
		v.HoldExpiresAt = nil
		v.UpdatedAt = now

		if err := s.repo.UpdateReservation(txCtx, v); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	s.publish(ctx, domain.ChangeReleased, actor, result)
	return result, nil
}

// Expire returns a lapsed hold to the floor. The deadline is rechecked under
// the row lock, so a racing Release or refresh always wins or loses cleanly
// and a hold is never expired early.
func (s *ReservationService) Expire(ctx context.Context, vin string) (domain.Vehicle, error) {
	if vin == "" {
		return domain.Vehicle{}, domain.ErrVINRequired
	}

	now := s.clock.Now()
	var result domain.Vehicle

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		v, err := s.repo.GetVehicleForUpdate(txCtx, vin)
		if err != nil {
			return err
		}

		if v.Status != domain.StatusHeld {
			return domain.ErrVehicleNotHeld
		}
		if !v.HoldLapsed(now) {
			return domain.ErrHoldNotExpired
		}

		v.Status = domain.StatusAvailable
		v.Holder = nil
		v.HoldExpiresAt = nil
		v.UpdatedAt = now

		if err := s.repo.UpdateReservation(txCtx, v); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	s.publish(ctx, domain.ChangeExpired, domain.SystemActor, result)
	return result, nil
}

// ExpireDue sweeps every held vehicle whose deadline has passed. Returns the
// VINs actually expired; VINs that lose the race to a concurrent Release or
// refresh are skipped silently.
func (s *ReservationService) ExpireDue(ctx context.Context) ([]string, error) {
	vins, err := s.repo.ListDueVINs(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}

	expired := make([]string, 0, len(vins))
	for _, vin := range vins {
		if _, err := s.Expire(ctx, vin); err != nil {
			switch err {
			case domain.ErrVehicleNotHeld, domain.ErrHoldNotExpired, domain.ErrVehicleNotFound:
				continue
			default:
				return expired, err
			}
		}
		expired = append(expired, vin)
	}
	return expired, nil
}

// Match permanently attaches a vehicle to a customer order. Terminal:
// a matched vehicle accepts no further reservation transitions.
func (s *ReservationService) Match(ctx context.Context, vin, orderID string, actor domain.Actor) (domain.Vehicle, error) {
	if vin == "" {
		return domain.Vehicle{}, domain.ErrVINRequired
	}
	if orderID == "" {
		return domain.Vehicle{}, domain.ErrOrderIDRequired
	}
	if actor.Name == "" {
		return domain.Vehicle{}, domain.ErrActorRequired
	}

	now := s.clock.Now()
	var result domain.Vehicle

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		v, err := s.repo.GetVehicleForUpdate(txCtx, vin)
		if err != nil {
			return err
		}

		if v.Status == domain.StatusMatched {
			return domain.ErrVehicleMatched
		}

		v.Status = domain.StatusMatched
		v.Holder = nil
		v.HoldExpiresAt = nil
		v.MatchedOrderID = &orderID
		v.UpdatedAt = now

		if err := s.repo.UpdateReservation(txCtx, v); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	s.publish(ctx, domain.ChangeMatched, actor, result)
	return result, nil
}

// GetVehicle returns a single registry snapshot.
func (s *ReservationService) GetVehicle(ctx context.Context, vin string) (domain.Vehicle, error) {
	if vin == "" {
		return domain.Vehicle{}, domain.ErrVINRequired
	}
	return s.repo.GetVehicle(ctx, vin)
}

// ListVehicles returns registry snapshots, optionally filtered by status.
func (s *ReservationService) ListVehicles(ctx context.Context, status *domain.VehicleStatus) ([]domain.Vehicle, error) {
	if status != nil && !domain.ValidStatus(*status) {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.ListVehicles(ctx, status)
}

func (s *ReservationService) publish(ctx context.Context, typ domain.ChangeType, actor domain.Actor, v domain.Vehicle) {
	ev := domain.ChangeEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		VIN:        v.VIN,
		Actor:      actor.Name,
		Vehicle:    v,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"vin":  v.VIN,
			"type": string(typ),
		}).Warn("publish change event failed")
	}
}
