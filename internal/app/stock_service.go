package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/domain"
	"github.com/srthuanan/stockhold/internal/events"
)

// StockRepository is the write path for inventory ingestion.
type StockRepository interface {
	UpsertStock(ctx context.Context, v domain.Vehicle) (domain.Vehicle, bool, error)
}

// StockService ingests vehicles from the inventory feed. It only ever writes
// descriptive attributes; reservation fields of an existing row are owned by
// the ReservationService and left untouched on update.
type StockService struct {
	repo      StockRepository
	clock     clock.Clock
	publisher events.Publisher
	log       logrus.FieldLogger
}

func NewStockService(repo StockRepository, clk clock.Clock, opts ...StockOption) *StockService {
	svc := &StockService{
		repo:      repo,
		clock:     clk,
		publisher: events.Nop{},
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type StockOption func(*StockService)

func WithStockPublisher(p events.Publisher) StockOption {
	return func(s *StockService) {
		if p != nil {
			s.publisher = p
		}
	}
}

type UpsertStockInput struct {
	VIN           string
	Model         string
	Version       string
	ExteriorColor string
	InteriorColor string
}

// UpsertStock creates the vehicle as available, or refreshes the descriptive
// attributes of an existing VIN. A VIN is never reused for a different
// physical vehicle, so an existing row keeps its reservation state.
func (s *StockService) UpsertStock(ctx context.Context, in UpsertStockInput) (domain.Vehicle, error) {
	if in.VIN == "" {
		return domain.Vehicle{}, domain.ErrVINRequired
	}

	now := s.clock.Now()
	v, created, err := s.repo.UpsertStock(ctx, domain.Vehicle{
		VIN:           in.VIN,
		Model:         in.Model,
		Version:       in.Version,
		ExteriorColor: in.ExteriorColor,
		InteriorColor: in.InteriorColor,
		Status:        domain.StatusAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return domain.Vehicle{}, err
	}

	if created {
		ev := domain.ChangeEvent{
			ID:         uuid.NewString(),
			Type:       domain.ChangeStocked,
			VIN:        v.VIN,
			Actor:      domain.SystemActor.Name,
			Vehicle:    v,
			OccurredAt: now,
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.log.WithError(err).WithField("vin", v.VIN).Warn("publish stock event failed")
		}
	}
	return v, nil
}
