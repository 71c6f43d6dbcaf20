package events

import (
	"context"

	"github.com/srthuanan/stockhold/internal/domain"
)

// Publisher fans out reservation state changes to subscribers. Implementations
// must be safe for concurrent use; publishing happens outside the engine's
// row-lock critical section, so a slow sink never blocks a transition.
type Publisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// Nop drops every event. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, domain.ChangeEvent) error { return nil }
