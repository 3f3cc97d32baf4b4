package services

import (
	"context"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// OrderEventPublisher emits order lifecycle events to the interaction layer
// after the corresponding database transaction has committed. Publishing is
// best effort; failures are logged, never propagated into the order flow.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}
