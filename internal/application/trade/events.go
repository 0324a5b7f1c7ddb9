package trade

import (
	"context"

	"github.com/erp/receiving/internal/domain/shared"
	"go.uber.org/zap"
)

// eventSource is an aggregate that buffers domain events until it is persisted
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands the buffered events of every source to publisher and
// clears them. It runs after the write has committed, so a failing publisher
// is logged and never reported to the caller.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, sources ...eventSource) {
	var events []shared.DomainEvent
	for _, src := range sources {
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	publishCollected(ctx, publisher, logger, events)
}

func publishCollected(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}
