package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Activity actions
const (
	ActivityCreated       = "created"
	ActivityStatusChanged = "status_changed"
	ActivityDeleted       = "deleted"
	ActivityCompleted     = "completed"
	ActivityCancelled     = "cancelled"
	ActivityOverReceived  = "over_received"
)

// Activity entity types
const (
	ActivityEntityPurchaseOrder = "purchase_order"
	ActivityEntityReceive       = "receive"
)

// ActivityEntry is one audit record
type ActivityEntry struct {
	TenantID        uuid.UUID
	UserID          uuid.UUID
	EntityType      string
	EntityID        uuid.UUID
	EntityDisplayID string
	Action          string
	FromStatus      string
	ToStatus        string
	Details         map[string]any
	OccurredAt      time.Time
}

// ActivityRecorder stores audit records
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityLogHandler writes an audit record for every purchase order and receive event
type ActivityLogHandler struct {
	recorder ActivityRecorder
	logger   *zap.Logger
}

// NewActivityLogHandler creates a new ActivityLogHandler
func NewActivityLogHandler(recorder ActivityRecorder, logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{recorder: recorder, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ActivityLogHandler) EventTypes() []string {
	return []string{
		trade.EventTypePurchaseOrderCreated,
		trade.EventTypePurchaseOrderStatusChanged,
		trade.EventTypePurchaseOrderDeleted,
		trade.EventTypeReceiveCreated,
		trade.EventTypeReceiveCompleted,
		trade.EventTypeReceiveCancelled,
	}
}

// Handle records the event. Every entry is attempted; the first failure is returned.
func (h *ActivityLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entries, err := activityEntriesFor(event)
	if err != nil {
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if err := h.recorder.Record(ctx, entry); err != nil {
			h.logger.Warn("failed to record activity",
				zap.String("event_type", event.EventType()),
				zap.String("entity_id", entry.EntityID.String()),
				zap.String("action", entry.Action),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func activityEntriesFor(event shared.DomainEvent) ([]ActivityEntry, error) {
	base := func(entityType, displayID, action string, userID uuid.UUID) ActivityEntry {
		return ActivityEntry{
			TenantID:        event.TenantID(),
			UserID:          userID,
			EntityType:      entityType,
			EntityID:        event.AggregateID(),
			EntityDisplayID: displayID,
			Action:          action,
			OccurredAt:      event.OccurredAt(),
		}
	}

	switch e := event.(type) {
	case *trade.PurchaseOrderCreatedEvent:
		return []ActivityEntry{base(ActivityEntityPurchaseOrder, e.DisplayID, ActivityCreated, e.CreatedBy)}, nil

	case *trade.PurchaseOrderStatusChangedEvent:
		entry := base(ActivityEntityPurchaseOrder, e.DisplayID, ActivityStatusChanged, e.ChangedBy)
		entry.FromStatus = string(e.FromStatus)
		entry.ToStatus = string(e.ToStatus)
		return []ActivityEntry{entry}, nil

	case *trade.PurchaseOrderDeletedEvent:
		return []ActivityEntry{base(ActivityEntityPurchaseOrder, e.DisplayID, ActivityDeleted, e.DeletedBy)}, nil

	case *trade.ReceiveCreatedEvent:
		entry := base(ActivityEntityReceive, e.DisplayID, ActivityCreated, e.CreatedBy)
		entry.Details = map[string]any{
			"purchase_order_id":  e.PurchaseOrderID.String(),
			"items_prepopulated": e.ItemsPrepopulated,
		}
		return []ActivityEntry{entry}, nil

	case *trade.ReceiveCompletedEvent:
		entry := base(ActivityEntityReceive, e.DisplayID, ActivityCompleted, e.CompletedBy)
		entry.ToStatus = string(trade.ReceiveStatusCompleted)
		entry.Details = map[string]any{
			"purchase_order_id":    e.PurchaseOrderID.String(),
			"items_processed":      e.ItemsProcessed,
			"lots_created":         e.LotsCreated,
			"serials_created":      e.SerialsCreated,
			"order_fully_received": e.OrderFullyReceived,
		}
		entries := []ActivityEntry{entry}
		for _, line := range e.OverReceived {
			over := base(ActivityEntityPurchaseOrder, e.PurchaseOrderDisplay, ActivityOverReceived, e.CompletedBy)
			over.EntityID = e.PurchaseOrderID
			over.Details = map[string]any{
				"receive_id":             e.AggregateID().String(),
				"purchase_order_item_id": line.PurchaseOrderItemID.String(),
				"item_name":              line.ItemName,
				"ordered_quantity":       line.OrderedQuantity.String(),
				"received_quantity":      line.ReceivedQuantity.String(),
			}
			entries = append(entries, over)
		}
		return entries, nil

	case *trade.ReceiveCancelledEvent:
		entry := base(ActivityEntityReceive, e.DisplayID, ActivityCancelled, e.CancelledBy)
		entry.ToStatus = string(trade.ReceiveStatusCancelled)
		return []ActivityEntry{entry}, nil
	}
	return nil, fmt.Errorf("unexpected event type: %s", event.EventType())
}

var _ shared.EventHandler = (*ActivityLogHandler)(nil)
