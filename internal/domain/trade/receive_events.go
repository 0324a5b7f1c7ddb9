package trade

import (
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeReceive = "Receive"

// Event type constants
const (
	EventTypeReceiveCreated   = "ReceiveCreated"
	EventTypeReceiveCompleted = "ReceiveCompleted"
	EventTypeReceiveCancelled = "ReceiveCancelled"
)

// ReceiveCreatedEvent is raised when a draft receive is opened
type ReceiveCreatedEvent struct {
	shared.BaseDomainEvent
	DisplayID         string    `json:"display_id"`
	PurchaseOrderID   uuid.UUID `json:"purchase_order_id"`
	ItemsPrepopulated int       `json:"items_prepopulated"`
	CreatedBy         uuid.UUID `json:"created_by"`
}

// NewReceiveCreatedEvent creates a new ReceiveCreatedEvent
func NewReceiveCreatedEvent(r *Receive, prepopulated int) *ReceiveCreatedEvent {
	return &ReceiveCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeReceiveCreated, AggregateTypeReceive, r.ID, r.TenantID),
		DisplayID:         r.DisplayID,
		PurchaseOrderID:   r.PurchaseOrderID,
		ItemsPrepopulated: prepopulated,
		CreatedBy:         r.CreatedBy,
	}
}

// OverReceivedLine describes a purchase order line that now exceeds its ordered quantity
type OverReceivedLine struct {
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id"`
	ItemName            string          `json:"item_name"`
	OrderedQuantity     decimal.Decimal `json:"ordered_quantity"`
	ReceivedQuantity    decimal.Decimal `json:"received_quantity"`
}

// ReceiveCompletedEvent is raised after a receive has been applied to stock
type ReceiveCompletedEvent struct {
	shared.BaseDomainEvent
	DisplayID            string             `json:"display_id"`
	PurchaseOrderID      uuid.UUID          `json:"purchase_order_id"`
	PurchaseOrderDisplay string             `json:"purchase_order_display_id"`
	CompletedBy          uuid.UUID          `json:"completed_by"`
	ItemsProcessed       int                `json:"items_processed"`
	LotsCreated          int                `json:"lots_created"`
	SerialsCreated       int                `json:"serials_created"`
	OrderFullyReceived   bool               `json:"order_fully_received"`
	OverReceived         []OverReceivedLine `json:"over_received,omitempty"`
}

// NewReceiveCompletedEvent creates a new ReceiveCompletedEvent
func NewReceiveCompletedEvent(r *Receive, order *PurchaseOrder, completedBy uuid.UUID) *ReceiveCompletedEvent {
	return &ReceiveCompletedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeReceiveCompleted, AggregateTypeReceive, r.ID, r.TenantID),
		DisplayID:            r.DisplayID,
		PurchaseOrderID:      order.ID,
		PurchaseOrderDisplay: order.DisplayID,
		CompletedBy:          completedBy,
	}
}

// ReceiveCancelledEvent is raised when a draft receive is cancelled
type ReceiveCancelledEvent struct {
	shared.BaseDomainEvent
	DisplayID       string    `json:"display_id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	CancelledBy     uuid.UUID `json:"cancelled_by"`
}

// NewReceiveCancelledEvent creates a new ReceiveCancelledEvent
func NewReceiveCancelledEvent(r *Receive, cancelledBy uuid.UUID) *ReceiveCancelledEvent {
	return &ReceiveCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiveCancelled, AggregateTypeReceive, r.ID, r.TenantID),
		DisplayID:       r.DisplayID,
		PurchaseOrderID: r.PurchaseOrderID,
		CancelledBy:     cancelledBy,
	}
}
