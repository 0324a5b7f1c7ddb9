package trade

import (
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
	EventTypePurchaseOrderDeleted       = "PurchaseOrderDeleted"
)

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	DisplayID string     `json:"display_id"`
	VendorID  *uuid.UUID `json:"vendor_id,omitempty"`
	CreatedBy uuid.UUID  `json:"created_by"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		DisplayID:       order.DisplayID,
		VendorID:        order.VendorID,
		CreatedBy:       order.CreatedBy,
	}
}

// PurchaseOrderStatusChangedEvent is raised on every effective status change,
// whether requested by a user or derived from a completed receive.
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	DisplayID   string              `json:"display_id"`
	FromStatus  PurchaseOrderStatus `json:"from_status"`
	ToStatus    PurchaseOrderStatus `json:"to_status"`
	ChangedBy   uuid.UUID           `json:"changed_by"`
	SubmittedBy *uuid.UUID          `json:"submitted_by,omitempty"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(order *PurchaseOrder, from, to PurchaseOrderStatus, changedBy uuid.UUID) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		DisplayID:       order.DisplayID,
		FromStatus:      from,
		ToStatus:        to,
		ChangedBy:       changedBy,
		SubmittedBy:     order.SubmittedBy,
		TotalAmount:     order.TotalAmount,
	}
}

// IsRejection reports a send-back from review to draft
func (e *PurchaseOrderStatusChangedEvent) IsRejection() bool {
	return e.ToStatus == PurchaseOrderStatusDraft &&
		(e.FromStatus == PurchaseOrderStatusSubmitted || e.FromStatus == PurchaseOrderStatusPendingApproval)
}

// IsApproval reports a confirmation out of review
func (e *PurchaseOrderStatusChangedEvent) IsApproval() bool {
	return e.ToStatus == PurchaseOrderStatusConfirmed &&
		(e.FromStatus == PurchaseOrderStatusSubmitted || e.FromStatus == PurchaseOrderStatusPendingApproval)
}

// PurchaseOrderDeletedEvent is raised when a draft order is deleted
type PurchaseOrderDeletedEvent struct {
	shared.BaseDomainEvent
	DisplayID string    `json:"display_id"`
	DeletedBy uuid.UUID `json:"deleted_by"`
}

// NewPurchaseOrderDeletedEvent creates a new PurchaseOrderDeletedEvent
func NewPurchaseOrderDeletedEvent(order *PurchaseOrder, deletedBy uuid.UUID) *PurchaseOrderDeletedEvent {
	return &PurchaseOrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDeleted, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		DisplayID:       order.DisplayID,
		DeletedBy:       deletedBy,
	}
}
