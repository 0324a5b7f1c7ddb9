package trade

import (
	"context"
	"fmt"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PendingApprovalNotice asks administrators to review a purchase order
type PendingApprovalNotice struct {
	TenantID        uuid.UUID
	PurchaseOrderID uuid.UUID
	DisplayID       string
	TotalAmount     decimal.Decimal
	RequestedBy     uuid.UUID
}

// ApprovalResultNotice tells the submitter how review ended
type ApprovalResultNotice struct {
	TenantID        uuid.UUID
	PurchaseOrderID uuid.UUID
	DisplayID       string
	Approved        bool
	DecidedBy       uuid.UUID
	SubmittedBy     *uuid.UUID
}

// ReceiveCompletedNotice announces goods put into stock
type ReceiveCompletedNotice struct {
	TenantID           uuid.UUID
	ReceiveID          uuid.UUID
	DisplayID          string
	PurchaseOrderID    uuid.UUID
	PurchaseOrderRef   string
	CompletedBy        uuid.UUID
	ItemsProcessed     int
	OrderFullyReceived bool
	OverReceivedLines  int
}

// Notifier delivers workflow notifications
type Notifier interface {
	NotifyPendingApproval(ctx context.Context, notice PendingApprovalNotice) error
	NotifyApprovalResult(ctx context.Context, notice ApprovalResultNotice) error
	NotifyReceiveCompleted(ctx context.Context, notice ReceiveCompletedNotice) error
}

// NotificationHandler turns approval and receiving events into notifications
type NotificationHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier Notifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		trade.EventTypePurchaseOrderStatusChanged,
		trade.EventTypeReceiveCompleted,
	}
}

// Handle sends the notification matching the event, if any
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.PurchaseOrderStatusChangedEvent:
		return h.handleStatusChanged(ctx, e)
	case *trade.ReceiveCompletedEvent:
		return h.notifier.NotifyReceiveCompleted(ctx, ReceiveCompletedNotice{
			TenantID:           e.TenantID(),
			ReceiveID:          e.AggregateID(),
			DisplayID:          e.DisplayID,
			PurchaseOrderID:    e.PurchaseOrderID,
			PurchaseOrderRef:   e.PurchaseOrderDisplay,
			CompletedBy:        e.CompletedBy,
			ItemsProcessed:     e.ItemsProcessed,
			OrderFullyReceived: e.OrderFullyReceived,
			OverReceivedLines:  len(e.OverReceived),
		})
	}
	h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
	return fmt.Errorf("unexpected event type: %s", event.EventType())
}

func (h *NotificationHandler) handleStatusChanged(ctx context.Context, e *trade.PurchaseOrderStatusChangedEvent) error {
	switch {
	case e.ToStatus == trade.PurchaseOrderStatusPendingApproval:
		return h.notifier.NotifyPendingApproval(ctx, PendingApprovalNotice{
			TenantID:        e.TenantID(),
			PurchaseOrderID: e.AggregateID(),
			DisplayID:       e.DisplayID,
			TotalAmount:     e.TotalAmount,
			RequestedBy:     e.ChangedBy,
		})
	case e.IsApproval(), e.IsRejection():
		return h.notifier.NotifyApprovalResult(ctx, ApprovalResultNotice{
			TenantID:        e.TenantID(),
			PurchaseOrderID: e.AggregateID(),
			DisplayID:       e.DisplayID,
			Approved:        e.IsApproval(),
			DecidedBy:       e.ChangedBy,
			SubmittedBy:     e.SubmittedBy,
		})
	}
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
