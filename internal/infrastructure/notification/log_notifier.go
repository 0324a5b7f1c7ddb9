// Package notification delivers receiving workflow notifications.
package notification

import (
	"context"

	apptrade "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It stands in for
// an email or in-app channel until one is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogNotifier{logger: l.Named("notification")}
}

func (n *LogNotifier) log(ctx context.Context) *zap.Logger {
	if id := logger.RequestID(ctx); id != "" {
		return n.logger.With(zap.String("request_id", id))
	}
	return n.logger
}

// NotifyPendingApproval tells tenant administrators an order awaits review
func (n *LogNotifier) NotifyPendingApproval(ctx context.Context, notice apptrade.PendingApprovalNotice) error {
	n.log(ctx).Info("purchase order awaiting approval",
		zap.String("tenant_id", notice.TenantID.String()),
		zap.String("purchase_order_id", notice.PurchaseOrderID.String()),
		zap.String("display_id", notice.DisplayID),
		zap.String("total_amount", notice.TotalAmount.StringFixed(2)),
		zap.String("requested_by", notice.RequestedBy.String()),
	)
	return nil
}

// NotifyApprovalResult tells the submitter whether the order was approved
func (n *LogNotifier) NotifyApprovalResult(ctx context.Context, notice apptrade.ApprovalResultNotice) error {
	fields := []zap.Field{
		zap.String("tenant_id", notice.TenantID.String()),
		zap.String("purchase_order_id", notice.PurchaseOrderID.String()),
		zap.String("display_id", notice.DisplayID),
		zap.Bool("approved", notice.Approved),
		zap.String("decided_by", notice.DecidedBy.String()),
	}
	if notice.SubmittedBy == nil {
		n.log(ctx).Debug("approval result has no submitter to notify", fields...)
		return nil
	}
	fields = append(fields, zap.String("recipient", notice.SubmittedBy.String()))
	n.log(ctx).Info("purchase order approval decided", fields...)
	return nil
}

// NotifyReceiveCompleted announces stock received against an order
func (n *LogNotifier) NotifyReceiveCompleted(ctx context.Context, notice apptrade.ReceiveCompletedNotice) error {
	n.log(ctx).Info("receive completed",
		zap.String("tenant_id", notice.TenantID.String()),
		zap.String("receive_id", notice.ReceiveID.String()),
		zap.String("display_id", notice.DisplayID),
		zap.String("purchase_order", notice.PurchaseOrderRef),
		zap.String("completed_by", notice.CompletedBy.String()),
		zap.Int("items_processed", notice.ItemsProcessed),
		zap.Bool("order_fully_received", notice.OrderFullyReceived),
		zap.Int("over_received_lines", notice.OverReceivedLines),
	)
	return nil
}

var _ apptrade.Notifier = (*LogNotifier)(nil)
