package trade

import (
	"context"
	"fmt"
	"time"

	appinventory "github.com/erp/receiving/internal/application/inventory"
	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssuerFactory builds the inventory issuer for one completion transaction
type IssuerFactory func(repos TransactionalRepositories) inventory.ReceiptIssuer

// DefaultIssuerFactory issues lots, serials and stock through the transaction's repositories
func DefaultIssuerFactory(repos TransactionalRepositories) inventory.ReceiptIssuer {
	return appinventory.NewLotIssuer(repos.Lots(), repos.Serials(), repos.Stock())
}

// ReceiveCompletionEngine applies a draft receive to the purchase order and
// to inventory. Every effect of one completion commits together or not at all.
type ReceiveCompletionEngine struct {
	scope          TransactionScope
	catalog        trade.Catalog
	permissions    shared.PermissionChecker
	issuerFactory  IssuerFactory
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ReceivingMetrics
	logger         *zap.Logger
}

// NewReceiveCompletionEngine creates a new ReceiveCompletionEngine
func NewReceiveCompletionEngine(scope TransactionScope, catalog trade.Catalog, permissions shared.PermissionChecker) *ReceiveCompletionEngine {
	return &ReceiveCompletionEngine{
		scope:         scope,
		catalog:       catalog,
		permissions:   permissions,
		issuerFactory: DefaultIssuerFactory,
		logger:        zap.NewNop(),
	}
}

// SetIssuerFactory replaces how the inventory issuer is built
func (e *ReceiveCompletionEngine) SetIssuerFactory(factory IssuerFactory) {
	if factory != nil {
		e.issuerFactory = factory
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (e *ReceiveCompletionEngine) SetEventPublisher(publisher shared.EventPublisher) {
	e.eventPublisher = publisher
}

// SetMetrics sets the receiving metrics. Nil disables them.
func (e *ReceiveCompletionEngine) SetMetrics(metrics *telemetry.ReceivingMetrics) {
	e.metrics = metrics
}

// SetLogger sets the logger
func (e *ReceiveCompletionEngine) SetLogger(logger *zap.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// completionLine is one validated receive line ready to be applied
type completionLine struct {
	item        *trade.ReceiveItem
	orderItem   *trade.PurchaseOrderItem
	accepted    bool
	location    *uuid.UUID
	serialized  bool
	stockTarget bool
}

// Complete applies the receive: accepted quantities are added to the order
// lines and to on-hand stock, lots and serials are issued, the order status is
// derived from all of its lines and the receive becomes completed.
// A second call on the same receive fails with a state error.
func (e *ReceiveCompletionEngine) Complete(ctx context.Context, actor shared.Actor, receiveID uuid.UUID) (*CompleteReceiveResponse, error) {
	if err := e.permissions.RequireWritePermission(ctx, actor); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "receive", "complete",
		telemetry.WithAttribute(telemetry.SpanAttrReceiveID, receiveID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, actor.TenantID.String()),
	)
	defer span.End()
	started := time.Now()

	var (
		result CompleteReceiveResponse
		events []shared.DomainEvent
	)
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receive, err := repos.Receives().FindByIDForUpdate(ctx, actor.TenantID, receiveID)
		if err != nil {
			return err
		}
		if err := receive.EnsureDraft(); err != nil {
			return err
		}
		order, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, actor.TenantID, receive.PurchaseOrderID)
		if err != nil {
			return err
		}
		if err := order.EnsureReceivable(); err != nil {
			return err
		}

		lines, err := e.plan(ctx, actor, receive, order)
		if err != nil {
			return err
		}

		issuer := e.issuerFactory(repos)
		counts, err := e.apply(ctx, actor, repos, issuer, receive, order, lines)
		if err != nil {
			return err
		}

		// re-read the order so status is derived from the stored cumulative quantities
		order, err = repos.PurchaseOrders().FindByIDForTenant(ctx, actor.TenantID, receive.PurchaseOrderID)
		if err != nil {
			return err
		}
		overReceived := overReceivedLines(order, lines)
		for _, line := range overReceived {
			e.logger.Warn("purchase order line received beyond ordered quantity",
				zap.String("tenant_id", actor.TenantID.String()),
				zap.String("purchase_order_id", order.ID.String()),
				zap.String("purchase_order_item_id", line.PurchaseOrderItemID.String()),
				zap.String("ordered", line.OrderedQuantity.String()),
				zap.String("received", line.ReceivedQuantity.String()),
			)
		}

		before := order.Status
		if _, err := order.ApplyReceiptProgress(actor); err != nil {
			return err
		}
		if order.Status != before {
			if err := repos.PurchaseOrders().SaveWithLock(ctx, order); err != nil {
				return err
			}
		}

		if err := receive.MarkCompleted(actor); err != nil {
			return err
		}
		if err := repos.Receives().SaveStatus(ctx, receive); err != nil {
			return err
		}

		completed := trade.NewReceiveCompletedEvent(receive, order, actor.UserID)
		completed.ItemsProcessed = len(receive.Items)
		completed.LotsCreated = counts.lots
		completed.SerialsCreated = counts.serials
		completed.OrderFullyReceived = order.Status == trade.PurchaseOrderStatusReceived
		completed.OverReceived = overReceived

		events = append(events, order.GetDomainEvents()...)
		events = append(events, completed)
		order.ClearDomainEvents()

		result = CompleteReceiveResponse{
			ReceiveID:           receive.ID,
			DisplayID:           receive.DisplayID,
			ItemsProcessed:      completed.ItemsProcessed,
			LotsCreated:         counts.lots,
			SerialsCreated:      counts.serials,
			OrderFullyReceived:  completed.OrderFullyReceived,
			PurchaseOrderStatus: order.Status,
			OverReceived:        toOverReceivedResponses(overReceived),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		kind, ok := shared.KindOf(err)
		if !ok {
			kind = "INTERNAL"
		}
		e.metrics.RecordRejected(ctx, actor.TenantID, string(kind), time.Since(started))
		if ctx.Err() != nil {
			e.logger.Warn("receive completion aborted", zap.String("receive_id", receiveID.String()), zap.Error(ctx.Err()))
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemsProcessed, result.ItemsProcessed,
		telemetry.SpanAttrOrderStatus, string(result.PurchaseOrderStatus),
	)
	e.logger.Info("receive completed",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("receive_id", result.ReceiveID.String()),
		zap.String("display_id", result.DisplayID),
		zap.Int("items_processed", result.ItemsProcessed),
		zap.Int("lots_created", result.LotsCreated),
		zap.Int("serials_created", result.SerialsCreated),
		zap.String("po_status", string(result.PurchaseOrderStatus)),
	)
	e.metrics.RecordCompleted(ctx, telemetry.CompletionStats{
		TenantID:            actor.TenantID,
		LotsCreated:         result.LotsCreated,
		SerialsCreated:      result.SerialsCreated,
		OverReceivedLines:   len(result.OverReceived),
		ItemsProcessed:      result.ItemsProcessed,
		PurchaseOrderStatus: string(result.PurchaseOrderStatus),
	}, time.Since(started))
	publishCollected(ctx, e.eventPublisher, e.logger, events)

	return &result, nil
}

// plan validates every line before anything is written
func (e *ReceiveCompletionEngine) plan(ctx context.Context, actor shared.Actor, receive *trade.Receive, order *trade.PurchaseOrder) ([]completionLine, error) {
	lines := make([]completionLine, 0, len(receive.Items))
	for idx := range receive.Items {
		item := &receive.Items[idx]
		orderItem := order.FindItem(item.PurchaseOrderItemID)
		if orderItem == nil {
			return nil, shared.NewValidationError("ITEM_NOT_ON_ORDER",
				fmt.Sprintf("Receive line %s references purchase order item %s which is not on order %s",
					item.ID, item.PurchaseOrderItemID, order.DisplayID))
		}
		if !item.QuantityReceived.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY",
				fmt.Sprintf("Receive line for %s has a non-positive quantity", item.ItemName))
		}

		line := completionLine{item: item, orderItem: orderItem, accepted: item.Condition.Accepted()}
		if !line.accepted || item.ItemID == nil {
			lines = append(lines, line)
			continue
		}

		line.stockTarget = true
		line.location = receive.ResolveLocation(item)
		if line.location == nil {
			return nil, shared.NewValidationError("LOCATION_REQUIRED",
				fmt.Sprintf("Receive line for %s has no location and the receive has no default location", item.ItemName))
		}
		if item.ExpiryDate != nil && item.ManufacturedDate != nil && item.ExpiryDate.Before(*item.ManufacturedDate) {
			return nil, shared.NewValidationError("INVALID_EXPIRY",
				fmt.Sprintf("Receive line for %s expires before it was manufactured", item.ItemName))
		}

		if e.catalog != nil {
			tracked, err := e.catalog.IsSerialTracked(ctx, actor.TenantID, *item.ItemID)
			if err != nil {
				return nil, err
			}
			line.serialized = tracked
		}
		if line.serialized {
			qty := item.QuantityReceived
			if !qty.IsInteger() || int64(len(item.Serials)) != qty.IntPart() {
				return nil, shared.NewValidationError("SERIAL_COUNT_MISMATCH",
					fmt.Sprintf("%s is serial tracked: %s units received but %d serial numbers captured",
						item.ItemName, qty.String(), len(item.Serials)))
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

type issueCounts struct {
	lots    int
	serials int
}

// apply writes the effects of every accepted line inside the surrounding transaction
func (e *ReceiveCompletionEngine) apply(
	ctx context.Context,
	actor shared.Actor,
	repos TransactionalRepositories,
	issuer inventory.ReceiptIssuer,
	receive *trade.Receive,
	order *trade.PurchaseOrder,
	lines []completionLine,
) (issueCounts, error) {
	var counts issueCounts
	for _, line := range lines {
		if !line.accepted {
			continue
		}
		item := line.item
		if err := repos.PurchaseOrders().IncrementReceivedQuantity(ctx, order.ID, line.orderItem.ID, item.QuantityReceived); err != nil {
			return counts, err
		}
		if !line.stockTarget {
			e.logger.Info("receive line has no catalog item, stock left unchanged",
				zap.String("receive_id", receive.ID.String()),
				zap.String("receive_item_id", item.ID.String()),
			)
			continue
		}

		var lotID *uuid.UUID
		if item.HasLotData() {
			id, err := issuer.CreateLot(ctx, inventory.LotRequest{
				TenantID:            actor.TenantID,
				ItemID:              *item.ItemID,
				LocationID:          *line.location,
				Quantity:            item.QuantityReceived,
				LotNumber:           item.LotNumber,
				BatchCode:           item.BatchCode,
				ExpiryDate:          item.ExpiryDate,
				ManufacturedDate:    item.ManufacturedDate,
				SourceReceiveID:     receive.ID,
				SourceReceiveItemID: item.ID,
			})
			if err != nil {
				return counts, err
			}
			lotID = &id
			counts.lots++
		}

		if line.serialized {
			if err := issuer.CreateSerials(ctx, inventory.SerialRequest{
				TenantID:            actor.TenantID,
				ItemID:              *item.ItemID,
				LocationID:          *line.location,
				LotID:               lotID,
				Serials:             item.SerialNumbers(),
				SourceReceiveID:     receive.ID,
				SourceReceiveItemID: item.ID,
			}); err != nil {
				return counts, err
			}
			counts.serials += len(item.Serials)
		}

		if err := issuer.AdjustOnHand(ctx, actor.TenantID, *item.ItemID, *line.location, item.QuantityReceived); err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// overReceivedLines reports the order lines touched by this receive whose
// cumulative received quantity now exceeds the ordered quantity
func overReceivedLines(order *trade.PurchaseOrder, lines []completionLine) []trade.OverReceivedLine {
	seen := make(map[uuid.UUID]struct{})
	var out []trade.OverReceivedLine
	for _, line := range lines {
		if !line.accepted {
			continue
		}
		if _, ok := seen[line.orderItem.ID]; ok {
			continue
		}
		seen[line.orderItem.ID] = struct{}{}
		current := order.FindItem(line.orderItem.ID)
		if current == nil || !trade.IsOverReceived(current.OrderedQuantity, current.ReceivedQuantity) {
			continue
		}
		out = append(out, trade.OverReceivedLine{
			PurchaseOrderItemID: current.ID,
			ItemName:            current.ItemName,
			OrderedQuantity:     current.OrderedQuantity,
			ReceivedQuantity:    current.ReceivedQuantity,
		})
	}
	return out
}

func toOverReceivedResponses(lines []trade.OverReceivedLine) []OverReceivedLineResponse {
	if len(lines) == 0 {
		return nil
	}
	out := make([]OverReceivedLineResponse, len(lines))
	for i, l := range lines {
		out[i] = OverReceivedLineResponse(l)
	}
	return out
}
