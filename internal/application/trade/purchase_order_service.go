package trade

import (
	"context"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	orderRepo      trade.PurchaseOrderRepository
	receiveRepo    trade.ReceiveRepository
	displayIDs     trade.DisplayIDGenerator
	permissions    shared.PermissionChecker
	vendors        trade.VendorDirectory
	catalog        trade.Catalog
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orderRepo trade.PurchaseOrderRepository,
	receiveRepo trade.ReceiveRepository,
	displayIDs trade.DisplayIDGenerator,
	permissions shared.PermissionChecker,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:   orderRepo,
		receiveRepo: receiveRepo,
		displayIDs:  displayIDs,
		permissions: permissions,
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetVendorDirectory enables vendor existence checks
func (s *PurchaseOrderService) SetVendorDirectory(vendors trade.VendorDirectory) {
	s.vendors = vendors
}

// SetCatalog enables catalog item existence checks
func (s *PurchaseOrderService) SetCatalog(catalog trade.Catalog) {
	s.catalog = catalog
}

// SetLogger sets the logger
func (s *PurchaseOrderService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a new draft purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, actor shared.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := s.permissions.RequireWritePermission(ctx, actor); err != nil {
		return nil, err
	}
	header := req.toDomain()
	if err := s.checkVendor(ctx, actor, header.VendorID); err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := s.checkCatalogItem(ctx, actor, item.ItemID); err != nil {
			return nil, err
		}
	}

	displayID, err := s.displayIDs.NextDisplayID(ctx, actor.TenantID, trade.EntityTypePurchaseOrder)
	if err != nil {
		return nil, err
	}

	order, err := trade.NewPurchaseOrder(actor, displayID, header)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, err := order.AddItem(item.toDomain()); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("display_id", order.DisplayID),
		zap.Int("item_count", len(order.Items)),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order with its items and receives
func (s *PurchaseOrderService) GetByID(ctx context.Context, actor shared.Actor, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}
	receives, _, err := s.receiveRepo.FindAllForTenant(ctx, actor.TenantID, trade.ReceiveFilter{
		PurchaseOrderID: &order.ID,
		Page:            shared.Page{Limit: shared.MaxPageLimit},
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	response.Receives = make([]ReceiveSummaryResponse, len(receives))
	for i := range receives {
		response.Receives[i] = ToReceiveSummaryResponse(&receives[i])
	}
	return &response, nil
}

// List retrieves purchase orders filtered by status and vendor
func (s *PurchaseOrderService) List(ctx context.Context, actor shared.Actor, req ListPurchaseOrdersRequest) ([]PurchaseOrderResponse, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	for _, status := range req.Status {
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", "Unknown purchase order status "+string(status))
		}
	}
	return s.list(ctx, actor, trade.PurchaseOrderFilter{
		Statuses: req.Status,
		VendorID: req.VendorID,
		Page:     pageOf(req.Limit, req.Offset),
	})
}

// ListPendingReceipt retrieves purchase orders that still expect deliveries
func (s *PurchaseOrderService) ListPendingReceipt(ctx context.Context, actor shared.Actor, req ListPurchaseOrdersRequest) ([]PurchaseOrderResponse, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, actor, trade.PurchaseOrderFilter{
		Statuses: trade.PendingReceiptStatuses(),
		VendorID: req.VendorID,
		Page:     pageOf(req.Limit, req.Offset),
	})
}

func (s *PurchaseOrderService) list(ctx context.Context, actor shared.Actor, filter trade.PurchaseOrderFilter) ([]PurchaseOrderResponse, int64, error) {
	orders, total, err := s.orderRepo.FindAllForTenant(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return responses, total, nil
}

// Update replaces the header of a draft purchase order
func (s *PurchaseOrderService) Update(ctx context.Context, actor shared.Actor, orderID uuid.UUID, req UpdatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, actor, orderID, func(order *trade.PurchaseOrder) error {
		header := req.toDomain()
		if err := s.checkVendor(ctx, actor, header.VendorID); err != nil {
			return err
		}
		return order.UpdateHeader(header)
	})
}

// AddItem adds a line to a draft purchase order
func (s *PurchaseOrderService) AddItem(ctx context.Context, actor shared.Actor, orderID uuid.UUID, req PurchaseOrderItemRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, actor, orderID, func(order *trade.PurchaseOrder) error {
		if err := s.checkCatalogItem(ctx, actor, req.ItemID); err != nil {
			return err
		}
		_, err := order.AddItem(req.toDomain())
		return err
	})
}

// UpdateItem replaces a line of a draft purchase order
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, actor shared.Actor, orderID, itemID uuid.UUID, req PurchaseOrderItemRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, actor, orderID, func(order *trade.PurchaseOrder) error {
		if err := s.checkCatalogItem(ctx, actor, req.ItemID); err != nil {
			return err
		}
		_, err := order.UpdateItem(itemID, req.toDomain())
		return err
	})
}

// RemoveItem removes a line from a draft purchase order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, actor shared.Actor, orderID, itemID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, actor, orderID, func(order *trade.PurchaseOrder) error {
		return order.RemoveItem(itemID)
	})
}

// UpdateStatus performs a requested status transition. Confirming a
// submitted or pending order counts as approval and needs approve permission.
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, actor shared.Actor, orderID uuid.UUID, req UpdatePurchaseOrderStatusRequest) (*PurchaseOrderResponse, error) {
	if !req.Status.IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "Unknown purchase order status "+string(req.Status))
	}
	return s.mutate(ctx, actor, orderID, func(order *trade.PurchaseOrder) error {
		if requiresApproval(order.Status, req.Status) {
			if err := s.permissions.RequireApprovePermission(ctx, actor); err != nil {
				return err
			}
		}
		_, err := order.TransitionTo(req.Status, actor)
		return err
	})
}

// Delete deletes a draft purchase order
func (s *PurchaseOrderService) Delete(ctx context.Context, actor shared.Actor, orderID uuid.UUID) error {
	if err := s.permissions.RequireWritePermission(ctx, actor); err != nil {
		return err
	}
	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return err
	}
	if err := order.EnsureDeletable(); err != nil {
		return err
	}
	if err := s.orderRepo.DeleteForTenant(ctx, actor.TenantID, orderID); err != nil {
		return err
	}
	publishCollected(ctx, s.eventPublisher, s.logger,
		[]shared.DomainEvent{trade.NewPurchaseOrderDeletedEvent(order, actor.UserID)})
	return nil
}

// mutate loads an order, applies fn and saves it with optimistic locking
func (s *PurchaseOrderService) mutate(ctx context.Context, actor shared.Actor, orderID uuid.UUID, fn func(order *trade.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	if err := s.permissions.RequireWritePermission(ctx, actor); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

func (s *PurchaseOrderService) checkVendor(ctx context.Context, actor shared.Actor, vendorID *uuid.UUID) error {
	if vendorID == nil || s.vendors == nil {
		return nil
	}
	ok, err := s.vendors.VendorExists(ctx, actor.TenantID, *vendorID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewNotFoundError("vendor", *vendorID)
	}
	return nil
}

func (s *PurchaseOrderService) checkCatalogItem(ctx context.Context, actor shared.Actor, itemID *uuid.UUID) error {
	if itemID == nil || s.catalog == nil {
		return nil
	}
	ok, err := s.catalog.ItemExists(ctx, actor.TenantID, *itemID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewNotFoundError("catalog item", *itemID)
	}
	return nil
}

func requiresApproval(from, to trade.PurchaseOrderStatus) bool {
	return to == trade.PurchaseOrderStatusConfirmed &&
		(from == trade.PurchaseOrderStatusSubmitted || from == trade.PurchaseOrderStatusPendingApproval)
}
