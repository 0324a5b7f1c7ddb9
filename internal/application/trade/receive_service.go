package trade

import (
	"context"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiveService handles draft receive operations. Completion lives in
// ReceiveCompletionEngine because it is the only multi-aggregate write.
type ReceiveService struct {
	receiveRepo    trade.ReceiveRepository
	orderRepo      trade.PurchaseOrderRepository
	displayIDs     trade.DisplayIDGenerator
	permissions    shared.PermissionChecker
	locations      trade.LocationRegistry
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReceiveService creates a new ReceiveService
func NewReceiveService(
	receiveRepo trade.ReceiveRepository,
	orderRepo trade.PurchaseOrderRepository,
	displayIDs trade.DisplayIDGenerator,
	permissions shared.PermissionChecker,
) *ReceiveService {
	return &ReceiveService{
		receiveRepo: receiveRepo,
		orderRepo:   orderRepo,
		displayIDs:  displayIDs,
		permissions: permissions,
		logger:      zap.NewNop(),
	}
}

// SetLocationRegistry enables location existence checks
func (s *ReceiveService) SetLocationRegistry(locations trade.LocationRegistry) {
	s.locations = locations
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReceiveService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger
func (s *ReceiveService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create opens a draft receive against a confirmed or partially received order
func (s *ReceiveService) Create(ctx context.Context, actor shared.Actor, req CreateReceiveRequest) (*CreateReceiveResponse, error) {
	if err := s.permissions.RequireWritePermission(ctx, actor); err != nil {
		return nil, err
	}
	header := req.toDomain()
	if err := s.checkLocation(ctx, actor, header.DefaultLocationID); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, req.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if err := order.EnsureReceivable(); err != nil {
		return nil, err
	}

	displayID, err := s.displayIDs.NextDisplayID(ctx, actor.TenantID, trade.EntityTypeReceive)
	if err != nil {
		return nil, err
	}
	receive, err := trade.NewReceive(actor, displayID, order, header)
	if err != nil {
		return nil, err
	}
	if err := s.receiveRepo.Create(ctx, receive); err != nil {
		return nil, err
	}

	s.logger.Info("receive created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("receive_id", receive.ID.String()),
		zap.String("display_id", receive.DisplayID),
		zap.String("purchase_order_id", order.ID.String()),
		zap.Int("items_prepopulated", len(receive.Items)),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, receive)

	return &CreateReceiveResponse{
		ID:                receive.ID,
		DisplayID:         receive.DisplayID,
		ItemsPrepopulated: len(receive.Items),
		Receive:           ToReceiveResponse(receive),
	}, nil
}

// GetByID retrieves a receive with its items and serials
func (s *ReceiveService) GetByID(ctx context.Context, actor shared.Actor, receiveID uuid.UUID) (*ReceiveResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	receive, err := s.receiveRepo.FindByIDForTenant(ctx, actor.TenantID, receiveID)
	if err != nil {
		return nil, err
	}
	response := ToReceiveResponse(receive)
	return &response, nil
}

// List retrieves receives filtered by status and purchase order
func (s *ReceiveService) List(ctx context.Context, actor shared.Actor, req ListReceivesRequest) ([]ReceiveSummaryResponse, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, 0, shared.NewValidationError("INVALID_STATUS", "Unknown receive status "+string(*req.Status))
	}
	receives, total, err := s.receiveRepo.FindAllForTenant(ctx, actor.TenantID, trade.ReceiveFilter{
		Status:          req.Status,
		PurchaseOrderID: req.PurchaseOrderID,
		Page:            pageOf(req.Limit, req.Offset),
	})
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ReceiveSummaryResponse, len(receives))
	for i := range receives {
		responses[i] = ToReceiveSummaryResponse(&receives[i])
	}
	return responses, total, nil
}

// ListForPurchaseOrder retrieves every receive of one purchase order
func (s *ReceiveService) ListForPurchaseOrder(ctx context.Context, actor shared.Actor, orderID uuid.UUID) ([]ReceiveSummaryResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, orderID); err != nil {
		return nil, err
	}
	responses, _, err := s.List(ctx, actor, ListReceivesRequest{PurchaseOrderID: &orderID, Limit: shared.MaxPageLimit})
	return responses, err
}

// Update replaces the delivery metadata of a draft receive
func (s *ReceiveService) Update(ctx context.Context, actor shared.Actor, receiveID uuid.UUID, req ReceiveHeaderRequest) (*ReceiveResponse, error) {
	header := req.toDomain()
	receive, err := s.mutate(ctx, actor, receiveID, func(r *trade.Receive) error {
		if err := s.checkLocation(ctx, actor, header.DefaultLocationID); err != nil {
			return err
		}
		return r.UpdateHeader(header)
	})
	if err != nil {
		return nil, err
	}
	response := ToReceiveResponse(receive)
	return &response, nil
}

// AddItem adds a line fulfilling one of the order's lines
func (s *ReceiveService) AddItem(ctx context.Context, actor shared.Actor, receiveID uuid.UUID, req AddReceiveItemRequest) (*ReceiveItemResponse, error) {
	var added *trade.ReceiveItem
	_, err := s.mutate(ctx, actor, receiveID, func(r *trade.Receive) error {
		if err := r.EnsureDraft(); err != nil {
			return err
		}
		if err := s.checkLocation(ctx, actor, req.LocationID); err != nil {
			return err
		}
		order, err := s.orderRepo.FindByIDForTenant(ctx, actor.TenantID, r.PurchaseOrderID)
		if err != nil {
			return err
		}
		added, err = r.AddItem(order, trade.ReceiveItemInput{
			PurchaseOrderItemID: req.PurchaseOrderItemID,
			QuantityReceived:    req.QuantityReceived,
			Condition:           req.Condition,
			LotNumber:           req.LotNumber,
			BatchCode:           req.BatchCode,
			ExpiryDate:          req.ExpiryDate,
			ManufacturedDate:    req.ManufacturedDate,
			LocationID:          req.LocationID,
			Notes:               req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToReceiveItemResponse(added)
	return &response, nil
}

// UpdateItem patches a line of a draft receive
func (s *ReceiveService) UpdateItem(ctx context.Context, actor shared.Actor, receiveID, itemID uuid.UUID, req UpdateReceiveItemRequest) (*ReceiveItemResponse, error) {
	var updated *trade.ReceiveItem
	_, err := s.mutate(ctx, actor, receiveID, func(r *trade.Receive) error {
		if err := s.checkLocation(ctx, actor, req.LocationID); err != nil {
			return err
		}
		var err error
		updated, err = r.UpdateItem(itemID, trade.ReceiveItemPatch{
			QuantityReceived:      req.QuantityReceived,
			Condition:             req.Condition,
			LotNumber:             req.LotNumber,
			BatchCode:             req.BatchCode,
			ExpiryDate:            req.ExpiryDate,
			ManufacturedDate:      req.ManufacturedDate,
			LocationID:            req.LocationID,
			Notes:                 req.Notes,
			ClearExpiryDate:       req.ClearExpiryDate,
			ClearManufacturedDate: req.ClearManufacturedDate,
			ClearLocationID:       req.ClearLocationID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToReceiveItemResponse(updated)
	return &response, nil
}

// RemoveItem removes a line from a draft receive
func (s *ReceiveService) RemoveItem(ctx context.Context, actor shared.Actor, receiveID, itemID uuid.UUID) error {
	_, err := s.mutate(ctx, actor, receiveID, func(r *trade.Receive) error {
		return r.RemoveItem(itemID)
	})
	return err
}

// AddSerials captures serial numbers on a line. A single serial is a one element slice.
func (s *ReceiveService) AddSerials(ctx context.Context, actor shared.Actor, receiveID, itemID uuid.UUID, req AddSerialsRequest) (*AddSerialsResponse, error) {
	var (
		added      []trade.ReceiveItemSerial
		duplicates []string
	)
	_, err := s.mutate(ctx, actor, receiveID, func(r *trade.Receive) error {
		var err error
		added, duplicates, err = r.AddSerials(itemID, req.Serials)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AddSerialsResponse{
		Added:      len(added),
		Serials:    toSerialResponses(added),
		Duplicates: duplicates,
	}, nil
}

// RemoveSerial removes one captured serial from a line
func (s *ReceiveService) RemoveSerial(ctx context.Context, actor shared.Actor, receiveID, itemID, serialID uuid.UUID) error {
	_, err := s.mutate(ctx, actor, receiveID, func(r *trade.Receive) error {
		return r.RemoveSerial(itemID, serialID)
	})
	return err
}

// Cancel abandons a draft receive without touching stock
func (s *ReceiveService) Cancel(ctx context.Context, actor shared.Actor, receiveID uuid.UUID) (*ReceiveResponse, error) {
	if err := s.permissions.RequireWritePermission(ctx, actor); err != nil {
		return nil, err
	}
	receive, err := s.receiveRepo.FindByIDForTenant(ctx, actor.TenantID, receiveID)
	if err != nil {
		return nil, err
	}
	if err := receive.Cancel(actor); err != nil {
		return nil, err
	}
	if err := s.receiveRepo.SaveStatus(ctx, receive); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, receive)

	response := ToReceiveResponse(receive)
	return &response, nil
}

// mutate loads a receive, applies fn and saves it
func (s *ReceiveService) mutate(ctx context.Context, actor shared.Actor, receiveID uuid.UUID, fn func(r *trade.Receive) error) (*trade.Receive, error) {
	if err := s.permissions.RequireWritePermission(ctx, actor); err != nil {
		return nil, err
	}
	receive, err := s.receiveRepo.FindByIDForTenant(ctx, actor.TenantID, receiveID)
	if err != nil {
		return nil, err
	}
	if err := fn(receive); err != nil {
		return nil, err
	}
	if err := s.receiveRepo.Save(ctx, receive); err != nil {
		return nil, err
	}
	return receive, nil
}

func (s *ReceiveService) checkLocation(ctx context.Context, actor shared.Actor, locationID *uuid.UUID) error {
	if locationID == nil || s.locations == nil {
		return nil
	}
	ok, err := s.locations.LocationExists(ctx, actor.TenantID, *locationID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewNotFoundError("location", *locationID)
	}
	return nil
}
