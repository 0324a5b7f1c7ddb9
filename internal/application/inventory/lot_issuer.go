package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotIssuer creates lots, serialized units and on-hand increases for goods
// accepted by receiving. It writes through whatever repositories it is given,
// so a LotIssuer built from transaction-scoped repositories joins that transaction.
type LotIssuer struct {
	lots    inventory.LotRepository
	serials inventory.SerialRepository
	stock   inventory.StockRepository
}

// NewLotIssuer creates a new LotIssuer
func NewLotIssuer(lots inventory.LotRepository, serials inventory.SerialRepository, stock inventory.StockRepository) *LotIssuer {
	return &LotIssuer{lots: lots, serials: serials, stock: stock}
}

// CreateLot records a new lot and returns its id
func (i *LotIssuer) CreateLot(ctx context.Context, req inventory.LotRequest) (uuid.UUID, error) {
	lot, err := inventory.NewInventoryLot(req)
	if err != nil {
		return uuid.Nil, err
	}
	if err := i.lots.Create(ctx, lot); err != nil {
		return uuid.Nil, err
	}
	return lot.ID, nil
}

// CreateSerials records one in-stock unit per serial number.
// It fails with a validation error if any serial already exists for the tenant.
func (i *LotIssuer) CreateSerials(ctx context.Context, req inventory.SerialRequest) error {
	if len(req.Serials) == 0 {
		return nil
	}
	existing, err := i.serials.FindExisting(ctx, req.TenantID, req.Serials)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return shared.NewValidationError("SERIAL_EXISTS",
			fmt.Sprintf("Serial numbers already in inventory: %s", strings.Join(existing, ", ")))
	}

	now := time.Now()
	units := make([]inventory.InventorySerial, len(req.Serials))
	for idx, sn := range req.Serials {
		receiveID := req.SourceReceiveID
		receiveItemID := req.SourceReceiveItemID
		units[idx] = inventory.InventorySerial{
			ID:                  uuid.New(),
			TenantID:            req.TenantID,
			ItemID:              req.ItemID,
			LocationID:          req.LocationID,
			LotID:               req.LotID,
			SerialNumber:        sn,
			Status:              inventory.SerialStatusInStock,
			SourceReceiveID:     &receiveID,
			SourceReceiveItemID: &receiveItemID,
			CreatedAt:           now,
		}
	}
	return i.serials.CreateBatch(ctx, units)
}

// AdjustOnHand changes the on-hand quantity of an item at a location
func (i *LotIssuer) AdjustOnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return i.stock.AdjustOnHand(ctx, tenantID, itemID, locationID, delta)
}

var _ inventory.ReceiptIssuer = (*LotIssuer)(nil)
