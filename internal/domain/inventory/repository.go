package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotRepository persists inventory lots
type LotRepository interface {
	Create(ctx context.Context, lot *InventoryLot) error
	FindBySourceReceive(ctx context.Context, tenantID, receiveID uuid.UUID) ([]InventoryLot, error)
}

// SerialRepository persists serialized units
type SerialRepository interface {
	// FindExisting returns which of serials already exist for the tenant
	FindExisting(ctx context.Context, tenantID uuid.UUID, serials []string) ([]string, error)
	CreateBatch(ctx context.Context, serials []InventorySerial) error
}

// StockRepository maintains on-hand quantities per item and location
type StockRepository interface {
	// AdjustOnHand adds delta to the on-hand quantity relative to the stored value
	AdjustOnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID, delta decimal.Decimal) error
	OnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID) (decimal.Decimal, error)
}

// LotAndSerialIssuer turns accepted receive quantities into lots and serials
type LotAndSerialIssuer interface {
	CreateLot(ctx context.Context, req LotRequest) (uuid.UUID, error)
	// CreateSerials fails with a validation error if any serial already exists for the tenant
	CreateSerials(ctx context.Context, req SerialRequest) error
}

// OnHandAdjuster increases or decreases on-hand stock at a location
type OnHandAdjuster interface {
	AdjustOnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID, delta decimal.Decimal) error
}

// ReceiptIssuer is everything receive completion needs from inventory
type ReceiptIssuer interface {
	LotAndSerialIssuer
	OnHandAdjuster
}
