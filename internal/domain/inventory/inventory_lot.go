package inventory

import (
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryLot is a tracked sub-quantity of a catalog item sharing a lot
// number and optional expiry. Lots created by receiving keep a reference to
// the receive line they came from.
type InventoryLot struct {
	shared.BaseEntity
	TenantID            uuid.UUID
	ItemID              uuid.UUID
	LocationID          uuid.UUID
	LotNumber           string
	BatchCode           string
	ExpiryDate          *time.Time
	ManufacturedDate    *time.Time
	Quantity            decimal.Decimal
	SourceReceiveID     *uuid.UUID
	SourceReceiveItemID *uuid.UUID
}

// LotRequest describes a lot to create
type LotRequest struct {
	TenantID            uuid.UUID
	ItemID              uuid.UUID
	LocationID          uuid.UUID
	Quantity            decimal.Decimal
	LotNumber           string
	BatchCode           string
	ExpiryDate          *time.Time
	ManufacturedDate    *time.Time
	SourceReceiveID     uuid.UUID
	SourceReceiveItemID uuid.UUID
}

// NewInventoryLot creates a new lot
func NewInventoryLot(req LotRequest) (*InventoryLot, error) {
	if req.ItemID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ITEM", "Lot requires a catalog item")
	}
	if req.LocationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_LOCATION", "Lot requires a location")
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if req.ExpiryDate != nil && req.ManufacturedDate != nil && req.ExpiryDate.Before(*req.ManufacturedDate) {
		return nil, shared.NewValidationError("INVALID_EXPIRY", "Expiry date cannot be before manufactured date")
	}

	lot := &InventoryLot{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         req.TenantID,
		ItemID:           req.ItemID,
		LocationID:       req.LocationID,
		LotNumber:        req.LotNumber,
		BatchCode:        req.BatchCode,
		ExpiryDate:       req.ExpiryDate,
		ManufacturedDate: req.ManufacturedDate,
		Quantity:         req.Quantity,
	}
	if req.SourceReceiveID != uuid.Nil {
		lot.SourceReceiveID = &req.SourceReceiveID
	}
	if req.SourceReceiveItemID != uuid.Nil {
		lot.SourceReceiveItemID = &req.SourceReceiveItemID
	}
	return lot, nil
}

// IsExpired returns true if the lot has expired
func (l *InventoryLot) IsExpired() bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now())
}

// DaysUntilExpiry returns the number of days until expiry, -1 if no expiry date
func (l *InventoryLot) DaysUntilExpiry() int {
	if l.ExpiryDate == nil {
		return -1
	}
	return int(time.Until(*l.ExpiryDate).Hours() / 24)
}
