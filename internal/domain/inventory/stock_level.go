package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the on-hand quantity of one catalog item at one location
type StockLevel struct {
	TenantID   uuid.UUID
	ItemID     uuid.UUID
	LocationID uuid.UUID
	OnHand     decimal.Decimal
	UpdatedAt  time.Time
}
