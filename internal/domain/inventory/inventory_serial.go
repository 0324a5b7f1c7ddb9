package inventory

import (
	"time"

	"github.com/google/uuid"
)

// SerialStatus is the stock status of a serialized unit
type SerialStatus string

const (
	SerialStatusInStock SerialStatus = "in_stock"
)

// InventorySerial is one uniquely identified unit. Serial numbers are unique per tenant.
type InventorySerial struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	ItemID              uuid.UUID
	LocationID          uuid.UUID
	LotID               *uuid.UUID
	SerialNumber        string
	Status              SerialStatus
	SourceReceiveID     *uuid.UUID
	SourceReceiveItemID *uuid.UUID
	CreatedAt           time.Time
}

// SerialRequest describes serialized units to put into stock
type SerialRequest struct {
	TenantID            uuid.UUID
	ItemID              uuid.UUID
	LocationID          uuid.UUID
	LotID               *uuid.UUID
	Serials             []string
	SourceReceiveID     uuid.UUID
	SourceReceiveItemID uuid.UUID
}
