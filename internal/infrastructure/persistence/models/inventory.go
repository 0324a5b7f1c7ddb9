package models

import (
	"time"

	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryLotModel is the persistence model for an inventory lot
type InventoryLotModel struct {
	BaseModel
	TenantID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	LocationID          uuid.UUID       `gorm:"type:uuid;not null"`
	LotNumber           string          `gorm:"type:varchar(100)"`
	BatchCode           string          `gorm:"type:varchar(100)"`
	ExpiryDate          *time.Time      `gorm:"type:date;index"`
	ManufacturedDate    *time.Time      `gorm:"type:date"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceReceiveID     *uuid.UUID      `gorm:"type:uuid;index"`
	SourceReceiveItemID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryLotModel) TableName() string {
	return "inventory_lots"
}

// ToDomain converts the persistence model to a domain InventoryLot
func (m *InventoryLotModel) ToDomain() *inventory.InventoryLot {
	return &inventory.InventoryLot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:            m.TenantID,
		ItemID:              m.ItemID,
		LocationID:          m.LocationID,
		LotNumber:           m.LotNumber,
		BatchCode:           m.BatchCode,
		ExpiryDate:          m.ExpiryDate,
		ManufacturedDate:    m.ManufacturedDate,
		Quantity:            m.Quantity,
		SourceReceiveID:     m.SourceReceiveID,
		SourceReceiveItemID: m.SourceReceiveItemID,
	}
}

// InventoryLotModelFromDomain creates a persistence model from a domain InventoryLot
func InventoryLotModelFromDomain(l *inventory.InventoryLot) *InventoryLotModel {
	return &InventoryLotModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		TenantID:            l.TenantID,
		ItemID:              l.ItemID,
		LocationID:          l.LocationID,
		LotNumber:           l.LotNumber,
		BatchCode:           l.BatchCode,
		ExpiryDate:          l.ExpiryDate,
		ManufacturedDate:    l.ManufacturedDate,
		Quantity:            l.Quantity,
		SourceReceiveID:     l.SourceReceiveID,
		SourceReceiveItemID: l.SourceReceiveItemID,
	}
}

// InventorySerialModel is the persistence model for a serialized unit.
// Serial numbers are unique per tenant.
type InventorySerialModel struct {
	ID                  uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_serial_tenant_number,priority:1"`
	SerialNumber        string                 `gorm:"type:varchar(100);not null;uniqueIndex:idx_inventory_serial_tenant_number,priority:2"`
	ItemID              uuid.UUID              `gorm:"type:uuid;not null;index"`
	LocationID          uuid.UUID              `gorm:"type:uuid;not null"`
	LotID               *uuid.UUID             `gorm:"type:uuid"`
	Status              inventory.SerialStatus `gorm:"type:varchar(20);not null;default:'in_stock'"`
	SourceReceiveID     *uuid.UUID             `gorm:"type:uuid;index"`
	SourceReceiveItemID *uuid.UUID             `gorm:"type:uuid"`
	CreatedAt           time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventorySerialModel) TableName() string {
	return "inventory_serials"
}

// ToDomain converts the persistence model to a domain InventorySerial
func (m *InventorySerialModel) ToDomain() *inventory.InventorySerial {
	return &inventory.InventorySerial{
		ID:                  m.ID,
		TenantID:            m.TenantID,
		ItemID:              m.ItemID,
		LocationID:          m.LocationID,
		LotID:               m.LotID,
		SerialNumber:        m.SerialNumber,
		Status:              m.Status,
		SourceReceiveID:     m.SourceReceiveID,
		SourceReceiveItemID: m.SourceReceiveItemID,
		CreatedAt:           m.CreatedAt,
	}
}

// InventorySerialModelFromDomain creates a persistence model from a domain InventorySerial
func InventorySerialModelFromDomain(s *inventory.InventorySerial) *InventorySerialModel {
	return &InventorySerialModel{
		ID:                  s.ID,
		TenantID:            s.TenantID,
		ItemID:              s.ItemID,
		LocationID:          s.LocationID,
		LotID:               s.LotID,
		SerialNumber:        s.SerialNumber,
		Status:              s.Status,
		SourceReceiveID:     s.SourceReceiveID,
		SourceReceiveItemID: s.SourceReceiveItemID,
		CreatedAt:           s.CreatedAt,
	}
}

// StockLevelModel holds the on-hand quantity per item and location
type StockLevelModel struct {
	TenantID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LocationID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OnHand     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string {
	return "stock_levels"
}

// ToDomain converts the persistence model to a domain StockLevel
func (m *StockLevelModel) ToDomain() *inventory.StockLevel {
	return &inventory.StockLevel{
		TenantID:   m.TenantID,
		ItemID:     m.ItemID,
		LocationID: m.LocationID,
		OnHand:     m.OnHand,
		UpdatedAt:  m.UpdatedAt,
	}
}
