package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorModel is the slice of the vendor master data receiving reads
type VendorModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
	Active   bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// CatalogItemModel is the slice of the item catalog receiving reads
type CatalogItemModel struct {
	BaseModel
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU           string    `gorm:"column:sku;type:varchar(100)"`
	Name          string    `gorm:"type:varchar(200);not null"`
	SerialTracked bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// LocationModel is a stock location
type LocationModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code     string    `gorm:"type:varchar(50);not null"`
	Name     string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "locations"
}

// ActivityLogModel is one audit record
type ActivityLogModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_log_entity,priority:1"`
	UserID          uuid.UUID `gorm:"type:uuid"`
	EntityType      string    `gorm:"type:varchar(50);not null;index:idx_activity_log_entity,priority:2"`
	EntityID        uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_log_entity,priority:3"`
	EntityDisplayID string    `gorm:"type:varchar(50)"`
	Action          string    `gorm:"type:varchar(50);not null"`
	FromStatus      string    `gorm:"type:varchar(20)"`
	ToStatus        string    `gorm:"type:varchar(20)"`
	Details         string    `gorm:"type:jsonb"`
	OccurredAt      time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}
