package models

import (
	"time"

	"github.com/google/uuid"
)

// DisplayIDSequenceModel is one display-ID counter. CurrentVal is the last
// number handed out for the tenant, entity type and year.
type DisplayIDSequenceModel struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityType string    `gorm:"type:varchar(50);primaryKey"`
	Year       int       `gorm:"primaryKey;autoIncrement:false"`
	CurrentVal int64     `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DisplayIDSequenceModel) TableName() string {
	return "display_id_sequences"
}
