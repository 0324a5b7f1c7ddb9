package models

import (
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel carries the columns every table shares
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantAggregateModel carries the columns of a tenant-owned aggregate root.
// Version backs optimistic locking. TenantID leads the tenant_display unique
// index, which the embedding model completes with its display_id column.
type TenantAggregateModel struct {
	BaseModel
	Version   int       `gorm:"not null;default:1"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:,composite:tenant_display,priority:1"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
}

// FromDomainTenantAggregateRoot copies the aggregate root fields into the model
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.Version = t.Version
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

// ToTenantAggregateRoot rebuilds the domain aggregate root fields
func (m *TenantAggregateModel) ToTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		TenantID:  m.TenantID,
		CreatedBy: m.CreatedBy,
	}
}
