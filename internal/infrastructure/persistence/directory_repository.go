package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDirectory answers reference lookups against the vendor, catalog and
// location tables owned by neighbouring services.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a new GormDirectory
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) exists(ctx context.Context, model interface{}, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(model).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// VendorExists reports whether an active vendor exists for the tenant
func (d *GormDirectory) VendorExists(ctx context.Context, tenantID, vendorID uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.VendorModel{}).
		Where("tenant_id = ? AND id = ? AND active = ?", tenantID, vendorID, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("look up vendor: %w", err)
	}
	return count > 0, nil
}

// ItemExists reports whether the catalog item exists for the tenant
func (d *GormDirectory) ItemExists(ctx context.Context, tenantID, itemID uuid.UUID) (bool, error) {
	ok, err := d.exists(ctx, &models.CatalogItemModel{}, tenantID, itemID)
	if err != nil {
		return false, fmt.Errorf("look up catalog item: %w", err)
	}
	return ok, nil
}

// IsSerialTracked reports whether units of the item carry serial numbers.
// An item missing from the catalog is treated as untracked.
func (d *GormDirectory) IsSerialTracked(ctx context.Context, tenantID, itemID uuid.UUID) (bool, error) {
	var item models.CatalogItemModel
	err := d.db.WithContext(ctx).
		Select("serial_tracked").
		Where("tenant_id = ? AND id = ?", tenantID, itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up catalog item: %w", err)
	}
	return item.SerialTracked, nil
}

// LocationExists reports whether the stock location exists for the tenant
func (d *GormDirectory) LocationExists(ctx context.Context, tenantID, locationID uuid.UUID) (bool, error) {
	ok, err := d.exists(ctx, &models.LocationModel{}, tenantID, locationID)
	if err != nil {
		return false, fmt.Errorf("look up location: %w", err)
	}
	return ok, nil
}

var (
	_ trade.VendorDirectory  = (*GormDirectory)(nil)
	_ trade.Catalog          = (*GormDirectory)(nil)
	_ trade.LocationRegistry = (*GormDirectory)(nil)
)
