package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// purchaseOrderItemColumns are the line columns a header save may overwrite
var purchaseOrderItemColumns = []string{
	"item_id", "item_name", "sku", "part_number",
	"ordered_quantity", "unit_price", "notes", "updated_at",
}

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at, id")
}

// FindByIDForTenant finds a purchase order with its items within a tenant
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "purchase order", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the order row and then its item rows in id order.
// Must run inside a transaction; the locks are released on commit or rollback.
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	db := r.db.WithContext(ctx)

	var model models.PurchaseOrderModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "purchase order", id)
	}

	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("purchase_order_id = ?", id).
		Order("id").
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("lock purchase order items: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists purchase orders, newest first, without items
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID)
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count purchase orders: %w", err)
	}

	page := filter.Page.Normalize()
	var orderModels []models.PurchaseOrderModel
	if err := query.Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&orderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}

	orders := make([]trade.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// Create inserts a new purchase order and its items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateWriteError(err, "purchase order")
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

// SaveWithLock saves header and items with optimistic locking (version check).
// received_quantity is never part of the written columns.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := model.HeaderColumns()
		columns["version"] = gorm.Expr("version + 1")

		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND tenant_id = ? AND version = ?", order.ID, order.TenantID, order.Version).
			Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("CONCURRENT_MODIFICATION", "The purchase order has been modified by another user")
		}

		return r.syncItems(tx, order.ID, model.Items)
	})
	if err != nil {
		return err
	}
	order.Version++
	return nil
}

func (r *GormPurchaseOrderRepository) syncItems(tx *gorm.DB, orderID uuid.UUID, items []models.PurchaseOrderItemModel) error {
	stale := tx.Where("purchase_order_id = ?", orderID)
	if len(items) > 0 {
		ids := make([]uuid.UUID, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return fmt.Errorf("delete removed purchase order items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(purchaseOrderItemColumns),
	}).Create(&items).Error
}

// IncrementReceivedQuantity adds delta to the stored received quantity in a
// single relative UPDATE, so concurrent completions never lose an update.
func (r *GormPurchaseOrderRepository) IncrementReceivedQuantity(ctx context.Context, orderID, itemID uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseOrderItemModel{}).
		Where("id = ? AND purchase_order_id = ?", itemID, orderID).
		Updates(map[string]interface{}{
			"received_quantity": gorm.Expr("received_quantity + ?", delta),
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("increment received quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("purchase order item", itemID)
	}
	return nil
}

// DeleteForTenant deletes a purchase order and its items. The item delete is
// rolled back when the order does not belong to the tenant.
func (r *GormPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.PurchaseOrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("purchase order", id)
		}
		return nil
	})
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound domain error
func notFoundOr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, id)
	}
	return fmt.Errorf("find %s: %w", entity, err)
}

// translateWriteError maps unique violations to a conflict
func translateWriteError(err error, entity string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("DUPLICATE", fmt.Sprintf("%s already exists", entity))
	}
	return err
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
