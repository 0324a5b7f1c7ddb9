package persistence

import (
	"context"
	"fmt"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var receiveItemColumns = []string{
	"quantity_received", "item_condition", "lot_number", "batch_code",
	"expiry_date", "manufactured_date", "location_id", "notes", "updated_at",
}

// GormReceiveRepository implements trade.ReceiveRepository using GORM
type GormReceiveRepository struct {
	db *gorm.DB
}

// NewGormReceiveRepository creates a new GormReceiveRepository
func NewGormReceiveRepository(db *gorm.DB) *GormReceiveRepository {
	return &GormReceiveRepository{db: db}
}

func (r *GormReceiveRepository) withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", orderItemsByCreation).
		Preload("Items.Serials", orderItemsByCreation)
}

// FindByIDForTenant finds a receive with its items and serials
func (r *GormReceiveRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Receive, error) {
	var model models.ReceiveModel
	if err := r.withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "receive", id)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the receive row, then loads its lines
func (r *GormReceiveRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Receive, error) {
	db := r.db.WithContext(ctx)

	var model models.ReceiveModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "receive", id)
	}

	if err := orderItemsByCreation(db.Preload("Serials", orderItemsByCreation)).
		Where("receive_id = ?", id).
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("load receive items: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists receives, newest first, without items
func (r *GormReceiveRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.ReceiveFilter) ([]trade.Receive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReceiveModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PurchaseOrderID != nil {
		query = query.Where("purchase_order_id = ?", *filter.PurchaseOrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count receives: %w", err)
	}

	page := filter.Page.Normalize()
	var receiveModels []models.ReceiveModel
	if err := query.Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&receiveModels).Error; err != nil {
		return nil, 0, fmt.Errorf("list receives: %w", err)
	}

	receives := make([]trade.Receive, len(receiveModels))
	for i := range receiveModels {
		receives[i] = *receiveModels[i].ToDomain()
	}
	return receives, total, nil
}

// Create inserts a new receive with its pre-populated items
func (r *GormReceiveRepository) Create(ctx context.Context, receive *trade.Receive) error {
	model := models.ReceiveModelFromDomain(receive)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateWriteError(err, "receive")
		}
		return r.insertLines(tx, model.Items)
	})
}

func (r *GormReceiveRepository) insertLines(tx *gorm.DB, items []models.ReceiveItemModel) error {
	if len(items) == 0 {
		return nil
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		return fmt.Errorf("insert receive items: %w", err)
	}
	serials := collectSerials(items)
	if len(serials) == 0 {
		return nil
	}
	return tx.Create(&serials).Error
}

// Save writes header, items and serials of a draft receive. Last write wins.
func (r *GormReceiveRepository) Save(ctx context.Context, receive *trade.Receive) error {
	model := models.ReceiveModelFromDomain(receive)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReceiveModel{}).
			Where("id = ? AND tenant_id = ? AND status = ?", receive.ID, receive.TenantID, trade.ReceiveStatusDraft).
			Updates(map[string]interface{}{
				"delivery_note_number": model.DeliveryNoteNumber,
				"carrier":              model.Carrier,
				"tracking_number":      model.TrackingNumber,
				"default_location_id":  model.DefaultLocationID,
				"received_date":        model.ReceivedDate,
				"notes":                model.Notes,
				"updated_at":           model.UpdatedAt,
				"version":              gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("CONCURRENT_MODIFICATION", "The receive is no longer a draft")
		}
		return r.syncLines(tx, receive.ID, model.Items)
	})
	if err != nil {
		return err
	}
	receive.Version++
	return nil
}

func (r *GormReceiveRepository) syncLines(tx *gorm.DB, receiveID uuid.UUID, items []models.ReceiveItemModel) error {
	itemIDs := make([]uuid.UUID, len(items))
	for i := range items {
		itemIDs[i] = items[i].ID
	}
	serials := collectSerials(items)

	removedItems := tx.Model(&models.ReceiveItemModel{}).Select("id").Where("receive_id = ?", receiveID)
	if len(itemIDs) > 0 {
		removedItems = removedItems.Where("id NOT IN ?", itemIDs)
	}
	if err := tx.Where("receive_item_id IN (?)", removedItems).
		Delete(&models.ReceiveItemSerialModel{}).Error; err != nil {
		return fmt.Errorf("delete serials of removed receive items: %w", err)
	}

	if len(itemIDs) > 0 {
		staleSerials := tx.Where("receive_item_id IN ?", itemIDs)
		if len(serials) > 0 {
			serialIDs := make([]uuid.UUID, len(serials))
			for i := range serials {
				serialIDs[i] = serials[i].ID
			}
			staleSerials = staleSerials.Where("id NOT IN ?", serialIDs)
		}
		if err := staleSerials.Delete(&models.ReceiveItemSerialModel{}).Error; err != nil {
			return fmt.Errorf("delete removed serials: %w", err)
		}
	}

	staleItems := tx.Where("receive_id = ?", receiveID)
	if len(itemIDs) > 0 {
		staleItems = staleItems.Where("id NOT IN ?", itemIDs)
	}
	if err := staleItems.Delete(&models.ReceiveItemModel{}).Error; err != nil {
		return fmt.Errorf("delete removed receive items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}
	if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(receiveItemColumns),
	}).Create(&items).Error; err != nil {
		return fmt.Errorf("upsert receive items: %w", err)
	}
	if len(serials) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&serials).Error
}

// SaveStatus moves a draft receive to its new status. Fails with a conflict if
// another transaction already completed or cancelled it.
func (r *GormReceiveRepository) SaveStatus(ctx context.Context, receive *trade.Receive) error {
	result := r.db.WithContext(ctx).Model(&models.ReceiveModel{}).
		Where("id = ? AND tenant_id = ? AND status = ?", receive.ID, receive.TenantID, trade.ReceiveStatusDraft).
		Updates(map[string]interface{}{
			"status":       receive.Status,
			"completed_at": receive.CompletedAt,
			"completed_by": receive.CompletedBy,
			"cancelled_at": receive.CancelledAt,
			"cancelled_by": receive.CancelledBy,
			"updated_at":   receive.UpdatedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("save receive status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("CONCURRENT_MODIFICATION",
			fmt.Sprintf("Receive %s is no longer a draft", receive.DisplayID))
	}
	receive.Version++
	return nil
}

func collectSerials(items []models.ReceiveItemModel) []models.ReceiveItemSerialModel {
	var serials []models.ReceiveItemSerialModel
	for i := range items {
		serials = append(serials, items[i].Serials...)
	}
	return serials
}

var _ trade.ReceiveRepository = (*GormReceiveRepository)(nil)
