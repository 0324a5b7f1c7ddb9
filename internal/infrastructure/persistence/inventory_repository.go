package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// serialBatchSize bounds the rows per INSERT when putting serials into stock
const serialBatchSize = 200

// GormLotRepository implements inventory.LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// Create inserts a lot
func (r *GormLotRepository) Create(ctx context.Context, lot *inventory.InventoryLot) error {
	if err := r.db.WithContext(ctx).Create(models.InventoryLotModelFromDomain(lot)).Error; err != nil {
		return fmt.Errorf("create inventory lot: %w", err)
	}
	return nil
}

// FindBySourceReceive lists the lots a receive produced
func (r *GormLotRepository) FindBySourceReceive(ctx context.Context, tenantID, receiveID uuid.UUID) ([]inventory.InventoryLot, error) {
	var lotModels []models.InventoryLotModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_receive_id = ?", tenantID, receiveID).
		Order("created_at, id").
		Find(&lotModels).Error; err != nil {
		return nil, fmt.Errorf("find lots by receive: %w", err)
	}
	lots := make([]inventory.InventoryLot, len(lotModels))
	for i := range lotModels {
		lots[i] = *lotModels[i].ToDomain()
	}
	return lots, nil
}

// GormSerialRepository implements inventory.SerialRepository using GORM
type GormSerialRepository struct {
	db *gorm.DB
}

// NewGormSerialRepository creates a new GormSerialRepository
func NewGormSerialRepository(db *gorm.DB) *GormSerialRepository {
	return &GormSerialRepository{db: db}
}

// FindExisting returns which of serials are already in stock records for the tenant
func (r *GormSerialRepository) FindExisting(ctx context.Context, tenantID uuid.UUID, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var existing []string
	if err := r.db.WithContext(ctx).Model(&models.InventorySerialModel{}).
		Where("tenant_id = ? AND serial_number IN ?", tenantID, serials).
		Order("serial_number").
		Pluck("serial_number", &existing).Error; err != nil {
		return nil, fmt.Errorf("find existing serials: %w", err)
	}
	return existing, nil
}

// CreateBatch inserts serialized units. A unique violation means another
// transaction issued one of the serials first.
func (r *GormSerialRepository) CreateBatch(ctx context.Context, serials []inventory.InventorySerial) error {
	if len(serials) == 0 {
		return nil
	}
	rows := make([]models.InventorySerialModel, len(serials))
	numbers := make([]string, len(serials))
	for i := range serials {
		rows[i] = *models.InventorySerialModelFromDomain(&serials[i])
		numbers[i] = serials[i].SerialNumber
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, serialBatchSize).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewValidationError("SERIAL_EXISTS",
				fmt.Sprintf("One of the serial numbers %s already exists", strings.Join(numbers, ", ")))
		}
		return fmt.Errorf("create serials: %w", err)
	}
	return nil
}

// FindBySourceReceive lists the serialized units a receive put into stock
func (r *GormSerialRepository) FindBySourceReceive(ctx context.Context, tenantID, receiveID uuid.UUID) ([]inventory.InventorySerial, error) {
	var serialModels []models.InventorySerialModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_receive_id = ?", tenantID, receiveID).
		Order("serial_number").
		Find(&serialModels).Error; err != nil {
		return nil, fmt.Errorf("find serials by receive: %w", err)
	}
	out := make([]inventory.InventorySerial, len(serialModels))
	for i := range serialModels {
		out[i] = *serialModels[i].ToDomain()
	}
	return out, nil
}

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// AdjustOnHand upserts the stock level row, adding delta to the stored value
func (r *GormStockRepository) AdjustOnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID, delta decimal.Decimal) error {
	now := time.Now()
	level := models.StockLevelModel{
		TenantID:   tenantID,
		ItemID:     itemID,
		LocationID: locationID,
		OnHand:     delta,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "item_id"}, {Name: "location_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"on_hand":    gorm.Expr("stock_levels.on_hand + excluded.on_hand"),
			"updated_at": now,
		}),
	}).Create(&level).Error; err != nil {
		return fmt.Errorf("adjust on-hand stock: %w", err)
	}
	return nil
}

// OnHand returns the on-hand quantity, zero when no stock was ever recorded
func (r *GormStockRepository) OnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	var level models.StockLevelModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND item_id = ? AND location_id = ?", tenantID, itemID, locationID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read on-hand stock: %w", err)
	}
	return level.OnHand, nil
}

var (
	_ inventory.LotRepository    = (*GormLotRepository)(nil)
	_ inventory.SerialRepository = (*GormSerialRepository)(nil)
	_ inventory.StockRepository  = (*GormStockRepository)(nil)
)
