package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens a file-backed SQLite database with the receiving schema.
// A file is used instead of :memory: so pooled connections see the same data.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receiving.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newMockDB opens a GORM postgres dialect over sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

// seed holds the reference data most receiving tests need
type seed struct {
	tenantID     uuid.UUID
	actor        shared.Actor
	vendorID     uuid.UUID
	locationID   uuid.UUID
	plainItemID  uuid.UUID
	serialItemID uuid.UUID
}

func seedDirectory(t *testing.T, db *gorm.DB) seed {
	t.Helper()
	s := seed{
		tenantID:     uuid.New(),
		vendorID:     uuid.New(),
		locationID:   uuid.New(),
		plainItemID:  uuid.New(),
		serialItemID: uuid.New(),
	}
	s.actor = shared.NewActor(s.tenantID, uuid.New(), "Receiving Clerk", shared.RoleMember)

	require.NoError(t, db.Create(&models.VendorModel{
		BaseModel: models.BaseModel{ID: s.vendorID},
		TenantID:  s.tenantID,
		Name:      "Acme Supply",
		Active:    true,
	}).Error)
	require.NoError(t, db.Create(&models.LocationModel{
		BaseModel: models.BaseModel{ID: s.locationID},
		TenantID:  s.tenantID,
		Code:      "DOCK-1",
		Name:      "Receiving dock",
	}).Error)
	require.NoError(t, db.Create(&[]models.CatalogItemModel{
		{BaseModel: models.BaseModel{ID: s.plainItemID}, TenantID: s.tenantID, SKU: "BOLT-10", Name: "Bolt"},
		{BaseModel: models.BaseModel{ID: s.serialItemID}, TenantID: s.tenantID, SKU: "SCAN-1", Name: "Scanner", SerialTracked: true},
	}).Error)
	return s
}

// createConfirmedOrder stores a confirmed order with the given lines
func createConfirmedOrder(t *testing.T, db *gorm.DB, s seed, items ...trade.PurchaseOrderItemInput) *trade.PurchaseOrder {
	t.Helper()
	order, err := trade.NewPurchaseOrder(s.actor, "PO-"+uuid.NewString()[:8], trade.PurchaseOrderHeader{VendorID: &s.vendorID})
	require.NoError(t, err)
	for _, in := range items {
		_, err := order.AddItem(in)
		require.NoError(t, err)
	}
	_, err = order.TransitionTo(trade.PurchaseOrderStatusSubmitted, s.actor)
	require.NoError(t, err)
	_, err = order.TransitionTo(trade.PurchaseOrderStatusConfirmed, s.actor)
	require.NoError(t, err)
	order.ClearDomainEvents()

	require.NoError(t, NewGormPurchaseOrderRepository(db).Create(context.Background(), order))
	return order
}

func plainLine(s seed, qty int64) trade.PurchaseOrderItemInput {
	return trade.PurchaseOrderItemInput{
		ItemID:          &s.plainItemID,
		ItemName:        "Bolt",
		SKU:             "BOLT-10",
		OrderedQuantity: decimal.NewFromInt(qty),
		UnitPrice:       decimal.NewFromInt(2),
	}
}

func serialLine(s seed, qty int64) trade.PurchaseOrderItemInput {
	return trade.PurchaseOrderItemInput{
		ItemID:          &s.serialItemID,
		ItemName:        "Scanner",
		SKU:             "SCAN-1",
		OrderedQuantity: decimal.NewFromInt(qty),
		UnitPrice:       decimal.NewFromInt(150),
	}
}

func receivedQuantities(t *testing.T, db *gorm.DB, orderID uuid.UUID) map[uuid.UUID]decimal.Decimal {
	t.Helper()
	var rows []models.PurchaseOrderItemModel
	require.NoError(t, db.Where("purchase_order_id = ?", orderID).Find(&rows).Error)
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.ID] = r.ReceivedQuantity
	}
	return out
}
