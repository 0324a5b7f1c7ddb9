package persistence

import (
	"context"
	"testing"
	"time"

	apptrade "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDirectory(t *testing.T) {
	db := newSQLiteDB(t)
	s := seedDirectory(t, db)
	dir := NewGormDirectory(db)
	ctx := context.Background()

	ok, err := dir.VendorExists(ctx, s.tenantID, s.vendorID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.VendorExists(ctx, uuid.New(), s.vendorID)
	require.NoError(t, err)
	assert.False(t, ok, "vendors of other tenants are invisible")

	inactive := uuid.New()
	require.NoError(t, db.Create(&models.VendorModel{BaseModel: models.BaseModel{ID: inactive}, TenantID: s.tenantID, Name: "Old"}).Error)
	require.NoError(t, db.Model(&models.VendorModel{}).Where("id = ?", inactive).Update("active", false).Error)
	ok, err = dir.VendorExists(ctx, s.tenantID, inactive)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = dir.ItemExists(ctx, s.tenantID, s.plainItemID)
	require.NoError(t, err)
	assert.True(t, ok)

	tracked, err := dir.IsSerialTracked(ctx, s.tenantID, s.serialItemID)
	require.NoError(t, err)
	assert.True(t, tracked)

	tracked, err = dir.IsSerialTracked(ctx, s.tenantID, uuid.New())
	require.NoError(t, err)
	assert.False(t, tracked)

	ok, err = dir.LocationExists(ctx, s.tenantID, s.locationID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.LocationExists(ctx, s.tenantID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormActivityLogRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormActivityLogRepository(db)
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()
	now := time.Now()

	require.NoError(t, repo.Record(ctx, apptrade.ActivityEntry{
		TenantID:   tenantID,
		UserID:     uuid.New(),
		EntityType: apptrade.ActivityEntityPurchaseOrder,
		EntityID:   orderID,
		Action:     apptrade.ActivityCreated,
		ToStatus:   "draft",
		OccurredAt: now,
	}))
	require.NoError(t, repo.Record(ctx, apptrade.ActivityEntry{
		TenantID:   tenantID,
		UserID:     uuid.New(),
		EntityType: apptrade.ActivityEntityPurchaseOrder,
		EntityID:   orderID,
		Action:     apptrade.ActivityOverReceived,
		Details:    map[string]any{"received_quantity": "12", "ordered_quantity": "10"},
		OccurredAt: now.Add(time.Second),
	}))

	entries, err := repo.ListForEntity(ctx, tenantID, apptrade.ActivityEntityPurchaseOrder, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, apptrade.ActivityCreated, entries[0].Action)
	assert.Equal(t, apptrade.ActivityOverReceived, entries[1].Action)
	assert.Equal(t, "12", entries[1].Details["received_quantity"])

	none, err := repo.ListForEntity(ctx, uuid.New(), apptrade.ActivityEntityPurchaseOrder, orderID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
