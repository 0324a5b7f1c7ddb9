//go:build integration

package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apptrade "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/migration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a PostgreSQL container and applies the SQL migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("receiving_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrator, err := migration.New(sqlDB, filepath.Join("..", "..", "..", "migrations"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	return db
}

func newPostgresHarness(t *testing.T) *completionHarness {
	db := newPostgresDB(t)
	s := seedDirectory(t, db)
	return &completionHarness{
		db:       db,
		seed:     s,
		orders:   NewGormPurchaseOrderRepository(db),
		receives: NewGormReceiveRepository(db),
		stock:    NewGormStockRepository(db),
		engine: apptrade.NewReceiveCompletionEngine(
			NewReceivingTransactionScope(db), NewGormDirectory(db), shared.RolePermissions{}),
	}
}

func TestIntegration_ConcurrentReceivesConserveQuantities(t *testing.T) {
	h := newPostgresHarness(t)
	order := createConfirmedOrder(t, h.db, h.seed, plainLine(h.seed, 10))
	lineID := order.Items[0].ID

	const receivers = 4
	receives := make([]*trade.Receive, receivers)
	for i := range receives {
		receives[i] = h.openReceive(t, order.ID)
		qty := decimal.NewFromInt(3)
		_, err := receives[i].UpdateItem(receives[i].Items[0].ID, trade.ReceiveItemPatch{QuantityReceived: &qty})
		require.NoError(t, err)
		h.save(t, receives[i])
	}

	var wg sync.WaitGroup
	errs := make([]error, receivers)
	for i := range receives {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.engine.Complete(context.Background(), h.seed.actor, receives[i].ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "receive %d", i)
	}

	got := receivedQuantities(t, h.db, order.ID)
	assert.True(t, decimal.NewFromInt(12).Equal(got[lineID]), "got %s", got[lineID])
	assert.True(t, decimal.NewFromInt(12).Equal(h.onHand(t, h.seed.plainItemID)))
	assert.Equal(t, trade.PurchaseOrderStatusReceived, h.orderStatus(t, order.ID))
}

func TestIntegration_ConcurrentCompletionOfOneReceive(t *testing.T) {
	h := newPostgresHarness(t)
	order := createConfirmedOrder(t, h.db, h.seed, plainLine(h.seed, 5))
	receive := h.openReceive(t, order.ID)

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Complete(context.Background(), h.seed.actor, receive.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range failures {
		assert.True(t, errors.Is(err, shared.ErrInvalidState) || errors.Is(err, shared.ErrConcurrencyConflict), "unexpected error: %v", err)
	}

	got := receivedQuantities(t, h.db, order.ID)
	assert.True(t, decimal.NewFromInt(5).Equal(got[order.Items[0].ID]))
	assert.True(t, decimal.NewFromInt(5).Equal(h.onHand(t, h.seed.plainItemID)))
}

func TestIntegration_DuplicateDisplayIDIsConflict(t *testing.T) {
	db := newPostgresDB(t)
	s := seedDirectory(t, db)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	first, err := trade.NewPurchaseOrder(s.actor, "PO-2026-00001", trade.PurchaseOrderHeader{})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := trade.NewPurchaseOrder(s.actor, "PO-2026-00001", trade.PurchaseOrderHeader{})
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	other := shared.NewActor(uuid.New(), s.actor.UserID, s.actor.DisplayName, s.actor.Role)
	third, err := trade.NewPurchaseOrder(other, "PO-2026-00001", trade.PurchaseOrderHeader{})
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, third), "display ids are unique per tenant only")
}
