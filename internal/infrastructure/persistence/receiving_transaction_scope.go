package persistence

import (
	"context"

	apptrade "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/trade"
	"gorm.io/gorm"
)

// ReceivingTransactionScope implements apptrade.TransactionScope with one GORM
// transaction shared by every repository handed to the unit of work.
type ReceivingTransactionScope struct {
	db *gorm.DB
}

// NewReceivingTransactionScope creates a new ReceivingTransactionScope
func NewReceivingTransactionScope(db *gorm.DB) *ReceivingTransactionScope {
	return &ReceivingTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error (or panics) the transaction is rolled back.
func (s *ReceivingTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx})
	})
}

type txRepositories struct {
	tx *gorm.DB
}

func (r *txRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *txRepositories) Receives() trade.ReceiveRepository {
	return NewGormReceiveRepository(r.tx)
}

func (r *txRepositories) Lots() inventory.LotRepository {
	return NewGormLotRepository(r.tx)
}

func (r *txRepositories) Serials() inventory.SerialRepository {
	return NewGormSerialRepository(r.tx)
}

func (r *txRepositories) Stock() inventory.StockRepository {
	return NewGormStockRepository(r.tx)
}

var (
	_ apptrade.TransactionScope          = (*ReceivingTransactionScope)(nil)
	_ apptrade.TransactionalRepositories = (*txRepositories)(nil)
)
