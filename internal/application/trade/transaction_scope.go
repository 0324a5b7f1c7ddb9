package trade

import (
	"context"

	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/trade"
)

// TransactionScope runs a unit of work against receiving and inventory
// repositories that share one database transaction.
type TransactionScope interface {
	// Execute runs fn inside a transaction. An error from fn rolls back every
	// write made through the repositories it was given.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to the current transaction
type TransactionalRepositories interface {
	PurchaseOrders() trade.PurchaseOrderRepository
	Receives() trade.ReceiveRepository
	Lots() inventory.LotRepository
	Serials() inventory.SerialRepository
	Stock() inventory.StockRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// Used in tests where atomicity is not under examination.
type NoOpTransactionScope struct {
	orders   trade.PurchaseOrderRepository
	receives trade.ReceiveRepository
	lots     inventory.LotRepository
	serials  inventory.SerialRepository
	stock    inventory.StockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	orders trade.PurchaseOrderRepository,
	receives trade.ReceiveRepository,
	lots inventory.LotRepository,
	serials inventory.SerialRepository,
	stock inventory.StockRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orders:   orders,
		receives: receives,
		lots:     lots,
		serials:  serials,
		stock:    stock,
	}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) PurchaseOrders() trade.PurchaseOrderRepository { return s.orders }
func (s *NoOpTransactionScope) Receives() trade.ReceiveRepository             { return s.receives }
func (s *NoOpTransactionScope) Lots() inventory.LotRepository                 { return s.lots }
func (s *NoOpTransactionScope) Serials() inventory.SerialRepository           { return s.serials }
func (s *NoOpTransactionScope) Stock() inventory.StockRepository              { return s.stock }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
