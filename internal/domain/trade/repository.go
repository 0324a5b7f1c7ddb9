package trade

import (
	"context"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderFilter narrows a purchase order listing
type PurchaseOrderFilter struct {
	Statuses []PurchaseOrderStatus
	VendorID *uuid.UUID
	Page     shared.Page
}

// ReceiveFilter narrows a receive listing
type ReceiveFilter struct {
	Status          *ReceiveStatus
	PurchaseOrderID *uuid.UUID
	Page            shared.Page
}

// PurchaseOrderRepository defines the interface for purchase order persistence.
// Every lookup is tenant scoped; a row of another tenant is reported as not found.
type PurchaseOrderRepository interface {
	// FindByIDForTenant finds a purchase order with its items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate finds a purchase order with its items and locks the
	// order and item rows until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindAllForTenant lists purchase orders (without items) and the total count
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderFilter) ([]PurchaseOrder, int64, error)

	// Create inserts a new purchase order and its items
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock saves header and items with optimistic locking (version check).
	// Received quantities are never written here.
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// IncrementReceivedQuantity adds delta to an item's received quantity
	// relative to the stored value
	IncrementReceivedQuantity(ctx context.Context, orderID, itemID uuid.UUID, delta decimal.Decimal) error

	// DeleteForTenant deletes a purchase order and its items
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// ReceiveRepository defines the interface for receive persistence
type ReceiveRepository interface {
	// FindByIDForTenant finds a receive with its items and serials
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receive, error)

	// FindByIDForUpdate finds a receive and locks its row until the surrounding
	// transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Receive, error)

	// FindAllForTenant lists receives (without items) and the total count
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ReceiveFilter) ([]Receive, int64, error)

	// Create inserts a new receive with its items
	Create(ctx context.Context, receive *Receive) error

	// Save writes header, items and serials of a draft receive
	// (last write wins, no version check)
	Save(ctx context.Context, receive *Receive) error

	// SaveStatus writes only status and milestone columns, requiring the stored
	// status to still be draft
	SaveStatus(ctx context.Context, receive *Receive) error
}

// VendorDirectory answers questions about the tenant's vendors
type VendorDirectory interface {
	VendorExists(ctx context.Context, tenantID, vendorID uuid.UUID) (bool, error)
}

// Catalog answers questions about catalog items
type Catalog interface {
	ItemExists(ctx context.Context, tenantID, itemID uuid.UUID) (bool, error)
	IsSerialTracked(ctx context.Context, tenantID, itemID uuid.UUID) (bool, error)
}

// LocationRegistry answers questions about stock locations
type LocationRegistry interface {
	LocationExists(ctx context.Context, tenantID, locationID uuid.UUID) (bool, error)
}

// Entity types passed to the display ID generator
const (
	EntityTypePurchaseOrder = "purchase_order"
	EntityTypeReceive       = "receive"
)

// DisplayIDGenerator hands out tenant scoped, never reused display IDs
type DisplayIDGenerator interface {
	NextDisplayID(ctx context.Context, tenantID uuid.UUID, entityType string) (string, error)
}
