package trade

import (
	"context"

	"github.com/erp/receiving/internal/domain/inventory"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) IncrementReceivedQuantity(ctx context.Context, orderID, itemID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, orderID, itemID, delta)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockReceiveRepository is a mock implementation of ReceiveRepository
type MockReceiveRepository struct {
	mock.Mock
}

func (m *MockReceiveRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Receive, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Receive), args.Error(1)
}

func (m *MockReceiveRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Receive, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Receive), args.Error(1)
}

func (m *MockReceiveRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.ReceiveFilter) ([]trade.Receive, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.Receive), args.Get(1).(int64), args.Error(2)
}

func (m *MockReceiveRepository) Create(ctx context.Context, receive *trade.Receive) error {
	args := m.Called(ctx, receive)
	return args.Error(0)
}

func (m *MockReceiveRepository) Save(ctx context.Context, receive *trade.Receive) error {
	args := m.Called(ctx, receive)
	return args.Error(0)
}

func (m *MockReceiveRepository) SaveStatus(ctx context.Context, receive *trade.Receive) error {
	args := m.Called(ctx, receive)
	return args.Error(0)
}

// MockDisplayIDGenerator is a mock implementation of DisplayIDGenerator
type MockDisplayIDGenerator struct {
	mock.Mock
}

func (m *MockDisplayIDGenerator) NextDisplayID(ctx context.Context, tenantID uuid.UUID, entityType string) (string, error) {
	args := m.Called(ctx, tenantID, entityType)
	return args.String(0), args.Error(1)
}

// MockCatalog is a mock implementation of Catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ItemExists(ctx context.Context, tenantID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalog) IsSerialTracked(ctx context.Context, tenantID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, itemID)
	return args.Bool(0), args.Error(1)
}

// MockVendorDirectory is a mock implementation of VendorDirectory
type MockVendorDirectory struct {
	mock.Mock
}

func (m *MockVendorDirectory) VendorExists(ctx context.Context, tenantID, vendorID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, vendorID)
	return args.Bool(0), args.Error(1)
}

// MockLocationRegistry is a mock implementation of LocationRegistry
type MockLocationRegistry struct {
	mock.Mock
}

func (m *MockLocationRegistry) LocationExists(ctx context.Context, tenantID, locationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, locationID)
	return args.Bool(0), args.Error(1)
}

// MockReceiptIssuer is a mock implementation of inventory.ReceiptIssuer
type MockReceiptIssuer struct {
	mock.Mock
}

func (m *MockReceiptIssuer) CreateLot(ctx context.Context, req inventory.LotRequest) (uuid.UUID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockReceiptIssuer) CreateSerials(ctx context.Context, req inventory.SerialRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockReceiptIssuer) AdjustOnHand(ctx context.Context, tenantID, itemID, locationID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, tenantID, itemID, locationID, delta)
	return args.Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockActivityRecorder is a mock implementation of ActivityRecorder
type MockActivityRecorder struct {
	mock.Mock
}

func (m *MockActivityRecorder) Record(ctx context.Context, entry ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyPendingApproval(ctx context.Context, notice PendingApprovalNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) NotifyApprovalResult(ctx context.Context, notice ApprovalResultNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) NotifyReceiveCompleted(ctx context.Context, notice ReceiveCompletedNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

var (
	testTenantID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testUserID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testVendorID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testLocation = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func memberActor() shared.Actor {
	return shared.NewActor(testTenantID, testUserID, "Clerk", shared.RoleMember)
}

func adminActor() shared.Actor {
	return shared.NewActor(testTenantID, testUserID, "Admin", shared.RoleAdmin)
}

func viewerActor() shared.Actor {
	return shared.NewActor(testTenantID, testUserID, "Viewer", shared.RoleViewer)
}

// newTestOrder builds an order in status with one line per ordered quantity
func newTestOrder(status trade.PurchaseOrderStatus, ordered ...int64) *trade.PurchaseOrder {
	vendor := testVendorID
	order, err := trade.NewPurchaseOrder(memberActor(), "PO-2026-00001", trade.PurchaseOrderHeader{VendorID: &vendor})
	if err != nil {
		panic(err)
	}
	for i, qty := range ordered {
		itemID := uuid.New()
		if _, err := order.AddItem(trade.PurchaseOrderItemInput{
			ItemID:          &itemID,
			ItemName:        "Item " + string(rune('A'+i)),
			OrderedQuantity: decimal.NewFromInt(qty),
			UnitPrice:       decimal.NewFromInt(10),
		}); err != nil {
			panic(err)
		}
	}
	order.Status = status
	order.ClearDomainEvents()
	return order
}
