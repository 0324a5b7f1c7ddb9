package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type poServiceFixture struct {
	orders     *MockPurchaseOrderRepository
	receives   *MockReceiveRepository
	displayIDs *MockDisplayIDGenerator
	publisher  *MockEventPublisher
	service    *PurchaseOrderService
}

func newPOServiceFixture() *poServiceFixture {
	f := &poServiceFixture{
		orders:     new(MockPurchaseOrderRepository),
		receives:   new(MockReceiveRepository),
		displayIDs: new(MockDisplayIDGenerator),
		publisher:  new(MockEventPublisher),
	}
	f.service = NewPurchaseOrderService(f.orders, f.receives, f.displayIDs, shared.RolePermissions{})
	f.service.SetEventPublisher(f.publisher)
	return f
}

func publishedEvents(t *testing.T, publisher *MockEventPublisher) []shared.DomainEvent {
	t.Helper()
	var out []shared.DomainEvent
	for _, call := range publisher.Calls {
		if call.Method == "Publish" {
			out = append(out, call.Arguments.Get(1).([]shared.DomainEvent)...)
		}
	}
	return out
}

func TestPurchaseOrderService_Create(t *testing.T) {
	t.Run("creates draft order with items", func(t *testing.T) {
		f := newPOServiceFixture()
		ctx := context.Background()
		vendor := testVendorID

		f.displayIDs.On("NextDisplayID", mock.Anything, testTenantID, trade.EntityTypePurchaseOrder).Return("PO-2026-00007", nil)
		f.orders.On("Create", mock.Anything, mock.AnythingOfType("*trade.PurchaseOrder")).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.Create(ctx, memberActor(), CreatePurchaseOrderRequest{
			PurchaseOrderHeaderRequest: PurchaseOrderHeaderRequest{VendorID: &vendor, Currency: "eur"},
			Items: []PurchaseOrderItemRequest{
				{ItemName: "Bolt", OrderedQuantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromFloat(1.5)},
				{ItemName: "Nut", OrderedQuantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(2)},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "PO-2026-00007", result.DisplayID)
		assert.Equal(t, trade.PurchaseOrderStatusDraft, result.Status)
		assert.Equal(t, "EUR", result.Currency)
		assert.Len(t, result.Items, 2)
		assert.True(t, decimal.NewFromInt(23).Equal(result.TotalAmount))
		f.orders.AssertExpectations(t)

		events := publishedEvents(t, f.publisher)
		require.Len(t, events, 1)
		assert.Equal(t, trade.EventTypePurchaseOrderCreated, events[0].EventType())
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		f := newPOServiceFixture()

		_, err := f.service.Create(context.Background(), viewerActor(), CreatePurchaseOrderRequest{})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.displayIDs.AssertNotCalled(t, "NextDisplayID", mock.Anything, mock.Anything, mock.Anything)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown vendor is not found", func(t *testing.T) {
		f := newPOServiceFixture()
		vendors := new(MockVendorDirectory)
		f.service.SetVendorDirectory(vendors)
		vendor := uuid.New()
		vendors.On("VendorExists", mock.Anything, testTenantID, vendor).Return(false, nil)

		_, err := f.service.Create(context.Background(), memberActor(), CreatePurchaseOrderRequest{
			PurchaseOrderHeaderRequest: PurchaseOrderHeaderRequest{VendorID: &vendor},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown catalog item is not found", func(t *testing.T) {
		f := newPOServiceFixture()
		catalog := new(MockCatalog)
		f.service.SetCatalog(catalog)
		itemID := uuid.New()
		catalog.On("ItemExists", mock.Anything, testTenantID, itemID).Return(false, nil)

		_, err := f.service.Create(context.Background(), memberActor(), CreatePurchaseOrderRequest{
			Items: []PurchaseOrderItemRequest{{ItemID: &itemID, ItemName: "Ghost", OrderedQuantity: decimal.NewFromInt(1)}},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("invalid item rejects whole order", func(t *testing.T) {
		f := newPOServiceFixture()
		f.displayIDs.On("NextDisplayID", mock.Anything, testTenantID, trade.EntityTypePurchaseOrder).Return("PO-2026-00008", nil)

		_, err := f.service.Create(context.Background(), memberActor(), CreatePurchaseOrderRequest{
			Items: []PurchaseOrderItemRequest{{ItemName: "Bolt", OrderedQuantity: decimal.Zero}},
		})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_GetByID(t *testing.T) {
	t.Run("returns order with its receives", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusPartial, 10)
		receive := trade.Receive{DisplayID: "RCV-2026-00001", PurchaseOrderID: order.ID, Status: trade.ReceiveStatusCompleted}

		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		f.receives.On("FindAllForTenant", mock.Anything, testTenantID, mock.MatchedBy(func(filter trade.ReceiveFilter) bool {
			return filter.PurchaseOrderID != nil && *filter.PurchaseOrderID == order.ID
		})).Return([]trade.Receive{receive}, int64(1), nil)

		result, err := f.service.GetByID(context.Background(), memberActor(), order.ID)

		require.NoError(t, err)
		assert.Equal(t, order.DisplayID, result.DisplayID)
		require.Len(t, result.Receives, 1)
		assert.Equal(t, "RCV-2026-00001", result.Receives[0].DisplayID)
		assert.Equal(t, trade.LineStateNone, result.Items[0].LineState)
		assert.True(t, decimal.NewFromInt(10).Equal(result.Items[0].RemainingQuantity))
	})

	t.Run("order of another tenant is not found", func(t *testing.T) {
		f := newPOServiceFixture()
		id := uuid.New()
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, id).Return(nil, shared.NewNotFoundError("purchase order", id))

		_, err := f.service.GetByID(context.Background(), memberActor(), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.receives.AssertNotCalled(t, "FindAllForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("actor without tenant is rejected", func(t *testing.T) {
		f := newPOServiceFixture()

		_, err := f.service.GetByID(context.Background(), shared.Actor{UserID: testUserID}, uuid.New())

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestPurchaseOrderService_ListPendingReceipt(t *testing.T) {
	f := newPOServiceFixture()
	f.orders.On("FindAllForTenant", mock.Anything, testTenantID, mock.MatchedBy(func(filter trade.PurchaseOrderFilter) bool {
		return assert.ObjectsAreEqual([]trade.PurchaseOrderStatus{
			trade.PurchaseOrderStatusSubmitted,
			trade.PurchaseOrderStatusConfirmed,
			trade.PurchaseOrderStatusPartial,
		}, filter.Statuses) && filter.Page.Limit == shared.DefaultPageLimit
	})).Return([]trade.PurchaseOrder{*newTestOrder(trade.PurchaseOrderStatusConfirmed, 3)}, int64(1), nil)

	result, total, err := f.service.ListPendingReceipt(context.Background(), memberActor(), ListPurchaseOrdersRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, result, 1)
	f.orders.AssertExpectations(t)
}

func TestPurchaseOrderService_List_InvalidStatus(t *testing.T) {
	f := newPOServiceFixture()

	_, _, err := f.service.List(context.Background(), memberActor(), ListPurchaseOrdersRequest{
		Status: []trade.PurchaseOrderStatus{"shipped"},
	})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPurchaseOrderService_UpdateStatus(t *testing.T) {
	t.Run("approval requires admin", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusSubmitted, 5)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		_, err := f.service.UpdateStatus(context.Background(), memberActor(), order.ID,
			UpdatePurchaseOrderStatusRequest{Status: trade.PurchaseOrderStatusConfirmed})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Equal(t, trade.PurchaseOrderStatusSubmitted, order.Status)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("admin approves and event is published after save", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusPendingApproval, 5)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.UpdateStatus(context.Background(), adminActor(), order.ID,
			UpdatePurchaseOrderStatusRequest{Status: trade.PurchaseOrderStatusConfirmed})

		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusConfirmed, result.Status)
		require.NotNil(t, result.ApprovedBy)
		assert.Equal(t, testUserID, *result.ApprovedBy)

		events := publishedEvents(t, f.publisher)
		require.Len(t, events, 1)
		changed := events[0].(*trade.PurchaseOrderStatusChangedEvent)
		assert.True(t, changed.IsApproval())
		assert.Empty(t, order.GetDomainEvents())
	})

	t.Run("illegal edge is a state error", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusDraft, 5)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		_, err := f.service.UpdateStatus(context.Background(), adminActor(), order.ID,
			UpdatePurchaseOrderStatusRequest{Status: trade.PurchaseOrderStatusReceived})

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Contains(t, err.Error(), "draft")
		assert.Contains(t, err.Error(), "received")
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		f := newPOServiceFixture()

		_, err := f.service.UpdateStatus(context.Background(), adminActor(), uuid.New(),
			UpdatePurchaseOrderStatusRequest{Status: "archived"})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("stale version surfaces conflict", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusDraft, 5)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).
			Return(shared.NewConflictError("CONCURRENT_MODIFICATION", "modified"))

		_, err := f.service.UpdateStatus(context.Background(), memberActor(), order.ID,
			UpdatePurchaseOrderStatusRequest{Status: trade.PurchaseOrderStatusSubmitted})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_Items(t *testing.T) {
	t.Run("add item recomputes totals", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusDraft, 2)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

		result, err := f.service.AddItem(context.Background(), memberActor(), order.ID, PurchaseOrderItemRequest{
			ItemName: "Washer", OrderedQuantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(5),
		})

		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
		assert.True(t, decimal.NewFromInt(35).Equal(result.Subtotal))
	})

	t.Run("confirmed order items are frozen", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusConfirmed, 2)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		_, err := f.service.RemoveItem(context.Background(), memberActor(), order.ID, order.Items[0].ID)

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_Delete(t *testing.T) {
	t.Run("draft order is deleted", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusDraft, 1)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		f.orders.On("DeleteForTenant", mock.Anything, testTenantID, order.ID).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, f.service.Delete(context.Background(), memberActor(), order.ID))

		events := publishedEvents(t, f.publisher)
		require.Len(t, events, 1)
		assert.Equal(t, trade.EventTypePurchaseOrderDeleted, events[0].EventType())
	})

	t.Run("submitted order cannot be deleted", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusSubmitted, 1)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)

		err := f.service.Delete(context.Background(), memberActor(), order.ID)

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		f.orders.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publisher failure does not fail delete", func(t *testing.T) {
		f := newPOServiceFixture()
		order := newTestOrder(trade.PurchaseOrderStatusDraft, 1)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, order.ID).Return(order, nil)
		f.orders.On("DeleteForTenant", mock.Anything, testTenantID, order.ID).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))

		assert.NoError(t, f.service.Delete(context.Background(), memberActor(), order.ID))
	})
}
