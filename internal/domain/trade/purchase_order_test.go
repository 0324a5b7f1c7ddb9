package trade

import (
	"errors"
	"fmt"
	"testing"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers for PurchaseOrder
func testActor() shared.Actor {
	return shared.NewActor(uuid.New(), uuid.New(), "Test User", shared.RoleAdmin)
}

func createTestPurchaseOrder(t *testing.T, actor shared.Actor) *PurchaseOrder {
	vendorID := uuid.New()
	order, err := NewPurchaseOrder(actor, "PO-2026-00001", PurchaseOrderHeader{VendorID: &vendorID})
	require.NoError(t, err)
	return order
}

func addTestPurchaseOrderItem(t *testing.T, order *PurchaseOrder, name string, quantity, price int64) *PurchaseOrderItem {
	item, err := order.AddItem(PurchaseOrderItemInput{
		ItemName:        name,
		SKU:             "SKU-" + name,
		OrderedQuantity: decimal.NewFromInt(quantity),
		UnitPrice:       decimal.NewFromInt(price),
	})
	require.NoError(t, err)
	return item
}

// orderInStatus builds an order with one item and forces it into status
func orderInStatus(t *testing.T, actor shared.Actor, status PurchaseOrderStatus) *PurchaseOrder {
	order := createTestPurchaseOrder(t, actor)
	addTestPurchaseOrderItem(t, order, "Widget", 10, 2)
	order.Status = status
	return order
}

var allowedEdges = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:           {PurchaseOrderStatusSubmitted, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusSubmitted:       {PurchaseOrderStatusPendingApproval, PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled, PurchaseOrderStatusDraft},
	PurchaseOrderStatusPendingApproval: {PurchaseOrderStatusConfirmed, PurchaseOrderStatusDraft, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusConfirmed:       {PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartial:         {PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusCancelled:       {PurchaseOrderStatusDraft},
}

func isAllowed(from, to PurchaseOrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range allowedEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

func TestPurchaseOrderStatus_IsValid(t *testing.T) {
	for _, s := range AllPurchaseOrderStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, PurchaseOrderStatus("DRAFT").IsValid())
	assert.False(t, PurchaseOrderStatus("").IsValid())
}

func TestPendingReceiptStatuses(t *testing.T) {
	assert.Equal(t, []PurchaseOrderStatus{
		PurchaseOrderStatusSubmitted,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusPartial,
	}, PendingReceiptStatuses())
	assert.False(t, PurchaseOrderStatusPendingApproval.IsPendingReceipt())
	assert.False(t, PurchaseOrderStatusReceived.IsPendingReceipt())
}

func TestPurchaseOrder_TransitionTableIsExhaustive(t *testing.T) {
	for _, from := range AllPurchaseOrderStatuses() {
		for _, to := range AllPurchaseOrderStatuses() {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				order := orderInStatus(t, testActor(), from)
				_, err := order.TransitionTo(to, testActor())
				if isAllowed(from, to) {
					require.NoError(t, err)
					assert.Equal(t, to, order.Status)
				} else {
					require.Error(t, err)
					assert.True(t, errors.Is(err, shared.ErrInvalidState))
					assert.Contains(t, err.Error(), string(from))
					assert.Contains(t, err.Error(), string(to))
					assert.Equal(t, from, order.Status)
				}
			})
		}
	}
}

func TestPurchaseOrder_ReceivedIsTerminal(t *testing.T) {
	for _, to := range AllPurchaseOrderStatuses() {
		assert.Equal(t, to == PurchaseOrderStatusReceived, PurchaseOrderStatusReceived.CanTransitionTo(to), to)
	}
}

func TestPurchaseOrder_TransitionTo_SameStateIsNoop(t *testing.T) {
	actor := testActor()
	order := orderInStatus(t, actor, PurchaseOrderStatusConfirmed)

	changed, err := order.TransitionTo(PurchaseOrderStatusConfirmed, actor)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, order.ApprovedAt)
}

func TestPurchaseOrder_SubmitPreconditions(t *testing.T) {
	actor := testActor()

	t.Run("requires vendor", func(t *testing.T) {
		order, err := NewPurchaseOrder(actor, "PO-1", PurchaseOrderHeader{})
		require.NoError(t, err)
		addTestPurchaseOrderItem(t, order, "Widget", 1, 1)

		_, err = order.TransitionTo(PurchaseOrderStatusSubmitted, actor)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Contains(t, err.Error(), "vendor")
	})

	t.Run("requires items", func(t *testing.T) {
		order := createTestPurchaseOrder(t, actor)

		_, err := order.TransitionTo(PurchaseOrderStatusPendingApproval, actor)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, PurchaseOrderStatusDraft, order.Status)
	})
}

func TestPurchaseOrder_Milestones(t *testing.T) {
	submitter := testActor()
	approver := shared.NewActor(submitter.TenantID, uuid.New(), "Approver", shared.RoleOwner)

	order := createTestPurchaseOrder(t, submitter)
	addTestPurchaseOrderItem(t, order, "Widget", 10, 3)

	_, err := order.TransitionTo(PurchaseOrderStatusSubmitted, submitter)
	require.NoError(t, err)
	require.NotNil(t, order.SubmittedBy)
	assert.Equal(t, submitter.UserID, *order.SubmittedBy)
	firstSubmittedAt := *order.SubmittedAt

	// Send back and resubmit by someone else: submitter is recorded once
	_, err = order.TransitionTo(PurchaseOrderStatusDraft, approver)
	require.NoError(t, err)
	_, err = order.TransitionTo(PurchaseOrderStatusSubmitted, approver)
	require.NoError(t, err)
	assert.Equal(t, submitter.UserID, *order.SubmittedBy)
	assert.Equal(t, firstSubmittedAt, *order.SubmittedAt)

	_, err = order.TransitionTo(PurchaseOrderStatusConfirmed, approver)
	require.NoError(t, err)
	require.NotNil(t, order.ApprovedBy)
	assert.Equal(t, approver.UserID, *order.ApprovedBy)
	assert.NotNil(t, order.ApprovedAt)

	_, err = order.TransitionTo(PurchaseOrderStatusReceived, approver)
	require.NoError(t, err)
	assert.NotNil(t, order.ReceivedDate)
}

func TestPurchaseOrder_CancelAndRevive(t *testing.T) {
	actor := testActor()
	order := orderInStatus(t, actor, PurchaseOrderStatusConfirmed)

	_, err := order.TransitionTo(PurchaseOrderStatusCancelled, actor)
	require.NoError(t, err)
	assert.NotNil(t, order.CancelledAt)

	_, err = order.TransitionTo(PurchaseOrderStatusDraft, actor)
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderStatusDraft, order.Status)
}

func TestPurchaseOrder_StatusChangeRaisesEvent(t *testing.T) {
	actor := testActor()
	order := createTestPurchaseOrder(t, actor)
	addTestPurchaseOrderItem(t, order, "Widget", 1, 1)
	order.ClearDomainEvents()

	_, err := order.TransitionTo(PurchaseOrderStatusPendingApproval, actor)
	require.NoError(t, err)

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(*PurchaseOrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, PurchaseOrderStatusDraft, evt.FromStatus)
	assert.Equal(t, PurchaseOrderStatusPendingApproval, evt.ToStatus)
}

func TestPurchaseOrder_ItemsAndTotals(t *testing.T) {
	actor := testActor()
	order := createTestPurchaseOrder(t, actor)

	a := addTestPurchaseOrderItem(t, order, "A", 10, 2)
	addTestPurchaseOrderItem(t, order, "B", 5, 4)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(40)))
	assert.True(t, order.TotalAmount.Equal(order.Subtotal))

	_, err := order.UpdateItem(a.ID, PurchaseOrderItemInput{
		ItemName:        "A",
		OrderedQuantity: decimal.NewFromInt(1),
		UnitPrice:       decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(22)))

	require.NoError(t, order.RemoveItem(a.ID))
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.Len(t, order.Items, 1)

	err = order.RemoveItem(uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPurchaseOrder_ItemValidation(t *testing.T) {
	order := createTestPurchaseOrder(t, testActor())

	_, err := order.AddItem(PurchaseOrderItemInput{ItemName: "X", OrderedQuantity: decimal.Zero})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = order.AddItem(PurchaseOrderItemInput{ItemName: " ", OrderedQuantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = order.AddItem(PurchaseOrderItemInput{ItemName: "X", OrderedQuantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = order.AddItem(PurchaseOrderItemInput{ItemName: "X", OrderedQuantity: decimal.RequireFromString("0.00001")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput, "would be stored as zero")

	_, err = order.AddItem(PurchaseOrderItemInput{ItemName: "X", OrderedQuantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("9.99999")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	item, err := order.AddItem(PurchaseOrderItemInput{ItemName: "X", OrderedQuantity: decimal.RequireFromString("2.50000"), UnitPrice: decimal.RequireFromString("1.1234")})
	require.NoError(t, err, "trailing zeros fit the stored scale")
	assert.True(t, decimal.RequireFromString("2.5").Equal(item.OrderedQuantity))
}

func TestPurchaseOrder_EditsRequireDraft(t *testing.T) {
	actor := testActor()
	order := orderInStatus(t, actor, PurchaseOrderStatusSubmitted)

	_, err := order.AddItem(PurchaseOrderItemInput{ItemName: "X", OrderedQuantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.ErrorIs(t, order.RemoveItem(order.Items[0].ID), shared.ErrInvalidState)
	assert.ErrorIs(t, order.UpdateHeader(PurchaseOrderHeader{Notes: "late"}), shared.ErrInvalidState)
	assert.ErrorIs(t, order.EnsureDeletable(), shared.ErrInvalidState)
}

func TestPurchaseOrder_UpdateHeaderKeepsDisplayID(t *testing.T) {
	order := createTestPurchaseOrder(t, testActor())
	require.NoError(t, order.UpdateHeader(PurchaseOrderHeader{OrderNumber: "VEND-77", Currency: "eur"}))
	assert.Equal(t, "PO-2026-00001", order.DisplayID)
	assert.Equal(t, "VEND-77", order.OrderNumber)
	assert.Equal(t, "EUR", order.Currency)
}

func TestPurchaseOrder_ApplyReceiptProgress(t *testing.T) {
	actor := testActor()
	order := createTestPurchaseOrder(t, actor)
	addTestPurchaseOrderItem(t, order, "First", 10, 1)
	addTestPurchaseOrderItem(t, order, "Second", 5, 1)
	order.Status = PurchaseOrderStatusConfirmed

	order.Items[0].ReceivedQuantity = decimal.NewFromInt(6)
	order.Items[1].ReceivedQuantity = decimal.NewFromInt(5)
	state, err := order.ApplyReceiptProgress(actor)
	require.NoError(t, err)
	assert.Equal(t, OrderStatePartial, state)
	assert.Equal(t, PurchaseOrderStatusPartial, order.Status)

	order.Items[0].ReceivedQuantity = decimal.NewFromInt(10)
	state, err = order.ApplyReceiptProgress(actor)
	require.NoError(t, err)
	assert.Equal(t, OrderStateReceived, state)
	assert.Equal(t, PurchaseOrderStatusReceived, order.Status)
	assert.NotNil(t, order.ReceivedDate)
}
