package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft           PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSubmitted       PurchaseOrderStatus = "submitted"
	PurchaseOrderStatusPendingApproval PurchaseOrderStatus = "pending_approval"
	PurchaseOrderStatusConfirmed       PurchaseOrderStatus = "confirmed"
	PurchaseOrderStatusPartial         PurchaseOrderStatus = "partial"
	PurchaseOrderStatusReceived        PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled       PurchaseOrderStatus = "cancelled"
)

// purchaseOrderTransitions lists every allowed edge besides the same-state no-op
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:           {PurchaseOrderStatusSubmitted, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusSubmitted:       {PurchaseOrderStatusPendingApproval, PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled, PurchaseOrderStatusDraft},
	PurchaseOrderStatusPendingApproval: {PurchaseOrderStatusConfirmed, PurchaseOrderStatusDraft, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusConfirmed:       {PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartial:         {PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusReceived:        {},
	PurchaseOrderStatusCancelled:       {PurchaseOrderStatusDraft},
}

// AllPurchaseOrderStatuses returns every status in lifecycle order
func AllPurchaseOrderStatuses() []PurchaseOrderStatus {
	return []PurchaseOrderStatus{
		PurchaseOrderStatusDraft,
		PurchaseOrderStatusSubmitted,
		PurchaseOrderStatusPendingApproval,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusPartial,
		PurchaseOrderStatusReceived,
		PurchaseOrderStatusCancelled,
	}
}

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	_, ok := purchaseOrderTransitions[s]
	return ok
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	for _, allowed := range purchaseOrderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanReceive returns true if receives may be created or completed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusConfirmed || s == PurchaseOrderStatusPartial
}

// IsPendingReceipt returns true for orders a receiving clerk should see
func (s PurchaseOrderStatus) IsPendingReceipt() bool {
	return s == PurchaseOrderStatusSubmitted || s.CanReceive()
}

// PendingReceiptStatuses lists the statuses for which IsPendingReceipt holds
func PendingReceiptStatuses() []PurchaseOrderStatus {
	var out []PurchaseOrderStatus
	for _, s := range AllPurchaseOrderStatuses() {
		if s.IsPendingReceipt() {
			out = append(out, s)
		}
	}
	return out
}

// Address is a postal address snapshot taken when the order is written
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"address1,omitempty"`
	Line2      string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// PurchaseOrderItem represents a line item in a purchase order.
// ReceivedQuantity is only ever advanced by receive completion.
type PurchaseOrderItem struct {
	ID               uuid.UUID
	PurchaseOrderID  uuid.UUID
	ItemID           *uuid.UUID
	ItemName         string
	SKU              string
	PartNumber       string
	OrderedQuantity  decimal.Decimal
	ReceivedQuantity decimal.Decimal
	UnitPrice        decimal.Decimal
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PurchaseOrderItemInput carries the editable fields of a line
type PurchaseOrderItemInput struct {
	ItemID          *uuid.UUID
	ItemName        string
	SKU             string
	PartNumber      string
	OrderedQuantity decimal.Decimal
	UnitPrice       decimal.Decimal
	Notes           string
}

func (in PurchaseOrderItemInput) validate() error {
	if strings.TrimSpace(in.ItemName) == "" {
		return shared.NewValidationError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if !in.OrderedQuantity.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	if !FitsQuantityScale(in.OrderedQuantity) {
		return shared.NewValidationError("INVALID_QUANTITY",
			fmt.Sprintf("Ordered quantity allows at most %d decimal places", QuantityScale))
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !FitsQuantityScale(in.UnitPrice) {
		return shared.NewValidationError("INVALID_PRICE",
			fmt.Sprintf("Unit price allows at most %d decimal places", QuantityScale))
	}
	return nil
}

// NewPurchaseOrderItem creates a new purchase order line
func NewPurchaseOrderItem(orderID uuid.UUID, in PurchaseOrderItemInput) (*PurchaseOrderItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &PurchaseOrderItem{
		ID:               uuid.New(),
		PurchaseOrderID:  orderID,
		ItemID:           in.ItemID,
		ItemName:         strings.TrimSpace(in.ItemName),
		SKU:              in.SKU,
		PartNumber:       in.PartNumber,
		OrderedQuantity:  in.OrderedQuantity,
		ReceivedQuantity: decimal.Zero,
		UnitPrice:        in.UnitPrice,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// LineTotal returns ordered quantity times unit price
func (i *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.OrderedQuantity.Mul(i.UnitPrice)
}

// RemainingQuantity returns the quantity still to be received
func (i *PurchaseOrderItem) RemainingQuantity() decimal.Decimal {
	return Remaining(i.OrderedQuantity, i.ReceivedQuantity)
}

// State returns the line's fulfillment state
func (i *PurchaseOrderItem) State() LineState {
	return LineStateOf(i.OrderedQuantity, i.ReceivedQuantity)
}

// PurchaseOrderHeader carries the editable header of an order
type PurchaseOrderHeader struct {
	VendorID     *uuid.UUID
	OrderNumber  string
	OrderDate    *time.Time
	ExpectedDate *time.Time
	Currency     string
	Notes        string
	ShipTo       Address
	BillTo       Address
}

// PurchaseOrder represents a purchase order aggregate root.
// Status only changes through TransitionTo and ApplyReceiptProgress.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	DisplayID    string
	OrderNumber  string
	VendorID     *uuid.UUID
	Status       PurchaseOrderStatus
	OrderDate    time.Time
	ExpectedDate *time.Time
	ReceivedDate *time.Time
	Currency     string
	Notes        string
	ShipTo       Address
	BillTo       Address
	Subtotal     decimal.Decimal
	TotalAmount  decimal.Decimal
	Items        []PurchaseOrderItem
	SubmittedBy  *uuid.UUID
	SubmittedAt  *time.Time
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	CancelledBy  *uuid.UUID
	CancelledAt  *time.Time
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(actor shared.Actor, displayID string, header PurchaseOrderHeader) (*PurchaseOrder, error) {
	if displayID == "" {
		return nil, shared.NewValidationError("INVALID_DISPLAY_ID", "Display ID cannot be empty")
	}
	if len(header.OrderNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(actor),
		DisplayID:           displayID,
		Status:              PurchaseOrderStatusDraft,
		Items:               make([]PurchaseOrderItem, 0),
		Subtotal:            decimal.Zero,
		TotalAmount:         decimal.Zero,
	}
	order.applyHeader(header)
	if header.OrderDate == nil {
		order.OrderDate = order.CreatedAt.Truncate(24 * time.Hour)
	}
	if order.Currency == "" {
		order.Currency = "USD"
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

func (o *PurchaseOrder) applyHeader(h PurchaseOrderHeader) {
	o.VendorID = h.VendorID
	o.OrderNumber = h.OrderNumber
	if h.OrderDate != nil {
		o.OrderDate = *h.OrderDate
	}
	o.ExpectedDate = h.ExpectedDate
	if h.Currency != "" {
		o.Currency = strings.ToUpper(h.Currency)
	}
	o.Notes = h.Notes
	o.ShipTo = h.ShipTo
	o.BillTo = h.BillTo
}

func (o *PurchaseOrder) ensureDraft(action string) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewStateError("ORDER_NOT_DRAFT",
			fmt.Sprintf("Cannot %s a purchase order in %s status", action, o.Status))
	}
	return nil
}

// UpdateHeader replaces the editable header. Draft only; the display ID never changes.
func (o *PurchaseOrder) UpdateHeader(header PurchaseOrderHeader) error {
	if err := o.ensureDraft("edit"); err != nil {
		return err
	}
	if len(header.OrderNumber) > 50 {
		return shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	o.applyHeader(header)
	o.Touch()
	return nil
}

// AddItem adds a new line. Draft only.
func (o *PurchaseOrder) AddItem(in PurchaseOrderItemInput) (*PurchaseOrderItem, error) {
	if err := o.ensureDraft("add items to"); err != nil {
		return nil, err
	}
	item, err := NewPurchaseOrderItem(o.ID, in)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.Touch()
	return item, nil
}

// UpdateItem replaces the editable fields of a line. Draft only.
func (o *PurchaseOrder) UpdateItem(itemID uuid.UUID, in PurchaseOrderItemInput) (*PurchaseOrderItem, error) {
	if err := o.ensureDraft("update items of"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := o.FindItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError("purchase order item", itemID)
	}
	item.ItemID = in.ItemID
	item.ItemName = strings.TrimSpace(in.ItemName)
	item.SKU = in.SKU
	item.PartNumber = in.PartNumber
	item.OrderedQuantity = in.OrderedQuantity
	item.UnitPrice = in.UnitPrice
	item.Notes = in.Notes
	item.UpdatedAt = time.Now()
	o.recalculateTotals()
	o.Touch()
	return item, nil
}

// RemoveItem removes a line. Draft only.
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if err := o.ensureDraft("remove items from"); err != nil {
		return err
	}
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			o.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("purchase order item", itemID)
}

// FindItem returns the line with the given id or nil
func (o *PurchaseOrder) FindItem(itemID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// EnsureDeletable rejects deletion outside draft
func (o *PurchaseOrder) EnsureDeletable() error {
	return o.ensureDraft("delete")
}

// EnsureReceivable rejects receiving against an order that is not confirmed or partial
func (o *PurchaseOrder) EnsureReceivable() error {
	if !o.Status.CanReceive() {
		return shared.NewStateError("ORDER_NOT_RECEIVABLE",
			fmt.Sprintf("Cannot receive against purchase order %s in %s status", o.DisplayID, o.Status))
	}
	return nil
}

// TransitionTo moves the order to target on behalf of actor.
// A same-state request is a no-op and reports changed=false.
func (o *PurchaseOrder) TransitionTo(target PurchaseOrderStatus, actor shared.Actor) (bool, error) {
	if !target.IsValid() {
		return false, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown purchase order status %q", target))
	}
	if o.Status == target {
		return false, nil
	}
	if !o.Status.CanTransitionTo(target) {
		return false, shared.NewStateError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot change purchase order status from %s to %s", o.Status, target))
	}
	if target == PurchaseOrderStatusSubmitted || target == PurchaseOrderStatusPendingApproval {
		if o.VendorID == nil {
			return false, shared.NewStateError("VENDOR_REQUIRED", "A vendor must be assigned before submitting")
		}
		if len(o.Items) == 0 {
			return false, shared.NewStateError("ITEMS_REQUIRED", "At least one line item is required before submitting")
		}
	}

	from := o.Status
	now := time.Now()
	userID := actor.UserID

	switch target {
	case PurchaseOrderStatusSubmitted:
		if o.SubmittedAt == nil {
			o.SubmittedBy = &userID
			o.SubmittedAt = &now
		}
	case PurchaseOrderStatusConfirmed:
		if from == PurchaseOrderStatusSubmitted || from == PurchaseOrderStatusPendingApproval {
			o.ApprovedBy = &userID
			o.ApprovedAt = &now
		}
	case PurchaseOrderStatusReceived:
		o.ReceivedDate = &now
	case PurchaseOrderStatusCancelled:
		o.CancelledBy = &userID
		o.CancelledAt = &now
	}

	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from, target, actor.UserID))
	return true, nil
}

// ReceiptLines returns the ledger view of every line
func (o *PurchaseOrder) ReceiptLines() []LineQuantities {
	lines := make([]LineQuantities, len(o.Items))
	for i, item := range o.Items {
		lines[i] = LineQuantities{Ordered: item.OrderedQuantity, Received: item.ReceivedQuantity}
	}
	return lines
}

// ApplyReceiptProgress derives the status from the cumulative received
// quantities of all lines and transitions to it.
func (o *PurchaseOrder) ApplyReceiptProgress(actor shared.Actor) (OrderState, error) {
	state := OrderStateOf(o.ReceiptLines())
	var target PurchaseOrderStatus
	switch state {
	case OrderStateReceived:
		target = PurchaseOrderStatusReceived
	case OrderStatePartial:
		target = PurchaseOrderStatusPartial
	default:
		return state, nil
	}
	if _, err := o.TransitionTo(target, actor); err != nil {
		return state, err
	}
	return state, nil
}

func (o *PurchaseOrder) recalculateTotals() {
	subtotal := decimal.Zero
	for idx := range o.Items {
		subtotal = subtotal.Add(o.Items[idx].LineTotal())
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal
}
