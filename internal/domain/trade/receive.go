package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiveStatus represents the status of a receive
type ReceiveStatus string

const (
	ReceiveStatusDraft     ReceiveStatus = "draft"
	ReceiveStatusCompleted ReceiveStatus = "completed"
	ReceiveStatusCancelled ReceiveStatus = "cancelled"
)

// IsValid checks if the status is a valid ReceiveStatus
func (s ReceiveStatus) IsValid() bool {
	switch s {
	case ReceiveStatusDraft, ReceiveStatusCompleted, ReceiveStatusCancelled:
		return true
	}
	return false
}

// ItemCondition is the physical condition of received goods
type ItemCondition string

const (
	ConditionGood     ItemCondition = "good"
	ConditionDamaged  ItemCondition = "damaged"
	ConditionRejected ItemCondition = "rejected"
)

// IsValid checks if the condition is known
func (c ItemCondition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionRejected:
		return true
	}
	return false
}

// Accepted reports whether goods in this condition go into stock
func (c ItemCondition) Accepted() bool {
	return c == ConditionGood
}

// ReceiveItemSerial is one serial number captured on a receive line
type ReceiveItemSerial struct {
	ID            uuid.UUID
	ReceiveItemID uuid.UUID
	SerialNumber  string
	CreatedAt     time.Time
}

// ReceiveItem is one line of a receive, fulfilling a purchase order line
type ReceiveItem struct {
	ID                  uuid.UUID
	ReceiveID           uuid.UUID
	PurchaseOrderItemID uuid.UUID
	ItemID              *uuid.UUID
	ItemName            string
	QuantityReceived    decimal.Decimal
	Condition           ItemCondition
	LotNumber           string
	BatchCode           string
	ExpiryDate          *time.Time
	ManufacturedDate    *time.Time
	LocationID          *uuid.UUID
	Notes               string
	Serials             []ReceiveItemSerial
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasLotData reports whether the line carries lot or batch metadata
func (i *ReceiveItem) HasLotData() bool {
	return i.LotNumber != "" || i.BatchCode != "" || i.ExpiryDate != nil
}

// SerialNumbers returns the captured serial strings in capture order
func (i *ReceiveItem) SerialNumbers() []string {
	out := make([]string, len(i.Serials))
	for idx, s := range i.Serials {
		out[idx] = s.SerialNumber
	}
	return out
}

// ReceiveItemInput carries the fields of a new receive line
type ReceiveItemInput struct {
	PurchaseOrderItemID uuid.UUID
	QuantityReceived    decimal.Decimal
	Condition           ItemCondition
	LotNumber           string
	BatchCode           string
	ExpiryDate          *time.Time
	ManufacturedDate    *time.Time
	LocationID          *uuid.UUID
	Notes               string
}

// ReceiveItemPatch carries a partial update of a receive line; nil leaves a field unchanged.
// The Clear flags reset the optional fields and win over a value given alongside them.
type ReceiveItemPatch struct {
	QuantityReceived      *decimal.Decimal
	Condition             *ItemCondition
	LotNumber             *string
	BatchCode             *string
	ExpiryDate            *time.Time
	ManufacturedDate      *time.Time
	LocationID            *uuid.UUID
	Notes                 *string
	ClearExpiryDate       bool
	ClearManufacturedDate bool
	ClearLocationID       bool
}

// ReceiveHeader carries the delivery metadata of a receive
type ReceiveHeader struct {
	DeliveryNoteNumber string
	Carrier            string
	TrackingNumber     string
	DefaultLocationID  *uuid.UUID
	ReceivedDate       *time.Time
	Notes              string
}

// Receive is one physical delivery against a purchase order.
// Lines and header are editable only while the receive is a draft.
type Receive struct {
	shared.TenantAggregateRoot
	DisplayID       string
	PurchaseOrderID uuid.UUID
	Status          ReceiveStatus
	ReceiveHeader
	Items       []ReceiveItem
	CompletedAt *time.Time
	CompletedBy *uuid.UUID
	CancelledAt *time.Time
	CancelledBy *uuid.UUID
}

// NewReceive opens a draft receive against order, pre-populating one line per
// outstanding order line with its remaining quantity.
func NewReceive(actor shared.Actor, displayID string, order *PurchaseOrder, header ReceiveHeader) (*Receive, error) {
	if order == nil {
		return nil, shared.NewValidationError("INVALID_PURCHASE_ORDER", "Purchase order is required")
	}
	if order.TenantID != actor.TenantID {
		return nil, shared.NewNotFoundError("purchase order", order.ID)
	}
	if err := order.EnsureReceivable(); err != nil {
		return nil, err
	}
	if displayID == "" {
		return nil, shared.NewValidationError("INVALID_DISPLAY_ID", "Display ID cannot be empty")
	}

	r := &Receive{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(actor),
		DisplayID:           displayID,
		PurchaseOrderID:     order.ID,
		Status:              ReceiveStatusDraft,
		ReceiveHeader:       header,
		Items:               make([]ReceiveItem, 0, len(order.Items)),
	}
	if r.ReceivedDate == nil {
		now := r.CreatedAt
		r.ReceivedDate = &now
	}

	for idx := range order.Items {
		poItem := &order.Items[idx]
		remaining := poItem.RemainingQuantity()
		if !remaining.IsPositive() {
			continue
		}
		r.Items = append(r.Items, r.newItem(poItem, ReceiveItemInput{
			PurchaseOrderItemID: poItem.ID,
			QuantityReceived:    remaining,
			Condition:           ConditionGood,
		}))
	}

	r.AddDomainEvent(NewReceiveCreatedEvent(r, len(r.Items)))
	return r, nil
}

func (r *Receive) newItem(poItem *PurchaseOrderItem, in ReceiveItemInput) ReceiveItem {
	now := time.Now()
	cond := in.Condition
	if cond == "" {
		cond = ConditionGood
	}
	return ReceiveItem{
		ID:                  uuid.New(),
		ReceiveID:           r.ID,
		PurchaseOrderItemID: poItem.ID,
		ItemID:              poItem.ItemID,
		ItemName:            poItem.ItemName,
		QuantityReceived:    in.QuantityReceived,
		Condition:           cond,
		LotNumber:           strings.TrimSpace(in.LotNumber),
		BatchCode:           strings.TrimSpace(in.BatchCode),
		ExpiryDate:          in.ExpiryDate,
		ManufacturedDate:    in.ManufacturedDate,
		LocationID:          in.LocationID,
		Notes:               in.Notes,
		Serials:             make([]ReceiveItemSerial, 0),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// EnsureDraft rejects edits once the receive has left draft
func (r *Receive) EnsureDraft() error {
	if r.Status != ReceiveStatusDraft {
		return shared.NewStateError("RECEIVE_NOT_DRAFT",
			fmt.Sprintf("Receive %s is %s and can no longer be changed", r.DisplayID, r.Status))
	}
	return nil
}

// UpdateHeader replaces the delivery metadata
func (r *Receive) UpdateHeader(header ReceiveHeader) error {
	if err := r.EnsureDraft(); err != nil {
		return err
	}
	if header.ReceivedDate == nil {
		header.ReceivedDate = r.ReceivedDate
	}
	r.ReceiveHeader = header
	r.Touch()
	return nil
}

// AddItem adds a line fulfilling one of order's lines
func (r *Receive) AddItem(order *PurchaseOrder, in ReceiveItemInput) (*ReceiveItem, error) {
	if err := r.EnsureDraft(); err != nil {
		return nil, err
	}
	if order == nil || order.ID != r.PurchaseOrderID {
		return nil, shared.NewValidationError("ORDER_MISMATCH", "Purchase order does not match the receive")
	}
	poItem := order.FindItem(in.PurchaseOrderItemID)
	if poItem == nil {
		return nil, shared.NewValidationError("ITEM_NOT_ON_ORDER",
			fmt.Sprintf("Purchase order item %s does not belong to order %s", in.PurchaseOrderItemID, order.DisplayID))
	}
	if err := validateReceiveQuantity(in.QuantityReceived); err != nil {
		return nil, err
	}
	if in.Condition != "" && !in.Condition.IsValid() {
		return nil, invalidCondition(in.Condition)
	}

	item := r.newItem(poItem, in)
	r.Items = append(r.Items, item)
	r.Touch()
	return &r.Items[len(r.Items)-1], nil
}

// UpdateItem applies patch to a line
func (r *Receive) UpdateItem(itemID uuid.UUID, patch ReceiveItemPatch) (*ReceiveItem, error) {
	if err := r.EnsureDraft(); err != nil {
		return nil, err
	}
	item := r.FindItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError("receive item", itemID)
	}
	if patch.QuantityReceived != nil {
		if err := validateReceiveQuantity(*patch.QuantityReceived); err != nil {
			return nil, err
		}
		item.QuantityReceived = *patch.QuantityReceived
	}
	if patch.Condition != nil {
		if !patch.Condition.IsValid() {
			return nil, invalidCondition(*patch.Condition)
		}
		item.Condition = *patch.Condition
	}
	if patch.LotNumber != nil {
		item.LotNumber = strings.TrimSpace(*patch.LotNumber)
	}
	if patch.BatchCode != nil {
		item.BatchCode = strings.TrimSpace(*patch.BatchCode)
	}
	switch {
	case patch.ClearExpiryDate:
		item.ExpiryDate = nil
	case patch.ExpiryDate != nil:
		item.ExpiryDate = patch.ExpiryDate
	}
	switch {
	case patch.ClearManufacturedDate:
		item.ManufacturedDate = nil
	case patch.ManufacturedDate != nil:
		item.ManufacturedDate = patch.ManufacturedDate
	}
	switch {
	case patch.ClearLocationID:
		item.LocationID = nil
	case patch.LocationID != nil:
		item.LocationID = patch.LocationID
	}
	if patch.Notes != nil {
		item.Notes = *patch.Notes
	}
	item.UpdatedAt = time.Now()
	r.Touch()
	return item, nil
}

// RemoveItem removes a line and its captured serials
func (r *Receive) RemoveItem(itemID uuid.UUID) error {
	if err := r.EnsureDraft(); err != nil {
		return err
	}
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			r.Items = append(r.Items[:idx], r.Items[idx+1:]...)
			r.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("receive item", itemID)
}

// FindItem returns the line with the given id or nil
func (r *Receive) FindItem(itemID uuid.UUID) *ReceiveItem {
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			return &r.Items[idx]
		}
	}
	return nil
}

// AddSerials captures serial numbers on a line. Input is trimmed, blanks are
// dropped, and values repeated in the input or already on the line are
// returned as duplicates instead of being added.
func (r *Receive) AddSerials(itemID uuid.UUID, serials []string) ([]ReceiveItemSerial, []string, error) {
	if err := r.EnsureDraft(); err != nil {
		return nil, nil, err
	}
	item := r.FindItem(itemID)
	if item == nil {
		return nil, nil, shared.NewNotFoundError("receive item", itemID)
	}

	accepted, duplicates := NormalizeSerials(serials, item.SerialNumbers())
	if len(accepted) == 0 && len(duplicates) == 0 {
		return nil, nil, shared.NewValidationError("INVALID_SERIAL", "At least one non-empty serial number is required")
	}
	if len(accepted) == 0 {
		return nil, duplicates, shared.NewValidationError("DUPLICATE_SERIAL", "All serial numbers already exist")
	}

	now := time.Now()
	added := make([]ReceiveItemSerial, 0, len(accepted))
	for _, sn := range accepted {
		s := ReceiveItemSerial{ID: uuid.New(), ReceiveItemID: item.ID, SerialNumber: sn, CreatedAt: now}
		item.Serials = append(item.Serials, s)
		added = append(added, s)
	}
	if len(added) > 0 {
		item.UpdatedAt = now
		r.Touch()
	}
	return added, duplicates, nil
}

// RemoveSerial removes one captured serial from a line
func (r *Receive) RemoveSerial(itemID, serialID uuid.UUID) error {
	if err := r.EnsureDraft(); err != nil {
		return err
	}
	item := r.FindItem(itemID)
	if item == nil {
		return shared.NewNotFoundError("receive item", itemID)
	}
	for idx := range item.Serials {
		if item.Serials[idx].ID == serialID {
			item.Serials = append(item.Serials[:idx], item.Serials[idx+1:]...)
			item.UpdatedAt = time.Now()
			r.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("receive item serial", serialID)
}

// ResolveLocation returns the line override or the receive default
func (r *Receive) ResolveLocation(item *ReceiveItem) *uuid.UUID {
	if item.LocationID != nil {
		return item.LocationID
	}
	return r.DefaultLocationID
}

// Cancel abandons a draft receive. Nothing was applied so nothing is undone.
func (r *Receive) Cancel(actor shared.Actor) error {
	if err := r.EnsureDraft(); err != nil {
		return err
	}
	now := time.Now()
	userID := actor.UserID
	r.Status = ReceiveStatusCancelled
	r.CancelledAt = &now
	r.CancelledBy = &userID
	r.Touch()
	r.AddDomainEvent(NewReceiveCancelledEvent(r, userID))
	return nil
}

// MarkCompleted flips a draft receive to completed. Completion happens exactly once.
func (r *Receive) MarkCompleted(actor shared.Actor) error {
	if err := r.EnsureDraft(); err != nil {
		return err
	}
	now := time.Now()
	userID := actor.UserID
	r.Status = ReceiveStatusCompleted
	r.CompletedAt = &now
	r.CompletedBy = &userID
	r.Touch()
	return nil
}

func validateReceiveQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity received must be positive")
	}
	if !FitsQuantityScale(q) {
		return shared.NewValidationError("INVALID_QUANTITY",
			fmt.Sprintf("Quantity received allows at most %d decimal places", QuantityScale))
	}
	return nil
}

func invalidCondition(c ItemCondition) error {
	return shared.NewValidationError("INVALID_CONDITION",
		fmt.Sprintf("Unknown condition %q, expected good, damaged or rejected", c))
}

// NormalizeSerials trims input, drops blanks and splits it into values to add
// and values that repeat either earlier input or existing serials.
func NormalizeSerials(input, existing []string) (accepted, duplicates []string) {
	seen := make(map[string]struct{}, len(existing)+len(input))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	accepted = make([]string, 0, len(input))
	duplicates = make([]string, 0)
	for _, raw := range input {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			duplicates = append(duplicates, s)
			continue
		}
		seen[s] = struct{}{}
		accepted = append(accepted, s)
	}
	return accepted, duplicates
}
