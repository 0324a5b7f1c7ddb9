package trade

import (
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Purchase Order DTOs ====================

// PurchaseOrderHeaderRequest carries the editable header of a purchase order
type PurchaseOrderHeaderRequest struct {
	VendorID     *uuid.UUID    `json:"vendor_id"`
	OrderNumber  string        `json:"order_number" binding:"max=50"`
	OrderDate    *time.Time    `json:"order_date"`
	ExpectedDate *time.Time    `json:"expected_date"`
	Currency     string        `json:"currency" binding:"omitempty,len=3"`
	Notes        string        `json:"notes" binding:"max=2000"`
	ShipTo       trade.Address `json:"ship_to"`
	BillTo       trade.Address `json:"bill_to"`
}

func (r PurchaseOrderHeaderRequest) toDomain() trade.PurchaseOrderHeader {
	return trade.PurchaseOrderHeader{
		VendorID:     r.VendorID,
		OrderNumber:  r.OrderNumber,
		OrderDate:    r.OrderDate,
		ExpectedDate: r.ExpectedDate,
		Currency:     r.Currency,
		Notes:        r.Notes,
		ShipTo:       r.ShipTo,
		BillTo:       r.BillTo,
	}
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	PurchaseOrderHeaderRequest
	Items []PurchaseOrderItemRequest `json:"items" binding:"dive"`
}

// UpdatePurchaseOrderRequest represents a header edit (draft only)
type UpdatePurchaseOrderRequest struct {
	PurchaseOrderHeaderRequest
}

// PurchaseOrderItemRequest represents a line to add or replace
type PurchaseOrderItemRequest struct {
	ItemID          *uuid.UUID      `json:"item_id"`
	ItemName        string          `json:"item_name" binding:"required,min=1,max=200"`
	SKU             string          `json:"sku" binding:"max=100"`
	PartNumber      string          `json:"part_number" binding:"max=100"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

func (r PurchaseOrderItemRequest) toDomain() trade.PurchaseOrderItemInput {
	return trade.PurchaseOrderItemInput{
		ItemID:          r.ItemID,
		ItemName:        r.ItemName,
		SKU:             r.SKU,
		PartNumber:      r.PartNumber,
		OrderedQuantity: r.OrderedQuantity,
		UnitPrice:       r.UnitPrice,
		Notes:           r.Notes,
	}
}

// UpdatePurchaseOrderStatusRequest requests a status transition
type UpdatePurchaseOrderStatusRequest struct {
	Status trade.PurchaseOrderStatus `json:"status" binding:"required"`
}

// ListPurchaseOrdersRequest filters a purchase order listing
type ListPurchaseOrdersRequest struct {
	Status   []trade.PurchaseOrderStatus
	VendorID *uuid.UUID
	Limit    int
	Offset   int
}

// PurchaseOrderItemResponse represents a purchase order line in API responses
type PurchaseOrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	ItemID            *uuid.UUID      `json:"item_id,omitempty"`
	ItemName          string          `json:"item_name"`
	SKU               string          `json:"sku,omitempty"`
	PartNumber        string          `json:"part_number,omitempty"`
	OrderedQuantity   decimal.Decimal `json:"ordered_quantity"`
	ReceivedQuantity  decimal.Decimal `json:"received_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	LineState         trade.LineState `json:"line_state"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	Notes             string          `json:"notes,omitempty"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID           uuid.UUID                   `json:"id"`
	DisplayID    string                      `json:"display_id"`
	OrderNumber  string                      `json:"order_number,omitempty"`
	VendorID     *uuid.UUID                  `json:"vendor_id,omitempty"`
	Status       trade.PurchaseOrderStatus   `json:"status"`
	OrderDate    time.Time                   `json:"order_date"`
	ExpectedDate *time.Time                  `json:"expected_date,omitempty"`
	ReceivedDate *time.Time                  `json:"received_date,omitempty"`
	Currency     string                      `json:"currency"`
	Notes        string                      `json:"notes,omitempty"`
	ShipTo       trade.Address               `json:"ship_to"`
	BillTo       trade.Address               `json:"bill_to"`
	Subtotal     decimal.Decimal             `json:"subtotal"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	Items        []PurchaseOrderItemResponse `json:"items,omitempty"`
	Receives     []ReceiveSummaryResponse    `json:"receives,omitempty"`
	SubmittedBy  *uuid.UUID                  `json:"submitted_by,omitempty"`
	SubmittedAt  *time.Time                  `json:"submitted_at,omitempty"`
	ApprovedBy   *uuid.UUID                  `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time                  `json:"approved_at,omitempty"`
	CancelledBy  *uuid.UUID                  `json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time                  `json:"cancelled_at,omitempty"`
	CreatedBy    uuid.UUID                   `json:"created_by"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	Version      int                         `json:"version"`
}

// ToPurchaseOrderResponse converts the domain model to a response
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = PurchaseOrderItemResponse{
			ID:                item.ID,
			ItemID:            item.ItemID,
			ItemName:          item.ItemName,
			SKU:               item.SKU,
			PartNumber:        item.PartNumber,
			OrderedQuantity:   item.OrderedQuantity,
			ReceivedQuantity:  item.ReceivedQuantity,
			RemainingQuantity: item.RemainingQuantity(),
			LineState:         item.State(),
			UnitPrice:         item.UnitPrice,
			LineTotal:         item.LineTotal(),
			Notes:             item.Notes,
		}
	}
	return PurchaseOrderResponse{
		ID:           o.ID,
		DisplayID:    o.DisplayID,
		OrderNumber:  o.OrderNumber,
		VendorID:     o.VendorID,
		Status:       o.Status,
		OrderDate:    o.OrderDate,
		ExpectedDate: o.ExpectedDate,
		ReceivedDate: o.ReceivedDate,
		Currency:     o.Currency,
		Notes:        o.Notes,
		ShipTo:       o.ShipTo,
		BillTo:       o.BillTo,
		Subtotal:     o.Subtotal,
		TotalAmount:  o.TotalAmount,
		Items:        items,
		SubmittedBy:  o.SubmittedBy,
		SubmittedAt:  o.SubmittedAt,
		ApprovedBy:   o.ApprovedBy,
		ApprovedAt:   o.ApprovedAt,
		CancelledBy:  o.CancelledBy,
		CancelledAt:  o.CancelledAt,
		CreatedBy:    o.CreatedBy,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Version:      o.Version,
	}
}

// ==================== Receive DTOs ====================

// ReceiveHeaderRequest carries the delivery metadata of a receive
type ReceiveHeaderRequest struct {
	DeliveryNoteNumber string     `json:"delivery_note_number" binding:"max=100"`
	Carrier            string     `json:"carrier" binding:"max=100"`
	TrackingNumber     string     `json:"tracking_number" binding:"max=100"`
	DefaultLocationID  *uuid.UUID `json:"default_location_id"`
	ReceivedDate       *time.Time `json:"received_date"`
	Notes              string     `json:"notes" binding:"max=2000"`
}

func (r ReceiveHeaderRequest) toDomain() trade.ReceiveHeader {
	return trade.ReceiveHeader{
		DeliveryNoteNumber: r.DeliveryNoteNumber,
		Carrier:            r.Carrier,
		TrackingNumber:     r.TrackingNumber,
		DefaultLocationID:  r.DefaultLocationID,
		ReceivedDate:       r.ReceivedDate,
		Notes:              r.Notes,
	}
}

// CreateReceiveRequest opens a receive against a purchase order
type CreateReceiveRequest struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id" binding:"required"`
	ReceiveHeaderRequest
}

// AddReceiveItemRequest adds a line to a draft receive
type AddReceiveItemRequest struct {
	PurchaseOrderItemID uuid.UUID           `json:"purchase_order_item_id" binding:"required"`
	QuantityReceived    decimal.Decimal     `json:"quantity_received"`
	Condition           trade.ItemCondition `json:"condition" binding:"omitempty,oneof=good damaged rejected"`
	LotNumber           string              `json:"lot_number" binding:"max=100"`
	BatchCode           string              `json:"batch_code" binding:"max=100"`
	ExpiryDate          *time.Time          `json:"expiry_date"`
	ManufacturedDate    *time.Time          `json:"manufactured_date"`
	LocationID          *uuid.UUID          `json:"location_id"`
	Notes               string              `json:"notes" binding:"max=1000"`
}

// UpdateReceiveItemRequest patches a line of a draft receive. Omitted fields
// stay unchanged; the clear_* flags reset the optional ones.
type UpdateReceiveItemRequest struct {
	QuantityReceived      *decimal.Decimal     `json:"quantity_received"`
	Condition             *trade.ItemCondition `json:"condition" binding:"omitempty,oneof=good damaged rejected"`
	LotNumber             *string              `json:"lot_number" binding:"omitempty,max=100"`
	BatchCode             *string              `json:"batch_code" binding:"omitempty,max=100"`
	ExpiryDate            *time.Time           `json:"expiry_date"`
	ManufacturedDate      *time.Time           `json:"manufactured_date"`
	LocationID            *uuid.UUID           `json:"location_id"`
	Notes                 *string              `json:"notes" binding:"omitempty,max=1000"`
	ClearExpiryDate       bool                 `json:"clear_expiry_date"`
	ClearManufacturedDate bool                 `json:"clear_manufactured_date"`
	ClearLocationID       bool                 `json:"clear_location_id"`
}

// AddSerialsRequest captures one or more serial numbers on a line
type AddSerialsRequest struct {
	Serials []string `json:"serials" binding:"required,min=1,max=1000"`
}

// ListReceivesRequest filters a receive listing
type ListReceivesRequest struct {
	Status          *trade.ReceiveStatus
	PurchaseOrderID *uuid.UUID
	Limit           int
	Offset          int
}

// ReceiveItemSerialResponse represents a captured serial
type ReceiveItemSerialResponse struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serial_number"`
}

// ReceiveItemResponse represents a receive line in API responses
type ReceiveItemResponse struct {
	ID                  uuid.UUID                   `json:"id"`
	PurchaseOrderItemID uuid.UUID                   `json:"purchase_order_item_id"`
	ItemID              *uuid.UUID                  `json:"item_id,omitempty"`
	ItemName            string                      `json:"item_name"`
	QuantityReceived    decimal.Decimal             `json:"quantity_received"`
	Condition           trade.ItemCondition         `json:"condition"`
	LotNumber           string                      `json:"lot_number,omitempty"`
	BatchCode           string                      `json:"batch_code,omitempty"`
	ExpiryDate          *time.Time                  `json:"expiry_date,omitempty"`
	ManufacturedDate    *time.Time                  `json:"manufactured_date,omitempty"`
	LocationID          *uuid.UUID                  `json:"location_id,omitempty"`
	Notes               string                      `json:"notes,omitempty"`
	Serials             []ReceiveItemSerialResponse `json:"serials"`
}

// ReceiveSummaryResponse is a receive without its lines
type ReceiveSummaryResponse struct {
	ID              uuid.UUID           `json:"id"`
	DisplayID       string              `json:"display_id"`
	PurchaseOrderID uuid.UUID           `json:"purchase_order_id"`
	Status          trade.ReceiveStatus `json:"status"`
	ReceivedDate    *time.Time          `json:"received_date,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ReceiveResponse represents a receive in API responses
type ReceiveResponse struct {
	ReceiveSummaryResponse
	DeliveryNoteNumber string                `json:"delivery_note_number,omitempty"`
	Carrier            string                `json:"carrier,omitempty"`
	TrackingNumber     string                `json:"tracking_number,omitempty"`
	DefaultLocationID  *uuid.UUID            `json:"default_location_id,omitempty"`
	Notes              string                `json:"notes,omitempty"`
	Items              []ReceiveItemResponse `json:"items"`
	CompletedBy        *uuid.UUID            `json:"completed_by,omitempty"`
	CancelledAt        *time.Time            `json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID            `json:"cancelled_by,omitempty"`
	CreatedBy          uuid.UUID             `json:"created_by"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// CreateReceiveResponse is returned when a receive is opened
type CreateReceiveResponse struct {
	ID                uuid.UUID       `json:"id"`
	DisplayID         string          `json:"display_id"`
	ItemsPrepopulated int             `json:"items_prepopulated"`
	Receive           ReceiveResponse `json:"receive"`
}

// AddSerialsResponse reports which serials were captured
type AddSerialsResponse struct {
	Added      int                         `json:"added"`
	Serials    []ReceiveItemSerialResponse `json:"serials"`
	Duplicates []string                    `json:"duplicates"`
}

// OverReceivedLineResponse flags a purchase order line received beyond its ordered quantity
type OverReceivedLineResponse struct {
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id"`
	ItemName            string          `json:"item_name"`
	OrderedQuantity     decimal.Decimal `json:"ordered_quantity"`
	ReceivedQuantity    decimal.Decimal `json:"received_quantity"`
}

// CompleteReceiveResponse reports the outcome of receive completion
type CompleteReceiveResponse struct {
	ReceiveID           uuid.UUID                  `json:"receive_id"`
	DisplayID           string                     `json:"display_id"`
	ItemsProcessed      int                        `json:"items_processed"`
	LotsCreated         int                        `json:"lots_created"`
	SerialsCreated      int                        `json:"serials_created"`
	OrderFullyReceived  bool                       `json:"po_fully_received"`
	PurchaseOrderStatus trade.PurchaseOrderStatus  `json:"po_status"`
	OverReceived        []OverReceivedLineResponse `json:"over_received,omitempty"`
}

func toSerialResponses(serials []trade.ReceiveItemSerial) []ReceiveItemSerialResponse {
	out := make([]ReceiveItemSerialResponse, len(serials))
	for i, s := range serials {
		out[i] = ReceiveItemSerialResponse{ID: s.ID, SerialNumber: s.SerialNumber}
	}
	return out
}

// ToReceiveItemResponse converts a receive line to a response
func ToReceiveItemResponse(item *trade.ReceiveItem) ReceiveItemResponse {
	return ReceiveItemResponse{
		ID:                  item.ID,
		PurchaseOrderItemID: item.PurchaseOrderItemID,
		ItemID:              item.ItemID,
		ItemName:            item.ItemName,
		QuantityReceived:    item.QuantityReceived,
		Condition:           item.Condition,
		LotNumber:           item.LotNumber,
		BatchCode:           item.BatchCode,
		ExpiryDate:          item.ExpiryDate,
		ManufacturedDate:    item.ManufacturedDate,
		LocationID:          item.LocationID,
		Notes:               item.Notes,
		Serials:             toSerialResponses(item.Serials),
	}
}

// ToReceiveSummaryResponse converts a receive to a summary response
func ToReceiveSummaryResponse(r *trade.Receive) ReceiveSummaryResponse {
	return ReceiveSummaryResponse{
		ID:              r.ID,
		DisplayID:       r.DisplayID,
		PurchaseOrderID: r.PurchaseOrderID,
		Status:          r.Status,
		ReceivedDate:    r.ReceivedDate,
		CompletedAt:     r.CompletedAt,
		CreatedAt:       r.CreatedAt,
	}
}

// ToReceiveResponse converts a receive to a full response
func ToReceiveResponse(r *trade.Receive) ReceiveResponse {
	items := make([]ReceiveItemResponse, len(r.Items))
	for i := range r.Items {
		items[i] = ToReceiveItemResponse(&r.Items[i])
	}
	return ReceiveResponse{
		ReceiveSummaryResponse: ToReceiveSummaryResponse(r),
		DeliveryNoteNumber:     r.DeliveryNoteNumber,
		Carrier:                r.Carrier,
		TrackingNumber:         r.TrackingNumber,
		DefaultLocationID:      r.DefaultLocationID,
		Notes:                  r.Notes,
		Items:                  items,
		CompletedBy:            r.CompletedBy,
		CancelledAt:            r.CancelledAt,
		CancelledBy:            r.CancelledBy,
		CreatedBy:              r.CreatedBy,
		UpdatedAt:              r.UpdatedAt,
	}
}

func pageOf(limit, offset int) shared.Page {
	return shared.Page{Limit: limit, Offset: offset}.Normalize()
}
