package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddressColumn stores an address snapshot as JSON
type AddressColumn trade.Address

// Value implements driver.Valuer
func (a AddressColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *AddressColumn) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = AddressColumn{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported address column type %T", value)
	}
	if len(raw) == 0 {
		*a = AddressColumn{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root
type PurchaseOrderModel struct {
	TenantAggregateModel
	DisplayID    string                    `gorm:"type:varchar(50);not null;uniqueIndex:,composite:tenant_display,priority:2"`
	OrderNumber  string                    `gorm:"type:varchar(50)"`
	VendorID     *uuid.UUID                `gorm:"type:uuid;index"`
	Status       trade.PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	OrderDate    time.Time                 `gorm:"type:date;not null"`
	ExpectedDate *time.Time                `gorm:"type:date"`
	ReceivedDate *time.Time
	Currency     string                   `gorm:"type:char(3);not null;default:'USD'"`
	Notes        string                   `gorm:"type:text"`
	ShipTo       AddressColumn            `gorm:"type:jsonb"`
	BillTo       AddressColumn            `gorm:"type:jsonb"`
	Subtotal     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount  decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	SubmittedBy  *uuid.UUID               `gorm:"type:uuid"`
	SubmittedAt  *time.Time               `gorm:"index"`
	ApprovedBy   *uuid.UUID               `gorm:"type:uuid"`
	ApprovedAt   *time.Time               `gorm:"index"`
	CancelledBy  *uuid.UUID               `gorm:"type:uuid"`
	CancelledAt  *time.Time               `gorm:"index"`
	Items        []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	order := &trade.PurchaseOrder{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		DisplayID:           m.DisplayID,
		OrderNumber:         m.OrderNumber,
		VendorID:            m.VendorID,
		Status:              m.Status,
		OrderDate:           m.OrderDate,
		ExpectedDate:        m.ExpectedDate,
		ReceivedDate:        m.ReceivedDate,
		Currency:            m.Currency,
		Notes:               m.Notes,
		ShipTo:              trade.Address(m.ShipTo),
		BillTo:              trade.Address(m.BillTo),
		Subtotal:            m.Subtotal,
		TotalAmount:         m.TotalAmount,
		SubmittedBy:         m.SubmittedBy,
		SubmittedAt:         m.SubmittedAt,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
		CancelledBy:         m.CancelledBy,
		CancelledAt:         m.CancelledAt,
		Items:               make([]trade.PurchaseOrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = *m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the model from a domain PurchaseOrder
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.DisplayID = o.DisplayID
	m.OrderNumber = o.OrderNumber
	m.VendorID = o.VendorID
	m.Status = o.Status
	m.OrderDate = o.OrderDate
	m.ExpectedDate = o.ExpectedDate
	m.ReceivedDate = o.ReceivedDate
	m.Currency = o.Currency
	m.Notes = o.Notes
	m.ShipTo = AddressColumn(o.ShipTo)
	m.BillTo = AddressColumn(o.BillTo)
	m.Subtotal = o.Subtotal
	m.TotalAmount = o.TotalAmount
	m.SubmittedBy = o.SubmittedBy
	m.SubmittedAt = o.SubmittedAt
	m.ApprovedBy = o.ApprovedBy
	m.ApprovedAt = o.ApprovedAt
	m.CancelledBy = o.CancelledBy
	m.CancelledAt = o.CancelledAt
	m.Items = make([]PurchaseOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *PurchaseOrderItemModelFromDomain(&o.Items[i])
	}
}

// HeaderColumns returns the columns a locked save may write.
// Received quantities are deliberately absent.
func (m *PurchaseOrderModel) HeaderColumns() map[string]interface{} {
	return map[string]interface{}{
		"order_number":  m.OrderNumber,
		"vendor_id":     m.VendorID,
		"status":        m.Status,
		"order_date":    m.OrderDate,
		"expected_date": m.ExpectedDate,
		"received_date": m.ReceivedDate,
		"currency":      m.Currency,
		"notes":         m.Notes,
		"ship_to":       m.ShipTo,
		"bill_to":       m.BillTo,
		"subtotal":      m.Subtotal,
		"total_amount":  m.TotalAmount,
		"submitted_by":  m.SubmittedBy,
		"submitted_at":  m.SubmittedAt,
		"approved_by":   m.ApprovedBy,
		"approved_at":   m.ApprovedAt,
		"cancelled_by":  m.CancelledBy,
		"cancelled_at":  m.CancelledAt,
		"updated_at":    m.UpdatedAt,
	}
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain PurchaseOrder
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderItemModel is the persistence model for a purchase order line
type PurchaseOrderItemModel struct {
	BaseModel
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID           *uuid.UUID      `gorm:"type:uuid;index"`
	ItemName         string          `gorm:"type:varchar(200);not null"`
	SKU              string          `gorm:"column:sku;type:varchar(100)"`
	PartNumber       string          `gorm:"type:varchar(100)"`
	OrderedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes            string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem
func (m *PurchaseOrderItemModel) ToDomain() *trade.PurchaseOrderItem {
	return &trade.PurchaseOrderItem{
		ID:               m.ID,
		PurchaseOrderID:  m.PurchaseOrderID,
		ItemID:           m.ItemID,
		ItemName:         m.ItemName,
		SKU:              m.SKU,
		PartNumber:       m.PartNumber,
		OrderedQuantity:  m.OrderedQuantity,
		ReceivedQuantity: m.ReceivedQuantity,
		UnitPrice:        m.UnitPrice,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// PurchaseOrderItemModelFromDomain creates a persistence model from a domain PurchaseOrderItem
func PurchaseOrderItemModelFromDomain(i *trade.PurchaseOrderItem) *PurchaseOrderItemModel {
	return &PurchaseOrderItemModel{
		BaseModel: BaseModel{
			ID:        i.ID,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		},
		PurchaseOrderID:  i.PurchaseOrderID,
		ItemID:           i.ItemID,
		ItemName:         i.ItemName,
		SKU:              i.SKU,
		PartNumber:       i.PartNumber,
		OrderedQuantity:  i.OrderedQuantity,
		ReceivedQuantity: i.ReceivedQuantity,
		UnitPrice:        i.UnitPrice,
		Notes:            i.Notes,
	}
}

// ReceiveModel is the persistence model for the Receive aggregate root
type ReceiveModel struct {
	TenantAggregateModel
	DisplayID          string              `gorm:"type:varchar(50);not null;uniqueIndex:,composite:tenant_display,priority:2"`
	PurchaseOrderID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status             trade.ReceiveStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	DeliveryNoteNumber string              `gorm:"type:varchar(100)"`
	Carrier            string              `gorm:"type:varchar(100)"`
	TrackingNumber     string              `gorm:"type:varchar(100)"`
	DefaultLocationID  *uuid.UUID          `gorm:"type:uuid"`
	ReceivedDate       *time.Time
	Notes              string     `gorm:"type:text"`
	CompletedAt        *time.Time `gorm:"index"`
	CompletedBy        *uuid.UUID `gorm:"type:uuid"`
	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID         `gorm:"type:uuid"`
	Items              []ReceiveItemModel `gorm:"foreignKey:ReceiveID;references:ID"`
}

// TableName returns the table name for GORM
func (ReceiveModel) TableName() string {
	return "receives"
}

// ToDomain converts the persistence model to a domain Receive
func (m *ReceiveModel) ToDomain() *trade.Receive {
	r := &trade.Receive{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		DisplayID:           m.DisplayID,
		PurchaseOrderID:     m.PurchaseOrderID,
		Status:              m.Status,
		ReceiveHeader: trade.ReceiveHeader{
			DeliveryNoteNumber: m.DeliveryNoteNumber,
			Carrier:            m.Carrier,
			TrackingNumber:     m.TrackingNumber,
			DefaultLocationID:  m.DefaultLocationID,
			ReceivedDate:       m.ReceivedDate,
			Notes:              m.Notes,
		},
		Items:       make([]trade.ReceiveItem, len(m.Items)),
		CompletedAt: m.CompletedAt,
		CompletedBy: m.CompletedBy,
		CancelledAt: m.CancelledAt,
		CancelledBy: m.CancelledBy,
	}
	for i := range m.Items {
		r.Items[i] = *m.Items[i].ToDomain()
	}
	return r
}

// FromDomain populates the model from a domain Receive
func (m *ReceiveModel) FromDomain(r *trade.Receive) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.DisplayID = r.DisplayID
	m.PurchaseOrderID = r.PurchaseOrderID
	m.Status = r.Status
	m.DeliveryNoteNumber = r.DeliveryNoteNumber
	m.Carrier = r.Carrier
	m.TrackingNumber = r.TrackingNumber
	m.DefaultLocationID = r.DefaultLocationID
	m.ReceivedDate = r.ReceivedDate
	m.Notes = r.Notes
	m.CompletedAt = r.CompletedAt
	m.CompletedBy = r.CompletedBy
	m.CancelledAt = r.CancelledAt
	m.CancelledBy = r.CancelledBy
	m.Items = make([]ReceiveItemModel, len(r.Items))
	for i := range r.Items {
		m.Items[i] = *ReceiveItemModelFromDomain(&r.Items[i])
	}
}

// ReceiveModelFromDomain creates a persistence model from a domain Receive
func ReceiveModelFromDomain(r *trade.Receive) *ReceiveModel {
	m := &ReceiveModel{}
	m.FromDomain(r)
	return m
}

// ReceiveItemModel is the persistence model for a receive line
type ReceiveItemModel struct {
	BaseModel
	ReceiveID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	PurchaseOrderItemID uuid.UUID                `gorm:"type:uuid;not null;index"`
	ItemID              *uuid.UUID               `gorm:"type:uuid"`
	ItemName            string                   `gorm:"type:varchar(200);not null"`
	QuantityReceived    decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Condition           trade.ItemCondition      `gorm:"column:item_condition;type:varchar(20);not null;default:'good'"`
	LotNumber           string                   `gorm:"type:varchar(100)"`
	BatchCode           string                   `gorm:"type:varchar(100)"`
	ExpiryDate          *time.Time               `gorm:"type:date"`
	ManufacturedDate    *time.Time               `gorm:"type:date"`
	LocationID          *uuid.UUID               `gorm:"type:uuid"`
	Notes               string                   `gorm:"type:text"`
	Serials             []ReceiveItemSerialModel `gorm:"foreignKey:ReceiveItemID;references:ID"`
}

// TableName returns the table name for GORM
func (ReceiveItemModel) TableName() string {
	return "receive_items"
}

// ToDomain converts the persistence model to a domain ReceiveItem
func (m *ReceiveItemModel) ToDomain() *trade.ReceiveItem {
	item := &trade.ReceiveItem{
		ID:                  m.ID,
		ReceiveID:           m.ReceiveID,
		PurchaseOrderItemID: m.PurchaseOrderItemID,
		ItemID:              m.ItemID,
		ItemName:            m.ItemName,
		QuantityReceived:    m.QuantityReceived,
		Condition:           m.Condition,
		LotNumber:           m.LotNumber,
		BatchCode:           m.BatchCode,
		ExpiryDate:          m.ExpiryDate,
		ManufacturedDate:    m.ManufacturedDate,
		LocationID:          m.LocationID,
		Notes:               m.Notes,
		Serials:             make([]trade.ReceiveItemSerial, len(m.Serials)),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	for i, s := range m.Serials {
		item.Serials[i] = trade.ReceiveItemSerial{
			ID:            s.ID,
			ReceiveItemID: s.ReceiveItemID,
			SerialNumber:  s.SerialNumber,
			CreatedAt:     s.CreatedAt,
		}
	}
	return item
}

// ReceiveItemModelFromDomain creates a persistence model from a domain ReceiveItem
func ReceiveItemModelFromDomain(i *trade.ReceiveItem) *ReceiveItemModel {
	m := &ReceiveItemModel{
		BaseModel: BaseModel{
			ID:        i.ID,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		},
		ReceiveID:           i.ReceiveID,
		PurchaseOrderItemID: i.PurchaseOrderItemID,
		ItemID:              i.ItemID,
		ItemName:            i.ItemName,
		QuantityReceived:    i.QuantityReceived,
		Condition:           i.Condition,
		LotNumber:           i.LotNumber,
		BatchCode:           i.BatchCode,
		ExpiryDate:          i.ExpiryDate,
		ManufacturedDate:    i.ManufacturedDate,
		LocationID:          i.LocationID,
		Notes:               i.Notes,
		Serials:             make([]ReceiveItemSerialModel, len(i.Serials)),
	}
	for idx, s := range i.Serials {
		m.Serials[idx] = ReceiveItemSerialModel{
			ID:            s.ID,
			ReceiveItemID: s.ReceiveItemID,
			SerialNumber:  s.SerialNumber,
			CreatedAt:     s.CreatedAt,
		}
	}
	return m
}

// ReceiveItemSerialModel is a serial number captured on a draft receive line
type ReceiveItemSerialModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReceiveItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receive_item_serial,priority:1"`
	SerialNumber  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_receive_item_serial,priority:2"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiveItemSerialModel) TableName() string {
	return "receive_item_serials"
}
