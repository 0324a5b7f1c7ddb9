package handler

import (
	tradeapp "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
)

// pageQuery holds the pagination query parameters shared by list endpoints
type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// purchaseOrderQuery is the query string of GET /purchase-orders
type purchaseOrderQuery struct {
	pageQuery
	Status   []string `form:"status"`
	VendorID string   `form:"vendor_id" binding:"omitempty,uuid"`
}

func (q purchaseOrderQuery) toRequest() tradeapp.ListPurchaseOrdersRequest {
	req := tradeapp.ListPurchaseOrdersRequest{
		VendorID: optionalUUID(q.VendorID),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	for _, s := range q.Status {
		req.Status = append(req.Status, trade.PurchaseOrderStatus(s))
	}
	return req
}

// receiveQuery is the query string of GET /receives
type receiveQuery struct {
	pageQuery
	Status          string `form:"status"`
	PurchaseOrderID string `form:"purchase_order_id" binding:"omitempty,uuid"`
}

func (q receiveQuery) toRequest() tradeapp.ListReceivesRequest {
	req := tradeapp.ListReceivesRequest{
		PurchaseOrderID: optionalUUID(q.PurchaseOrderID),
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.Status != "" {
		status := trade.ReceiveStatus(q.Status)
		req.Status = &status
	}
	return req
}

// optionalUUID parses an already validated id, empty meaning absent
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
