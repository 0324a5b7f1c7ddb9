package handler

import (
	"net/http"

	tradeapp "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReceiveHandler handles receive session endpoints
type ReceiveHandler struct {
	BaseHandler
	receiveService *tradeapp.ReceiveService
	completion     *tradeapp.ReceiveCompletionEngine
}

// NewReceiveHandler creates a new ReceiveHandler
func NewReceiveHandler(receiveService *tradeapp.ReceiveService, completion *tradeapp.ReceiveCompletionEngine) *ReceiveHandler {
	return &ReceiveHandler{
		receiveService: receiveService,
		completion:     completion,
	}
}

// addSerialsBody accepts either one serial or a batch
type addSerialsBody struct {
	SerialNumber string   `json:"serial_number" binding:"omitempty,max=100"`
	Serials      []string `json:"serials" binding:"omitempty,max=1000"`
}

func (b addSerialsBody) serials() []string {
	if b.SerialNumber == "" {
		return b.Serials
	}
	return append([]string{b.SerialNumber}, b.Serials...)
}

// Create handles POST /receives
func (h *ReceiveHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateReceiveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.receiveService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, created)
}

// List handles GET /receives
func (h *ReceiveHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query receiveQuery
	if !h.bindQuery(c, &query) {
		return
	}

	receives, total, err := h.receiveService.List(c.Request.Context(), actor, query.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, receives, total, query.Limit, query.Offset)
}

// GetByID handles GET /receives/:id
func (h *ReceiveHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	receive, err := h.receiveService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receive)
}

// Update handles PUT /receives/:id
func (h *ReceiveHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReceiveHeaderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	receive, err := h.receiveService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receive)
}

// AddItem handles POST /receives/:id/items
func (h *ReceiveHandler) AddItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.AddReceiveItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.receiveService.AddItem(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateItem handles PUT /receives/:id/items/:item_id
func (h *ReceiveHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	var req tradeapp.UpdateReceiveItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.receiveService.UpdateItem(c.Request.Context(), actor, id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// RemoveItem handles DELETE /receives/:id/items/:item_id
func (h *ReceiveHandler) RemoveItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}

	if err := h.receiveService.RemoveItem(c.Request.Context(), actor, id, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddSerials handles POST /receives/:id/items/:item_id/serials
func (h *ReceiveHandler) AddSerials(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	var body addSerialsBody
	if !h.bindJSON(c, &body) {
		return
	}
	serials := body.serials()
	if len(serials) == 0 {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			getRequestID(c),
			[]dto.ValidationDetail{{Field: "serials", Message: "Provide serial_number or serials"}},
		))
		return
	}

	result, err := h.receiveService.AddSerials(c.Request.Context(), actor, id, itemID, tradeapp.AddSerialsRequest{Serials: serials})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RemoveSerial handles DELETE /receives/:id/items/:item_id/serials/:serial_id
func (h *ReceiveHandler) RemoveSerial(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	serialID, ok := h.pathID(c, "serial_id")
	if !ok {
		return
	}

	if err := h.receiveService.RemoveSerial(c.Request.Context(), actor, id, itemID, serialID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Complete handles POST /receives/:id/complete
func (h *ReceiveHandler) Complete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.completion.Complete(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel handles POST /receives/:id/cancel
func (h *ReceiveHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	receive, err := h.receiveService.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receive)
}
