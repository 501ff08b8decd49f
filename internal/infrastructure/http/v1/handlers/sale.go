package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/documents/sale"
	"ritel/internal/infrastructure/http/v1/dto"
)

// SaleHandler serves the sale document lifecycle plus receivable
// reconciliation.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales. An omitted customerId opens a walk-in cart.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customerID := id.Nil()
	if req.CustomerID != "" {
		parsed, err := id.Parse(req.CustomerID)
		if err != nil {
			h.Error(c, err)
			return
		}
		customerID = parsed
	}

	doc, err := h.service.CreateCart(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// AddItem handles POST /sales/:id/items. An omitted unit price uses the
// item's current sale price.
func (h *SaleHandler) AddItem(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddSaleItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, err := id.Parse(req.ItemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	unitPrice := types.MinorUnits(-1)
	if req.UnitPrice != nil {
		unitPrice = types.MinorUnits(*req.UnitPrice)
	}

	doc, err := h.service.AddItem(c.Request.Context(), docID, itemID,
		types.Quantity(req.Qty), unitPrice, types.MinorUnits(req.Discount))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// RemoveItem handles DELETE /sales/:id/items/:itemId.
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	doc, err := h.service.RemoveItem(c.Request.Context(), docID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Checkout handles POST /sales/:id/checkout. Issues stock, checks credit
// and records the initial settlement.
func (h *SaleHandler) Checkout(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Checkout(c.Request.Context(), docID, sale.CheckoutInput{
		Paid:    types.MinorUnits(req.Paid),
		Method:  req.PayMethod(),
		DueDate: req.DueDate,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Cancel handles POST /sales/:id/cancel.
func (h *SaleHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Pay handles POST /sales/:id/payments. Settles customer debt.
func (h *SaleHandler) Pay(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.PayDebt(c.Request.Context(), docID,
		types.MinorUnits(req.Amount), req.PayMethod())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Payments handles GET /sales/:id/payments.
func (h *SaleHandler) Payments(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	payments, err := h.service.Payments(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"payments": dto.FromPayments(payments)})
}

// Adjust handles POST /sales/:id/adjustments. Corrects a completed sale
// line in place.
func (h *SaleHandler) Adjust(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, err := id.Parse(req.ItemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Adjust(c.Request.Context(), docID, itemID,
		sale.AdjustKind(req.Kind), types.Quantity(req.Qty))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Reconcile handles POST /customers/:id/reconcile-receivable. Recomputes
// the stored receivable from the document set and reports any drift.
func (h *SaleHandler) Reconcile(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.Reconcile(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /sales.
func (h *SaleHandler) List(c *gin.Context) {
	var req dto.DocumentListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.SaleFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	docs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": docs, "limit": filter.Limit, "offset": filter.Offset})
}
