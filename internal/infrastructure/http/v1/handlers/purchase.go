package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/documents/purchase"
	"ritel/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves the purchase document lifecycle.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchases. Opens a cart for a supplier.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplierID, err := id.Parse(req.SupplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.CreateCart(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// AddItem handles POST /purchases/:id/items.
func (h *PurchaseHandler) AddItem(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddPurchaseItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, err := id.Parse(req.ItemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.AddItem(c.Request.Context(), docID, itemID,
		types.Quantity(req.Packages), types.MinorUnits(req.PackageCost), types.MinorUnits(req.Discount))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// RemoveItem handles DELETE /purchases/:id/items/:itemId.
func (h *PurchaseHandler) RemoveItem(c *gin.Context) {
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

// Checkout handles POST /purchases/:id/checkout. Completes the cart,
// receives stock and records the initial settlement.
func (h *PurchaseHandler) Checkout(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Checkout(c.Request.Context(), docID, purchase.CheckoutInput{
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

// Cancel handles POST /purchases/:id/cancel.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
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

// Pay handles POST /purchases/:id/payments. Settles outstanding debt.
func (h *PurchaseHandler) Pay(c *gin.Context) {
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

// Payments handles GET /purchases/:id/payments.
func (h *PurchaseHandler) Payments(c *gin.Context) {
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

// Get handles GET /purchases/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
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

// List handles GET /purchases.
func (h *PurchaseHandler) List(c *gin.Context) {
	var req dto.DocumentListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.PurchaseFilter()
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
