package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"ritel/internal/core/tx"
	"ritel/internal/core/types"
	"ritel/internal/domain/ledger"
	"ritel/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the stock movement log, counter audits and manual
// adjustments.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
	txm     tx.Manager
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service, txm tx.Manager) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service, txm: txm}
}

// Movements handles GET /items/:id/movements. Newest first.
func (h *StockHandler) Movements(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	movements, err := h.service.History(c.Request.Context(), itemID, req.Limit, req.Offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": movements, "limit": req.Limit, "offset": req.Offset})
}

// DocumentMovements handles GET /documents/:id/movements. Every movement
// a document produced, in application order.
func (h *StockHandler) DocumentMovements(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	movements, err := h.service.DocumentMovements(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": movements})
}

// AdjustStock handles POST /items/:id/adjust-stock. An admin-only
// correction for stocktake differences and breakage.
func (h *StockHandler) AdjustStock(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var resulting types.Quantity
	err := h.txm.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		var err error
		resulting, err = h.service.ManualAdjust(ctx, itemID, types.Quantity(req.Delta), req.Note)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"itemId": itemID, "onHand": resulting})
}

// Audit handles POST /items/:id/audit. Compares the stored on-hand
// counter against the movement sum.
func (h *StockHandler) Audit(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	// The audit locks the item row; run it in its own transaction so the
	// counter and the log sum are read consistently.
	var result ledger.AuditResult
	err := h.txm.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		var err error
		result, err = h.service.AuditItem(ctx, itemID)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
