package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ritel/internal/core/id"
	"ritel/internal/domain/trips"
	"ritel/internal/infrastructure/http/v1/dto"
)

// TripHandler serves the delivery trip lifecycle.
type TripHandler struct {
	*BaseHandler
	service *trips.Service
}

// NewTripHandler creates a new trip handler.
func NewTripHandler(base *BaseHandler, service *trips.Service) *TripHandler {
	return &TripHandler{BaseHandler: base, service: service}
}

// Create handles POST /trips. Opens a trip in PREP with its manifest.
func (h *TripHandler) Create(c *gin.Context) {
	var req dto.CreateTripRequest
	if !h.BindJSON(c, &req) {
		return
	}

	agentID, err := id.Parse(req.AgentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	allocations, err := req.Allocations()
	if err != nil {
		h.Error(c, err)
		return
	}

	trip, err := h.service.Create(c.Request.Context(), agentID, req.Destination, allocations)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// Transition handles POST /trips/:id/transition. Departure takes the full
// allocation out of stock; cancellation restores what is unaccounted for.
func (h *TripHandler) Transition(c *gin.Context) {
	tripID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionTripRequest
	if !h.BindJSON(c, &req) {
		return
	}

	trip, err := h.service.Transition(c.Request.Context(), tripID,
		trips.Status(req.To), trips.TransitionInput{ReturnDate: req.ReturnDate})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, trip)
}

// RecordSale handles POST /trips/:id/sales.
func (h *TripHandler) RecordSale(c *gin.Context) {
	tripID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordTripSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items, err := req.SaleItems()
	if err != nil {
		h.Error(c, err)
		return
	}

	trip, err := h.service.RecordSale(c.Request.Context(), tripID, items)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, trip)
}

// RecordReturn handles POST /trips/:id/returns. Only GOOD returns go back
// to stock.
func (h *TripHandler) RecordReturn(c *gin.Context) {
	tripID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordTripReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items, err := req.ReturnItems()
	if err != nil {
		h.Error(c, err)
		return
	}

	trip, err := h.service.RecordReturn(c.Request.Context(), tripID, items,
		trips.ReturnCondition(req.Condition))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, trip)
}

// Reconcile handles GET /trips/:id/reconciliation.
func (h *TripHandler) Reconcile(c *gin.Context) {
	tripID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rep, err := h.service.Reconcile(c.Request.Context(), tripID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rep)
}

// Get handles GET /trips/:id.
func (h *TripHandler) Get(c *gin.Context) {
	tripID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	trip, err := h.service.Get(c.Request.Context(), tripID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, trip)
}

// List handles GET /trips.
func (h *TripHandler) List(c *gin.Context) {
	var req dto.TripListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": list, "limit": filter.Limit, "offset": filter.Offset})
}
