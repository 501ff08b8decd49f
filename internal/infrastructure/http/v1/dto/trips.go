package dto

import (
	"time"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/trips"
)

// TripLineRequest is one allocated item on a new trip manifest.
type TripLineRequest struct {
	ItemID string `json:"itemId" binding:"required,uuid"`
	Qty    int64  `json:"qty" binding:"required,min=1"`
}

// CreateTripRequest opens a trip in PREP with its manifest.
type CreateTripRequest struct {
	AgentID     string            `json:"agentId" binding:"required,uuid"`
	Destination string            `json:"destination" binding:"required"`
	Lines       []TripLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Allocations converts the manifest lines.
func (r CreateTripRequest) Allocations() ([]trips.Allocation, error) {
	out := make([]trips.Allocation, 0, len(r.Lines))
	for _, l := range r.Lines {
		itemID, err := id.Parse(l.ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, trips.Allocation{ItemID: itemID, Qty: types.Quantity(l.Qty)})
	}
	return out, nil
}

// TransitionTripRequest moves a trip to a new status. ReturnDate is
// required when moving to RETURNED.
type TransitionTripRequest struct {
	To         string     `json:"to" binding:"required,oneof=IN_TRANSIT RETURNED DONE CANCELLED"`
	ReturnDate *time.Time `json:"returnDate"`
}

// TripItemRequest is one item position in a sale or return record.
type TripItemRequest struct {
	ItemID string `json:"itemId" binding:"required,uuid"`
	Qty    int64  `json:"qty" binding:"required,min=1"`
}

// RecordTripSaleRequest records quantities sold off the manifest.
type RecordTripSaleRequest struct {
	Items []TripItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SaleItems converts the sold positions.
func (r RecordTripSaleRequest) SaleItems() ([]trips.SaleItem, error) {
	out := make([]trips.SaleItem, 0, len(r.Items))
	for _, it := range r.Items {
		itemID, err := id.Parse(it.ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, trips.SaleItem{ItemID: itemID, Qty: types.Quantity(it.Qty)})
	}
	return out, nil
}

// RecordTripReturnRequest records quantities brought back, all in the
// same condition. Only GOOD returns go back to stock.
type RecordTripReturnRequest struct {
	Items     []TripItemRequest `json:"items" binding:"required,min=1,dive"`
	Condition string            `json:"condition" binding:"required,oneof=GOOD DAMAGED EXPIRED"`
}

// ReturnItems converts the returned positions.
func (r RecordTripReturnRequest) ReturnItems() ([]trips.ReturnItem, error) {
	out := make([]trips.ReturnItem, 0, len(r.Items))
	for _, it := range r.Items {
		itemID, err := id.Parse(it.ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, trips.ReturnItem{ItemID: itemID, Qty: types.Quantity(it.Qty)})
	}
	return out, nil
}

// TripListRequest narrows trip listings.
type TripListRequest struct {
	AgentID string `form:"agentId" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,oneof=PREP IN_TRANSIT RETURNED DONE CANCELLED"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// Filter converts the request into a repository filter.
func (r TripListRequest) Filter() (trips.ListFilter, error) {
	f := trips.ListFilter{Limit: r.Limit, Offset: r.Offset}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if r.AgentID != "" {
		aid, err := id.Parse(r.AgentID)
		if err != nil {
			return f, err
		}
		f.AgentID = &aid
	}
	if r.Status != "" {
		st := trips.Status(r.Status)
		f.Status = &st
	}
	return f, nil
}
