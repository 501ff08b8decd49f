// Package trips implements travel trips: stock allocated to a field agent,
// tracked on a manifest while out of the warehouse, and reconciled on return.
package trips

import (
	"context"
	"time"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
)

// Status is the trip lifecycle state.
type Status string

const (
	StatusPrep      Status = "PREP"
	StatusInTransit Status = "IN_TRANSIT"
	StatusReturned  Status = "RETURNED"
	StatusDone      Status = "DONE"
	StatusCancelled Status = "CANCELLED"
)

// transitions lists the legal manual state changes. DONE is additionally
// reached automatically when every manifest line is fully consumed.
var transitions = map[Status][]Status{
	StatusPrep:      {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusReturned, StatusCancelled},
	StatusReturned:  {StatusDone, StatusCancelled},
}

// CanTransition reports whether from→to is a legal manual transition.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ReturnCondition classifies returned goods. Only GOOD condition restores
// warehouse stock; the rest feed the loss report.
type ReturnCondition string

const (
	ConditionGood    ReturnCondition = "GOOD"
	ConditionDamaged ReturnCondition = "DAMAGED"
	ConditionExpired ReturnCondition = "EXPIRED"
)

// Trip is a delivery trip by a field agent.
type Trip struct {
	entity.BaseDocument

	// Code is the sequenced trip code (TR-YYYYMMDD-NNNN)
	Code string `db:"code" json:"code"`

	AgentID     id.ID  `db:"agent_id" json:"agentId"`
	Destination string `db:"destination" json:"destination"`

	Status Status `db:"status" json:"status"`

	DepartedAt *time.Time `db:"departed_at" json:"departedAt,omitempty"`
	ReturnedAt *time.Time `db:"returned_at" json:"returnedAt,omitempty"`

	Lines []ManifestLine `db:"-" json:"lines"`
}

// ManifestLine tracks one item on a trip. Allocated is fixed at creation;
// sold and returned only ever grow.
type ManifestLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	TripID id.ID `db:"trip_id" json:"tripId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	Allocated types.Quantity `db:"allocated" json:"allocated"`
	Sold      types.Quantity `db:"sold" json:"sold"`
	Returned  types.Quantity `db:"returned" json:"returned"`
}

// Remaining is the live counter: allocated minus everything accounted for.
func (l ManifestLine) Remaining() types.Quantity {
	return l.Allocated - l.Sold - l.Returned
}

// ReturnRecord is one return event against a trip.
type ReturnRecord struct {
	ID     id.ID `db:"id" json:"id"`
	TripID id.ID `db:"trip_id" json:"tripId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	Qty       types.Quantity  `db:"qty" json:"qty"`
	Condition ReturnCondition `db:"condition" json:"condition"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewTrip creates a trip in PREP with its manifest lines.
func NewTrip(agentID id.ID, destination string) *Trip {
	return &Trip{
		BaseDocument: entity.NewBaseDocument(),
		AgentID:      agentID,
		Destination:  destination,
		Status:       StatusPrep,
	}
}

// Validate implements entity.Validatable.
func (t *Trip) Validate(ctx context.Context) error {
	if id.IsNil(t.AgentID) {
		return apperror.NewValidation("agent is required").
			WithDetail("field", "agentId")
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("trip needs at least one manifest line")
	}
	seen := make(map[id.ID]bool, len(t.Lines))
	for _, l := range t.Lines {
		if l.Allocated <= 0 {
			return apperror.NewValidation("allocated quantity must be positive").
				WithDetail("item_id", l.ItemID.String())
		}
		if seen[l.ItemID] {
			return apperror.NewValidation("duplicate manifest item").
				WithDetail("item_id", l.ItemID.String())
		}
		seen[l.ItemID] = true
	}
	return nil
}

// FindLine returns the manifest line for an item, or nil.
func (t *Trip) FindLine(itemID id.ID) *ManifestLine {
	for i := range t.Lines {
		if t.Lines[i].ItemID == itemID {
			return &t.Lines[i]
		}
	}
	return nil
}

// FullyConsumed reports whether every manifest line reached remaining 0.
func (t *Trip) FullyConsumed() bool {
	for _, l := range t.Lines {
		if l.Remaining() != 0 {
			return false
		}
	}
	return true
}

// AllowsRecording reports whether sale/return recording is legal in the
// current status.
func (t *Trip) AllowsRecording() bool {
	return t.Status == StatusInTransit || t.Status == StatusReturned
}
