package trips

import (
	"context"

	"ritel/internal/core/id"
)

// ListFilter narrows trip queries.
type ListFilter struct {
	AgentID *id.ID
	Status  *Status
	Limit   int
	Offset  int
}

// Repository defines trip persistence.
type Repository interface {
	// Create inserts the trip header and manifest lines.
	Create(ctx context.Context, t *Trip) error

	// GetByID loads a trip with its manifest lines.
	GetByID(ctx context.Context, id id.ID) (*Trip, error)

	// GetForUpdate loads a trip with its lines under a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Trip, error)

	// UpdateHeader writes status and date fields.
	UpdateHeader(ctx context.Context, t *Trip) error

	// UpdateLine writes the sold/returned counters of one manifest line.
	UpdateLine(ctx context.Context, l ManifestLine) error

	// AddReturn records a return event.
	AddReturn(ctx context.Context, r ReturnRecord) error

	// ListReturns returns the return events for a trip, oldest first.
	ListReturns(ctx context.Context, tripID id.ID) ([]ReturnRecord, error)

	// List returns trips matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Trip, error)
}
