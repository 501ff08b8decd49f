package purchase

import (
	"context"
	"time"

	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/domain/documents"
)

// ListFilter narrows purchase document queries.
type ListFilter struct {
	SupplierID *id.ID
	Status     *entity.DocStatus
	PayStatus  *entity.PayStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// Repository defines purchase document persistence.
type Repository interface {
	// Create inserts the document header and lines.
	Create(ctx context.Context, doc *Document) error

	// GetByID loads a document with its lines.
	GetByID(ctx context.Context, id id.ID) (*Document, error)

	// GetForUpdate loads a document with its lines under a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Document, error)

	// Update writes the header and replaces the lines.
	Update(ctx context.Context, doc *Document) error

	// UpdateHeader writes header fields only, leaving lines untouched.
	UpdateHeader(ctx context.Context, doc *Document) error

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Document, error)

	// AddPayment records a settlement row for the document.
	AddPayment(ctx context.Context, p documents.Payment) error

	// ListPayments returns settlements for a document, oldest first.
	ListPayments(ctx context.Context, documentID id.ID) ([]documents.Payment, error)
}
