package customer

import (
	"context"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// GetForUpdate retrieves a customer with a row lock. Balance updates
	// and credit checks happen under this lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Customer, error)

	// UpdateReceivable writes the new receivable balance.
	UpdateReceivable(ctx context.Context, id id.ID, receivable types.MinorUnits) error

	// SumOutstandingSales returns the sum of (total - paid) over all
	// completed, non-cancelled sale documents for the customer.
	SumOutstandingSales(ctx context.Context, id id.ID) (types.MinorUnits, error)
}
