package supplier

import (
	"context"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// UpdatePayable writes the recomputed payable balance.
	UpdatePayable(ctx context.Context, id id.ID, payable types.MinorUnits) error

	// SumOutstandingPurchases returns the sum of (total - paid) over all
	// completed, non-cancelled purchase documents for the supplier.
	SumOutstandingPurchases(ctx context.Context, id id.ID) (types.MinorUnits, error)
}
