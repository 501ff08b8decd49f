package item

import (
	"context"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain"
)

// Repository defines the interface for Item persistence.
type Repository interface {
	domain.CatalogRepository[*Item]

	// GetForUpdate retrieves an item with a row lock. The stock ledger
	// uses this to serialize concurrent movements on the same item.
	GetForUpdate(ctx context.Context, id id.ID) (*Item, error)

	// UpdateOnHand writes the new on-hand quantity. Callers must hold
	// the row lock taken by GetForUpdate in the same transaction.
	UpdateOnHand(ctx context.Context, id id.ID, onHand types.Quantity) error

	// SoldToday returns pieces sold for the item on the given business
	// day, for daily-sale-limit enforcement.
	SoldToday(ctx context.Context, id id.ID) (types.Quantity, error)
}
