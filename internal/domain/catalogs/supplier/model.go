// Package supplier provides the Supplier catalog and its payable balance.
package supplier

import (
	"context"

	"ritel/internal/core/entity"
	"ritel/internal/core/types"
)

// Supplier represents a vendor the shop purchases from.
//
// Payable is a derived balance: the sum of outstanding amounts over all
// completed purchase documents. It is recomputed in full by the balance
// recalculator, never adjusted incrementally.
type Supplier struct {
	entity.Catalog

	// Phone is the contact number (optional)
	Phone string `db:"phone" json:"phone,omitempty"`

	// Payable is the total debt we owe this supplier, in minor units.
	// Invariant: never negative.
	Payable types.MinorUnits `db:"payable" json:"payable"`
}

// NewSupplier creates a new supplier with zero payable.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	return s.Catalog.Validate(ctx)
}
