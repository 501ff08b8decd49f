// Package customer provides the Customer catalog and its receivable balance.
package customer

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/types"
)

// Customer represents a buyer that may purchase on credit.
//
// Receivable is maintained incrementally on each sale mutation and
// periodically reconciled against the document set.
type Customer struct {
	entity.Catalog

	// Phone is the contact number (optional)
	Phone string `db:"phone" json:"phone,omitempty"`

	// CreditLimit caps total outstanding debt, in minor units.
	// Zero means unlimited credit.
	CreditLimit types.MinorUnits `db:"credit_limit" json:"creditLimit"`

	// Receivable is the total debt the customer owes, in minor units.
	// Invariant: never negative.
	Receivable types.MinorUnits `db:"receivable" json:"receivable"`
}

// NewCustomer creates a new customer with zero receivable.
func NewCustomer(code, name string, creditLimit types.MinorUnits) *Customer {
	return &Customer{
		Catalog:     entity.NewCatalog(code, name),
		CreditLimit: creditLimit,
	}
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.CreditLimit < 0 {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}

	return nil
}
