// Package item provides the Item catalog: everything the shop buys and sells.
package item

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/types"
)

// Item represents a stocked product.
//
// OnHand is the authoritative counter in the smallest sellable unit. It is
// mutated only through the stock ledger, never by direct field writes.
type Item struct {
	entity.Catalog

	// OnHand is the current stock in pieces. Invariant: never negative.
	OnHand types.Quantity `db:"on_hand" json:"onHand"`

	// UnitsPerPackage is the package size for purchase/price conversion
	UnitsPerPackage types.Quantity `db:"units_per_package" json:"unitsPerPackage"`

	// DailySaleLimit caps pieces sold per day (nil = no limit)
	DailySaleLimit *types.Quantity `db:"daily_sale_limit" json:"dailySaleLimit,omitempty"`

	// CostPrice is the purchase cost per piece in minor units
	CostPrice types.MinorUnits `db:"cost_price" json:"costPrice"`

	// SalePrice is the selling price per piece in minor units
	SalePrice types.MinorUnits `db:"sale_price" json:"salePrice"`
}

// NewItem creates a new item with zero stock.
func NewItem(code, name string, unitsPerPackage types.Quantity) *Item {
	return &Item{
		Catalog:         entity.NewCatalog(code, name),
		UnitsPerPackage: unitsPerPackage,
	}
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if i.OnHand < 0 {
		return apperror.NewValidation("on-hand quantity cannot be negative").
			WithDetail("field", "onHand")
	}

	if i.UnitsPerPackage <= 0 {
		return apperror.NewValidation("units per package must be positive").
			WithDetail("field", "unitsPerPackage")
	}

	if i.DailySaleLimit != nil && *i.DailySaleLimit <= 0 {
		return apperror.NewValidation("daily sale limit must be positive when set").
			WithDetail("field", "dailySaleLimit")
	}

	if i.CostPrice < 0 || i.SalePrice < 0 {
		return apperror.NewValidation("prices cannot be negative")
	}

	return nil
}
