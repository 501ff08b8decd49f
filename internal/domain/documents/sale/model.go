// Package sale implements customer sale documents: cart editing, atomic
// checkout out of stock with the credit guard, debt settlement, and the
// controlled adjust path for completed sales.
package sale

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
)

// Document is a sale. CustomerID is nil for walk-in cash sales; such sales
// must be fully paid at checkout since there is no account to owe against.
type Document struct {
	entity.TradeDocument

	CustomerID id.ID `db:"customer_id" json:"customerId"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one item position on a sale document, in pieces.
type Line struct {
	LineID     id.ID `db:"line_id" json:"lineId"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	ItemID     id.ID `db:"item_id" json:"itemId"`

	// Qty is the sold quantity in smallest units
	Qty types.Quantity `db:"qty" json:"qty"`

	// UnitPrice is the price per piece at sale time
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`

	// PerPackage snapshots the item's package size at sale time
	PerPackage types.Quantity `db:"per_package" json:"perPackage"`

	// Discount is the discount granted per full package; loose pieces get
	// a proportional share rounded half up
	Discount types.MinorUnits `db:"discount" json:"discount"`

	// LineTotal = Qty * UnitPrice - DiscountAmount at creation; adjustments
	// re-derive the unit price from this stored total
	LineTotal types.MinorUnits `db:"line_total" json:"lineTotal"`
}

// DiscountAmount returns the total discount for the line: the per-package
// discount for every full package plus the prorated share for loose pieces.
func (l Line) DiscountAmount() types.MinorUnits {
	if l.Discount == 0 {
		return 0
	}
	packages, pieces := l.Qty.SplitPackages(l.PerPackage)
	return types.MulQty(l.Discount, packages) +
		types.ProportionalAmount(l.Discount, pieces, l.PerPackage)
}

// NewDocument creates a sale cart. customerID may be id.Nil for walk-ins.
func NewDocument(customerID id.ID) *Document {
	return &Document{
		TradeDocument: entity.NewTradeDocument(),
		CustomerID:    customerID,
	}
}

// HasCustomer reports whether the sale is on a customer account.
func (d *Document) HasCustomer() bool {
	return !id.IsNil(d.CustomerID)
}

// Validate implements entity.Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.TradeDocument.Validate(ctx); err != nil {
		return err
	}
	for _, l := range d.Lines {
		if l.Qty <= 0 {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("item_id", l.ItemID.String())
		}
		if l.UnitPrice < 0 {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("item_id", l.ItemID.String())
		}
		if l.Discount < 0 || l.Discount > types.MulQty(l.UnitPrice, l.PerPackage) {
			return apperror.NewValidation("discount must be between zero and the package price").
				WithDetail("item_id", l.ItemID.String())
		}
	}
	return nil
}

// RecalculateTotal recomputes line totals and the document total.
// Used on cart documents only; adjusted lines keep their stored totals.
func (d *Document) RecalculateTotal() {
	var total types.MinorUnits
	for i := range d.Lines {
		l := &d.Lines[i]
		l.LineTotal = types.MulQty(l.UnitPrice, l.Qty) - l.DiscountAmount()
		total += l.LineTotal
	}
	d.Total = total
}

// SumLineTotals returns the document total from the stored line totals,
// without recomputing them. Used after adjustments.
func (d *Document) SumLineTotals() types.MinorUnits {
	var total types.MinorUnits
	for _, l := range d.Lines {
		total += l.LineTotal
	}
	return total
}

// FindLine returns the line for an item, or nil.
func (d *Document) FindLine(itemID id.ID) *Line {
	for i := range d.Lines {
		if d.Lines[i].ItemID == itemID {
			return &d.Lines[i]
		}
	}
	return nil
}
