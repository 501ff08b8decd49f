// Package purchase implements supplier purchase documents: cart editing,
// atomic checkout into stock, and debt settlement.
package purchase

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
)

// Document is a purchase from a supplier. Purchases are bought in whole
// packages; checkout converts packages to pieces for the stock ledger.
type Document struct {
	entity.TradeDocument

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one item position on a purchase document.
type Line struct {
	LineID     id.ID `db:"line_id" json:"lineId"`
	DocumentID id.ID `db:"document_id" json:"documentId"`
	ItemID     id.ID `db:"item_id" json:"itemId"`

	// Packages is the purchased quantity in whole packages
	Packages types.Quantity `db:"packages" json:"packages"`

	// PerPackage snapshots the item's package size at purchase time
	PerPackage types.Quantity `db:"per_package" json:"perPackage"`

	// PackageCost is the agreed cost per package in minor units
	PackageCost types.MinorUnits `db:"package_cost" json:"packageCost"`

	// Discount is the supplier discount per package in minor units
	Discount types.MinorUnits `db:"discount" json:"discount"`

	// LineTotal = Packages * (PackageCost - Discount)
	LineTotal types.MinorUnits `db:"line_total" json:"lineTotal"`
}

// Pieces returns the line quantity in smallest units.
func (l Line) Pieces() types.Quantity {
	return types.FromPackages(l.Packages, l.PerPackage)
}

// NewDocument creates a purchase cart for a supplier.
func NewDocument(supplierID id.ID) *Document {
	return &Document{
		TradeDocument: entity.NewTradeDocument(),
		SupplierID:    supplierID,
	}
}

// Validate implements entity.Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.TradeDocument.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(d.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	for _, l := range d.Lines {
		if l.Packages <= 0 {
			return apperror.NewValidation("line packages must be positive").
				WithDetail("item_id", l.ItemID.String())
		}
		if l.PerPackage <= 0 {
			return apperror.NewValidation("line package size must be positive").
				WithDetail("item_id", l.ItemID.String())
		}
		if l.PackageCost < 0 {
			return apperror.NewValidation("package cost cannot be negative").
				WithDetail("item_id", l.ItemID.String())
		}
		if l.Discount < 0 || l.Discount > l.PackageCost {
			return apperror.NewValidation("discount must be between zero and the package cost").
				WithDetail("item_id", l.ItemID.String())
		}
	}
	return nil
}

// RecalculateTotal recomputes line totals and the document total.
func (d *Document) RecalculateTotal() {
	var total types.MinorUnits
	for i := range d.Lines {
		d.Lines[i].LineTotal = types.MulQty(d.Lines[i].PackageCost-d.Lines[i].Discount, d.Lines[i].Packages)
		total += d.Lines[i].LineTotal
	}
	d.Total = total
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
