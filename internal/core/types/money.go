// Package types provides fixed-width numeric types shared by all domain code.
//
// Money is stored as int64 minor units (e.g. cents) and quantities as int64
// smallest sellable units. No floating point is used for stored values;
// derived proportional values go through decimal with one rounding rule.
package types

import (
	"github.com/shopspring/decimal"
)

// MinorUnits is a monetary amount in minor currency units.
// int64 covers ±922 trillion minor units, enough for any retail ledger.
type MinorUnits int64

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }

// ClampNonNegative returns m, or zero when m is negative.
// Derived balances (payable, receivable) are never allowed below zero.
func (m MinorUnits) ClampNonNegative() MinorUnits {
	if m < 0 {
		return 0
	}
	return m
}

// Quantity is a stock quantity in the smallest sellable unit (pieces).
type Quantity int64

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) IsNegative() bool { return q < 0 }
func (q Quantity) Neg() Quantity    { return -q }

// SplitPackages converts a piece quantity into whole packages plus loose
// pieces, with floor/remainder semantics: 57 pieces at 10 per package is
// 5 packages and 7 pieces.
func (q Quantity) SplitPackages(perPackage Quantity) (packages, pieces Quantity) {
	if perPackage <= 0 {
		return 0, q
	}
	return q / perPackage, q % perPackage
}

// FromPackages converts whole packages to pieces.
func FromPackages(packages, perPackage Quantity) Quantity {
	return packages * perPackage
}

// ProportionalAmount distributes total across part/whole with a single
// documented rounding rule: round half up. Used for partial-package discounts
// and per-line shares of a document level amount.
func ProportionalAmount(total MinorUnits, part, whole Quantity) MinorUnits {
	if whole == 0 || part == 0 {
		return 0
	}
	d := decimal.NewFromInt(int64(total)).
		Mul(decimal.NewFromInt(int64(part))).
		Div(decimal.NewFromInt(int64(whole)))
	return MinorUnits(d.Round(0).IntPart())
}

// UnitPriceFromLineTotal re-derives a unit price from a stored line total and
// its quantity, rounding half up.
//
// Known precision risk: repeated adjustments against the same line re-derive
// the price from an already-rounded total, so cents can drift. The formula is
// preserved as-is for compatibility with historical documents.
func UnitPriceFromLineTotal(lineTotal MinorUnits, qty Quantity) MinorUnits {
	if qty == 0 {
		return 0
	}
	d := decimal.NewFromInt(int64(lineTotal)).Div(decimal.NewFromInt(int64(qty)))
	return MinorUnits(d.Round(0).IntPart())
}

// MulQty multiplies a unit price by a quantity.
func MulQty(unitPrice MinorUnits, qty Quantity) MinorUnits {
	return MinorUnits(int64(unitPrice) * int64(qty))
}
