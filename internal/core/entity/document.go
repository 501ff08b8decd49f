package entity

import (
	"context"
	"time"

	"ritel/internal/core/apperror"
	"ritel/internal/core/types"
)

// DocStatus is the lifecycle status shared by purchase and sale documents.
type DocStatus string

const (
	// StatusCart is the mutable draft state.
	StatusCart DocStatus = "CART"
	// StatusCompleted means the transaction is finalized; stock and
	// balances have been applied. Direct field writes are forbidden.
	StatusCompleted DocStatus = "COMPLETED"
	// StatusCancelled means the document was abandoned before completion.
	StatusCancelled DocStatus = "CANCELLED"
)

// PayStatus tracks settlement of a completed document.
type PayStatus string

const (
	PayStatusPaid PayStatus = "PAID"
	PayStatusOwed PayStatus = "OWED"
)

// TradeDocument is the base for purchase and sale documents.
type TradeDocument struct {
	BaseDocument

	// Code is the sequenced document code (unique per family per day)
	Code string `db:"code" json:"code"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	Status    DocStatus `db:"status" json:"status"`
	PayStatus PayStatus `db:"pay_status" json:"payStatus"`

	// Total is the document total in minor units
	Total types.MinorUnits `db:"total" json:"total"`

	// Paid is the amount settled so far
	Paid types.MinorUnits `db:"paid" json:"paid"`

	// DueDate applies when PayStatus is OWED
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewTradeDocument creates a document in CART state.
func NewTradeDocument() TradeDocument {
	return TradeDocument{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       StatusCart,
		PayStatus:    PayStatusPaid,
	}
}

// Validate implements Validatable.
func (d *TradeDocument) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// CanModify checks if the document can be edited in place.
// Only CART documents are freely mutable; completed documents change
// exclusively through the controlled adjust path.
func (d *TradeDocument) CanModify() error {
	if d.Status != StatusCart {
		return apperror.NewStateConflict("document", d.ID.String(), string(d.Status), string(StatusCart))
	}
	return nil
}

// Outstanding returns the unpaid portion of the document total.
func (d *TradeDocument) Outstanding() types.MinorUnits {
	return (d.Total - d.Paid).ClampNonNegative()
}

// MarkCompleted finalizes the document with its settlement state.
func (d *TradeDocument) MarkCompleted(paid types.MinorUnits, dueDate *time.Time) {
	d.Status = StatusCompleted
	d.Paid = paid
	if paid >= d.Total {
		d.PayStatus = PayStatusPaid
		d.DueDate = nil
	} else {
		d.PayStatus = PayStatusOwed
		d.DueDate = dueDate
	}
	d.Touch()
}

// MarkCancelled abandons a cart document.
func (d *TradeDocument) MarkCancelled() {
	d.Status = StatusCancelled
	d.Touch()
}

// ApplyPayment registers a settlement amount against the document.
func (d *TradeDocument) ApplyPayment(amount types.MinorUnits) {
	d.Paid += amount
	if d.Paid >= d.Total {
		d.PayStatus = PayStatusPaid
	}
	d.Touch()
}
