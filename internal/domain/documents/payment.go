// Package documents holds types shared by the purchase and sale document
// families.
package documents

import (
	"context"
	"time"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
)

// PaymentMethod is how a settlement was made.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// Payment is one settlement against a completed document. Payments get their
// own sequenced code so the cash journal is independently numbered.
type Payment struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the sequenced payment code (PAY-YYYYMMDD-NNNN)
	Code string `db:"code" json:"code"`

	// DocumentID is the purchase or sale being settled
	DocumentID id.ID `db:"document_id" json:"documentId"`

	Amount types.MinorUnits `db:"amount" json:"amount"`
	Method PaymentMethod    `db:"method" json:"method"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewPayment creates a payment row.
func NewPayment(code string, documentID id.ID, amount types.MinorUnits, method PaymentMethod) Payment {
	return Payment{
		ID:         id.New(),
		Code:       code,
		DocumentID: documentID,
		Amount:     amount,
		Method:     method,
		CreatedAt:  time.Now().UTC(),
	}
}

// CodeIssuer issues sequenced document codes. Satisfied by the sequencer
// service; declared here so document services depend on the capability, not
// the implementation.
type CodeIssuer interface {
	NextCode(ctx context.Context, family string) (string, error)
}
