// Package entity provides core domain entities.
package entity

import (
	"time"

	"ritel/internal/core/id"
	"ritel/internal/core/types"
)

// MovementReason classifies why stock changed. The sign convention per reason
// is enforced by the ledger service, not here.
type MovementReason string

const (
	ReasonPurchaseCompletion MovementReason = "purchase-completion" // +
	ReasonSaleCompletion     MovementReason = "sale-completion"     // -
	ReasonSaleAdjustment     MovementReason = "sale-adjustment"     // ±
	ReasonTripDeparture      MovementReason = "trip-departure"      // -
	ReasonTripReturn         MovementReason = "trip-return"         // +
	ReasonTripCancellation   MovementReason = "trip-cancellation"   // +
	ReasonManualAdjustment   MovementReason = "manual-adjustment"   // ±
)

// StockMovement is one immutable row in the stock movement log.
// The log audits the authoritative counter; it is never re-derived on the
// hot path.
type StockMovement struct {
	// LineID is the unique identifier for this movement (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// ItemID is the item whose on-hand quantity changed
	ItemID id.ID `db:"item_id" json:"itemId"`

	// Delta is the signed change in smallest units
	Delta types.Quantity `db:"delta" json:"delta"`

	// Resulting is the on-hand quantity immediately after this movement
	Resulting types.Quantity `db:"resulting" json:"resulting"`

	Reason MovementReason `db:"reason" json:"reason"`

	// DocumentID links the movement to the purchase, sale or trip that
	// caused it (nil UUID for manual adjustments)
	DocumentID id.ID `db:"document_id" json:"documentId"`

	// DocumentCode is denormalized for reconciliation reports
	DocumentCode string `db:"document_code" json:"documentCode,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewStockMovement creates a movement log row.
func NewStockMovement(itemID id.ID, delta, resulting types.Quantity, reason MovementReason, documentID id.ID, documentCode string) StockMovement {
	return StockMovement{
		LineID:       id.New(),
		ItemID:       itemID,
		Delta:        delta,
		Resulting:    resulting,
		Reason:       reason,
		DocumentID:   documentID,
		DocumentCode: documentCode,
		CreatedAt:    time.Now().UTC(),
	}
}
