// Package ledger maintains the authoritative on-hand stock counter and the
// append-only movement log that audits it.
//
// All stock changes in the system go through Service.Apply. It locks the item
// row, validates the non-negativity invariant, writes the new counter and
// appends a log row — all inside the caller's transaction.
package ledger

import (
	"context"

	"ritel/internal/core/apperror"
	corectx "ritel/internal/core/context"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/item"
	"ritel/pkg/logger"
)

// MovementLog persists stock movement rows.
type MovementLog interface {
	// Append writes one movement row.
	Append(ctx context.Context, m entity.StockMovement) error

	// AppendBatch writes several movement rows in one round trip.
	AppendBatch(ctx context.Context, ms []entity.StockMovement) error

	// ListByItem returns movement history for an item, newest first.
	ListByItem(ctx context.Context, itemID id.ID, limit, offset int) ([]entity.StockMovement, error)

	// ListByDocument returns all movements caused by a document.
	ListByDocument(ctx context.Context, documentID id.ID) ([]entity.StockMovement, error)

	// SumDeltas returns the sum of deltas for an item over the whole log.
	// Used by audits to cross-check the counter.
	SumDeltas(ctx context.Context, itemID id.ID) (types.Quantity, error)
}

// ItemStore is the slice of the item repository the ledger needs.
type ItemStore interface {
	GetForUpdate(ctx context.Context, id id.ID) (*item.Item, error)
	UpdateOnHand(ctx context.Context, id id.ID, onHand types.Quantity) error
}

// Movement describes one requested stock change.
type Movement struct {
	ItemID       id.ID
	Delta        types.Quantity
	Reason       entity.MovementReason
	DocumentID   id.ID
	DocumentCode string
}

// Service applies stock movements. Methods must be called inside a
// transaction; the row lock taken by GetForUpdate is what serializes
// concurrent movements on the same item.
type Service struct {
	items ItemStore
	log   MovementLog
}

// NewService creates a ledger service.
func NewService(items ItemStore, log MovementLog) *Service {
	return &Service{items: items, log: log}
}

// Apply executes a single stock movement and returns the resulting quantity.
//
// A negative delta that would take the counter below zero fails with
// INSUFFICIENT_STOCK carrying the shortfall; nothing is written in that case.
func (s *Service) Apply(ctx context.Context, m Movement) (types.Quantity, error) {
	if m.Delta == 0 {
		return 0, apperror.NewValidation("movement delta cannot be zero").
			WithDetail("item_id", m.ItemID.String())
	}

	it, err := s.items.GetForUpdate(ctx, m.ItemID)
	if err != nil {
		return 0, err
	}

	resulting := it.OnHand + m.Delta
	if resulting < 0 {
		return 0, apperror.NewInsufficientStock(m.ItemID.String(), -m.Delta, it.OnHand)
	}

	if err := s.items.UpdateOnHand(ctx, m.ItemID, resulting); err != nil {
		return 0, err
	}

	row := entity.NewStockMovement(m.ItemID, m.Delta, resulting, m.Reason, m.DocumentID, m.DocumentCode)
	if user := corectx.GetUser(ctx); user != nil {
		row.CreatedBy = user.Username
	}
	if err := s.log.Append(ctx, row); err != nil {
		return 0, err
	}

	logger.Debug(ctx, "stock movement applied",
		"item_id", m.ItemID,
		"delta", int64(m.Delta),
		"resulting", int64(resulting),
		"reason", string(m.Reason),
	)
	return resulting, nil
}

// ApplyAll executes several movements in order. Items are locked one by one
// in the given order; callers that move multiple items should pass them in a
// stable order to avoid deadlocks between concurrent documents.
//
// The first failing movement aborts the whole batch with its error; the
// surrounding transaction rolls back everything already applied.
func (s *Service) ApplyAll(ctx context.Context, movements []Movement) error {
	for _, m := range movements {
		if _, err := s.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// ManualAdjust applies an operator stock correction outside any document,
// for stocktake differences and breakage. The note lands in the movement
// log's document code column so reconciliation reports can show it.
func (s *Service) ManualAdjust(ctx context.Context, itemID id.ID, delta types.Quantity, note string) (types.Quantity, error) {
	resulting, err := s.Apply(ctx, Movement{
		ItemID:       itemID,
		Delta:        delta,
		Reason:       entity.ReasonManualAdjustment,
		DocumentCode: note,
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "manual stock adjustment",
		"item_id", itemID,
		"delta", int64(delta),
		"resulting", int64(resulting),
		"note", note,
	)
	return resulting, nil
}

// History returns the movement log for an item, newest first.
func (s *Service) History(ctx context.Context, itemID id.ID, limit, offset int) ([]entity.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.log.ListByItem(ctx, itemID, limit, offset)
}

// DocumentMovements returns all movements a document caused.
func (s *Service) DocumentMovements(ctx context.Context, documentID id.ID) ([]entity.StockMovement, error) {
	return s.log.ListByDocument(ctx, documentID)
}

// AuditItem cross-checks the on-hand counter against the movement log and
// reports any drift. It does not correct anything; the log is an audit trail,
// not the source of truth for opening balances.
func (s *Service) AuditItem(ctx context.Context, itemID id.ID) (AuditResult, error) {
	it, err := s.items.GetForUpdate(ctx, itemID)
	if err != nil {
		return AuditResult{}, err
	}

	logged, err := s.log.SumDeltas(ctx, itemID)
	if err != nil {
		return AuditResult{}, err
	}

	res := AuditResult{
		ItemID:   itemID,
		OnHand:   it.OnHand,
		LogTotal: logged,
		Drift:    it.OnHand - logged,
	}
	if res.Drift != 0 {
		logger.Warn(ctx, "stock counter drift detected",
			"item_id", itemID, "on_hand", int64(it.OnHand), "log_total", int64(logged))
	}
	return res, nil
}

// AuditResult reports counter-versus-log comparison for one item.
type AuditResult struct {
	ItemID   id.ID          `json:"itemId"`
	OnHand   types.Quantity `json:"onHand"`
	LogTotal types.Quantity `json:"logTotal"`
	Drift    types.Quantity `json:"drift"`
}
