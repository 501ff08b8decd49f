package trips

import (
	"context"
	"time"

	"ritel/internal/core/apperror"
	corectx "ritel/internal/core/context"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/tx"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/documents"
	"ritel/internal/domain/ledger"
	"ritel/pkg/logger"
	"ritel/pkg/sequencer"
)

// StockApplier is the slice of the ledger the trip service uses.
type StockApplier interface {
	Apply(ctx context.Context, m ledger.Movement) (types.Quantity, error)
	ApplyAll(ctx context.Context, movements []ledger.Movement) error
}

// ItemReader provides item lookups for allocation validation and loss costing.
type ItemReader interface {
	GetByID(ctx context.Context, id id.ID) (*item.Item, error)
}

// Auditor records trip mutations. Optional; nil disables auditing.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Allocation is one requested manifest line at trip creation.
type Allocation struct {
	ItemID id.ID
	Qty    types.Quantity
}

// SaleItem is one sold position recorded against a trip.
type SaleItem struct {
	ItemID id.ID
	Qty    types.Quantity
}

// ReturnItem is one returned position recorded against a trip.
type ReturnItem struct {
	ItemID id.ID
	Qty    types.Quantity
}

// Service implements the trip operations.
type Service struct {
	txm   tx.Manager
	repo  Repository
	items ItemReader
	codes documents.CodeIssuer
	stock StockApplier
	audit Auditor
}

// NewService creates a trip service.
func NewService(
	txm tx.Manager,
	repo Repository,
	items ItemReader,
	codes documents.CodeIssuer,
	stock StockApplier,
	audit Auditor,
) *Service {
	return &Service{
		txm:   txm,
		repo:  repo,
		items: items,
		codes: codes,
		stock: stock,
		audit: audit,
	}
}

// Create opens a trip in PREP with its manifest fixed. Stock is untouched
// until departure.
func (s *Service) Create(ctx context.Context, agentID id.ID, destination string, allocations []Allocation) (*Trip, error) {
	trip := NewTrip(agentID, destination)
	for _, a := range allocations {
		trip.Lines = append(trip.Lines, ManifestLine{
			LineID:    id.New(),
			TripID:    trip.ID,
			ItemID:    a.ItemID,
			Allocated: a.Qty,
		})
	}
	if err := trip.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, l := range trip.Lines {
			if _, err := s.items.GetByID(ctx, l.ItemID); err != nil {
				return err
			}
		}

		code, err := s.codes.NextCode(ctx, sequencer.FamilyTrip)
		if err != nil {
			return err
		}
		trip.Code = code

		if err := s.repo.Create(ctx, trip); err != nil {
			return err
		}
		s.auditLog(ctx, trip.ID, "create", map[string]any{
			"code": trip.Code, "agent_id": agentID.String(), "lines": len(trip.Lines),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// TransitionInput carries extra data some transitions require.
type TransitionInput struct {
	// ReturnDate is required for the IN_TRANSIT→RETURNED transition.
	ReturnDate *time.Time
}

// Transition moves a trip through its state machine with the side effects
// each edge carries. Departure takes the full allocation out of stock and
// fails whole if any item is short; cancellation from IN_TRANSIT or RETURNED
// restores only what is still unaccounted for.
func (s *Service) Transition(ctx context.Context, tripID id.ID, to Status, in TransitionInput) (*Trip, error) {
	var trip *Trip
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		trip, err = s.repo.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if !CanTransition(trip.Status, to) {
			return apperror.NewStateConflict("trip", tripID.String(), string(trip.Status), string(to))
		}

		from := trip.Status
		switch to {
		case StatusInTransit:
			if err := s.depart(ctx, trip); err != nil {
				return err
			}
		case StatusReturned:
			if in.ReturnDate == nil {
				return apperror.NewValidation("return date is required").
					WithDetail("field", "returnDate")
			}
			trip.ReturnedAt = in.ReturnDate
		case StatusDone:
			if !trip.FullyConsumed() {
				return apperror.NewStateConflict("trip", tripID.String(), string(trip.Status), string(StatusDone)).
					WithDetail("reason", "manifest lines not fully consumed")
			}
		case StatusCancelled:
			if from == StatusInTransit || from == StatusReturned {
				if err := s.restoreRemaining(ctx, trip); err != nil {
					return err
				}
			}
		}

		trip.Status = to
		trip.Touch()
		if err := s.repo.UpdateHeader(ctx, trip); err != nil {
			return err
		}

		s.auditLog(ctx, trip.ID, "transition", map[string]any{
			"from": string(from), "to": string(to),
		})
		logger.Info(ctx, "trip transitioned",
			"trip_id", trip.ID, "code", trip.Code, "from", string(from), "to", string(to))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *Service) depart(ctx context.Context, trip *Trip) error {
	now := time.Now().UTC()
	trip.DepartedAt = &now

	movements := make([]ledger.Movement, 0, len(trip.Lines))
	for _, l := range trip.Lines {
		movements = append(movements, ledger.Movement{
			ItemID:       l.ItemID,
			Delta:        -l.Allocated,
			Reason:       entity.ReasonTripDeparture,
			DocumentID:   trip.ID,
			DocumentCode: trip.Code,
		})
	}
	// partial departure is not allowed: any shortage fails the transition
	return s.stock.ApplyAll(ctx, movements)
}

func (s *Service) restoreRemaining(ctx context.Context, trip *Trip) error {
	for _, l := range trip.Lines {
		remaining := l.Remaining()
		if remaining == 0 {
			continue
		}
		if _, err := s.stock.Apply(ctx, ledger.Movement{
			ItemID:       l.ItemID,
			Delta:        remaining,
			Reason:       entity.ReasonTripCancellation,
			DocumentID:   trip.ID,
			DocumentCode: trip.Code,
		}); err != nil {
			return err
		}
	}
	return nil
}

// RecordSale books sold quantities against the manifest. The allocation
// already left warehouse stock at departure, so no stock movement happens
// here. Fully consuming the manifest completes the trip.
func (s *Service) RecordSale(ctx context.Context, tripID id.ID, items []SaleItem) (*Trip, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("no sale items given")
	}

	var trip *Trip
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		trip, err = s.repo.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if !trip.AllowsRecording() {
			return apperror.NewStateConflict("trip", tripID.String(), string(trip.Status), "IN_TRANSIT or RETURNED")
		}

		for _, si := range items {
			if si.Qty <= 0 {
				return apperror.NewValidation("sold quantity must be positive").
					WithDetail("item_id", si.ItemID.String())
			}
			line := trip.FindLine(si.ItemID)
			if line == nil {
				return apperror.NewNotFound("manifest line", si.ItemID.String())
			}
			if si.Qty > line.Remaining() {
				return apperror.NewValidation("sold quantity exceeds remaining allocation").
					WithDetail("item_id", si.ItemID.String()).
					WithDetail("remaining", int64(line.Remaining())).
					WithDetail("qty", int64(si.Qty))
			}

			line.Sold += si.Qty
			if err := s.repo.UpdateLine(ctx, *line); err != nil {
				return err
			}
		}

		s.auditLog(ctx, trip.ID, "adjust", map[string]any{"sale_items": len(items)})
		return s.autoComplete(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// RecordReturn books returned quantities against the manifest. GOOD returns
// go back into warehouse stock; DAMAGED and EXPIRED only feed the loss
// report. Fully consuming the manifest completes the trip.
func (s *Service) RecordReturn(ctx context.Context, tripID id.ID, items []ReturnItem, condition ReturnCondition) (*Trip, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("no return items given")
	}
	switch condition {
	case ConditionGood, ConditionDamaged, ConditionExpired:
	default:
		return nil, apperror.NewValidation("unknown return condition").
			WithDetail("condition", string(condition))
	}

	var trip *Trip
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		trip, err = s.repo.GetForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if !trip.AllowsRecording() {
			return apperror.NewStateConflict("trip", tripID.String(), string(trip.Status), "IN_TRANSIT or RETURNED")
		}

		for _, ri := range items {
			if ri.Qty <= 0 {
				return apperror.NewValidation("returned quantity must be positive").
					WithDetail("item_id", ri.ItemID.String())
			}
			line := trip.FindLine(ri.ItemID)
			if line == nil {
				return apperror.NewNotFound("manifest line", ri.ItemID.String())
			}
			if ri.Qty > line.Remaining() {
				return apperror.NewValidation("returned quantity exceeds remaining allocation").
					WithDetail("item_id", ri.ItemID.String()).
					WithDetail("remaining", int64(line.Remaining())).
					WithDetail("qty", int64(ri.Qty))
			}

			line.Returned += ri.Qty
			if err := s.repo.UpdateLine(ctx, *line); err != nil {
				return err
			}

			record := ReturnRecord{
				ID:        id.New(),
				TripID:    trip.ID,
				ItemID:    ri.ItemID,
				Qty:       ri.Qty,
				Condition: condition,
				CreatedAt: time.Now().UTC(),
			}
			if user := corectx.GetUser(ctx); user != nil {
				record.CreatedBy = user.Username
			}
			if err := s.repo.AddReturn(ctx, record); err != nil {
				return err
			}

			if condition == ConditionGood {
				if _, err := s.stock.Apply(ctx, ledger.Movement{
					ItemID:       ri.ItemID,
					Delta:        ri.Qty,
					Reason:       entity.ReasonTripReturn,
					DocumentID:   trip.ID,
					DocumentCode: trip.Code,
				}); err != nil {
					return err
				}
			}
		}

		s.auditLog(ctx, trip.ID, "adjust", map[string]any{
			"return_items": len(items), "condition": string(condition),
		})
		return s.autoComplete(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// autoComplete moves the trip to DONE once every line reaches remaining 0.
func (s *Service) autoComplete(ctx context.Context, trip *Trip) error {
	if !trip.FullyConsumed() {
		return nil
	}
	from := trip.Status
	trip.Status = StatusDone
	trip.Touch()
	if err := s.repo.UpdateHeader(ctx, trip); err != nil {
		return err
	}
	logger.Info(ctx, "trip completed",
		"trip_id", trip.ID, "code", trip.Code, "from", string(from))
	return nil
}

// ReconciliationLine is the audit view of one manifest line.
type ReconciliationLine struct {
	ItemID      id.ID          `json:"itemId"`
	Allocated   types.Quantity `json:"allocated"`
	Sold        types.Quantity `json:"sold"`
	Returned    types.Quantity `json:"returned"`
	Discrepancy types.Quantity `json:"discrepancy"`
	Matched     bool           `json:"matched"`
}

// LossLine is one DAMAGED/EXPIRED loss position valued at item cost.
type LossLine struct {
	ItemID    id.ID            `json:"itemId"`
	Condition ReturnCondition  `json:"condition"`
	Qty       types.Quantity   `json:"qty"`
	UnitCost  types.MinorUnits `json:"unitCost"`
	Loss      types.MinorUnits `json:"loss"`
}

// Reconciliation is the read-only trip audit report.
type Reconciliation struct {
	TripID    id.ID                `json:"tripId"`
	Code      string               `json:"code"`
	Status    Status               `json:"status"`
	Lines     []ReconciliationLine `json:"lines"`
	Losses    []LossLine           `json:"losses"`
	TotalLoss types.MinorUnits     `json:"totalLoss"`
}

// Reconcile builds the reconciliation report for a trip: per-line
// discrepancies plus the valued losses from non-GOOD returns.
func (s *Service) Reconcile(ctx context.Context, tripID id.ID) (*Reconciliation, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	rep := &Reconciliation{
		TripID: trip.ID,
		Code:   trip.Code,
		Status: trip.Status,
	}
	for _, l := range trip.Lines {
		d := l.Allocated - l.Sold - l.Returned
		rep.Lines = append(rep.Lines, ReconciliationLine{
			ItemID:      l.ItemID,
			Allocated:   l.Allocated,
			Sold:        l.Sold,
			Returned:    l.Returned,
			Discrepancy: d,
			Matched:     d == 0,
		})
	}

	returns, err := s.repo.ListReturns(ctx, tripID)
	if err != nil {
		return nil, err
	}
	for _, r := range returns {
		if r.Condition == ConditionGood {
			continue
		}
		it, err := s.items.GetByID(ctx, r.ItemID)
		if err != nil {
			return nil, err
		}
		loss := types.MulQty(it.CostPrice, r.Qty)
		rep.Losses = append(rep.Losses, LossLine{
			ItemID:    r.ItemID,
			Condition: r.Condition,
			Qty:       r.Qty,
			UnitCost:  it.CostPrice,
			Loss:      loss,
		})
		rep.TotalLoss += loss
	}
	return rep, nil
}

// Get loads a trip with its manifest.
func (s *Service) Get(ctx context.Context, tripID id.ID) (*Trip, error) {
	return s.repo.GetByID(ctx, tripID)
}

// List returns trips matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Trip, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) auditLog(ctx context.Context, tripID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, "trip", tripID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "trip_id", tripID, "action", action, "error", err)
	}
}
