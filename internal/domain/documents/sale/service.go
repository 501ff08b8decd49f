package sale

import (
	"context"
	"time"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/tx"
	"ritel/internal/core/types"
	"ritel/internal/domain/balances"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/documents"
	"ritel/internal/domain/ledger"
	"ritel/pkg/logger"
	"ritel/pkg/sequencer"
)

// AdjustKind selects the direction of a post-completion adjustment.
type AdjustKind string

const (
	// AdjustReturn takes sold pieces back into stock.
	AdjustReturn AdjustKind = "RETURN"
	// AdjustAdd sells more pieces against the existing line.
	AdjustAdd AdjustKind = "ADD"
)

// StockApplier is the slice of the ledger the sale service uses.
type StockApplier interface {
	Apply(ctx context.Context, m ledger.Movement) (types.Quantity, error)
	ApplyAll(ctx context.Context, movements []ledger.Movement) error
}

// ReceivableKeeper guards and moves the customer receivable.
type ReceivableKeeper interface {
	CheckCredit(ctx context.Context, customerID id.ID, newDebt types.MinorUnits) error
	AdjustReceivable(ctx context.Context, customerID id.ID, delta types.MinorUnits) (types.MinorUnits, error)
	ReconcileCustomer(ctx context.Context, customerID id.ID) (balances.Reconciliation, error)
}

// ItemReader provides item lookups, including the per-day sold counter for
// daily-limit enforcement.
type ItemReader interface {
	GetByID(ctx context.Context, id id.ID) (*item.Item, error)
	SoldToday(ctx context.Context, id id.ID) (types.Quantity, error)
}

// Auditor records document mutations. Optional; nil disables auditing.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service implements the sale document operations.
type Service struct {
	txm        tx.Manager
	repo       Repository
	items      ItemReader
	codes      documents.CodeIssuer
	stock      StockApplier
	receivable ReceivableKeeper
	audit      Auditor
}

// NewService creates a sale service.
func NewService(
	txm tx.Manager,
	repo Repository,
	items ItemReader,
	codes documents.CodeIssuer,
	stock StockApplier,
	receivable ReceivableKeeper,
	audit Auditor,
) *Service {
	return &Service{
		txm:        txm,
		repo:       repo,
		items:      items,
		codes:      codes,
		stock:      stock,
		receivable: receivable,
		audit:      audit,
	}
}

// CreateCart opens a new sale cart. customerID may be id.Nil for walk-ins.
func (s *Service) CreateCart(ctx context.Context, customerID id.ID) (*Document, error) {
	doc := NewDocument(customerID)
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return err
		}
		s.auditLog(ctx, doc.ID, "create", map[string]any{"customer_id": doc.CustomerID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AddItem puts pieces of an item on a cart, merging with an existing line.
// Price defaults to the item's sale price when unitPrice is negative;
// discount is granted per full package, with loose pieces prorated.
func (s *Service) AddItem(ctx context.Context, docID, itemID id.ID, qty types.Quantity, unitPrice, discount types.MinorUnits) (*Document, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "qty")
	}
	if discount < 0 {
		return nil, apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discount")
	}

	var doc *Document
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}

		it, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if unitPrice < 0 {
			unitPrice = it.SalePrice
		}
		if discount > types.MulQty(unitPrice, it.UnitsPerPackage) {
			return apperror.NewValidation("discount exceeds the package price").
				WithDetail("field", "discount")
		}

		if line := doc.FindLine(itemID); line != nil {
			line.Qty += qty
			line.UnitPrice = unitPrice
			line.Discount = discount
		} else {
			doc.Lines = append(doc.Lines, Line{
				LineID:     id.New(),
				DocumentID: doc.ID,
				ItemID:     itemID,
				Qty:        qty,
				UnitPrice:  unitPrice,
				PerPackage: it.UnitsPerPackage,
				Discount:   discount,
			})
		}

		doc.RecalculateTotal()
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// RemoveItem takes an item line off a cart.
func (s *Service) RemoveItem(ctx context.Context, docID, itemID id.ID) (*Document, error) {
	var doc *Document
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}

		kept := doc.Lines[:0]
		found := false
		for _, l := range doc.Lines {
			if l.ItemID == itemID {
				found = true
				continue
			}
			kept = append(kept, l)
		}
		if !found {
			return apperror.NewNotFound("sale line", itemID.String())
		}
		doc.Lines = kept

		doc.RecalculateTotal()
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CheckoutInput carries settlement details for checkout.
type CheckoutInput struct {
	Paid   types.MinorUnits
	Method documents.PaymentMethod

	// DueDate is required when Paid < Total.
	DueDate *time.Time
}

// Checkout finalizes a sale cart in one serializable transaction: enforces
// daily sale limits, moves stock out, runs the credit guard for any unpaid
// remainder, posts the new debt to the receivable and records the settlement.
func (s *Service) Checkout(ctx context.Context, docID id.ID, in CheckoutInput) (*Document, error) {
	if in.Paid < 0 {
		return nil, apperror.NewValidation("paid amount cannot be negative").
			WithDetail("field", "paid")
	}

	var doc *Document
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if len(doc.Lines) == 0 {
			return apperror.NewValidation("cannot checkout an empty cart").
				WithDetail("document_id", docID.String())
		}
		doc.RecalculateTotal()

		if in.Paid > doc.Total {
			return apperror.NewValidation("paid amount exceeds document total").
				WithDetail("total", int64(doc.Total)).
				WithDetail("paid", int64(in.Paid))
		}

		newDebt := doc.Total - in.Paid
		if newDebt > 0 {
			if !doc.HasCustomer() {
				return apperror.NewValidation("walk-in sale must be fully paid").
					WithDetail("total", int64(doc.Total)).
					WithDetail("paid", int64(in.Paid))
			}
			if in.DueDate == nil {
				return apperror.NewValidation("due date is required for credit sale").
					WithDetail("field", "dueDate")
			}
			if err := s.receivable.CheckCredit(ctx, doc.CustomerID, newDebt); err != nil {
				return err
			}
		}

		if err := s.checkDailyLimits(ctx, doc); err != nil {
			return err
		}

		code, err := s.codes.NextCode(ctx, sequencer.FamilySale)
		if err != nil {
			return err
		}
		doc.Code = code

		movements := make([]ledger.Movement, 0, len(doc.Lines))
		for _, l := range doc.Lines {
			movements = append(movements, ledger.Movement{
				ItemID:       l.ItemID,
				Delta:        -l.Qty,
				Reason:       entity.ReasonSaleCompletion,
				DocumentID:   doc.ID,
				DocumentCode: doc.Code,
			})
		}
		if err := s.stock.ApplyAll(ctx, movements); err != nil {
			return err
		}

		doc.MarkCompleted(in.Paid, in.DueDate)
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		if in.Paid > 0 {
			payCode, err := s.codes.NextCode(ctx, sequencer.FamilyPayment)
			if err != nil {
				return err
			}
			if err := s.repo.AddPayment(ctx, documents.NewPayment(payCode, doc.ID, in.Paid, in.Method)); err != nil {
				return err
			}
		}

		if newDebt > 0 {
			if _, err := s.receivable.AdjustReceivable(ctx, doc.CustomerID, newDebt); err != nil {
				return err
			}
		}

		s.auditLog(ctx, doc.ID, "checkout", map[string]any{
			"code": doc.Code, "total": int64(doc.Total), "paid": int64(in.Paid),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale completed",
		"document_id", doc.ID, "code", doc.Code,
		"total", int64(doc.Total), "pay_status", string(doc.PayStatus))
	return doc, nil
}

// Cancel abandons a cart. Completed sales change only via Adjust.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Document, error) {
	var doc *Document
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}

		doc.MarkCancelled()
		if err := s.repo.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		s.auditLog(ctx, doc.ID, "cancel", nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PayDebt settles part or all of an OWED sale and reduces the receivable.
func (s *Service) PayDebt(ctx context.Context, docID id.ID, amount types.MinorUnits, method documents.PaymentMethod) (*Document, error) {
	if amount <= 0 {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	var doc *Document
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != entity.StatusCompleted {
			return apperror.NewStateConflict("sale", docID.String(), string(doc.Status), string(entity.StatusCompleted))
		}
		if doc.PayStatus != entity.PayStatusOwed {
			return apperror.NewStateConflict("sale", docID.String(), string(doc.PayStatus), string(entity.PayStatusOwed))
		}
		if amount > doc.Outstanding() {
			return apperror.NewValidation("payment exceeds outstanding debt").
				WithDetail("outstanding", int64(doc.Outstanding())).
				WithDetail("amount", int64(amount))
		}

		payCode, err := s.codes.NextCode(ctx, sequencer.FamilyPayment)
		if err != nil {
			return err
		}
		if err := s.repo.AddPayment(ctx, documents.NewPayment(payCode, doc.ID, amount, method)); err != nil {
			return err
		}

		doc.ApplyPayment(amount)
		if err := s.repo.UpdateHeader(ctx, doc); err != nil {
			return err
		}

		if doc.HasCustomer() {
			if _, err := s.receivable.AdjustReceivable(ctx, doc.CustomerID, -amount); err != nil {
				return err
			}
		}

		s.auditLog(ctx, doc.ID, "payment", map[string]any{
			"amount": int64(amount), "code": payCode,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Adjust modifies a COMPLETED sale in place: RETURN takes pieces back into
// stock, ADD sells more against the existing line. The unit price is
// re-derived from the stored line total and previous quantity, so the
// adjustment uses the price the customer actually paid, including any
// line-level discount.
func (s *Service) Adjust(ctx context.Context, docID, itemID id.ID, kind AdjustKind, qty types.Quantity) (*Document, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("adjustment quantity must be positive").
			WithDetail("field", "qty")
	}
	if kind != AdjustReturn && kind != AdjustAdd {
		return nil, apperror.NewValidation("unknown adjustment kind").
			WithDetail("kind", string(kind))
	}

	var doc *Document
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != entity.StatusCompleted {
			return apperror.NewStateConflict("sale", docID.String(), string(doc.Status), string(entity.StatusCompleted))
		}

		line := doc.FindLine(itemID)
		if line == nil {
			return apperror.NewNotFound("sale line", itemID.String())
		}
		if kind == AdjustReturn && qty > line.Qty {
			return apperror.NewValidation("cannot return more than was sold").
				WithDetail("sold", int64(line.Qty)).
				WithDetail("qty", int64(qty))
		}

		unit := types.UnitPriceFromLineTotal(line.LineTotal, line.Qty)
		amount := types.MulQty(unit, qty)

		outstandingBefore := doc.Outstanding()

		var stockDelta types.Quantity
		switch kind {
		case AdjustReturn:
			line.Qty -= qty
			line.LineTotal -= amount
			stockDelta = qty
		case AdjustAdd:
			line.Qty += qty
			line.LineTotal += amount
			stockDelta = -qty
		}
		line.UnitPrice = unit

		doc.Total = doc.SumLineTotals()
		debtDelta := doc.Outstanding() - outstandingBefore

		if debtDelta > 0 {
			if !doc.HasCustomer() {
				return apperror.NewValidation("cannot add debt to a walk-in sale").
					WithDetail("document_id", docID.String())
			}
			if err := s.receivable.CheckCredit(ctx, doc.CustomerID, debtDelta); err != nil {
				return err
			}
		}

		if kind == AdjustAdd {
			if err := s.checkDailyLimitFor(ctx, itemID, qty); err != nil {
				return err
			}
		}

		if _, err := s.stock.Apply(ctx, ledger.Movement{
			ItemID:       itemID,
			Delta:        stockDelta,
			Reason:       entity.ReasonSaleAdjustment,
			DocumentID:   doc.ID,
			DocumentCode: doc.Code,
		}); err != nil {
			return err
		}

		if doc.Outstanding() == 0 {
			doc.PayStatus = entity.PayStatusPaid
		} else {
			doc.PayStatus = entity.PayStatusOwed
		}
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		if debtDelta != 0 && doc.HasCustomer() {
			if _, err := s.receivable.AdjustReceivable(ctx, doc.CustomerID, debtDelta); err != nil {
				return err
			}
		}

		s.auditLog(ctx, doc.ID, "adjust", map[string]any{
			"item_id": itemID.String(), "kind": string(kind),
			"qty": int64(qty), "unit_price": int64(unit),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Reconcile recomputes the customer's receivable from sale documents and
// corrects drift.
func (s *Service) Reconcile(ctx context.Context, customerID id.ID) (balances.Reconciliation, error) {
	var rec balances.Reconciliation
	err := s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.receivable.ReconcileCustomer(ctx, customerID)
		return err
	})
	return rec, err
}

// Get loads a sale document with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns sale documents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.List(ctx, filter)
}

// Payments returns the settlement history for a document.
func (s *Service) Payments(ctx context.Context, docID id.ID) ([]documents.Payment, error) {
	return s.repo.ListPayments(ctx, docID)
}

func (s *Service) checkDailyLimits(ctx context.Context, doc *Document) error {
	for _, l := range doc.Lines {
		if err := s.checkDailyLimitFor(ctx, l.ItemID, l.Qty); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkDailyLimitFor(ctx context.Context, itemID id.ID, qty types.Quantity) error {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if it.DailySaleLimit == nil {
		return nil
	}

	sold, err := s.items.SoldToday(ctx, itemID)
	if err != nil {
		return err
	}
	if sold+qty > *it.DailySaleLimit {
		return apperror.NewValidation("daily sale limit reached").
			WithDetail("item_id", itemID.String()).
			WithDetail("limit", int64(*it.DailySaleLimit)).
			WithDetail("sold_today", int64(sold)).
			WithDetail("requested", int64(qty))
	}
	return nil
}

func (s *Service) auditLog(ctx context.Context, docID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, "sale", docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "document_id", docID, "action", action, "error", err)
	}
}
