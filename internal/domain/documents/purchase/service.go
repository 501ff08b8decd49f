package purchase

import (
	"context"
	"time"

	"ritel/internal/core/apperror"
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

// StockApplier is the slice of the ledger the purchase service uses.
type StockApplier interface {
	ApplyAll(ctx context.Context, movements []ledger.Movement) error
}

// PayableRecalculator recomputes the supplier payable after any mutation
// that could affect it.
type PayableRecalculator interface {
	RecalculateSupplier(ctx context.Context, supplierID id.ID) (types.MinorUnits, error)
}

// ItemReader provides item lookups for line validation.
type ItemReader interface {
	GetByID(ctx context.Context, id id.ID) (*item.Item, error)
}

// Auditor records document mutations. Optional; nil disables auditing.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service implements the purchase document operations. Every mutating
// operation runs as one transaction: validate, move stock, recompute the
// payable, persist — or nothing at all.
type Service struct {
	txm     tx.Manager
	repo    Repository
	items   ItemReader
	codes   documents.CodeIssuer
	stock   StockApplier
	payable PayableRecalculator
	audit   Auditor
}

// NewService creates a purchase service.
func NewService(
	txm tx.Manager,
	repo Repository,
	items ItemReader,
	codes documents.CodeIssuer,
	stock StockApplier,
	payable PayableRecalculator,
	audit Auditor,
) *Service {
	return &Service{
		txm:     txm,
		repo:    repo,
		items:   items,
		codes:   codes,
		stock:   stock,
		payable: payable,
		audit:   audit,
	}
}

// CreateCart opens a new purchase cart for a supplier.
func (s *Service) CreateCart(ctx context.Context, supplierID id.ID) (*Document, error) {
	doc := NewDocument(supplierID)
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return err
		}
		s.auditLog(ctx, doc.ID, "create", map[string]any{"supplier_id": doc.SupplierID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AddItem puts packages of an item on a cart, merging with an existing line
// for the same item. The package size is snapshotted from the item; discount
// is the supplier discount per package.
func (s *Service) AddItem(ctx context.Context, docID, itemID id.ID, packages types.Quantity, packageCost, discount types.MinorUnits) (*Document, error) {
	if packages <= 0 {
		return nil, apperror.NewValidation("packages must be positive").
			WithDetail("field", "packages")
	}
	if packageCost < 0 {
		return nil, apperror.NewValidation("package cost cannot be negative").
			WithDetail("field", "packageCost")
	}
	if discount < 0 || discount > packageCost {
		return nil, apperror.NewValidation("discount must be between zero and the package cost").
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

		if line := doc.FindLine(itemID); line != nil {
			line.Packages += packages
			line.PackageCost = packageCost
			line.Discount = discount
		} else {
			doc.Lines = append(doc.Lines, Line{
				LineID:      id.New(),
				DocumentID:  doc.ID,
				ItemID:      itemID,
				Packages:    packages,
				PerPackage:  it.UnitsPerPackage,
				PackageCost: packageCost,
				Discount:    discount,
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
			return apperror.NewNotFound("purchase line", itemID.String())
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
	// Paid is the amount settled at checkout; less than the total leaves
	// the document OWED.
	Paid types.MinorUnits

	Method documents.PaymentMethod

	// DueDate is required when Paid < Total.
	DueDate *time.Time
}

// Checkout finalizes a cart: issues the document code, brings the purchased
// pieces into stock, records the settlement and recomputes the supplier
// payable — all in one serializable transaction.
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

		if in.Paid < doc.Total && in.DueDate == nil {
			return apperror.NewValidation("due date is required for partially paid purchase").
				WithDetail("field", "dueDate")
		}
		if in.Paid > doc.Total {
			return apperror.NewValidation("paid amount exceeds document total").
				WithDetail("total", int64(doc.Total)).
				WithDetail("paid", int64(in.Paid))
		}

		code, err := s.codes.NextCode(ctx, sequencer.FamilyPurchase)
		if err != nil {
			return err
		}
		doc.Code = code

		movements := make([]ledger.Movement, 0, len(doc.Lines))
		for _, l := range doc.Lines {
			movements = append(movements, ledger.Movement{
				ItemID:       l.ItemID,
				Delta:        l.Pieces(),
				Reason:       entity.ReasonPurchaseCompletion,
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

		if _, err := s.payable.RecalculateSupplier(ctx, doc.SupplierID); err != nil {
			return err
		}

		s.auditLog(ctx, doc.ID, "checkout", map[string]any{
			"code": doc.Code, "total": int64(doc.Total), "paid": int64(in.Paid),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase completed",
		"document_id", doc.ID, "code", doc.Code,
		"total", int64(doc.Total), "pay_status", string(doc.PayStatus))
	return doc, nil
}

// Cancel abandons a cart. Completed purchases cannot be cancelled.
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

// PayDebt settles part or all of an OWED purchase and recomputes the payable.
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
			return apperror.NewStateConflict("purchase", docID.String(), string(doc.Status), string(entity.StatusCompleted))
		}
		if doc.PayStatus != entity.PayStatusOwed {
			return apperror.NewStateConflict("purchase", docID.String(), string(doc.PayStatus), string(entity.PayStatusOwed))
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

		if _, err := s.payable.RecalculateSupplier(ctx, doc.SupplierID); err != nil {
			return err
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

// Get loads a purchase document with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns purchase documents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.List(ctx, filter)
}

// Payments returns the settlement history for a document.
func (s *Service) Payments(ctx context.Context, docID id.ID) ([]documents.Payment, error) {
	return s.repo.ListPayments(ctx, docID)
}

func (s *Service) auditLog(ctx context.Context, docID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, "purchase", docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "document_id", docID, "action", action, "error", err)
	}
}
