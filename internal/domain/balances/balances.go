// Package balances maintains the derived money balances: supplier payable
// and customer receivable.
//
// The two sides deliberately use different strategies. Payables are few and
// mutate rarely, so every change triggers a full recompute from the document
// set. Receivables sit on the sale hot path, so they move incrementally and
// a reconcile pass corrects any drift against the documents.
package balances

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/supplier"
	"ritel/pkg/logger"
)

// SupplierStore is the slice of the supplier repository the recalculator uses.
type SupplierStore interface {
	GetByID(ctx context.Context, id id.ID) (*supplier.Supplier, error)
	UpdatePayable(ctx context.Context, id id.ID, payable types.MinorUnits) error
	SumOutstandingPurchases(ctx context.Context, id id.ID) (types.MinorUnits, error)
}

// CustomerStore is the slice of the customer repository the recalculator uses.
type CustomerStore interface {
	GetForUpdate(ctx context.Context, id id.ID) (*customer.Customer, error)
	UpdateReceivable(ctx context.Context, id id.ID, receivable types.MinorUnits) error
	SumOutstandingSales(ctx context.Context, id id.ID) (types.MinorUnits, error)
}

// Service recomputes and adjusts balances. Methods must run inside the same
// transaction as the document mutation they follow.
type Service struct {
	suppliers SupplierStore
	customers CustomerStore
}

// NewService creates a balance service.
func NewService(suppliers SupplierStore, customers CustomerStore) *Service {
	return &Service{suppliers: suppliers, customers: customers}
}

// RecalculateSupplier recomputes the payable from scratch: the sum of
// outstanding amounts over the supplier's completed purchase documents.
// The result is clamped at zero; overpayment shows as fully settled.
func (s *Service) RecalculateSupplier(ctx context.Context, supplierID id.ID) (types.MinorUnits, error) {
	if _, err := s.suppliers.GetByID(ctx, supplierID); err != nil {
		return 0, err
	}

	sum, err := s.suppliers.SumOutstandingPurchases(ctx, supplierID)
	if err != nil {
		return 0, err
	}
	payable := sum.ClampNonNegative()

	if err := s.suppliers.UpdatePayable(ctx, supplierID, payable); err != nil {
		return 0, err
	}

	logger.Debug(ctx, "supplier payable recomputed",
		"supplier_id", supplierID, "payable", int64(payable))
	return payable, nil
}

// AdjustReceivable moves the customer receivable by delta under a row lock.
// Positive delta is new debt, negative delta is repayment or a returned sale.
// The balance never goes below zero; excess repayment is absorbed.
func (s *Service) AdjustReceivable(ctx context.Context, customerID id.ID, delta types.MinorUnits) (types.MinorUnits, error) {
	c, err := s.customers.GetForUpdate(ctx, customerID)
	if err != nil {
		return 0, err
	}

	receivable := (c.Receivable + delta).ClampNonNegative()
	if err := s.customers.UpdateReceivable(ctx, customerID, receivable); err != nil {
		return 0, err
	}

	logger.Debug(ctx, "customer receivable adjusted",
		"customer_id", customerID, "delta", int64(delta), "receivable", int64(receivable))
	return receivable, nil
}

// CheckCredit verifies that adding newDebt to the customer's receivable stays
// within the credit limit. It locks the customer row so a concurrent sale
// cannot slip debt in between the check and the later adjustment.
//
// A zero credit limit means unlimited credit.
func (s *Service) CheckCredit(ctx context.Context, customerID id.ID, newDebt types.MinorUnits) error {
	if newDebt <= 0 {
		return nil
	}

	c, err := s.customers.GetForUpdate(ctx, customerID)
	if err != nil {
		return err
	}

	if c.CreditLimit > 0 && c.Receivable+newDebt > c.CreditLimit {
		return apperror.NewCreditLimitExceeded(customerID.String(), c.CreditLimit, c.Receivable, newDebt)
	}
	return nil
}

// ReconcileCustomer recomputes the receivable from the sale documents and
// overwrites the incremental balance when they disagree. Returns the drift
// that was corrected (zero when the balances already matched).
func (s *Service) ReconcileCustomer(ctx context.Context, customerID id.ID) (Reconciliation, error) {
	c, err := s.customers.GetForUpdate(ctx, customerID)
	if err != nil {
		return Reconciliation{}, err
	}

	derived, err := s.customers.SumOutstandingSales(ctx, customerID)
	if err != nil {
		return Reconciliation{}, err
	}
	derived = derived.ClampNonNegative()

	rec := Reconciliation{
		CustomerID: customerID,
		Stored:     c.Receivable,
		Derived:    derived,
		Drift:      c.Receivable - derived,
	}

	if rec.Drift != 0 {
		if err := s.customers.UpdateReceivable(ctx, customerID, derived); err != nil {
			return Reconciliation{}, err
		}
		logger.Warn(ctx, "customer receivable drift corrected",
			"customer_id", customerID,
			"stored", int64(rec.Stored),
			"derived", int64(derived))
	}
	return rec, nil
}

// Reconciliation reports a stored-versus-derived receivable comparison.
type Reconciliation struct {
	CustomerID id.ID            `json:"customerId"`
	Stored     types.MinorUnits `json:"stored"`
	Derived    types.MinorUnits `json:"derived"`
	Drift      types.MinorUnits `json:"drift"`
}
