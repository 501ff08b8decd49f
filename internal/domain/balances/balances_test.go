package balances

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/supplier"
)

type fakeSupplierStore struct {
	mu          sync.Mutex
	suppliers   map[id.ID]*supplier.Supplier
	outstanding map[id.ID]types.MinorUnits
}

func newFakeSupplierStore(s *supplier.Supplier) *fakeSupplierStore {
	return &fakeSupplierStore{
		suppliers:   map[id.ID]*supplier.Supplier{s.ID: s},
		outstanding: make(map[id.ID]types.MinorUnits),
	}
}

func (f *fakeSupplierStore) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID.String())
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSupplierStore) UpdatePayable(ctx context.Context, supplierID id.ID, payable types.MinorUnits) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppliers[supplierID].Payable = payable
	return nil
}

func (f *fakeSupplierStore) SumOutstandingPurchases(ctx context.Context, supplierID id.ID) (types.MinorUnits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding[supplierID], nil
}

type fakeCustomerStore struct {
	mu          sync.Mutex
	customers   map[id.ID]*customer.Customer
	outstanding map[id.ID]types.MinorUnits
}

func newFakeCustomerStore(c *customer.Customer) *fakeCustomerStore {
	return &fakeCustomerStore{
		customers:   map[id.ID]*customer.Customer{c.ID: c},
		outstanding: make(map[id.ID]types.MinorUnits),
	}
}

func (f *fakeCustomerStore) GetForUpdate(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomerStore) UpdateReceivable(ctx context.Context, customerID id.ID, receivable types.MinorUnits) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[customerID].Receivable = receivable
	return nil
}

func (f *fakeCustomerStore) SumOutstandingSales(ctx context.Context, customerID id.ID) (types.MinorUnits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding[customerID], nil
}

func TestRecalculateSupplier_FullRecompute(t *testing.T) {
	sup := supplier.NewSupplier("SUP-1", "Wholesale Co")
	sup.Payable = 99999 // stale
	store := newFakeSupplierStore(sup)
	store.outstanding[sup.ID] = 250000

	svc := NewService(store, nil)
	payable, err := svc.RecalculateSupplier(context.Background(), sup.ID)

	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(250000), payable)
	assert.Equal(t, types.MinorUnits(250000), store.suppliers[sup.ID].Payable)
}

func TestRecalculateSupplier_ClampsNegative(t *testing.T) {
	sup := supplier.NewSupplier("SUP-2", "Overpaid Co")
	store := newFakeSupplierStore(sup)
	store.outstanding[sup.ID] = -5000 // overpayment

	svc := NewService(store, nil)
	payable, err := svc.RecalculateSupplier(context.Background(), sup.ID)

	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), payable)
}

func TestRecalculateSupplier_UnknownSupplier(t *testing.T) {
	store := newFakeSupplierStore(supplier.NewSupplier("SUP-3", "Known"))
	svc := NewService(store, nil)

	_, err := svc.RecalculateSupplier(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdjustReceivable_Increment(t *testing.T) {
	c := customer.NewCustomer("CUS-1", "Corner Shop", 1000000)
	c.Receivable = 30000
	store := newFakeCustomerStore(c)
	svc := NewService(nil, store)

	got, err := svc.AdjustReceivable(context.Background(), c.ID, 12000)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(42000), got)
}

func TestAdjustReceivable_RepaymentClampedAtZero(t *testing.T) {
	c := customer.NewCustomer("CUS-2", "Corner Shop", 1000000)
	c.Receivable = 5000
	store := newFakeCustomerStore(c)
	svc := NewService(nil, store)

	got, err := svc.AdjustReceivable(context.Background(), c.ID, -8000)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), got)
}

func TestCheckCredit_WithinLimit(t *testing.T) {
	c := customer.NewCustomer("CUS-3", "Corner Shop", 100000)
	c.Receivable = 40000
	svc := NewService(nil, newFakeCustomerStore(c))

	assert.NoError(t, svc.CheckCredit(context.Background(), c.ID, 60000))
}

func TestCheckCredit_ExceedsLimit(t *testing.T) {
	c := customer.NewCustomer("CUS-4", "Corner Shop", 100000)
	c.Receivable = 40000
	svc := NewService(nil, newFakeCustomerStore(c))

	err := svc.CheckCredit(context.Background(), c.ID, 60001)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCreditLimitExceeded, appErr.Code)
	assert.Equal(t, int64(100000), appErr.Details["credit_limit"])
	assert.Equal(t, int64(40000), appErr.Details["current_receivable"])
}

func TestCheckCredit_ZeroLimitMeansUnlimited(t *testing.T) {
	c := customer.NewCustomer("CUS-5", "House Account", 0)
	c.Receivable = 900000000
	svc := NewService(nil, newFakeCustomerStore(c))

	assert.NoError(t, svc.CheckCredit(context.Background(), c.ID, 100000000))
}

func TestReconcileCustomer_CorrectsDrift(t *testing.T) {
	c := customer.NewCustomer("CUS-6", "Corner Shop", 1000000)
	c.Receivable = 50000 // stored
	store := newFakeCustomerStore(c)
	store.outstanding[c.ID] = 47000 // derived from documents

	svc := NewService(nil, store)
	rec, err := svc.ReconcileCustomer(context.Background(), c.ID)

	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(50000), rec.Stored)
	assert.Equal(t, types.MinorUnits(47000), rec.Derived)
	assert.Equal(t, types.MinorUnits(3000), rec.Drift)
	assert.Equal(t, types.MinorUnits(47000), store.customers[c.ID].Receivable)
}

func TestReconcileCustomer_NoDriftNoWrite(t *testing.T) {
	c := customer.NewCustomer("CUS-7", "Corner Shop", 1000000)
	c.Receivable = 47000
	store := newFakeCustomerStore(c)
	store.outstanding[c.ID] = 47000

	svc := NewService(nil, store)
	rec, err := svc.ReconcileCustomer(context.Background(), c.ID)

	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(0), rec.Drift)
}
