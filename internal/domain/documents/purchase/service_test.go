package purchase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/documents"
	"ritel/internal/domain/ledger"
)

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	docs     map[id.ID]*Document
	payments []documents.Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[id.ID]*Document)}
}

func (r *fakeRepo) Create(ctx context.Context, doc *Document) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase", docID.String())
	}
	cp := *doc
	cp.Lines = append([]Line(nil), doc.Lines...)
	return &cp, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) Update(ctx context.Context, doc *Document) error {
	cp := *doc
	cp.Lines = append([]Line(nil), doc.Lines...)
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateHeader(ctx context.Context, doc *Document) error {
	stored := r.docs[doc.ID]
	cp := *doc
	cp.Lines = stored.Lines
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	var out []*Document
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeRepo) AddPayment(ctx context.Context, p documents.Payment) error {
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakeRepo) ListPayments(ctx context.Context, documentID id.ID) ([]documents.Payment, error) {
	var out []documents.Payment
	for _, p := range r.payments {
		if p.DocumentID == documentID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeItems struct {
	items map[id.ID]*item.Item
}

func (f *fakeItems) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	it, ok := f.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID.String())
	}
	return it, nil
}

type fakeCodes struct {
	counters map[string]int
}

func (f *fakeCodes) NextCode(ctx context.Context, family string) (string, error) {
	if f.counters == nil {
		f.counters = make(map[string]int)
	}
	f.counters[family]++
	return fmt.Sprintf("%s-20260827-%04d", family, f.counters[family]), nil
}

type fakeStock struct {
	movements []ledger.Movement
	failWith  error
}

func (f *fakeStock) ApplyAll(ctx context.Context, movements []ledger.Movement) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.movements = append(f.movements, movements...)
	return nil
}

type fakePayable struct {
	recalculated []id.ID
}

func (f *fakePayable) RecalculateSupplier(ctx context.Context, supplierID id.ID) (types.MinorUnits, error) {
	f.recalculated = append(f.recalculated, supplierID)
	return 0, nil
}

type purchaseFixture struct {
	svc     *Service
	repo    *fakeRepo
	stock   *fakeStock
	payable *fakePayable
	item    *item.Item
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	it := item.NewItem("SKU-1", "Rice 1kg", 10)
	it.OnHand = 100

	repo := newFakeRepo()
	stock := &fakeStock{}
	payable := &fakePayable{}
	svc := NewService(
		passthroughTxManager{},
		repo,
		&fakeItems{items: map[id.ID]*item.Item{it.ID: it}},
		&fakeCodes{},
		stock,
		payable,
		nil,
	)
	return &purchaseFixture{svc: svc, repo: repo, stock: stock, payable: payable, item: it}
}

func TestCheckout_FivePackagesIntoStock(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	supplierID := id.New()

	doc, err := f.svc.CreateCart(ctx, supplierID)
	require.NoError(t, err)

	doc, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 5, 9000, 0)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(45000), doc.Total)

	doc, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 45000, Method: documents.MethodCash})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCompleted, doc.Status)
	assert.Equal(t, entity.PayStatusPaid, doc.PayStatus)
	assert.Equal(t, "PO-20260827-0001", doc.Code)

	// 5 packages of 10 pieces enter stock
	require.Len(t, f.stock.movements, 1)
	assert.Equal(t, types.Quantity(50), f.stock.movements[0].Delta)
	assert.Equal(t, entity.ReasonPurchaseCompletion, f.stock.movements[0].Reason)
	assert.Equal(t, doc.Code, f.stock.movements[0].DocumentCode)

	assert.Equal(t, []id.ID{supplierID}, f.payable.recalculated)
	require.Len(t, f.repo.payments, 1)
	assert.Equal(t, types.MinorUnits(45000), f.repo.payments[0].Amount)
}

func TestCheckout_PartialPaymentRequiresDueDate(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 2, 9000, 0)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 5000})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	due := time.Now().AddDate(0, 0, 14)
	doc, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 5000, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, entity.PayStatusOwed, doc.PayStatus)
	assert.Equal(t, types.MinorUnits(13000), doc.Outstanding())
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCheckout_AlreadyCompletedConflicts(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 1, 9000, 0)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 9000})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 9000})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))
}

func TestCheckout_StockFailureLeavesCart(t *testing.T) {
	f := newPurchaseFixture(t)
	f.stock.failWith = apperror.NewInternal(assert.AnError)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 1, 9000, 0)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 9000})
	require.Error(t, err)
	assert.Empty(t, f.payable.recalculated)
}

func TestAddItem_MergesLines(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 2, 9000, 0)
	require.NoError(t, err)
	doc, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 3, 9500, 0)
	require.NoError(t, err)

	require.Len(t, doc.Lines, 1)
	assert.Equal(t, types.Quantity(5), doc.Lines[0].Packages)
	assert.Equal(t, types.MinorUnits(9500), doc.Lines[0].PackageCost)
	assert.Equal(t, types.MinorUnits(47500), doc.Total)
}

func TestAddItem_PackageDiscountReducesTotal(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)

	// 5 packages at 9000 with a 500 discount per package
	doc, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 5, 9000, 500)
	require.NoError(t, err)

	require.Len(t, doc.Lines, 1)
	assert.Equal(t, types.MinorUnits(500), doc.Lines[0].Discount)
	assert.Equal(t, types.MinorUnits(42500), doc.Lines[0].LineTotal)
	assert.Equal(t, types.MinorUnits(42500), doc.Total)
}

func TestAddItem_DiscountAbovePackageCostRejected(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 1, 9000, 9001)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 1, 9000, -1)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRemoveItem_UnknownLine(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, doc.ID, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestPayDebt_SettlesAndRecalculates(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	supplierID := id.New()

	doc, err := f.svc.CreateCart(ctx, supplierID)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 5, 9000, 0)
	require.NoError(t, err)
	due := time.Now().AddDate(0, 0, 30)
	doc, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 20000, DueDate: &due})
	require.NoError(t, err)
	require.Equal(t, types.MinorUnits(25000), doc.Outstanding())

	doc, err = f.svc.PayDebt(ctx, doc.ID, 25000, documents.MethodTransfer)
	require.NoError(t, err)
	assert.Equal(t, entity.PayStatusPaid, doc.PayStatus)
	assert.Equal(t, types.MinorUnits(0), doc.Outstanding())

	// checkout + debt payment both recalculated the payable
	assert.Equal(t, []id.ID{supplierID, supplierID}, f.payable.recalculated)
	// checkout settlement + debt payment
	assert.Len(t, f.repo.payments, 2)
}

func TestPayDebt_OverpaymentRejected(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, doc.ID, f.item.ID, 1, 9000, 0)
	require.NoError(t, err)
	due := time.Now().AddDate(0, 0, 7)
	_, err = f.svc.Checkout(ctx, doc.ID, CheckoutInput{Paid: 0, DueDate: &due})
	require.NoError(t, err)

	_, err = f.svc.PayDebt(ctx, doc.ID, 9001, documents.MethodCash)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCancel_CartOnly(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateCart(ctx, id.New())
	require.NoError(t, err)

	doc, err = f.svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, doc.Status)

	_, err = f.svc.Cancel(ctx, doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))
}
