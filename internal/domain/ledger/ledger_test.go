package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ritel/internal/core/apperror"
	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/item"
)

// fakeItemStore keeps items in memory. The mutex stands in for the row lock
// the real repository takes with SELECT ... FOR UPDATE.
type fakeItemStore struct {
	mu    sync.Mutex
	items map[id.ID]*item.Item
}

func newFakeItemStore(items ...*item.Item) *fakeItemStore {
	s := &fakeItemStore{items: make(map[id.ID]*item.Item)}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeItemStore) GetForUpdate(ctx context.Context, itemID id.ID) (*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID.String())
	}
	cp := *it
	return &cp, nil
}

func (s *fakeItemStore) UpdateOnHand(ctx context.Context, itemID id.ID, onHand types.Quantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return apperror.NewNotFound("item", itemID.String())
	}
	it.OnHand = onHand
	return nil
}

func (s *fakeItemStore) onHand(itemID id.ID) types.Quantity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID].OnHand
}

type fakeMovementLog struct {
	mu   sync.Mutex
	rows []entity.StockMovement
}

func (l *fakeMovementLog) Append(ctx context.Context, m entity.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, m)
	return nil
}

func (l *fakeMovementLog) AppendBatch(ctx context.Context, ms []entity.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, ms...)
	return nil
}

func (l *fakeMovementLog) ListByItem(ctx context.Context, itemID id.ID, limit, offset int) ([]entity.StockMovement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []entity.StockMovement
	for i := len(l.rows) - 1; i >= 0; i-- {
		if l.rows[i].ItemID == itemID {
			out = append(out, l.rows[i])
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *fakeMovementLog) ListByDocument(ctx context.Context, documentID id.ID) ([]entity.StockMovement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []entity.StockMovement
	for _, r := range l.rows {
		if r.DocumentID == documentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *fakeMovementLog) SumDeltas(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum types.Quantity
	for _, r := range l.rows {
		if r.ItemID == itemID {
			sum += r.Delta
		}
	}
	return sum, nil
}

func testItem(onHand types.Quantity) *item.Item {
	it := item.NewItem("SKU-1", "Rice 1kg", 10)
	it.OnHand = onHand
	return it
}

func TestApply_IncreasesAndLogs(t *testing.T) {
	it := testItem(100)
	store := newFakeItemStore(it)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	docID := id.New()
	resulting, err := svc.Apply(context.Background(), Movement{
		ItemID:       it.ID,
		Delta:        50,
		Reason:       entity.ReasonPurchaseCompletion,
		DocumentID:   docID,
		DocumentCode: "PO-20260827-0001",
	})

	require.NoError(t, err)
	assert.Equal(t, types.Quantity(150), resulting)
	assert.Equal(t, types.Quantity(150), store.onHand(it.ID))

	require.Len(t, log.rows, 1)
	row := log.rows[0]
	assert.Equal(t, types.Quantity(50), row.Delta)
	assert.Equal(t, types.Quantity(150), row.Resulting)
	assert.Equal(t, entity.ReasonPurchaseCompletion, row.Reason)
	assert.Equal(t, "PO-20260827-0001", row.DocumentCode)
}

func TestApply_DecreaseWithinStock(t *testing.T) {
	it := testItem(150)
	store := newFakeItemStore(it)
	svc := NewService(store, &fakeMovementLog{})

	resulting, err := svc.Apply(context.Background(), Movement{
		ItemID: it.ID,
		Delta:  -12,
		Reason: entity.ReasonSaleCompletion,
	})

	require.NoError(t, err)
	assert.Equal(t, types.Quantity(138), resulting)
}

func TestApply_InsufficientStockCarriesShortfall(t *testing.T) {
	it := testItem(5)
	store := newFakeItemStore(it)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	_, err := svc.Apply(context.Background(), Movement{
		ItemID: it.ID,
		Delta:  -8,
		Reason: entity.ReasonSaleCompletion,
	})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(8), appErr.Details["requested"])
	assert.Equal(t, int64(5), appErr.Details["available"])
	assert.Equal(t, int64(3), appErr.Details["shortfall"])

	// nothing written
	assert.Equal(t, types.Quantity(5), store.onHand(it.ID))
	assert.Empty(t, log.rows)
}

func TestApply_ExactDepletionAllowed(t *testing.T) {
	it := testItem(7)
	store := newFakeItemStore(it)
	svc := NewService(store, &fakeMovementLog{})

	resulting, err := svc.Apply(context.Background(), Movement{
		ItemID: it.ID,
		Delta:  -7,
		Reason: entity.ReasonTripDeparture,
	})

	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), resulting)
}

func TestApply_ZeroDeltaRejected(t *testing.T) {
	it := testItem(10)
	svc := NewService(newFakeItemStore(it), &fakeMovementLog{})

	_, err := svc.Apply(context.Background(), Movement{
		ItemID: it.ID,
		Delta:  0,
		Reason: entity.ReasonManualAdjustment,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestManualAdjust_LogsCorrectionWithNote(t *testing.T) {
	it := testItem(100)
	store := newFakeItemStore(it)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	resulting, err := svc.ManualAdjust(context.Background(), it.ID, -3, "stocktake 2026-08: breakage")

	require.NoError(t, err)
	assert.Equal(t, types.Quantity(97), resulting)
	assert.Equal(t, types.Quantity(97), store.onHand(it.ID))

	require.Len(t, log.rows, 1)
	row := log.rows[0]
	assert.Equal(t, entity.ReasonManualAdjustment, row.Reason)
	assert.Equal(t, "stocktake 2026-08: breakage", row.DocumentCode)
	assert.True(t, id.IsNil(row.DocumentID))
}

func TestManualAdjust_CannotGoNegative(t *testing.T) {
	it := testItem(2)
	store := newFakeItemStore(it)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	_, err := svc.ManualAdjust(context.Background(), it.ID, -5, "stocktake")

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, types.Quantity(2), store.onHand(it.ID))
	assert.Empty(t, log.rows)
}

func TestApplyAll_FirstFailureAborts(t *testing.T) {
	a := testItem(100)
	b := testItem(2)
	store := newFakeItemStore(a, b)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	err := svc.ApplyAll(context.Background(), []Movement{
		{ItemID: a.ID, Delta: -10, Reason: entity.ReasonSaleCompletion},
		{ItemID: b.ID, Delta: -5, Reason: entity.ReasonSaleCompletion},
	})

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	// first movement applied in-memory; the real transaction would roll it back
	assert.Len(t, log.rows, 1)
}

func TestHistory_NewestFirst(t *testing.T) {
	it := testItem(0)
	store := newFakeItemStore(it)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	ctx := context.Background()
	for _, d := range []types.Quantity{10, 20, -5} {
		_, err := svc.Apply(ctx, Movement{ItemID: it.ID, Delta: d, Reason: entity.ReasonManualAdjustment})
		require.NoError(t, err)
	}

	hist, err := svc.History(ctx, it.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, types.Quantity(-5), hist[0].Delta)
	assert.Equal(t, types.Quantity(25), hist[0].Resulting)
	assert.Equal(t, types.Quantity(10), hist[2].Delta)
}

func TestAuditItem_NoDrift(t *testing.T) {
	it := testItem(0)
	store := newFakeItemStore(it)
	log := &fakeMovementLog{}
	svc := NewService(store, log)

	ctx := context.Background()
	_, err := svc.Apply(ctx, Movement{ItemID: it.ID, Delta: 40, Reason: entity.ReasonManualAdjustment})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, Movement{ItemID: it.ID, Delta: -15, Reason: entity.ReasonSaleCompletion})
	require.NoError(t, err)

	res, err := svc.AuditItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(25), res.OnHand)
	assert.Equal(t, types.Quantity(25), res.LogTotal)
	assert.Equal(t, types.Quantity(0), res.Drift)
}

func TestAuditItem_ReportsDrift(t *testing.T) {
	it := testItem(30) // opening balance never went through the log
	store := newFakeItemStore(it)
	svc := NewService(store, &fakeMovementLog{})

	res, err := svc.AuditItem(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(30), res.Drift)
}
