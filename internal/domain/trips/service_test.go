package trips

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
	trips   map[id.ID]*Trip
	returns []ReturnRecord
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{trips: make(map[id.ID]*Trip)}
}

func (r *fakeRepo) Create(ctx context.Context, t *Trip) error {
	cp := *t
	cp.Lines = append([]ManifestLine(nil), t.Lines...)
	r.trips[t.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, tripID id.ID) (*Trip, error) {
	t, ok := r.trips[tripID]
	if !ok {
		return nil, apperror.NewNotFound("trip", tripID.String())
	}
	cp := *t
	cp.Lines = append([]ManifestLine(nil), t.Lines...)
	return &cp, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, tripID id.ID) (*Trip, error) {
	return r.GetByID(ctx, tripID)
}

func (r *fakeRepo) UpdateHeader(ctx context.Context, t *Trip) error {
	stored := r.trips[t.ID]
	cp := *t
	cp.Lines = stored.Lines
	r.trips[t.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateLine(ctx context.Context, l ManifestLine) error {
	t, ok := r.trips[l.TripID]
	if !ok {
		return apperror.NewNotFound("trip", l.TripID.String())
	}
	for i := range t.Lines {
		if t.Lines[i].LineID == l.LineID {
			t.Lines[i] = l
			return nil
		}
	}
	return apperror.NewNotFound("manifest line", l.LineID.String())
}

func (r *fakeRepo) AddReturn(ctx context.Context, rec ReturnRecord) error {
	r.returns = append(r.returns, rec)
	return nil
}

func (r *fakeRepo) ListReturns(ctx context.Context, tripID id.ID) ([]ReturnRecord, error) {
	var out []ReturnRecord
	for _, rec := range r.returns {
		if rec.TripID == tripID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]*Trip, error) {
	var out []*Trip
	for _, t := range r.trips {
		out = append(out, t)
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
	onHand    map[id.ID]types.Quantity
	movements []ledger.Movement
}

func (f *fakeStock) Apply(ctx context.Context, m ledger.Movement) (types.Quantity, error) {
	resulting := f.onHand[m.ItemID] + m.Delta
	if resulting < 0 {
		return 0, apperror.NewInsufficientStock(m.ItemID.String(), -m.Delta, f.onHand[m.ItemID])
	}
	f.onHand[m.ItemID] = resulting
	f.movements = append(f.movements, m)
	return resulting, nil
}

func (f *fakeStock) ApplyAll(ctx context.Context, movements []ledger.Movement) error {
	for _, m := range movements {
		if _, err := f.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

type tripFixture struct {
	svc     *Service
	repo    *fakeRepo
	stock   *fakeStock
	itemA   *item.Item
	itemB   *item.Item
	agentID id.ID
}

func newTripFixture(t *testing.T) *tripFixture {
	t.Helper()
	a := item.NewItem("SKU-A", "Rice 1kg", 10)
	a.CostPrice = 800
	b := item.NewItem("SKU-B", "Oil 1L", 12)
	b.CostPrice = 1500

	repo := newFakeRepo()
	stock := &fakeStock{onHand: map[id.ID]types.Quantity{a.ID: 100, b.ID: 50}}
	svc := NewService(
		passthroughTxManager{},
		repo,
		&fakeItems{items: map[id.ID]*item.Item{a.ID: a, b.ID: b}},
		&fakeCodes{},
		stock,
		nil,
	)
	return &tripFixture{svc: svc, repo: repo, stock: stock, itemA: a, itemB: b, agentID: id.New()}
}

func (f *tripFixture) departedTrip(t *testing.T, allocA, allocB types.Quantity) *Trip {
	t.Helper()
	ctx := context.Background()
	trip, err := f.svc.Create(ctx, f.agentID, "Kampung Baru", []Allocation{
		{ItemID: f.itemA.ID, Qty: allocA},
		{ItemID: f.itemB.ID, Qty: allocB},
	})
	require.NoError(t, err)
	trip, err = f.svc.Transition(ctx, trip.ID, StatusInTransit, TransitionInput{})
	require.NoError(t, err)
	return trip
}

func TestCreate_PrepWithCode(t *testing.T) {
	f := newTripFixture(t)

	trip, err := f.svc.Create(context.Background(), f.agentID, "Pasar Pagi", []Allocation{
		{ItemID: f.itemA.ID, Qty: 30},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPrep, trip.Status)
	assert.Equal(t, "TR-20260827-0001", trip.Code)
	// stock untouched until departure
	assert.Equal(t, types.Quantity(100), f.stock.onHand[f.itemA.ID])
}

func TestCreate_RejectsDuplicateItems(t *testing.T) {
	f := newTripFixture(t)

	_, err := f.svc.Create(context.Background(), f.agentID, "Pasar Pagi", []Allocation{
		{ItemID: f.itemA.ID, Qty: 10},
		{ItemID: f.itemA.ID, Qty: 5},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestDepart_TakesFullAllocation(t *testing.T) {
	f := newTripFixture(t)

	trip := f.departedTrip(t, 30, 20)

	assert.Equal(t, StatusInTransit, trip.Status)
	require.NotNil(t, trip.DepartedAt)
	assert.Equal(t, types.Quantity(70), f.stock.onHand[f.itemA.ID])
	assert.Equal(t, types.Quantity(30), f.stock.onHand[f.itemB.ID])
	for _, m := range f.stock.movements {
		assert.Equal(t, entity.ReasonTripDeparture, m.Reason)
	}
}

func TestDepart_PartialDepartureNotAllowed(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()

	trip, err := f.svc.Create(ctx, f.agentID, "Ulu", []Allocation{
		{ItemID: f.itemA.ID, Qty: 10},
		{ItemID: f.itemB.ID, Qty: 51}, // only 50 on hand
	})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, trip.ID, StatusInTransit, TransitionInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	stored, err := f.svc.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPrep, stored.Status)
}

func TestIllegalTransitions(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()

	trip, err := f.svc.Create(ctx, f.agentID, "Ulu", []Allocation{{ItemID: f.itemA.ID, Qty: 10}})
	require.NoError(t, err)

	// PREP cannot jump to RETURNED or DONE
	_, err = f.svc.Transition(ctx, trip.ID, StatusReturned, TransitionInput{})
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))
	_, err = f.svc.Transition(ctx, trip.ID, StatusDone, TransitionInput{})
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))

	// CANCELLED is terminal
	_, err = f.svc.Transition(ctx, trip.ID, StatusCancelled, TransitionInput{})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, trip.ID, StatusInTransit, TransitionInput{})
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))
}

func TestReturnTransition_RequiresDate(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 10, 10)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, trip.ID, StatusReturned, TransitionInput{})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	now := time.Now().UTC()
	trip, err = f.svc.Transition(ctx, trip.ID, StatusReturned, TransitionInput{ReturnDate: &now})
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, trip.Status)
	require.NotNil(t, trip.ReturnedAt)
}

func TestRecordSale_ConsumesManifestWithoutStock(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 30, 20)
	movedAtDepart := len(f.stock.movements)
	ctx := context.Background()

	trip, err := f.svc.RecordSale(ctx, trip.ID, []SaleItem{{ItemID: f.itemA.ID, Qty: 12}})
	require.NoError(t, err)

	line := trip.FindLine(f.itemA.ID)
	assert.Equal(t, types.Quantity(12), line.Sold)
	assert.Equal(t, types.Quantity(18), line.Remaining())
	// allocation already left the warehouse at departure
	assert.Len(t, f.stock.movements, movedAtDepart)
}

func TestRecordSale_ExceedingRemainingRejected(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 30, 20)
	ctx := context.Background()

	_, err := f.svc.RecordSale(ctx, trip.ID, []SaleItem{{ItemID: f.itemA.ID, Qty: 31}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordSale_OnPrepTripConflicts(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()

	trip, err := f.svc.Create(ctx, f.agentID, "Ulu", []Allocation{{ItemID: f.itemA.ID, Qty: 10}})
	require.NoError(t, err)

	_, err = f.svc.RecordSale(ctx, trip.ID, []SaleItem{{ItemID: f.itemA.ID, Qty: 1}})
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))
}

func TestRecordReturn_GoodRestoresStock(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 30, 20)
	ctx := context.Background()

	trip, err := f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{{ItemID: f.itemA.ID, Qty: 5}}, ConditionGood)
	require.NoError(t, err)

	line := trip.FindLine(f.itemA.ID)
	assert.Equal(t, types.Quantity(5), line.Returned)
	assert.Equal(t, types.Quantity(75), f.stock.onHand[f.itemA.ID])

	last := f.stock.movements[len(f.stock.movements)-1]
	assert.Equal(t, entity.ReasonTripReturn, last.Reason)
	assert.Equal(t, types.Quantity(5), last.Delta)
}

func TestRecordReturn_DamagedDoesNotRestoreStock(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 30, 20)
	movedAtDepart := len(f.stock.movements)
	ctx := context.Background()

	_, err := f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{{ItemID: f.itemA.ID, Qty: 4}}, ConditionDamaged)
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(70), f.stock.onHand[f.itemA.ID])
	assert.Len(t, f.stock.movements, movedAtDepart)
	require.Len(t, f.repo.returns, 1)
	assert.Equal(t, ConditionDamaged, f.repo.returns[0].Condition)
}

func TestAutoComplete_WhenManifestFullyConsumed(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 10, 5)
	ctx := context.Background()

	trip, err := f.svc.RecordSale(ctx, trip.ID, []SaleItem{
		{ItemID: f.itemA.ID, Qty: 8},
		{ItemID: f.itemB.ID, Qty: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInTransit, trip.Status)

	trip, err = f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{{ItemID: f.itemA.ID, Qty: 2}}, ConditionGood)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, trip.Status)
}

func TestCancel_InTransitRestoresRemainingOnly(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 30, 20) // A: 100->70, B: 50->30
	ctx := context.Background()

	_, err := f.svc.RecordSale(ctx, trip.ID, []SaleItem{{ItemID: f.itemA.ID, Qty: 12}})
	require.NoError(t, err)
	_, err = f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{{ItemID: f.itemA.ID, Qty: 3}}, ConditionGood)
	require.NoError(t, err)
	// A: sold 12, returned 3 (stock 73), remaining 15

	trip, err = f.svc.Transition(ctx, trip.ID, StatusCancelled, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, trip.Status)

	// +15 remaining for A, +20 remaining for B; sold/returned not double-restored
	assert.Equal(t, types.Quantity(88), f.stock.onHand[f.itemA.ID])
	assert.Equal(t, types.Quantity(50), f.stock.onHand[f.itemB.ID])
}

func TestCancel_FromPrepLeavesStockAlone(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()

	trip, err := f.svc.Create(ctx, f.agentID, "Ulu", []Allocation{{ItemID: f.itemA.ID, Qty: 10}})
	require.NoError(t, err)

	trip, err = f.svc.Transition(ctx, trip.ID, StatusCancelled, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, trip.Status)
	assert.Equal(t, types.Quantity(100), f.stock.onHand[f.itemA.ID])
	assert.Empty(t, f.stock.movements)
}

func TestManualClose_RequiresFullConsumption(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 10, 5)
	ctx := context.Background()

	now := time.Now().UTC()
	trip, err := f.svc.Transition(ctx, trip.ID, StatusReturned, TransitionInput{ReturnDate: &now})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, trip.ID, StatusDone, TransitionInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStateConflict))

	_, err = f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{
		{ItemID: f.itemA.ID, Qty: 10},
		{ItemID: f.itemB.ID, Qty: 5},
	}, ConditionGood)
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, stored.Status)
}

func TestReconcile_ReportAndLosses(t *testing.T) {
	f := newTripFixture(t)
	trip := f.departedTrip(t, 30, 20)
	ctx := context.Background()

	_, err := f.svc.RecordSale(ctx, trip.ID, []SaleItem{{ItemID: f.itemA.ID, Qty: 25}})
	require.NoError(t, err)
	_, err = f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{{ItemID: f.itemA.ID, Qty: 5}}, ConditionGood)
	require.NoError(t, err)
	_, err = f.svc.RecordReturn(ctx, trip.ID, []ReturnItem{{ItemID: f.itemB.ID, Qty: 4}}, ConditionExpired)
	require.NoError(t, err)

	rep, err := f.svc.Reconcile(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, rep.Lines, 2)

	var lineA, lineB ReconciliationLine
	for _, l := range rep.Lines {
		switch l.ItemID {
		case f.itemA.ID:
			lineA = l
		case f.itemB.ID:
			lineB = l
		}
	}
	assert.True(t, lineA.Matched)
	assert.Equal(t, types.Quantity(0), lineA.Discrepancy)
	assert.False(t, lineB.Matched)
	assert.Equal(t, types.Quantity(16), lineB.Discrepancy)

	require.Len(t, rep.Losses, 1)
	assert.Equal(t, ConditionExpired, rep.Losses[0].Condition)
	assert.Equal(t, types.MinorUnits(4*1500), rep.Losses[0].Loss)
	assert.Equal(t, types.MinorUnits(6000), rep.TotalLoss)
}
