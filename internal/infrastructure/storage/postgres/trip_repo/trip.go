// Package trip_repo persists trips, manifest lines and return events.
package trip_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain/trips"
	"ritel/internal/infrastructure/storage/postgres"
)

// TripRepo implements trips.Repository.
type TripRepo struct {
	txm        *postgres.TxManager
	batch      *postgres.BatchInserter
	headerCols []string
	lineCols   []string
	returnCols []string
}

var _ trips.Repository = (*TripRepo)(nil)

// NewTripRepo creates a trip repository.
func NewTripRepo(txm *postgres.TxManager) *TripRepo {
	return &TripRepo{
		txm:        txm,
		batch:      postgres.NewBatchInserter(txm),
		headerCols: postgres.ExtractDBColumns[trips.Trip](),
		lineCols:   postgres.ExtractDBColumns[trips.ManifestLine](),
		returnCols: postgres.ExtractDBColumns[trips.ReturnRecord](),
	}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *TripRepo) headerMap(t *trips.Trip) map[string]any {
	data := postgres.StructToMap(t)
	filtered := make(map[string]any, len(r.headerCols))
	for _, col := range r.headerCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

// Create inserts the trip header and manifest lines. Requires an active
// transaction; lines go in via the COPY protocol.
func (r *TripRepo) Create(ctx context.Context, t *trips.Trip) error {
	sql, args, err := builder().
		Insert("trips").
		SetMap(r.headerMap(t)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert trip: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}

	rows := make([][]any, 0, len(t.Lines))
	for _, l := range t.Lines {
		data := postgres.StructToMap(l)
		vals := make([]any, 0, len(r.lineCols))
		for _, col := range r.lineCols {
			vals = append(vals, data[col])
		}
		rows = append(rows, vals)
	}
	if _, err := r.batch.CopyFromSlice(ctx, "manifest_lines", r.lineCols, rows); err != nil {
		return fmt.Errorf("copy manifest lines: %w", err)
	}
	return nil
}

func (r *TripRepo) loadLines(ctx context.Context, tripID id.ID) ([]trips.ManifestLine, error) {
	sql, args, err := builder().
		Select(r.lineCols...).
		From("manifest_lines").
		Where(squirrel.Eq{"trip_id": tripID}).
		OrderBy("line_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load manifest: %w", err)
	}

	var lines []trips.ManifestLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load manifest lines: %w", err)
	}
	return lines, nil
}

func (r *TripRepo) get(ctx context.Context, tripID id.ID, forUpdate bool) (*trips.Trip, error) {
	q := builder().
		Select(r.headerCols...).
		From("trips").
		Where(squirrel.Eq{"id": tripID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get trip: %w", err)
	}

	var t trips.Trip
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("trip", tripID.String())
		}
		return nil, fmt.Errorf("get trip: %w", err)
	}

	t.Lines, err = r.loadLines(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID loads a trip with its manifest lines.
func (r *TripRepo) GetByID(ctx context.Context, tripID id.ID) (*trips.Trip, error) {
	return r.get(ctx, tripID, false)
}

// GetForUpdate loads a trip with its lines under a row lock. The header lock
// serializes all manifest mutations for the trip.
func (r *TripRepo) GetForUpdate(ctx context.Context, tripID id.ID) (*trips.Trip, error) {
	return r.get(ctx, tripID, true)
}

// UpdateHeader writes status and date fields.
func (r *TripRepo) UpdateHeader(ctx context.Context, t *trips.Trip) error {
	data := r.headerMap(t)
	delete(data, "id")

	sql, args, err := builder().
		Update("trips").
		SetMap(data).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update trip: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("trip", t.ID.String())
	}
	return nil
}

// UpdateLine writes the sold/returned counters of one manifest line.
func (r *TripRepo) UpdateLine(ctx context.Context, l trips.ManifestLine) error {
	sql, args, err := builder().
		Update("manifest_lines").
		Set("sold", int64(l.Sold)).
		Set("returned", int64(l.Returned)).
		Where(squirrel.Eq{"line_id": l.LineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update manifest line: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update manifest line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("manifest line", l.LineID.String())
	}
	return nil
}

// AddReturn records a return event.
func (r *TripRepo) AddReturn(ctx context.Context, rec trips.ReturnRecord) error {
	data := postgres.StructToMap(rec)
	filtered := make(map[string]any, len(r.returnCols))
	for _, col := range r.returnCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := builder().
		Insert("trip_returns").
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert return: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

// ListReturns returns the return events for a trip, oldest first.
func (r *TripRepo) ListReturns(ctx context.Context, tripID id.ID) ([]trips.ReturnRecord, error) {
	sql, args, err := builder().
		Select(r.returnCols...).
		From("trip_returns").
		Where(squirrel.Eq{"trip_id": tripID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list returns: %w", err)
	}

	var out []trips.ReturnRecord
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	return out, nil
}

// List returns trips matching the filter, newest first. Manifest lines are
// not loaded for listings.
func (r *TripRepo) List(ctx context.Context, filter trips.ListFilter) ([]*trips.Trip, error) {
	q := builder().
		Select(r.headerCols...).
		From("trips").
		OrderBy("created_at DESC")

	if filter.AgentID != nil {
		q = q.Where(squirrel.Eq{"agent_id": *filter.AgentID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list trips: %w", err)
	}

	var out []*trips.Trip
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return out, nil
}
