// Package ledger_repo persists the append-only stock movement log.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ritel/internal/core/entity"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/ledger"
	"ritel/internal/infrastructure/storage/postgres"
)

// MovementRepo implements ledger.MovementLog over the stock_movements table.
// Rows are insert-only; there is no update or delete path.
type MovementRepo struct {
	txm   *postgres.TxManager
	batch *postgres.BatchInserter
	cols  []string
}

var _ ledger.MovementLog = (*MovementRepo)(nil)

// NewMovementRepo creates a movement log repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:   txm,
		batch: postgres.NewBatchInserter(txm),
		cols:  postgres.ExtractDBColumns[entity.StockMovement](),
	}
}

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MovementRepo) rowValues(m entity.StockMovement) []any {
	data := postgres.StructToMap(m)
	vals := make([]any, 0, len(r.cols))
	for _, col := range r.cols {
		vals = append(vals, data[col])
	}
	return vals
}

// Append writes one movement row.
func (r *MovementRepo) Append(ctx context.Context, m entity.StockMovement) error {
	sql, args, err := r.builder().
		Insert("stock_movements").
		Columns(r.cols...).
		Values(r.rowValues(m)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert movement: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// AppendBatch writes several movement rows using the COPY protocol.
// Requires an active transaction in ctx.
func (r *MovementRepo) AppendBatch(ctx context.Context, ms []entity.StockMovement) error {
	if len(ms) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, r.rowValues(m))
	}

	if _, err := r.batch.CopyFromSlice(ctx, "stock_movements", r.cols, rows); err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	return nil
}

// ListByItem returns movement history for an item, newest first.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID id.ID, limit, offset int) ([]entity.StockMovement, error) {
	q := r.builder().
		Select(r.cols...).
		From("stock_movements").
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("created_at DESC", "line_id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list movements: %w", err)
	}

	var out []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

// ListByDocument returns all movements caused by a document, oldest first.
func (r *MovementRepo) ListByDocument(ctx context.Context, documentID id.ID) ([]entity.StockMovement, error) {
	sql, args, err := r.builder().
		Select(r.cols...).
		From("stock_movements").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at ASC", "line_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list document movements: %w", err)
	}

	var out []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list document movements: %w", err)
	}
	return out, nil
}

// SumDeltas returns the signed sum over the whole log for an item.
func (r *MovementRepo) SumDeltas(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	sql, args, err := r.builder().
		Select("COALESCE(SUM(delta), 0)").
		From("stock_movements").
		Where(squirrel.Eq{"item_id": itemID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum deltas: %w", err)
	}

	var sum int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum deltas: %w", err)
	}
	return types.Quantity(sum), nil
}
