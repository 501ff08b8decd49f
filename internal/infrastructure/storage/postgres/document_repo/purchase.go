package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain/documents"
	"ritel/internal/domain/documents/purchase"
	"ritel/internal/infrastructure/storage/postgres"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txm        *postgres.TxManager
	headerCols []string
	lineCols   []string
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a purchase document repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txm:        txm,
		headerCols: postgres.ExtractDBColumns[purchase.Document](),
		lineCols:   postgres.ExtractDBColumns[purchase.Line](),
	}
}

func (r *PurchaseRepo) headerMap(doc *purchase.Document) map[string]any {
	data := postgres.StructToMap(doc)
	filtered := make(map[string]any, len(r.headerCols))
	for _, col := range r.headerCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

// Create inserts the header and its lines.
func (r *PurchaseRepo) Create(ctx context.Context, doc *purchase.Document) error {
	q := r.txm.GetQuerier(ctx)

	sql, args, err := builder().
		Insert("purchase_documents").
		SetMap(r.headerMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert purchase: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}

	return r.insertLines(ctx, doc)
}

func (r *PurchaseRepo) insertLines(ctx context.Context, doc *purchase.Document) error {
	if len(doc.Lines) == 0 {
		return nil
	}

	q := r.txm.GetQuerier(ctx)
	ins := builder().Insert("purchase_lines").Columns(r.lineCols...)
	for _, l := range doc.Lines {
		data := postgres.StructToMap(l)
		vals := make([]any, 0, len(r.lineCols))
		for _, col := range r.lineCols {
			vals = append(vals, data[col])
		}
		ins = ins.Values(vals...)
	}

	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert purchase lines: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase lines: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) loadLines(ctx context.Context, docID id.ID) ([]purchase.Line, error) {
	sql, args, err := builder().
		Select(r.lineCols...).
		From("purchase_lines").
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load lines: %w", err)
	}

	var lines []purchase.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load purchase lines: %w", err)
	}
	return lines, nil
}

func (r *PurchaseRepo) getHeader(ctx context.Context, docID id.ID, forUpdate bool) (*purchase.Document, error) {
	q := builder().
		Select(r.headerCols...).
		From("purchase_documents").
		Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get purchase: %w", err)
	}

	var doc purchase.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase", docID.String())
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}

	doc.Lines, err = r.loadLines(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByID loads a document with its lines.
func (r *PurchaseRepo) GetByID(ctx context.Context, docID id.ID) (*purchase.Document, error) {
	return r.getHeader(ctx, docID, false)
}

// GetForUpdate loads a document with its lines under a row lock.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, docID id.ID) (*purchase.Document, error) {
	return r.getHeader(ctx, docID, true)
}

// Update writes the header and replaces the lines.
func (r *PurchaseRepo) Update(ctx context.Context, doc *purchase.Document) error {
	if err := r.UpdateHeader(ctx, doc); err != nil {
		return err
	}

	sql, args, err := builder().
		Delete("purchase_lines").
		Where(squirrel.Eq{"document_id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete purchase lines: %w", err)
	}

	return r.insertLines(ctx, doc)
}

// UpdateHeader writes header fields only.
func (r *PurchaseRepo) UpdateHeader(ctx context.Context, doc *purchase.Document) error {
	data := r.headerMap(doc)
	delete(data, "id")

	sql, args, err := builder().
		Update("purchase_documents").
		SetMap(data).
		Where(squirrel.Eq{"id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update purchase: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase", doc.ID.String())
	}
	return nil
}

// List returns documents matching the filter, newest first. Lines are not
// loaded for listings.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) ([]*purchase.Document, error) {
	q := builder().
		Select(r.headerCols...).
		From("purchase_documents").
		OrderBy("date DESC", "created_at DESC")

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.PayStatus != nil {
		q = q.Where(squirrel.Eq{"pay_status": string(*filter.PayStatus)})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list purchases: %w", err)
	}

	var docs []*purchase.Document
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return docs, nil
}

// AddPayment records a settlement row.
func (r *PurchaseRepo) AddPayment(ctx context.Context, p documents.Payment) error {
	return addPayment(ctx, r.txm.GetQuerier(ctx), p)
}

// ListPayments returns settlements for a document, oldest first.
func (r *PurchaseRepo) ListPayments(ctx context.Context, documentID id.ID) ([]documents.Payment, error) {
	return listPayments(ctx, r.txm.GetQuerier(ctx), documentID)
}
