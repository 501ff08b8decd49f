package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain/documents"
	"ritel/internal/domain/documents/sale"
	"ritel/internal/infrastructure/storage/postgres"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txm        *postgres.TxManager
	headerCols []string
	lineCols   []string
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a sale document repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txm:        txm,
		headerCols: postgres.ExtractDBColumns[sale.Document](),
		lineCols:   postgres.ExtractDBColumns[sale.Line](),
	}
}

func (r *SaleRepo) headerMap(doc *sale.Document) map[string]any {
	data := postgres.StructToMap(doc)
	filtered := make(map[string]any, len(r.headerCols))
	for _, col := range r.headerCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	// walk-in sales carry the zero id; stored as-is, no customer FK
	return filtered
}

// Create inserts the header and its lines.
func (r *SaleRepo) Create(ctx context.Context, doc *sale.Document) error {
	sql, args, err := builder().
		Insert("sale_documents").
		SetMap(r.headerMap(doc)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sale: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	return r.insertLines(ctx, doc)
}

func (r *SaleRepo) insertLines(ctx context.Context, doc *sale.Document) error {
	if len(doc.Lines) == 0 {
		return nil
	}

	ins := builder().Insert("sale_lines").Columns(r.lineCols...)
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
		return fmt.Errorf("build insert sale lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}
	return nil
}

func (r *SaleRepo) loadLines(ctx context.Context, docID id.ID) ([]sale.Line, error) {
	sql, args, err := builder().
		Select(r.lineCols...).
		From("sale_lines").
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load lines: %w", err)
	}

	var lines []sale.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load sale lines: %w", err)
	}
	return lines, nil
}

func (r *SaleRepo) getHeader(ctx context.Context, docID id.ID, forUpdate bool) (*sale.Document, error) {
	q := builder().
		Select(r.headerCols...).
		From("sale_documents").
		Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get sale: %w", err)
	}

	var doc sale.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", docID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	doc.Lines, err = r.loadLines(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByID loads a document with its lines.
func (r *SaleRepo) GetByID(ctx context.Context, docID id.ID) (*sale.Document, error) {
	return r.getHeader(ctx, docID, false)
}

// GetForUpdate loads a document with its lines under a row lock.
func (r *SaleRepo) GetForUpdate(ctx context.Context, docID id.ID) (*sale.Document, error) {
	return r.getHeader(ctx, docID, true)
}

// Update writes the header and replaces the lines.
func (r *SaleRepo) Update(ctx context.Context, doc *sale.Document) error {
	if err := r.UpdateHeader(ctx, doc); err != nil {
		return err
	}

	sql, args, err := builder().
		Delete("sale_lines").
		Where(squirrel.Eq{"document_id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete sale lines: %w", err)
	}

	return r.insertLines(ctx, doc)
}

// UpdateHeader writes header fields only.
func (r *SaleRepo) UpdateHeader(ctx context.Context, doc *sale.Document) error {
	data := r.headerMap(doc)
	delete(data, "id")

	sql, args, err := builder().
		Update("sale_documents").
		SetMap(data).
		Where(squirrel.Eq{"id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update sale: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", doc.ID.String())
	}
	return nil
}

// List returns documents matching the filter, newest first. Lines are not
// loaded for listings.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) ([]*sale.Document, error) {
	q := builder().
		Select(r.headerCols...).
		From("sale_documents").
		OrderBy("date DESC", "created_at DESC")

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
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
		return nil, fmt.Errorf("build list sales: %w", err)
	}

	var docs []*sale.Document
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return docs, nil
}

// AddPayment records a settlement row.
func (r *SaleRepo) AddPayment(ctx context.Context, p documents.Payment) error {
	return addPayment(ctx, r.txm.GetQuerier(ctx), p)
}

// ListPayments returns settlements for a document, oldest first.
func (r *SaleRepo) ListPayments(ctx context.Context, documentID id.ID) ([]documents.Payment, error) {
	return listPayments(ctx, r.txm.GetQuerier(ctx), documentID)
}
