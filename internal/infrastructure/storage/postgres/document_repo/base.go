// Package document_repo provides PostgreSQL implementations for the purchase
// and sale document repositories. Documents are stored as a header row plus
// line rows; payments share one journal table across both families.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ritel/internal/core/id"
	"ritel/internal/domain/documents"
	"ritel/internal/infrastructure/storage/postgres"
)

// builder returns a squirrel builder with PostgreSQL placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var paymentCols = postgres.ExtractDBColumns[documents.Payment]()

// addPayment inserts one settlement row into the shared payments journal.
func addPayment(ctx context.Context, q postgres.Querier, p documents.Payment) error {
	data := postgres.StructToMap(p)

	filtered := make(map[string]any, len(paymentCols))
	for _, col := range paymentCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := builder().
		Insert("payments").
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert payment: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// listPayments returns the settlement rows for a document, oldest first.
func listPayments(ctx context.Context, q postgres.Querier, documentID id.ID) ([]documents.Payment, error) {
	sql, args, err := builder().
		Select(paymentCols...).
		From("payments").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list payments: %w", err)
	}

	var out []documents.Payment
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}
