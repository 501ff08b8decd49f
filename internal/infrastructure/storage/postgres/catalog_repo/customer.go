package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/infrastructure/storage/postgres"
)

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
	txm *postgres.TxManager
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"customers",
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
		txm: txm,
	}
}

// UpdateReceivable writes the receivable balance. The caller must hold the
// row lock from GetForUpdate in the same transaction.
func (r *CustomerRepo) UpdateReceivable(ctx context.Context, customerID id.ID, receivable types.MinorUnits) error {
	sql, args, err := r.Builder().
		Update("customers").
		Set("receivable", int64(receivable)).
		Where(squirrel.Eq{"id": customerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update receivable: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update receivable: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("customers", customerID.String())
	}
	return nil
}

// SumOutstandingSales sums (total - paid) over the customer's completed,
// still-owed sale documents.
func (r *CustomerRepo) SumOutstandingSales(ctx context.Context, customerID id.ID) (types.MinorUnits, error) {
	sql, args, err := r.Builder().
		Select("COALESCE(SUM(total - paid), 0)").
		From("sale_documents").
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.Eq{"status": "COMPLETED"}).
		Where(squirrel.Eq{"pay_status": "OWED"}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum outstanding: %w", err)
	}

	var sum int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum outstanding sales: %w", err)
	}
	return types.MinorUnits(sum), nil
}
