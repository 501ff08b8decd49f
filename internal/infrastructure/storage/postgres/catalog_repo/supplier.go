package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/supplier"
	"ritel/internal/infrastructure/storage/postgres"
)

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
	txm *postgres.TxManager
}

var _ supplier.Repository = (*SupplierRepo)(nil)

// NewSupplierRepo creates a supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"suppliers",
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
		txm: txm,
	}
}

// UpdatePayable overwrites the recomputed payable balance.
func (r *SupplierRepo) UpdatePayable(ctx context.Context, supplierID id.ID, payable types.MinorUnits) error {
	sql, args, err := r.Builder().
		Update("suppliers").
		Set("payable", int64(payable)).
		Where(squirrel.Eq{"id": supplierID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update payable: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update payable: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("suppliers", supplierID.String())
	}
	return nil
}

// SumOutstandingPurchases sums (total - paid) over the supplier's completed,
// still-owed purchase documents.
func (r *SupplierRepo) SumOutstandingPurchases(ctx context.Context, supplierID id.ID) (types.MinorUnits, error) {
	sql, args, err := r.Builder().
		Select("COALESCE(SUM(total - paid), 0)").
		From("purchase_documents").
		Where(squirrel.Eq{"supplier_id": supplierID}).
		Where(squirrel.Eq{"status": "COMPLETED"}).
		Where(squirrel.Eq{"pay_status": "OWED"}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum outstanding: %w", err)
	}

	var sum int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum outstanding purchases: %w", err)
	}
	return types.MinorUnits(sum), nil
}
