package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/core/types"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/infrastructure/storage/postgres"
)

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
	txm *postgres.TxManager
}

// Compile-time check.
var _ item.Repository = (*ItemRepo)(nil)

// NewItemRepo creates an item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"items",
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} },
		),
		txm: txm,
	}
}

// UpdateOnHand writes the on-hand counter. The caller must hold the row lock
// from GetForUpdate in the same transaction.
func (r *ItemRepo) UpdateOnHand(ctx context.Context, itemID id.ID, onHand types.Quantity) error {
	sql, args, err := r.Builder().
		Update("items").
		Set("on_hand", int64(onHand)).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update on_hand: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update on_hand: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("items", itemID.String())
	}
	return nil
}

// SoldToday sums today's outgoing sale movements for the item. Sale
// completions and ADD adjustments count; returns reduce the number.
func (r *ItemRepo) SoldToday(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	sql, args, err := r.Builder().
		Select("COALESCE(SUM(-delta), 0)").
		From("stock_movements").
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"reason": []string{"sale-completion", "sale-adjustment"}}).
		Where(squirrel.GtOrEq{"created_at": dayStart}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sold today: %w", err)
	}

	var sold int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sold); err != nil {
		return 0, fmt.Errorf("sold today: %w", err)
	}
	if sold < 0 {
		sold = 0
	}
	return types.Quantity(sold), nil
}
