package order

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vtryon/lensmart/internal/domain"
)

// Ledger is the single writer of per-product stock counters. Every method
// runs on a caller-supplied transaction handle so deltas become visible
// only when the enclosing transaction commits.
type Ledger struct{}

// ReadStockForUpdate resolves all product ids in one read, row-locked on
// engines that support it. A single missing id fails the whole read.
func (Ledger) ReadStockForUpdate(tx *gorm.DB, productIds []int64) (map[int64]domain.Product, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []domain.Product
	if err := q.Where("id IN ?", productIds).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "read stock")
	}

	byId := make(map[int64]domain.Product, len(rows))
	for _, p := range rows {
		byId[p.ID] = p
	}
	for _, id := range productIds {
		if _, ok := byId[id]; !ok {
			return nil, &ProductNotFoundError{ProductID: id}
		}
	}
	return byId, nil
}

// ApplyDelta adds delta to a product's stock counter, negative for
// deduction, positive for restock. The WHERE guard keeps the counter from
// ever going below zero even when the read lock was not taken.
func (Ledger) ApplyDelta(tx *gorm.DB, productId int64, delta int) error {
	res := tx.Model(&domain.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", productId, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return errors.Wrap(res.Error, "apply stock delta")
	}
	if res.RowsAffected == 0 {
		var p domain.Product
		if err := tx.Where("id = ?", productId).First(&p).Error; err != nil {
			return &ProductNotFoundError{ProductID: productId}
		}
		return &InsufficientStockError{
			ProductID: p.ID,
			Title:     p.Title,
			Available: p.StockQuantity,
			Requested: -delta,
		}
	}
	return nil
}
