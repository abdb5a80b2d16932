package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	variantStocks    repo.VariantStockRepository
	stockAdjustments repo.StockAdjustmentRepository
}

func (r *txReposGorm) VariantStocks() repo.VariantStockRepository       { return r.variantStocks }
func (r *txReposGorm) StockAdjustments() repo.StockAdjustmentRepository { return r.stockAdjustments }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			variantStocks:    NewVariantStockGormRepository(tx),
			stockAdjustments: NewStockAdjustmentGormRepository(tx),
		}
		return fn(r)
	})
}
