package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type StockAdjustmentGormRepository struct {
	db *gorm.DB
}

func NewStockAdjustmentGormRepository(db *gorm.DB) *StockAdjustmentGormRepository {
	return &StockAdjustmentGormRepository{db: db}
}

// 調整履歴作成
func (r *StockAdjustmentGormRepository) Create(ctx context.Context, adj model.StockAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

func (r *StockAdjustmentGormRepository) ListByVariant(ctx context.Context, tenantID, variantID int64, limit int) ([]model.StockAdjustment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var items []model.StockAdjustment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.StockAdjustment{}, err
	}
	return items, nil
}
