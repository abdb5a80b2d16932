package repository

import (
	"context"

	"app/internal/domain/model"
)

// 手動在庫調整の履歴保存
type StockAdjustmentRepository interface {
	Create(ctx context.Context, adjustment model.StockAdjustment) error
	ListByVariant(ctx context.Context, tenantID, variantID int64, limit int) ([]model.StockAdjustment, error)
}
