package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type VariantStockGormRepository struct {
	db *gorm.DB
}

func NewVariantStockGormRepository(db *gorm.DB) *VariantStockGormRepository {
	return &VariantStockGormRepository{db: db}
}

// 無ければ0在庫で作成（uniqueインデックスで同時作成は片方が既存行を拾う）
func (r *VariantStockGormRepository) GetOrCreate(ctx context.Context, tenantID, variantID int64) (model.VariantStock, error) {
	var s model.VariantStock
	err := r.db.WithContext(ctx).
		Where(model.VariantStock{TenantID: tenantID, VariantID: variantID}).
		FirstOrCreate(&s).Error
	if err != nil {
		return model.VariantStock{}, err
	}
	return s, nil
}

func (r *VariantStockGormRepository) Find(ctx context.Context, tenantID, variantID int64) (model.VariantStock, error) {
	var s model.VariantStock
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.VariantStock{}, repo.ErrNotFound
	}
	if err != nil {
		return model.VariantStock{}, err
	}
	return s, nil
}

// reserved_stock を割り込まない範囲でon_handを設定する
func (r *VariantStockGormRepository) SetOnHandIfFits(ctx context.Context, tenantID, variantID, newOnHand int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.VariantStock{}).
		Where("tenant_id = ? AND variant_id = ? AND reserved_stock <= ?", tenantID, variantID, newOnHand).
		Update("on_hand_stock", newOnHand)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		//行が無いならNotFound、あるなら引当が新しい値を超えている
		var s model.VariantStock
		err := r.db.WithContext(ctx).
			Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
			First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, repo.ErrNotFound
		}
		if err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
