package repository

import (
	"context"

	"app/internal/domain/model"
)

// 在庫カウンタ行の管理（バリアント導入・手動調整）。
// 引当経由の増減はReservationStoreが担当する。
type VariantStockRepository interface {
	// 無ければ作成、あればそのまま返す
	GetOrCreate(ctx context.Context, tenantID, variantID int64) (model.VariantStock, error)

	Find(ctx context.Context, tenantID, variantID int64) (model.VariantStock, error)

	// on_hand_stock を設定する。newOnHand >= reserved_stock のときだけ成功し、
	// 条件を満たさなければ false を返す。
	SetOnHandIfFits(ctx context.Context, tenantID, variantID, newOnHand int64) (bool, error)
}
