package model

import "time"

// テナント×バリアントごとの在庫カウンタ。
// 更新はReservationStoreの条件付きUPDATEのみ（アプリ側でread-modify-writeしない）。
type VariantStock struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID      int64     `gorm:"not null;uniqueIndex:idx_variant_stocks_tenant_variant" json:"tenant_id"`
	VariantID     int64     `gorm:"not null;uniqueIndex:idx_variant_stocks_tenant_variant" json:"variant_id"`
	OnHandStock   int64     `gorm:"not null" json:"on_hand_stock"`
	ReservedStock int64     `gorm:"not null" json:"reserved_stock"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 引当可能数（on_hand - reserved）
func (s VariantStock) AvailableStock() int64 {
	return s.OnHandStock - s.ReservedStock
}
