package model

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

// 在庫の一時引当。ACTIVEからCOMMITTED/RELEASED/EXPIREDへ一度だけ遷移する。
type Reservation struct {
	ID        string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID  int64             `gorm:"not null;index" json:"tenant_id"`
	VariantID int64             `gorm:"not null;index" json:"variant_id"`
	Quantity  int64             `gorm:"not null" json:"quantity"`
	Status    ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	OrderID   string            `gorm:"type:varchar(255);index" json:"order_id,omitempty"`
	CreatedAt time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	ExpiresAt time.Time         `gorm:"not null;index" json:"expires_at"`
}

// 終端ステータスかどうか
func (r Reservation) IsTerminal() bool {
	return r.Status == ReservationStatusCommitted ||
		r.Status == ReservationStatusReleased ||
		r.Status == ReservationStatusExpired
}
