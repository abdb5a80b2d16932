package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 引当の在庫不足
var ErrInsufficientStock = errors.New("insufficient stock")

// 終端ステータスからの不正な遷移（例：RELEASED済みをcommit）
var ErrInvalidTransition = errors.New("invalid reservation transition")

// 在庫不足の詳細。errors.Is(err, ErrInsufficientStock) で判定できる。
type StockShortfall struct {
	TenantID  int64
	VariantID int64
	Requested int64
	Available int64
}

func (e *StockShortfall) Error() string {
	return fmt.Sprintf("insufficient stock: variant=%d requested=%d available=%d",
		e.VariantID, e.Requested, e.Available)
}

func (e *StockShortfall) Unwrap() error {
	return ErrInsufficientStock
}

// 引当レコードと在庫カウンタを同一トランザクションで更新する唯一の層。
// check-and-incrementは条件付きUPDATE一発で行い、同時実行はDB側で直列化される。
type ReservationStore interface {
	// 条件付きで reserved_stock を増やし、同時にACTIVEな引当を作成する。
	// 在庫不足なら *StockShortfall、在庫行が無ければ ErrNotFound。
	TryReserve(ctx context.Context, tenantID, variantID, quantity int64, ttl time.Duration, orderID string) (model.Reservation, error)

	// ACTIVE→COMMITTED。on_handとreservedを両方減らす。
	// COMMITTED済みはno-op、RELEASED/EXPIREDは ErrInvalidTransition。
	Commit(ctx context.Context, tenantID int64, reservationID string) error

	// ACTIVE→RELEASED。reservedだけ戻す。
	// RELEASED/EXPIRED済みはno-op、COMMITTEDは ErrInvalidTransition。
	Release(ctx context.Context, tenantID int64, reservationID string) error

	// Releaseと同じ効果でステータスだけEXPIREDにする。Sweeper専用。
	Expire(ctx context.Context, tenantID int64, reservationID string) error

	FindByID(ctx context.Context, tenantID int64, reservationID string) (model.Reservation, error)

	// 注文に紐づく引当の一覧（batch commit/release用）
	FindByOrderID(ctx context.Context, tenantID int64, orderID string) ([]model.Reservation, error)

	// expires_at < now のACTIVEな引当をexpires_at昇順でlimit件まで返す。
	// Sweeperが空になるまで繰り返し呼ぶ。
	FindActiveExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)

	// on_hand - reserved を最新のコミット済み状態から読む（キャッシュしない）
	GetAvailable(ctx context.Context, tenantID, variantID int64) (int64, error)
}
