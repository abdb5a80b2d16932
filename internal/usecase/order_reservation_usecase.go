package usecase

import (
	"context"
	"errors"
	"strings"

	repo "app/internal/repository"

	"go.uber.org/zap"
)

// カートが空
var ErrEmptyCart = errors.New("cart has no lines")

// 注文IDが空
var ErrInvalidOrderID = errors.New("invalid order id")

// Adapterが使う引当エンジンの操作
type ReservationEngine interface {
	ReserveStock(ctx context.Context, tenantID int64, in ReserveStockInput) (ReservationOutput, error)
	CommitReservation(ctx context.Context, tenantID int64, reservationID string) error
	ReleaseReservation(ctx context.Context, tenantID int64, reservationID string) error
}

// OrderReservationUsecase はカート⇔引当の変換層。
// 注文フローはここ経由で一括reserve/commit/releaseする。
type OrderReservationUsecase struct {
	engine ReservationEngine
	store  repo.ReservationStore
	logger *zap.Logger
}

func NewOrderReservationUsecase(engine ReservationEngine, store repo.ReservationStore, logger *zap.Logger) *OrderReservationUsecase {
	return &OrderReservationUsecase{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

type CartLine struct {
	VariantID int64
	Quantity  int64
}

// ReserveCart は各行を順に引き当てる。途中で失敗したら作成済みの引当を
// ベストエフォートで解放し、元の失敗（どのバリアントが在庫不足か）を返す。
func (u *OrderReservationUsecase) ReserveCart(ctx context.Context, tenantID int64, orderID string, lines []CartLine) ([]ReservationOutput, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || len(orderID) > 255 {
		return nil, ErrInvalidOrderID
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	reserved := make([]ReservationOutput, 0, len(lines))

	for _, line := range lines {
		out, err := u.engine.ReserveStock(ctx, tenantID, ReserveStockInput{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			OrderID:   orderID,
		})
		if err != nil {
			u.rollback(ctx, tenantID, orderID, reserved)
			return nil, err
		}
		reserved = append(reserved, out)
	}

	return reserved, nil
}

// 作成済み引当の解放。解放に失敗しても元のエラーを隠さない（ログのみ）。
func (u *OrderReservationUsecase) rollback(ctx context.Context, tenantID int64, orderID string, reserved []ReservationOutput) {
	for _, r := range reserved {
		if err := u.engine.ReleaseReservation(ctx, tenantID, r.ID); err != nil {
			u.logger.Error("rollback release failed",
				zap.String("order_id", orderID),
				zap.String("reservation_id", r.ID),
				zap.Int64("variant_id", r.VariantID),
				zap.Error(err))
		}
	}
}

// CommitOrderReservations は注文に紐づく引当をすべてcommitする。
// 個別の失敗はログに残すだけでロールバックしない（支払い済み在庫の取りこぼしは
// 運用で追跡する方針）。
func (u *OrderReservationUsecase) CommitOrderReservations(ctx context.Context, tenantID int64, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrInvalidOrderID
	}

	items, err := u.store.FindByOrderID(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		//支払い成功した注文に引当が無いのは異常
		return repo.ErrNotFound
	}

	for _, r := range items {
		if err := u.engine.CommitReservation(ctx, tenantID, r.ID); err != nil {
			u.logger.Error("order commit failed for reservation",
				zap.String("order_id", orderID),
				zap.String("reservation_id", r.ID),
				zap.Error(err))
		}
	}
	return nil
}

// ReleaseOrderReservations は注文のACTIVEな引当をすべて解放する。
// 終端の引当はスキップ（Sweeperや手動releaseと競合しても安全）。
func (u *OrderReservationUsecase) ReleaseOrderReservations(ctx context.Context, tenantID int64, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrInvalidOrderID
	}

	items, err := u.store.FindByOrderID(ctx, tenantID, orderID)
	if err != nil {
		return err
	}

	for _, r := range items {
		if r.IsTerminal() {
			continue
		}
		if err := u.engine.ReleaseReservation(ctx, tenantID, r.ID); err != nil {
			u.logger.Error("order release failed for reservation",
				zap.String("order_id", orderID),
				zap.String("reservation_id", r.ID),
				zap.Error(err))
		}
	}
	return nil
}
