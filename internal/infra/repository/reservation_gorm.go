package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationGormStore struct {
	db *gorm.DB
}

func NewReservationGormStore(db *gorm.DB) *ReservationGormStore {
	return &ReservationGormStore{db: db}
}

// 在庫チェックと引当作成を1トランザクションで行う。
// check-and-incrementは条件付きUPDATE一発（同時実行はDBの行ロックで直列化）。
func (s *ReservationGormStore) TryReserve(ctx context.Context, tenantID, variantID, quantity int64, ttl time.Duration, orderID string) (model.Reservation, error) {
	var created model.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.VariantStock{}).
			Where("tenant_id = ? AND variant_id = ? AND on_hand_stock - reserved_stock >= ?", tenantID, variantID, quantity).
			Update("reserved_stock", gorm.Expr("reserved_stock + ?", quantity))

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			//行が無いのか在庫不足なのかを読み分ける
			var stock model.VariantStock
			err := tx.Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).First(&stock).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			if err != nil {
				return err
			}
			return &repo.StockShortfall{
				TenantID:  tenantID,
				VariantID: variantID,
				Requested: quantity,
				Available: stock.AvailableStock(),
			}
		}

		now := time.Now()
		created = model.Reservation{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			VariantID: variantID,
			Quantity:  quantity,
			Status:    model.ReservationStatusActive,
			OrderID:   orderID,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		return tx.Create(&created).Error
	})

	if err != nil {
		return model.Reservation{}, err
	}
	return created, nil
}

// ACTIVE→COMMITTED。on_handとreservedを同時に減らす。
func (s *ReservationGormStore) Commit(ctx context.Context, tenantID int64, reservationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//ステータス遷移を条件付きUPDATEで取り合う（勝者は1トランザクションだけ）
		res := tx.Model(&model.Reservation{}).
			Where("id = ? AND tenant_id = ? AND status = ?", reservationID, tenantID, model.ReservationStatusActive).
			Update("status", model.ReservationStatusCommitted)

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return terminalOrMissing(tx, tenantID, reservationID, model.ReservationStatusCommitted)
		}

		var r model.Reservation
		if err := tx.Where("id = ? AND tenant_id = ?", reservationID, tenantID).First(&r).Error; err != nil {
			return err
		}

		counters := tx.Model(&model.VariantStock{}).
			Where("tenant_id = ? AND variant_id = ?", r.TenantID, r.VariantID).
			Updates(map[string]interface{}{
				"on_hand_stock":  gorm.Expr("on_hand_stock - ?", r.Quantity),
				"reserved_stock": gorm.Expr("reserved_stock - ?", r.Quantity),
			})
		if counters.Error != nil {
			return counters.Error
		}
		if counters.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// ACTIVE→RELEASED。reservedだけ戻す。
func (s *ReservationGormStore) Release(ctx context.Context, tenantID int64, reservationID string) error {
	return s.releaseTo(ctx, tenantID, reservationID, model.ReservationStatusReleased)
}

// ACTIVE→EXPIRED。効果はReleaseと同じでSweeper専用。
func (s *ReservationGormStore) Expire(ctx context.Context, tenantID int64, reservationID string) error {
	return s.releaseTo(ctx, tenantID, reservationID, model.ReservationStatusExpired)
}

func (s *ReservationGormStore) releaseTo(ctx context.Context, tenantID int64, reservationID string, to model.ReservationStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Reservation{}).
			Where("id = ? AND tenant_id = ? AND status = ?", reservationID, tenantID, model.ReservationStatusActive).
			Update("status", to)

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return terminalOrMissing(tx, tenantID, reservationID, to)
		}

		var r model.Reservation
		if err := tx.Where("id = ? AND tenant_id = ?", reservationID, tenantID).First(&r).Error; err != nil {
			return err
		}

		counters := tx.Model(&model.VariantStock{}).
			Where("tenant_id = ? AND variant_id = ?", r.TenantID, r.VariantID).
			Update("reserved_stock", gorm.Expr("reserved_stock - ?", r.Quantity))
		if counters.Error != nil {
			return counters.Error
		}
		if counters.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 遷移の取り合いに負けたときの読み分け。
// commit済みへのcommit、release済みへのrelease/expireは冪等にno-op。
func terminalOrMissing(tx *gorm.DB, tenantID int64, reservationID string, to model.ReservationStatus) error {
	var r model.Reservation
	err := tx.Where("id = ? AND tenant_id = ?", reservationID, tenantID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if err != nil {
		return err
	}

	switch to {
	case model.ReservationStatusCommitted:
		if r.Status == model.ReservationStatusCommitted {
			return nil
		}
	case model.ReservationStatusReleased, model.ReservationStatusExpired:
		if r.Status == model.ReservationStatusReleased || r.Status == model.ReservationStatusExpired {
			return nil
		}
	}
	return repo.ErrInvalidTransition
}

func (s *ReservationGormStore) FindByID(ctx context.Context, tenantID int64, reservationID string) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", reservationID, tenantID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Reservation{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

func (s *ReservationGormStore) FindByOrderID(ctx context.Context, tenantID int64, orderID string) ([]model.Reservation, error) {
	var items []model.Reservation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return []model.Reservation{}, err
	}
	return items, nil
}

// 期限切れACTIVEをexpires_at昇順でlimit件。Sweeperが空になるまで繰り返し呼ぶ。
func (s *ReservationGormStore) FindActiveExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	var items []model.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.ReservationStatusActive, now).
		Order("expires_at asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Reservation{}, err
	}
	return items, nil
}

func (s *ReservationGormStore) GetAvailable(ctx context.Context, tenantID, variantID int64) (int64, error) {
	var stock model.VariantStock
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return stock.AvailableStock(), nil
}
