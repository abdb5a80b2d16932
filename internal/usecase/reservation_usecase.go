package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/metrics"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 数量が0以下
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// TTLが負、または上限超過
var ErrInvalidTTL = errors.New("invalid reservation ttl")

// 一時障害のリトライが尽きた
var ErrUnavailable = errors.New("store unavailable")

// ReservationUsecase は引当の公開操作。
// check-and-incrementの原子性はStoreに寄せてあるので、ここは薄い検証層。
type ReservationUsecase struct {
	store  repo.ReservationStore
	logger *zap.Logger

	defaultTTL time.Duration
	maxTTL     time.Duration

	retryAttempts int
	retryBackoff  time.Duration
	sweepBatch    int
}

func NewReservationUsecase(store repo.ReservationStore, logger *zap.Logger, cfg config.Config) *ReservationUsecase {
	return &ReservationUsecase{
		store:         store,
		logger:        logger,
		defaultTTL:    cfg.DefaultReservationTTL,
		maxTTL:        cfg.MaxReservationTTL,
		retryAttempts: cfg.StoreRetryAttempts,
		retryBackoff:  cfg.StoreRetryBackoff,
		sweepBatch:    cfg.SweepBatchSize,
	}
}

type ReserveStockInput struct {
	VariantID int64
	Quantity  int64
	TTL       time.Duration // 0ならデフォルトTTL
	OrderID   string
}

type ReservationOutput struct {
	ID        string    `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	VariantID int64     `json:"variant_id"`
	Quantity  int64     `json:"quantity"`
	Status    string    `json:"status"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReserveStock は在庫を引き当てる。在庫不足はリトライせずそのまま返す
// （リトライするかどうかは呼び出し側の判断）。
func (u *ReservationUsecase) ReserveStock(ctx context.Context, tenantID int64, in ReserveStockInput) (ReservationOutput, error) {
	if tenantID <= 0 {
		return ReservationOutput{}, repo.ErrNotFound
	}
	if in.Quantity <= 0 {
		return ReservationOutput{}, ErrInvalidQuantity
	}

	ttl := in.TTL
	if ttl == 0 {
		ttl = u.defaultTTL
	}
	if ttl < 0 || ttl > u.maxTTL {
		return ReservationOutput{}, ErrInvalidTTL
	}

	var created model.Reservation
	err := u.withRetry(ctx, "try_reserve", func() error {
		var err error
		created, err = u.store.TryReserve(ctx, tenantID, in.VariantID, in.Quantity, ttl, in.OrderID)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			metrics.InsufficientStockRejections.Inc()
		}
		return ReservationOutput{}, err
	}

	metrics.ReservationsCreated.Inc()
	return toReservationOutput(created), nil
}

// CommitReservation は引当を確定して実在庫を減らす。二重commitはno-op。
func (u *ReservationUsecase) CommitReservation(ctx context.Context, tenantID int64, reservationID string) error {
	if tenantID <= 0 || reservationID == "" {
		return repo.ErrNotFound
	}

	err := u.withRetry(ctx, "commit", func() error {
		return u.store.Commit(ctx, tenantID, reservationID)
	})
	if err != nil {
		if errors.Is(err, repo.ErrInvalidTransition) {
			//上流のロジックバグの兆候なので黙って流さない
			u.logger.Error("commit on terminal reservation",
				zap.Int64("tenant_id", tenantID),
				zap.String("reservation_id", reservationID))
		}
		return err
	}

	metrics.ReservationsCommitted.Inc()
	return nil
}

// ReleaseReservation は引当を解放する。解放済み/期限切れへの再releaseはno-op。
func (u *ReservationUsecase) ReleaseReservation(ctx context.Context, tenantID int64, reservationID string) error {
	if tenantID <= 0 || reservationID == "" {
		return repo.ErrNotFound
	}

	err := u.withRetry(ctx, "release", func() error {
		return u.store.Release(ctx, tenantID, reservationID)
	})
	if err != nil {
		return err
	}

	metrics.ReservationsReleased.Inc()
	return nil
}

// GetAvailableStock は on_hand - reserved を毎回Storeから読む（キャッシュ禁止）。
func (u *ReservationUsecase) GetAvailableStock(ctx context.Context, tenantID, variantID int64) (int64, error) {
	if tenantID <= 0 {
		return 0, repo.ErrNotFound
	}
	return u.store.GetAvailable(ctx, tenantID, variantID)
}

func (u *ReservationUsecase) GetReservation(ctx context.Context, tenantID int64, reservationID string) (ReservationOutput, error) {
	if tenantID <= 0 || reservationID == "" {
		return ReservationOutput{}, repo.ErrNotFound
	}

	r, err := u.store.FindByID(ctx, tenantID, reservationID)
	if err != nil {
		return ReservationOutput{}, err
	}
	return toReservationOutput(r), nil
}

// CleanupExpired は期限切れACTIVE引当をバッチでEXPIREDにし、件数を返す。
// 個別の失敗はログに残して続行する（1件の失敗で残りを止めない）。
func (u *ReservationUsecase) CleanupExpired(ctx context.Context) (int, error) {
	total := 0

	for {
		batch, err := u.store.FindActiveExpired(ctx, time.Now(), u.sweepBatch)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		expired := 0
		for _, r := range batch {
			if err := u.store.Expire(ctx, r.TenantID, r.ID); err != nil {
				//commit/releaseと競合した場合もここに来るが、どちらが勝っても正しい
				u.logger.Warn("expire failed",
					zap.String("reservation_id", r.ID),
					zap.Int64("tenant_id", r.TenantID),
					zap.Error(err))
				continue
			}
			expired++
			metrics.ReservationsExpired.Inc()
		}
		total += expired

		//1件も進まなかったら次の実行に任せる（失敗行での無限ループ防止）
		if expired == 0 || len(batch) < u.sweepBatch {
			return total, nil
		}
	}
}

// withRetry は一時障害だけを限定回数リトライする。
// 分類済みエラー（在庫不足・NotFound・不正遷移）は即返す。
func (u *ReservationUsecase) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := u.retryBackoff
	var err error

	for attempt := 0; attempt <= u.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}

		u.logger.Warn("store call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, repo.ErrNotFound) &&
		!errors.Is(err, repo.ErrInsufficientStock) &&
		!errors.Is(err, repo.ErrInvalidTransition)
}

func toReservationOutput(r model.Reservation) ReservationOutput {
	return ReservationOutput{
		ID:        r.ID,
		TenantID:  r.TenantID,
		VariantID: r.VariantID,
		Quantity:  r.Quantity,
		Status:    string(r.Status),
		OrderID:   r.OrderID,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
