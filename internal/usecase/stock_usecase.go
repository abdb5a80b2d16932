package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 新しいon_handが現在のreservedを下回る
var ErrStockBelowReserved = errors.New("on-hand stock below reserved stock")

// 調整理由が不正
var ErrInvalidReason = errors.New("invalid adjustment reason")

// StockUsecase は在庫カウンタ行の管理（バリアント導入・手動調整）。
// 引当による増減はReservationUsecase経由でのみ行われる。
type StockUsecase struct {
	tx          repo.TransactionManager
	stocks      repo.VariantStockRepository
	adjustments repo.StockAdjustmentRepository
}

func NewStockUsecase(tx repo.TransactionManager, stocks repo.VariantStockRepository, adjustments repo.StockAdjustmentRepository) *StockUsecase {
	return &StockUsecase{tx: tx, stocks: stocks, adjustments: adjustments}
}

type VariantStockOutput struct {
	TenantID       int64 `json:"tenant_id"`
	VariantID      int64 `json:"variant_id"`
	OnHandStock    int64 `json:"on_hand_stock"`
	ReservedStock  int64 `json:"reserved_stock"`
	AvailableStock int64 `json:"available_stock"`
}

// UpsertVariant はバリアントの在庫行を用意する（無ければ0在庫で作成）。
func (u *StockUsecase) UpsertVariant(ctx context.Context, tenantID, variantID int64) (VariantStockOutput, error) {
	if tenantID <= 0 || variantID <= 0 {
		return VariantStockOutput{}, repo.ErrNotFound
	}

	s, err := u.stocks.GetOrCreate(ctx, tenantID, variantID)
	if err != nil {
		return VariantStockOutput{}, err
	}
	return toVariantStockOutput(s), nil
}

// AdminSetStock はon_handを設定し、調整履歴を同一トランザクションで残す。
// ACTIVEな引当の合計を下回る値は拒否する。
func (u *StockUsecase) AdminSetStock(ctx context.Context, tenantID, adminUserID, variantID, newOnHand int64, reason string) (VariantStockOutput, error) {
	if tenantID <= 0 || adminUserID <= 0 {
		return VariantStockOutput{}, repo.ErrNotFound
	}
	if newOnHand < 0 {
		return VariantStockOutput{}, ErrInvalidQuantity
	}
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > 255 {
		return VariantStockOutput{}, ErrInvalidReason
	}

	var out VariantStockOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.VariantStocks().Find(ctx, tenantID, variantID)
		if err != nil {
			return err
		}

		ok, err := r.VariantStocks().SetOnHandIfFits(ctx, tenantID, variantID, newOnHand)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStockBelowReserved
		}

		if err := r.StockAdjustments().Create(ctx, model.StockAdjustment{
			TenantID:    tenantID,
			VariantID:   variantID,
			AdminUserID: adminUserID,
			Delta:       newOnHand - before.OnHandStock,
			Reason:      reason,
		}); err != nil {
			return err
		}

		before.OnHandStock = newOnHand
		out = toVariantStockOutput(before)
		return nil
	})

	if err != nil {
		return VariantStockOutput{}, err
	}
	return out, nil
}

func (u *StockUsecase) GetVariantStock(ctx context.Context, tenantID, variantID int64) (VariantStockOutput, error) {
	if tenantID <= 0 {
		return VariantStockOutput{}, repo.ErrNotFound
	}

	s, err := u.stocks.Find(ctx, tenantID, variantID)
	if err != nil {
		return VariantStockOutput{}, err
	}
	return toVariantStockOutput(s), nil
}

type StockAdjustmentOutput struct {
	ID          int64     `json:"id"`
	VariantID   int64     `json:"variant_id"`
	AdminUserID int64     `json:"admin_user_id"`
	Delta       int64     `json:"delta"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListAdjustments はバリアントの手動調整履歴を新しい順に返す。
func (u *StockUsecase) ListAdjustments(ctx context.Context, tenantID, variantID int64, limit int) ([]StockAdjustmentOutput, error) {
	if tenantID <= 0 {
		return nil, repo.ErrNotFound
	}

	items, err := u.adjustments.ListByVariant(ctx, tenantID, variantID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]StockAdjustmentOutput, 0, len(items))
	for _, a := range items {
		out = append(out, StockAdjustmentOutput{
			ID:          a.ID,
			VariantID:   a.VariantID,
			AdminUserID: a.AdminUserID,
			Delta:       a.Delta,
			Reason:      a.Reason,
			CreatedAt:   a.CreatedAt,
		})
	}
	return out, nil
}

func toVariantStockOutput(s model.VariantStock) VariantStockOutput {
	return VariantStockOutput{
		TenantID:       s.TenantID,
		VariantID:      s.VariantID,
		OnHandStock:    s.OnHandStock,
		ReservedStock:  s.ReservedStock,
		AvailableStock: s.AvailableStock(),
	}
}
