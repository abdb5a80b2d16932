package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// memStoreを使った振る舞いテスト。DBなしで条件付きUPDATEの意味論ごと検証する。

func newMemEngine(store *memStore) *usecase.ReservationUsecase {
	return usecase.NewReservationUsecase(store, zap.NewNop(), testConfig())
}

// 並行reserveでもoversellしない
func TestReservationEngine_ConcurrentReserve_NoOversell(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 50)
	uc := newMemEngine(store)

	const workers = 40
	const qty = 3

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: qty})
		}(i)
	}
	wg.Wait()

	var reservedTotal int64
	for _, err := range errs {
		if err == nil {
			reservedTotal += qty
		} else {
			assert.ErrorIs(t, err, repo.ErrInsufficientStock)
		}
	}

	assert.LessOrEqual(t, reservedTotal, int64(50))

	// reserved_stock == ACTIVE引当の数量合計（保存則）
	st := store.stockOf(1, 100)
	assert.Equal(t, reservedTotal, st.ReservedStock)
	assert.Equal(t, reservedTotal, store.activeSum(1, 100))
	assert.Equal(t, int64(50), st.OnHandStock)
}

// reserve→不足→commit→再reserveの一連のシナリオ
func TestReservationEngine_ReserveCommitScenario(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r1, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 7})
	assert.NoError(t, err)

	// 残り3なので5は引けない
	_, err = uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 5})
	var shortfall *repo.StockShortfall
	assert.ErrorAs(t, err, &shortfall)
	assert.Equal(t, int64(3), shortfall.Available)

	assert.NoError(t, uc.CommitReservation(ctx, 1, r1.ID))

	st := store.stockOf(1, 100)
	assert.Equal(t, int64(3), st.OnHandStock)
	assert.Equal(t, int64(0), st.ReservedStock)

	// commit後は残り3が引ける
	_, err = uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 3})
	assert.NoError(t, err)

	avail, err := uc.GetAvailableStock(ctx, 1, 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), avail)
}

// 二重commitは在庫を二重に減らさない
func TestReservationEngine_CommitIdempotent(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 4})
	assert.NoError(t, err)

	assert.NoError(t, uc.CommitReservation(ctx, 1, r.ID))
	assert.NoError(t, uc.CommitReservation(ctx, 1, r.ID))

	st := store.stockOf(1, 100)
	assert.Equal(t, int64(6), st.OnHandStock)
	assert.Equal(t, int64(0), st.ReservedStock)
}

// 二重releaseは一度しか解放しない
func TestReservationEngine_ReleaseIdempotent(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 4})
	assert.NoError(t, err)

	assert.NoError(t, uc.ReleaseReservation(ctx, 1, r.ID))
	assert.NoError(t, uc.ReleaseReservation(ctx, 1, r.ID))

	st := store.stockOf(1, 100)
	assert.Equal(t, int64(10), st.OnHandStock)
	assert.Equal(t, int64(0), st.ReservedStock)
}

// release済みへのcommitは不正遷移
func TestReservationEngine_CommitAfterRelease(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 4})
	assert.NoError(t, err)

	assert.NoError(t, uc.ReleaseReservation(ctx, 1, r.ID))

	err = uc.CommitReservation(ctx, 1, r.ID)
	assert.ErrorIs(t, err, repo.ErrInvalidTransition)

	st := store.stockOf(1, 100)
	assert.Equal(t, int64(10), st.OnHandStock)
}

// 他テナントの引当は見えない
func TestReservationEngine_TenantIsolation(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 100, Quantity: 4})
	assert.NoError(t, err)

	err = uc.CommitReservation(ctx, 2, r.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = uc.GetReservation(ctx, 2, r.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// 期限切れ引当はCleanupで回収され、在庫が戻る
func TestReservationEngine_ExpirySweep(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{
		VariantID: 100,
		Quantity:  4,
		TTL:       time.Millisecond,
	})
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	n, err := uc.CleanupExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := uc.GetReservation(ctx, 1, r.ID)
	assert.NoError(t, err)
	assert.Equal(t, "EXPIRED", got.Status)

	avail, err := uc.GetAvailableStock(ctx, 1, 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), avail)

	// 二度目のsweepは何もしない
	n, err = uc.CleanupExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

// 期限切れ後のcommitはsweepと競合してもどちらか一方だけが成立する
func TestReservationEngine_ExpireThenCommit(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.seed(1, 100, 10)
	uc := newMemEngine(store)

	r, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{
		VariantID: 100,
		Quantity:  4,
		TTL:       time.Millisecond,
	})
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = uc.CleanupExpired(ctx)
	assert.NoError(t, err)

	err = uc.CommitReservation(ctx, 1, r.ID)
	assert.ErrorIs(t, err, repo.ErrInvalidTransition)

	st := store.stockOf(1, 100)
	assert.Equal(t, int64(10), st.OnHandStock)
	assert.Equal(t, int64(0), st.ReservedStock)
}

// 存在しないバリアントはNotFound
func TestReservationEngine_UnknownVariant(t *testing.T) {
	ctx := context.Background()

	uc := newMemEngine(newMemStore())

	_, err := uc.ReserveStock(ctx, 1, usecase.ReserveStockInput{VariantID: 999, Quantity: 1})
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.False(t, errors.Is(err, usecase.ErrUnavailable))
}
