package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// GORM実装と同じ条件付きUPDATEの意味論を持つインメモリStore。
// 実DBなしで並行テスト（oversell禁止・保存則）を回すために使う。
type memStore struct {
	mu           sync.Mutex
	stocks       map[[2]int64]*model.VariantStock
	reservations map[string]*model.Reservation
}

func newMemStore() *memStore {
	return &memStore{
		stocks:       make(map[[2]int64]*model.VariantStock),
		reservations: make(map[string]*model.Reservation),
	}
}

func stockKey(tenantID, variantID int64) [2]int64 {
	return [2]int64{tenantID, variantID}
}

func (s *memStore) seed(tenantID, variantID, onHand int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[stockKey(tenantID, variantID)] = &model.VariantStock{
		TenantID:    tenantID,
		VariantID:   variantID,
		OnHandStock: onHand,
	}
}

func (s *memStore) TryReserve(ctx context.Context, tenantID, variantID, quantity int64, ttl time.Duration, orderID string) (model.Reservation, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stocks[stockKey(tenantID, variantID)]
	if !ok {
		return model.Reservation{}, repo.ErrNotFound
	}
	if st.OnHandStock-st.ReservedStock < quantity {
		return model.Reservation{}, &repo.StockShortfall{
			TenantID:  tenantID,
			VariantID: variantID,
			Requested: quantity,
			Available: st.OnHandStock - st.ReservedStock,
		}
	}

	st.ReservedStock += quantity

	now := time.Now()
	r := &model.Reservation{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		VariantID: variantID,
		Quantity:  quantity,
		Status:    model.ReservationStatusActive,
		OrderID:   orderID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.reservations[r.ID] = r
	return *r, nil
}

func (s *memStore) Commit(ctx context.Context, tenantID int64, reservationID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[reservationID]
	if !ok || r.TenantID != tenantID {
		return repo.ErrNotFound
	}

	switch r.Status {
	case model.ReservationStatusCommitted:
		return nil
	case model.ReservationStatusReleased, model.ReservationStatusExpired:
		return repo.ErrInvalidTransition
	}

	st := s.stocks[stockKey(r.TenantID, r.VariantID)]
	st.OnHandStock -= r.Quantity
	st.ReservedStock -= r.Quantity
	r.Status = model.ReservationStatusCommitted
	return nil
}

func (s *memStore) Release(ctx context.Context, tenantID int64, reservationID string) error {
	return s.releaseTo(tenantID, reservationID, model.ReservationStatusReleased)
}

func (s *memStore) Expire(ctx context.Context, tenantID int64, reservationID string) error {
	return s.releaseTo(tenantID, reservationID, model.ReservationStatusExpired)
}

func (s *memStore) releaseTo(tenantID int64, reservationID string, to model.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[reservationID]
	if !ok || r.TenantID != tenantID {
		return repo.ErrNotFound
	}

	switch r.Status {
	case model.ReservationStatusReleased, model.ReservationStatusExpired:
		return nil
	case model.ReservationStatusCommitted:
		return repo.ErrInvalidTransition
	}

	st := s.stocks[stockKey(r.TenantID, r.VariantID)]
	st.ReservedStock -= r.Quantity
	r.Status = to
	return nil
}

func (s *memStore) FindByID(ctx context.Context, tenantID int64, reservationID string) (model.Reservation, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[reservationID]
	if !ok || r.TenantID != tenantID {
		return model.Reservation{}, repo.ErrNotFound
	}
	return *r, nil
}

func (s *memStore) FindByOrderID(ctx context.Context, tenantID int64, orderID string) ([]model.Reservation, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []model.Reservation
	for _, r := range s.reservations {
		if r.TenantID == tenantID && r.OrderID == orderID {
			items = append(items, *r)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *memStore) FindActiveExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []model.Reservation
	for _, r := range s.reservations {
		if r.Status == model.ReservationStatusActive && r.ExpiresAt.Before(now) {
			items = append(items, *r)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ExpiresAt.Before(items[j].ExpiresAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *memStore) GetAvailable(ctx context.Context, tenantID, variantID int64) (int64, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stocks[stockKey(tenantID, variantID)]
	if !ok {
		return 0, repo.ErrNotFound
	}
	return st.OnHandStock - st.ReservedStock, nil
}

// ===== テスト用スナップショット =====

func (s *memStore) stockOf(tenantID, variantID int64) model.VariantStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.stocks[stockKey(tenantID, variantID)]
}

// ACTIVE引当の数量合計（保存則チェック用）
func (s *memStore) activeSum(tenantID, variantID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, r := range s.reservations {
		if r.TenantID == tenantID && r.VariantID == variantID && r.Status == model.ReservationStatusActive {
			sum += r.Quantity
		}
	}
	return sum
}
