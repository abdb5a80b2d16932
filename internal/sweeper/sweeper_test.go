package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type engineStub struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *engineStub) CleanupExpired(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return 0, e.err
	}
	return 1, nil
}

func (e *engineStub) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// 起動直後の1回＋ticker分のsweepが走る
func TestSweeper_Run_SweepsPeriodically(t *testing.T) {
	engine := &engineStub{}
	s := New(engine, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.GreaterOrEqual(t, engine.count(), 2)
}

// sweepの失敗で止まらない
func TestSweeper_Run_ContinuesAfterError(t *testing.T) {
	engine := &engineStub{err: errors.New("db down")}
	s := New(engine, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.GreaterOrEqual(t, engine.count(), 2)
}

// ctx停止でRunが戻る
func TestSweeper_Run_StopsOnCancel(t *testing.T) {
	engine := &engineStub{}
	s := New(engine, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	// 起動直後の1回だけ
	assert.Equal(t, 1, engine.count())
}
