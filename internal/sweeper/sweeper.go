package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeperが呼ぶエンジン側の操作
type Engine interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Sweeper は期限切れ引当を定期的に回収するバックグラウンドジョブ。
// CleanupExpiredが冪等なので多重起動しても安全。
type Sweeper struct {
	engine   Engine
	interval time.Duration
	logger   *zap.Logger
}

func New(engine Engine, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Run はctxが止められるまで一定間隔でsweepする。起動直後にも1回実行する。
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.engine.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("sweep failed", zap.Int("expired", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("sweep completed", zap.Int("expired", n))
	}
}
