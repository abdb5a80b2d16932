package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/server"
	"app/internal/sweeper"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envがあれば読む（無ければ環境変数だけで動く）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.VariantStock{},
		&model.Reservation{},
		&model.StockAdjustment{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	store := infraRepo.NewReservationGormStore(gormDB)
	stocks := infraRepo.NewVariantStockGormRepository(gormDB)
	adjustments := infraRepo.NewStockAdjustmentGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	reservationUC := usecase.NewReservationUsecase(store, logger, cfg)
	orderUC := usecase.NewOrderReservationUsecase(reservationUC, store, logger)
	stockUC := usecase.NewStockUsecase(txManager, stocks, adjustments)

	//Handler生成
	resH := handler.NewReservationHandler(reservationUC)
	orderH := handler.NewOrderReservationHandler(orderUC)
	adminH := handler.NewAdminStockHandler(stockUC)
	cleanupH := handler.NewCleanupHandler(reservationUC)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	//Sweeper起動（期限切れ引当の回収）
	sw := sweeper.New(reservationUC, cfg.SweepInterval, logger)
	go sw.Run(ctx)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	e := server.New(cfg, resH, orderH, adminH, cleanupH)
	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
