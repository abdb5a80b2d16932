package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

// New はルーティング済みのechoサーバを組み立てる。
func New(
	cfg config.Config,
	resH *handler.ReservationHandler,
	orderH *handler.OrderReservationHandler,
	adminH *handler.AdminStockHandler,
	cleanupH *handler.CleanupHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	RegisterRoutes(e, cfg, resH, orderH, adminH, cleanupH)
	return e
}
