package server

import (
	"net/http"

	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(
	e *echo.Echo,
	cfg config.Config,
	resH *handler.ReservationHandler,
	orderH *handler.OrderReservationHandler,
	adminH *handler.AdminStockHandler,
	cleanupH *handler.CleanupHandler,
) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	resH.RegisterRoutes(e, cfg)
	orderH.RegisterRoutes(e, cfg)
	adminH.RegisterRoutes(e, cfg)
	cleanupH.RegisterRoutes(e, cfg)
}
