package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 外部スケジューラが叩くcleanupエンドポイント
type CleanupHandler struct {
	uc *usecase.ReservationUsecase
}

// DI
func NewCleanupHandler(uc *usecase.ReservationUsecase) *CleanupHandler {
	return &CleanupHandler{uc: uc}
}

type CleanupResponse struct {
	Expired int `json:"expired"`
}

// /internal/reservations/cleanup を登録
func (h *CleanupHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/internal/reservations")
	g.Use(middleware.APIKeyGuard(cfg))

	g.POST("/cleanup", h.cleanup)
}

func (h *CleanupHandler) cleanup(c echo.Context) error {
	n, err := h.uc.CleanupExpired(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, CleanupResponse{Expired: n})
}
