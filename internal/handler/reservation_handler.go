package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// 在庫不足は呼び出し側が品目単位で反応できるよう詳細を返す
type InsufficientStockResponse struct {
	Error     string `json:"error"`
	VariantID int64  `json:"variant_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// usecaseのエラー分類をHTTPステータスへ変換する共通処理
func writeError(c echo.Context, err error) error {
	var shortfall *repo.StockShortfall
	if errors.As(err, &shortfall) {
		return c.JSON(http.StatusConflict, InsufficientStockResponse{
			Error:     "insufficient stock",
			VariantID: shortfall.VariantID,
			Requested: shortfall.Requested,
			Available: shortfall.Available,
		})
	}

	switch {
	case errors.Is(err, repo.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "insufficient stock"})
	case errors.Is(err, repo.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid reservation state"})
	case errors.Is(err, repo.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrInvalidQuantity),
		errors.Is(err, usecase.ErrInvalidTTL),
		errors.Is(err, usecase.ErrEmptyCart),
		errors.Is(err, usecase.ErrInvalidOrderID),
		errors.Is(err, usecase.ErrInvalidReason):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrStockBelowReserved):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporarily unavailable"})
	}

	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getTenantIDFromContext(c echo.Context) (int64, bool) {
	v, ok := c.Get(middleware.CtxTenantIDKey).(int64)
	return v, ok && v > 0
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v, ok := c.Get(middleware.CtxUserIDKey).(int64)
	return v, ok && v > 0
}

// /reservationsのHTTP
type ReservationHandler struct {
	uc *usecase.ReservationUsecase
}

// DI
func NewReservationHandler(uc *usecase.ReservationUsecase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

type ReserveStockRequest struct {
	VariantID  int64  `json:"variant_id"`
	Quantity   int64  `json:"quantity"`
	TTLSeconds int64  `json:"ttl_seconds"`
	OrderID    string `json:"order_id"`
}

type AvailableStockResponse struct {
	VariantID      int64 `json:"variant_id"`
	AvailableStock int64 `json:"available_stock"`
}

// /reservations, /variants を登録
func (h *ReservationHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/reservations")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.reserve)
	g.GET("/:id", h.get)
	g.POST("/:id/commit", h.commit)
	g.POST("/:id/release", h.release)

	v := e.Group("/variants")
	v.Use(middleware.AuthJWT(cfg))

	v.GET("/:variant_id/stock", h.availableStock)
}

func (h *ReservationHandler) reserve(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ReserveStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.TTLSeconds < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid ttl_seconds"})
	}

	out, err := h.uc.ReserveStock(c.Request().Context(), tenantID, usecase.ReserveStockInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
		OrderID:   req.OrderID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *ReservationHandler) get(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetReservation(c.Request().Context(), tenantID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) commit(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.CommitReservation(c.Request().Context(), tenantID, c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) release(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.ReleaseReservation(c.Request().Context(), tenantID, c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) availableStock(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid variant_id"})
	}

	available, err := h.uc.GetAvailableStock(c.Request().Context(), tenantID, variantID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, AvailableStockResponse{
		VariantID:      variantID,
		AvailableStock: available,
	})
}
