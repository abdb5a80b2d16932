package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /orders配下のHTTP（注文フロー向けの一括reserve/commit/release）
type OrderReservationHandler struct {
	uc *usecase.OrderReservationUsecase
}

// DI
func NewOrderReservationHandler(uc *usecase.OrderReservationUsecase) *OrderReservationHandler {
	return &OrderReservationHandler{uc: uc}
}

type CartLineRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
}

type ReserveCartRequest struct {
	Lines []CartLineRequest `json:"lines"`
}

type ReserveCartResponse struct {
	OrderID      string                      `json:"order_id"`
	Reservations []usecase.ReservationOutput `json:"reservations"`
}

// /orders/{order_id}/reservations を登録
func (h *OrderReservationHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/:order_id/reservations", h.reserveCart)
	g.POST("/:order_id/reservations/commit", h.commitOrder)
	g.POST("/:order_id/reservations/release", h.releaseOrder)
}

func (h *OrderReservationHandler) reserveCart(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ReserveCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	orderID := c.Param("order_id")

	lines := make([]usecase.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, usecase.CartLine{
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
		})
	}

	out, err := h.uc.ReserveCart(c.Request().Context(), tenantID, orderID, lines)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, ReserveCartResponse{
		OrderID:      orderID,
		Reservations: out,
	})
}

func (h *OrderReservationHandler) commitOrder(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.CommitOrderReservations(c.Request().Context(), tenantID, c.Param("order_id")); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *OrderReservationHandler) releaseOrder(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.ReleaseOrderReservations(c.Request().Context(), tenantID, c.Param("order_id")); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
