package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/variantsのHTTP（在庫行の導入・手動調整）
type AdminStockHandler struct {
	uc *usecase.StockUsecase
}

// DI
func NewAdminStockHandler(uc *usecase.StockUsecase) *AdminStockHandler {
	return &AdminStockHandler{uc: uc}
}

type UpsertVariantRequest struct {
	VariantID int64 `json:"variant_id"`
}

type SetStockRequest struct {
	OnHandStock int64  `json:"on_hand_stock"`
	Reason      string `json:"reason"`
}

// /admin/variants を登録
func (h *AdminStockHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/variants")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.POST("", h.upsertVariant)
	g.GET("/:variant_id/stock", h.getStock)
	g.PUT("/:variant_id/stock", h.setStock)
	g.GET("/:variant_id/adjustments", h.listAdjustments)
}

func (h *AdminStockHandler) upsertVariant(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpsertVariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.VariantID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid variant_id"})
	}

	out, err := h.uc.UpsertVariant(c.Request().Context(), tenantID, req.VariantID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminStockHandler) getStock(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid variant_id"})
	}

	out, err := h.uc.GetVariantStock(c.Request().Context(), tenantID, variantID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminStockHandler) setStock(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	adminUserID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid variant_id"})
	}

	var req SetStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.OnHandStock < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "stock must be >= 0"})
	}

	out, err := h.uc.AdminSetStock(c.Request().Context(), tenantID, adminUserID, variantID, req.OnHandStock, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminStockHandler) listAdjustments(c echo.Context) error {
	tenantID, ok := getTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid variant_id"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
	}

	out, err := h.uc.ListAdjustments(c.Request().Context(), tenantID, variantID, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
