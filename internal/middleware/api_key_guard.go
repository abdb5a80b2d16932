package middleware

import (
	"net/http"

	"app/internal/config"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// 外部スケジューラ向けエンドポイントのAPIキー検証。
// 平文キーは設定に置かず、bcryptハッシュと突き合わせる。
func APIKeyGuard(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("X-Api-Key")
			if key == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if err := bcrypt.CompareHashAndPassword([]byte(cfg.CleanupAPIKeyHash), []byte(key)); err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}
