package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// contextのActorがADMINかどうかを確認します。
// 権限不足も未認証と同じ401で返す。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ActorFrom(c).IsAdmin() {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}
