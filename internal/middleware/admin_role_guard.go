package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole はAuthJWTの後ろに置き、トークンのroleが一致しなければ403にする。
// subが入っていない（AuthJWTを通っていない）場合は401
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sub, _ := c.Get(CtxAdminIDKey).(string); sub == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if got, _ := c.Get(CtxUserRoleKey).(string); got != role {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}
			return next(c)
		}
	}
}

// AdminRoleGuard は /admin 用
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(RoleAdmin)
}
