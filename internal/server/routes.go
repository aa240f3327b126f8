package server

import (
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health        *handler.HealthHandler
	Checkout      *handler.CheckoutHandler
	FormWebhook   *handler.FormWebhookHandler
	StripeWebhook *handler.StripeWebhookHandler
	Causes        *handler.CauseHandler
	Admin         *handler.AdminHandler
}

// RegisterRoutes は公開APIと /admin（JWT + ADMIN）を登録する
func RegisterRoutes(e *echo.Echo, jwtSecret []byte, h Handlers) {
	h.Health.RegisterRoutes(e)
	h.Checkout.RegisterRoutes(e)
	h.FormWebhook.RegisterRoutes(e)
	h.StripeWebhook.RegisterRoutes(e)
	h.Causes.RegisterRoutes(e)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.AdminRoleGuard())
	h.Admin.RegisterRoutes(admin)
}
