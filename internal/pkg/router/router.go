package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/nikhilthakur8/payping/app/controllers"
	"github.com/nikhilthakur8/payping/internal/pkg/middleware"
)

// Router installs a group of routes on the fiber app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// ApiRouter wires the /api/v1 surface.
type ApiRouter struct {
	orders    *controllers.OrderController
	payments  *controllers.PaymentPageController
	dashboard *controllers.DashboardController
	webhooks  *controllers.WebhookController
}

func NewApiRouter(orders *controllers.OrderController, payments *controllers.PaymentPageController, dashboard *controllers.DashboardController, webhooks *controllers.WebhookController) *ApiRouter {
	return &ApiRouter{
		orders:    orders,
		payments:  payments,
		dashboard: dashboard,
		webhooks:  webhooks,
	}
}

func (r ApiRouter) InstallRouter(app *fiber.App) {
	app.Get("/liveness", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))
	v1 := api.Group("/v1")

	// Public payment page, no API key.
	v1.Get("/payment/:ref", r.payments.HandlePaymentPage)

	auth := middleware.APIKeyAuthMiddleware()

	orders := v1.Group("/orders", auth)
	orders.Post("/", r.orders.HandleCreate)
	orders.Get("/", r.orders.HandleList)
	orders.Get("/status/:ref", r.orders.HandleStatus)

	dashboard := v1.Group("/dashboard", auth)
	dashboard.Get("/stats", r.dashboard.HandleStats)

	webhook := v1.Group("/webhook", auth)
	webhook.Get("/logs", r.webhooks.HandleListLogs)
	webhook.Post("/logs/:id/retry", r.webhooks.HandleRetry)
}

// InstallRouter installs all route groups on the app.
func InstallRouter(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}
