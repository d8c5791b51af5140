package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-assistant/internal/api/http/handlers"
	"github.com/spec-kit/course-assistant/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Orders         *handlers.OrdersHandler
	Chat           *handlers.ChatHandler
	Records        *handlers.RecordsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(handlers.DashboardPath, fiber.StatusFound)
	})
	app.Get(auth.LoginPath, cfg.Auth.LoginPage)
	app.Post(auth.LoginPath, cfg.Auth.Login)
	app.Get("/logout", cfg.Auth.Logout)

	require := cfg.AuthMiddleware.Handle
	app.Get(handlers.DashboardPath, require, cfg.Users.Dashboard)
	app.Get("/order", require, cfg.Orders.OrderPage)
	app.Post("/order", require, cfg.Orders.SubmitOrder)
	app.Get("/chat", require, cfg.Chat.ChatPage)
	app.Post("/chat", require, cfg.Chat.Chat)

	csv := app.Group("/csv")
	csv.Get("", require, cfg.Records.Describe)
	csv.Get("/download", require, cfg.Records.Download)
	csv.Post("/upload", require, cfg.Records.Upload)
}
