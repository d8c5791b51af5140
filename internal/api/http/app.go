package http

import (
	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber app. Immutable makes every string fiber hands out
// (params, form values, parsed bodies) a private copy; records and sessions
// keep those strings long after fasthttp has reused the request buffer.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		Immutable:             true,
		DisableStartupMessage: true,
	})
}
