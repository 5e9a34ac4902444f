package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

var startedAt = time.Now()

func BaseRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "smartattendance-backend",
			"status":  "running",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		})
	})
}
