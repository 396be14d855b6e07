package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/utils/response"
)

// HandleCheckHealth reports liveness and whether the database answers a ping
func HandleCheckHealth(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.ServiceUnavailable(c, "Database unavailable")
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}
