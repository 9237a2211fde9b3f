// middleware/player_context.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// PlayerContextMiddleware extracts the acting player's identity set by
// the Gateway (which fronts campus WebAuth). The actor id travels with
// every request instead of living in ambient process state, so handlers
// always receive an explicit actor.
func PlayerContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		playerID := c.Get("X-Player-ID")
		if playerID == "" {
			log.Printf("❌ [PLAYER_CTX] X-Player-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Player-ID — request must come through gateway with auth context",
			})
		}

		// Attach to ctx for handlers
		c.Locals("player_id", playerID)

		return c.Next()
	}
}

// ActorID returns the authenticated player id attached by
// PlayerContextMiddleware.
func ActorID(c *fiber.Ctx) string {
	id, _ := c.Locals("player_id").(string)
	return id
}
