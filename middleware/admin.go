// middleware/admin.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminOnlyMiddleware restricts a route group to gamemasters. The admin
// list is a comma-separated set of player ids in ADMIN_PLAYER_IDS.
func AdminOnlyMiddleware() fiber.Handler {
	admins := make(map[string]bool)
	for _, id := range strings.Split(os.Getenv("ADMIN_PLAYER_IDS"), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			admins[id] = true
		}
	}
	if len(admins) == 0 {
		log.Println("⚠️  ADMIN_PLAYER_IDS is empty — admin routes will reject everyone")
	}

	return func(c *fiber.Ctx) error {
		actor := ActorID(c)
		if !admins[actor] {
			log.Printf("🚫 [ADMIN] %q denied on %s", actor, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "gamemaster access required",
			})
		}
		return c.Next()
	}
}
