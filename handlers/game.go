package handlers

import (
	"assassin-game-service/middleware"
	"assassin-game-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, playService *services.PlayService, statsService *services.StatsService) {
	// 🔓 Public scoreboard routes (still behind the gateway token)
	app.Get("/games/:id/stats", statsService.GetStats)
	app.Get("/games/:id/leaderboard", statsService.GetLeaderboard)
	app.Get("/games/:id/liveness", statsService.GetLivenessCounts)

	// 🔐 Player routes — actor comes from the gateway's X-Player-ID
	secured := app.Group("/", middleware.PlayerContextMiddleware())
	secured.Get("/games/:id/me", playService.Home)
	secured.Post("/games/:id/eliminations", playService.ReportElimination)
	secured.Post("/games/:id/die", playService.SelfReport)
	secured.Put("/games/:id/me/last-will", playService.UpdateLastWill)
}
