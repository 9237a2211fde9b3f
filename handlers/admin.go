package handlers

import (
	"assassin-game-service/middleware"
	"assassin-game-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, gameService *services.GameService, adminService *services.AdminService) {
	// 🔒 Gamemaster-only routes
	admin := app.Group("/admin", middleware.PlayerContextMiddleware(), middleware.AdminOnlyMiddleware())

	// Game lifecycle
	admin.Post("/games", gameService.CreateGame)
	admin.Get("/games", gameService.GetAllGames)
	admin.Get("/games/:id", gameService.GetGameByID)
	admin.Delete("/games/:id", gameService.DeleteGame)
	admin.Post("/games/:id/registration/open", gameService.OpenRegistration)

	// Roster
	admin.Post("/games/:id/players", gameService.RegisterPlayer)
	admin.Post("/games/:id/roster/import", gameService.ImportRoster)

	// Start control
	admin.Post("/games/:id/start", gameService.StartGame)
	admin.Post("/games/:id/start/schedule", gameService.ScheduleStart)

	// Reporting
	admin.Get("/games/:id/report", adminService.GetReport)
	admin.Post("/games/:id/report/export", adminService.ExportReport)
}
