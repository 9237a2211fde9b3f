package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"assassin-game-service/handlers"
	"assassin-game-service/middleware"
	"assassin-game-service/models"
	"assassin-game-service/services"
	"assassin-game-service/utils"
	"assassin-game-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — roster sheets and word lists only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Player-ID, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitArchive(); err != nil {
		log.Fatal("failed to initialize archive client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Game{},
		&models.Player{},
		&models.Kill{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	rings := services.NewRingManager(db)
	notifier := services.NewNotifier(db)
	gameService := services.NewGameService(db, rings)
	playService := services.NewPlayService(db, rings, notifier)
	statsService := services.NewStatsService(db, rings)
	adminService := services.NewAdminService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notificationWorker := workers.NewNotificationWorker(db)
	notificationWorker.Start(ctx)

	// --- Directory sync (optional — skipped when no directory URL set) ---
	directoryURL := os.Getenv("DIRECTORY_SERVICE_URL")
	if directoryURL != "" {
		directoryToken := os.Getenv("DIRECTORY_SERVICE_TOKEN")
		if directoryToken == "" {
			log.Fatal("DIRECTORY_SERVICE_TOKEN must be set when DIRECTORY_SERVICE_URL is configured")
		}
		directoryWorker := workers.NewDirectorySyncWorker(db, directoryURL, "/api/v1/public/profiles", directoryToken)
		directoryWorker.Start(ctx)
	} else {
		log.Println("⚠️  DIRECTORY_SERVICE_URL not set — directory sync disabled")
	}

	gameService.StartGameScheduler()

	// ✅ Setup routes — enforced Gateway auth, explicit actor context
	handlers.SetupGameRoutes(app, playService, statsService)
	handlers.SetupAdminRoutes(app, gameService, adminService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Notification worker running")
	log.Println("✅ Game scheduler running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
