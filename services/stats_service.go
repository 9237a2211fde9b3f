// services/stats_service.go
package services

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"assassin-game-service/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StatsService serves the public scoreboard straight from the Kills
// table, so it also works for completed games long after the in-memory
// ring is gone.
type StatsService struct {
	DB       *gorm.DB
	Rings    *RingManager
	rowLimit int
}

func NewStatsService(db *gorm.DB, rings *RingManager) *StatsService {
	limit := 10
	if v := os.Getenv("STATS_ROW_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return &StatsService{DB: db, Rings: rings, rowLimit: limit}
}

type scoreRow struct {
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
	Count int    `json:"count"`
}

type deathRow struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}

// GetStats mirrors the classic stats page: top scores, recent deaths,
// and liveness counts.
func (s *StatsService) GetStats(c *fiber.Ctx) error {
	gameID := c.Params("id")
	if err := s.DB.First(&models.Game{}, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	var topScores []scoreRow
	if err := s.DB.Model(&models.Kill{}).
		Select("players.name, players.alive, count(*) as count").
		Joins("JOIN players ON players.game_id = kills.game_id AND players.id = kills.killer_id").
		Where("kills.game_id = ?", gameID).
		Group("kills.killer_id, players.name, players.alive").
		Order("count DESC").
		Limit(s.rowLimit).
		Scan(&topScores).Error; err != nil {
		log.Printf("DB Error fetching top scores for %s: %v", gameID, err)
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	var recentDeaths []deathRow
	if err := s.DB.Model(&models.Kill{}).
		Select("players.name, kills.time").
		Joins("JOIN players ON players.game_id = kills.game_id AND players.id = kills.victim_id").
		Where("kills.game_id = ?", gameID).
		Order("kills.time DESC").
		Limit(s.rowLimit).
		Scan(&recentDeaths).Error; err != nil {
		log.Printf("DB Error fetching recent deaths for %s: %v", gameID, err)
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	var numAlive, numDead int64
	s.DB.Model(&models.Player{}).Where("game_id = ? AND alive = ?", gameID, true).Count(&numAlive)
	s.DB.Model(&models.Player{}).Where("game_id = ? AND alive = ?", gameID, false).Count(&numDead)

	return c.JSON(fiber.Map{
		"top_scores":    topScores,
		"recent_deaths": recentDeaths,
		"num_alive":     numAlive,
		"num_dead":      numDead,
	})
}

// GetLeaderboard returns the live ranking from the ring (kill counts
// seeded from the log on reload).
func (s *StatsService) GetLeaderboard(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	// Rings exist only once the target chain is committed; loading one
	// for an earlier status would cache a targetless roster.
	if game.Status != models.StatusActive && game.Status != models.StatusCompleted {
		return c.Status(409).JSON(fiber.Map{"error": "game has not started"})
	}

	limit := s.rowLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	ring, err := s.Rings.Ring(&game)
	if err != nil {
		log.Printf("❌ Failed to load ring for game %s: %v", game.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load game state"})
	}
	return c.JSON(fiber.Map{"leaderboard": ring.Leaderboard(limit)})
}

// GetLivenessCounts returns (num_alive, num_dead) for a game.
func (s *StatsService) GetLivenessCounts(c *fiber.Ctx) error {
	gameID := c.Params("id")

	var numAlive, numDead int64
	if err := s.DB.Model(&models.Player{}).
		Where("game_id = ? AND alive = ?", gameID, true).
		Count(&numAlive).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	s.DB.Model(&models.Player{}).Where("game_id = ? AND alive = ?", gameID, false).Count(&numDead)

	return c.JSON(fiber.Map{"num_alive": numAlive, "num_dead": numDead})
}
