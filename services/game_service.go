// services/game_service.go
package services

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"assassin-game-service/engine"
	"assassin-game-service/models"
	"assassin-game-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type GameService struct {
	DB    *gorm.DB
	Rings *RingManager
}

func NewGameService(db *gorm.DB, rings *RingManager) *GameService {
	return &GameService{DB: db, Rings: rings}
}

// CreateGame creates a new **draft** game.
func (s *GameService) CreateGame(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
		Mode string `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeWord
	}
	if mode != models.ModeRegular && mode != models.ModeWord {
		return c.Status(400).JSON(fiber.Map{"error": "mode must be 'regular' or 'word'"})
	}

	game := models.Game{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Mode:   mode,
		Status: models.StatusDraft,
	}
	if err := s.DB.Create(&game).Error; err != nil {
		log.Printf("DB Error creating game: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(game)
}

func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Order("created_at DESC").Find(&games).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(games)
}

func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.Preload("Players").First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(game)
}

// OpenRegistration moves a draft game into the registration phase.
func (s *GameService) OpenRegistration(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if game.Status != models.StatusDraft {
		return c.Status(400).JSON(fiber.Map{"error": "only draft games can open registration"})
	}
	if err := s.DB.Model(&game).Update("status", models.StatusRegistration).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update status"})
	}
	return c.JSON(fiber.Map{"message": "registration open", "game_id": game.ID})
}

// RegisterPlayer adds one signup during the registration phase. When no
// id is supplied, one is derived from the display name (e.g. "José
// Pérez" → "jose-perez").
func (s *GameService) RegisterPlayer(c *fiber.Ctx) error {
	var req struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Secret string `json:"secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if game.Status != models.StatusRegistration {
		return c.Status(400).JSON(fiber.Map{"error": "game is not accepting registrations"})
	}

	playerID := req.ID
	if playerID == "" {
		playerID = slug.Make(req.Name)
	}

	player := models.Player{
		GameID: game.ID,
		ID:     playerID,
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Secret,
		Alive:  true,
	}
	if err := s.DB.Create(&player).Error; err != nil {
		// Composite PK collision ⇒ duplicate signup
		return c.Status(409).JSON(fiber.Map{"error": fmt.Sprintf("player %q already registered", playerID)})
	}
	return c.Status(201).JSON(player)
}

// ImportRoster bulk-loads signups from an uploaded sheet: one "id,name"
// (or just "name") line per player, plus an optional newline-separated
// secret-word list for word games.
func (s *GameService) ImportRoster(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if game.Status != models.StatusRegistration {
		return c.Status(400).JSON(fiber.Map{"error": "game is not accepting registrations"})
	}

	namesFile, err := c.FormFile("names")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "names file is required"})
	}
	lines, err := readLines(namesFile)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "failed to read names file"})
	}

	var words []string
	if wordsFile, err := c.FormFile("words"); err == nil {
		words, err = readLines(wordsFile)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "failed to read words file"})
		}
	}
	if game.RequiresProof() && len(words) < len(lines) {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("word game needs at least %d secret words, got %d", len(lines), len(words)),
		})
	}

	players := make([]models.Player, 0, len(lines))
	for i, line := range lines {
		var id, name string
		if idx := strings.Index(line, ","); idx >= 0 {
			id = strings.TrimSpace(line[:idx])
			name = strings.TrimSpace(line[idx+1:])
		} else {
			name = line
		}
		if name == "" {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("line %d has no name", i+1)})
		}
		if id == "" {
			id = slug.Make(name)
		}
		p := models.Player{GameID: game.ID, ID: id, Name: name, Alive: true}
		if i < len(words) {
			p.Secret = words[i]
		}
		players = append(players, p)
	}

	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range players {
			if err := tx.Create(&players[i]).Error; err != nil {
				return fmt.Errorf("player %q: %w", players[i].ID, err)
			}
		}
		return nil
	}); err != nil {
		log.Printf("DB Error importing roster for game %s: %v", game.ID, err)
		return c.Status(409).JSON(fiber.Map{"error": "roster import failed", "details": err.Error()})
	}

	// Keep the raw sheet for the gamemaster's audit trail. The word
	// list is deliberately not archived — it holds live secrets.
	sheetPath := utils.GetUploadPath(filepath.Join("rosters", game.ID, "names.txt"))
	if err := utils.SaveFile(namesFile, sheetPath); err != nil {
		log.Printf("⚠️ Failed to archive roster sheet for game %s: %v", game.ID, err)
	}

	log.Printf("📥 Imported %d player(s) into game %s", len(players), game.ID)
	return c.Status(201).JSON(fiber.Map{"imported": len(players), "game_id": game.ID})
}

// readLines reads an uploaded text file into trimmed, non-empty lines
// (the format of scripts/names and scripts/words sheets).
func readLines(fileHeader *multipart.FileHeader) ([]string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ScheduleStart sets a future start time; the scheduler activates the
// game when it arrives.
func (s *GameService) ScheduleStart(c *fiber.Ctx) error {
	var req struct {
		StartAt string `json:"start_at"` // RFC3339
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_at (use RFC3339)"})
	}
	if startAt.Before(time.Now()) {
		return c.Status(400).JSON(fiber.Map{"error": "start_at must be in the future"})
	}

	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if game.Status != models.StatusRegistration {
		return c.Status(400).JSON(fiber.Map{"error": "only games in registration can be scheduled"})
	}

	updates := map[string]interface{}{"status": models.StatusScheduled, "start_at": &startAt}
	if err := s.DB.Model(&game).Updates(updates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to schedule game"})
	}
	return c.JSON(fiber.Map{"message": "game scheduled", "game_id": game.ID, "start_at": startAt})
}

// StartGame builds the hunting ring immediately and activates the game.
func (s *GameService) StartGame(c *fiber.Ctx) error {
	if err := s.activateGame(c.Params("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		if errors.Is(err, engine.ErrInvalidInput) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("❌ Failed to start game %s: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to start game"})
	}
	return c.JSON(fiber.Map{"message": "game started", "game_id": c.Params("id")})
}

// activateGame assigns targets and secret words and flips the game to
// active. Shared by the start endpoint and the scheduler.
func (s *GameService) activateGame(gameID string) error {
	var playerCount int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			return err
		}
		switch game.Status {
		case models.StatusRegistration, models.StatusScheduled:
		default:
			return fmt.Errorf("%w: game %s is %s, not startable", engine.ErrInvalidInput, gameID, game.Status)
		}

		var players []models.Player
		if err := tx.Where("game_id = ?", gameID).Find(&players).Error; err != nil {
			return err
		}

		registrants := make([]engine.Registrant, len(players))
		secrets := make([]string, 0, len(players))
		for i, p := range players {
			registrants[i] = engine.Registrant{ID: p.ID, Name: p.Name}
			if p.Secret != "" {
				secrets = append(secrets, p.Secret)
			}
		}
		if !game.RequiresProof() {
			// Regular mode plays without words; feed the builder blanks.
			secrets = make([]string, len(players))
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		roster, err := engine.BuildRoster(rng, registrants, secrets)
		if err != nil {
			return err
		}

		for _, a := range roster {
			if err := tx.Model(&models.Player{}).
				Where("game_id = ? AND id = ?", gameID, a.ID).
				Updates(map[string]interface{}{
					"target_id": a.TargetID,
					"secret":    a.Secret,
					"alive":     true,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&game).Updates(map[string]interface{}{
			"status":   models.StatusActive,
			"start_at": nil,
		}).Error; err != nil {
			return err
		}

		playerCount = len(roster)
		return nil
	})
	if err != nil {
		return err
	}

	// Invalidate only after the roster is committed — dropping inside
	// the transaction opens a window where a concurrent reader caches
	// the pre-commit, targetless rows and serves them past the commit.
	s.Rings.Drop(gameID)
	log.Printf("✅ Game %s started with %d players", gameID, playerCount)
	return nil
}

func (s *GameService) DeleteGame(c *fiber.Ctx) error {
	if err := s.DB.Delete(&models.Game{}, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete game"})
	}
	s.Rings.Drop(c.Params("id"))
	return c.JSON(fiber.Map{"message": "game deleted"})
}
