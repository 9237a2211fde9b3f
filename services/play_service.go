// services/play_service.go
package services

import (
	"errors"
	"log"
	"time"

	"assassin-game-service/engine"
	"assassin-game-service/middleware"
	"assassin-game-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayService carries the in-game endpoints: the player's home view,
// elimination reports, and the last will.
type PlayService struct {
	DB       *gorm.DB
	Rings    *RingManager
	Notifier *Notifier
}

func NewPlayService(db *gorm.DB, rings *RingManager, notifier *Notifier) *PlayService {
	return &PlayService{DB: db, Rings: rings, Notifier: notifier}
}

type recentKill struct {
	VictimName string    `json:"victim_name"`
	Time       time.Time `json:"time"`
}

// Home returns the acting player's current view: who they hunt, whether
// they live, and their kill history, newest first.
func (s *PlayService) Home(c *fiber.Ctx) error {
	actor := middleware.ActorID(c)

	game, ring, err := s.gameRing(c)
	if err != nil {
		return s.ringError(c, err)
	}

	view, err := ring.View(actor)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "you are not in this game"})
	}

	var kills []recentKill
	if err := s.DB.Model(&models.Kill{}).
		Select("players.name as victim_name, kills.time").
		Joins("JOIN players ON players.game_id = kills.game_id AND players.id = kills.victim_id").
		Where("kills.game_id = ? AND kills.killer_id = ?", game.ID, actor).
		Order("kills.time DESC").
		Scan(&kills).Error; err != nil {
		log.Printf("DB Error fetching kills for %s/%s: %v", game.ID, actor, err)
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	numAlive, numDead := ring.LivenessCounts()
	resp := fiber.Map{
		"id":        view.ID,
		"name":      view.Name,
		"alive":     view.Alive,
		"kills":     kills,
		"num_alive": numAlive,
		"num_dead":  numDead,
	}
	if view.Alive {
		resp["target_name"] = view.TargetName
		if game.RequiresProof() {
			resp["target_secret"] = view.TargetSecret
		}
	}
	if ring.WinnerID() == actor {
		resp["victor"] = true
	}
	return c.JSON(resp)
}

type eliminationRequest struct {
	VictimID   string   `json:"victim_id"`
	SecretWord string   `json:"secret_word"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// ReportElimination is the killer-driven report: "I got my target, here
// is their word." The five-step transition and the storage writes
// commit together or not at all.
func (s *PlayService) ReportElimination(c *fiber.Ctx) error {
	actor := middleware.ActorID(c)

	var req eliminationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.VictimID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "victim_id is required"})
	}

	game, ring, err := s.gameRing(c)
	if err != nil {
		return s.ringError(c, err)
	}

	lat, lon := locationOrSentinel(req.Latitude, req.Longitude)
	outcome, err := ring.ReportElimination(actor, req.VictimID, req.SecretWord, s.commitKill(game, lat, lon))
	if err != nil {
		return s.reportError(c, err)
	}
	return s.reportResponse(c, game, outcome)
}

// SelfReport is the original flow: the victim confirms their own death
// and the ring works out who was hunting them.
func (s *PlayService) SelfReport(c *fiber.Ctx) error {
	actor := middleware.ActorID(c)

	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	// Body is optional — a bare "I died" is accepted.
	_ = c.BodyParser(&req)

	game, ring, err := s.gameRing(c)
	if err != nil {
		return s.ringError(c, err)
	}

	lat, lon := locationOrSentinel(req.Latitude, req.Longitude)
	outcome, err := ring.SelfReport(actor, s.commitKill(game, lat, lon))
	if err != nil {
		return s.reportError(c, err)
	}
	return s.reportResponse(c, game, outcome)
}

// UpdateLastWill stores the owner's parting words. No invariant, no
// liveness requirement — the dead may still edit.
func (s *PlayService) UpdateLastWill(c *fiber.Ctx) error {
	actor := middleware.ActorID(c)

	var req struct {
		LastWill string `json:"last_will"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	res := s.DB.Model(&models.Player{}).
		Where("game_id = ? AND id = ?", c.Params("id"), actor).
		Update("last_will", req.LastWill)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "you are not in this game"})
	}
	return c.JSON(fiber.Map{"message": "last will updated"})
}

// commitKill returns the storage commit for one elimination: flip the
// victim, advance the killer, append the kill row, and close out the
// game on victory — one transaction, all or nothing.
func (s *PlayService) commitKill(game *models.Game, lat, lon float64) func(engine.Outcome) error {
	return func(out engine.Outcome) error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Player{}).
				Where("game_id = ? AND id = ?", game.ID, out.VictimID).
				Update("alive", false).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Player{}).
				Where("game_id = ? AND id = ?", game.ID, out.KillerID).
				Update("target_id", out.NewTargetID).Error; err != nil {
				return err
			}
			kill := models.Kill{
				ID:        uuid.NewString(),
				GameID:    game.ID,
				KillerID:  out.KillerID,
				VictimID:  out.VictimID,
				Time:      time.Now(),
				Latitude:  lat,
				Longitude: lon,
			}
			if err := tx.Create(&kill).Error; err != nil {
				return err
			}
			if out.Victory {
				now := time.Now()
				if err := tx.Model(&models.Game{}).
					Where("id = ?", game.ID).
					Updates(map[string]interface{}{
						"status":      models.StatusCompleted,
						"winner_id":   out.KillerID,
						"finished_at": &now,
					}).Error; err != nil {
					return err
				}
			}
			return nil
		})
	}
}

func (s *PlayService) reportResponse(c *fiber.Ctx, game *models.Game, out engine.Outcome) error {
	// Notification failures never touch the committed transition.
	if out.Victory {
		s.Notifier.QueueVictory(game, out.KillerID)
		return c.JSON(fiber.Map{
			"result":    "victory",
			"winner_id": out.KillerID,
		})
	}
	s.Notifier.QueueKill(game, out)

	resp := fiber.Map{
		"result":      "eliminated",
		"killer_id":   out.KillerID,
		"victim_id":   out.VictimID,
		"target_name": out.NewTargetName,
	}
	if game.RequiresProof() {
		resp["target_secret"] = out.NewTargetSecret
	}
	return c.JSON(resp)
}

func (s *PlayService) reportError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrVictimNotAlive):
		return c.Status(409).JSON(fiber.Map{"error": "elimination not accepted: victim is already dead"})
	case errors.Is(err, engine.ErrNotYourTarget):
		return c.Status(403).JSON(fiber.Map{"error": "elimination not accepted: not your assigned target"})
	case errors.Is(err, engine.ErrProofMismatch):
		return c.Status(403).JSON(fiber.Map{"error": "elimination not accepted: secret word does not match"})
	case errors.Is(err, engine.ErrGameOver):
		return c.Status(410).JSON(fiber.Map{"error": "game has ended"})
	case errors.Is(err, engine.ErrUnknownPlayer):
		return c.Status(404).JSON(fiber.Map{"error": "unknown player"})
	default:
		log.Printf("❌ Elimination commit failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record elimination"})
	}
}

func (s *PlayService) gameRing(c *fiber.Ctx) (*models.Game, *engine.Ring, error) {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		return nil, nil, err
	}
	if game.Status != models.StatusActive && game.Status != models.StatusCompleted {
		return nil, nil, errGameNotStarted
	}
	ring, err := s.Rings.Ring(&game)
	if err != nil {
		return nil, nil, err
	}
	return &game, ring, nil
}

var errGameNotStarted = errors.New("game has not started")

func (s *PlayService) ringError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "game not found"})
	case errors.Is(err, errGameNotStarted):
		return c.Status(409).JSON(fiber.Map{"error": "game has not started"})
	default:
		log.Printf("❌ Failed to load game state: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load game state"})
	}
}

// locationOrSentinel maps an absent coordinate pair onto the storage
// sentinel. A half-supplied pair counts as absent.
func locationOrSentinel(lat, lon *float64) (float64, float64) {
	if lat == nil || lon == nil {
		return models.LocationUnset, models.LocationUnset
	}
	return *lat, *lon
}
