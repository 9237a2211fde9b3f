// services/admin_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"assassin-game-service/models"
	"assassin-game-service/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminService builds the gamemaster's full-roster report and exports
// it to the archive bucket.
type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// adminRow is one roster line of the gamemaster report: everything the
// original admin page showed, secrets included.
type adminRow struct {
	PlayerID     string     `json:"player_id"`
	Name         string     `json:"name"`
	TargetName   string     `json:"target_name"`
	Secret       string     `json:"secret"`
	Alive        bool       `json:"alive"`
	Score        int        `json:"score"`
	PrevVictim   string     `json:"prev_victim,omitempty"`
	PrevActivity *time.Time `json:"prev_activity,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	LastWill     string     `json:"last_will,omitempty"`
}

// GetReport returns the full roster with per-killer score and most
// recent activity, ordered by name.
func (s *AdminService) GetReport(c *fiber.Ctx) error {
	rows, err := s.buildReport(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		log.Printf("❌ Failed to build admin report: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to build report"})
	}
	return c.JSON(fiber.Map{"players": rows, "count": len(rows)})
}

// ExportReport renders the report as CSV and uploads it to the archive
// bucket, returning the object URL.
func (s *AdminService) ExportReport(c *fiber.Ctx) error {
	gameID := c.Params("id")
	rows, err := s.buildReport(gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		log.Printf("❌ Failed to build admin report: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to build report"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"player_id", "name", "target", "secret", "alive", "score", "prev_victim", "prev_activity", "latitude", "longitude", "last_will"})
	for _, r := range rows {
		record := []string{
			r.PlayerID, r.Name, r.TargetName, r.Secret,
			strconv.FormatBool(r.Alive), strconv.Itoa(r.Score),
			r.PrevVictim, "", "", "", r.LastWill,
		}
		if r.PrevActivity != nil {
			record[7] = r.PrevActivity.Format(time.RFC3339)
		}
		if r.Latitude != nil && r.Longitude != nil {
			record[8] = strconv.FormatFloat(*r.Latitude, 'f', -1, 64)
			record[9] = strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
		}
		_ = w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to render CSV"})
	}

	key := fmt.Sprintf("reports/%s/%s.csv", gameID, time.Now().UTC().Format("20060102-150405"))
	url, err := utils.UploadReport(key, "text/csv", buf.Bytes())
	if err != nil {
		log.Printf("❌ Failed to upload report for game %s: %v", gameID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload report"})
	}

	log.Printf("✅ Exported admin report for game %s → %s", gameID, url)
	return c.JSON(fiber.Map{"url": url, "rows": len(rows)})
}

// buildReport assembles the rows from an id→player map instead of a
// relational join, the target edge being a plain field lookup.
func (s *AdminService) buildReport(gameID string) ([]adminRow, error) {
	if err := s.DB.First(&models.Game{}, "id = ?", gameID).Error; err != nil {
		return nil, err
	}

	var players []models.Player
	if err := s.DB.Where("game_id = ?", gameID).Find(&players).Error; err != nil {
		return nil, err
	}
	var kills []models.Kill
	if err := s.DB.Where("game_id = ?", gameID).Order("time ASC").Find(&kills).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	scores := make(map[string]int, len(players))
	lastKill := make(map[string]*models.Kill, len(players))
	for i := range kills {
		k := &kills[i]
		scores[k.KillerID]++
		// kills are time-ordered, so the last write wins
		lastKill[k.KillerID] = k
	}

	rows := make([]adminRow, 0, len(players))
	for i := range players {
		p := &players[i]
		row := adminRow{
			PlayerID: p.ID,
			Name:     p.Name,
			Secret:   p.Secret,
			Alive:    p.Alive,
			Score:    scores[p.ID],
			LastWill: p.LastWill,
		}
		if target, ok := byID[p.TargetID]; ok {
			row.TargetName = target.Name
		}
		if k := lastKill[p.ID]; k != nil {
			if victim, ok := byID[k.VictimID]; ok {
				row.PrevVictim = victim.Name
			}
			t := k.Time
			row.PrevActivity = &t
			if k.HasLocation() {
				lat, lon := k.Latitude, k.Longitude
				row.Latitude = &lat
				row.Longitude = &lon
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
