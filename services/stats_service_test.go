// services/stats_service_test.go
package services

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"assassin-game-service/models"

	"github.com/gofiber/fiber/v2"
)

func TestGetLeaderboardStatusGate(t *testing.T) {
	db := newTestDB(t)
	rings := NewRingManager(db)
	svc := NewStatsService(db, rings)

	app := fiber.New()
	app.Get("/games/:id/leaderboard", svc.GetLeaderboard)

	pending := models.Game{ID: "pending", Name: "Not Yet", Mode: models.ModeWord, Status: models.StatusRegistration}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatalf("create pending game: %v", err)
	}
	if err := db.Create(&models.Player{GameID: "pending", ID: "alice", Name: "Alice", Alive: true}).Error; err != nil {
		t.Fatalf("create player: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/games/pending/leaderboard", nil))
	if err != nil {
		t.Fatalf("leaderboard request: %v", err)
	}
	if resp.StatusCode != 409 {
		t.Fatalf("leaderboard before start = %d, want 409", resp.StatusCode)
	}

	live := models.Game{ID: "live", Name: "Running", Mode: models.ModeWord, Status: models.StatusActive}
	if err := db.Create(&live).Error; err != nil {
		t.Fatalf("create live game: %v", err)
	}
	for _, p := range []models.Player{
		{GameID: "live", ID: "bob", Name: "Bob", Secret: "viper", TargetID: "carol", Alive: true},
		{GameID: "live", ID: "carol", Name: "Carol", Secret: "ghost", TargetID: "bob", Alive: true},
	} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("create player %s: %v", p.ID, err)
		}
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/games/live/leaderboard", nil))
	if err != nil {
		t.Fatalf("leaderboard request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("leaderboard for active game = %d, want 200", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode leaderboard body: %v", err)
	}
	if _, ok := payload["leaderboard"]; !ok {
		t.Fatalf("leaderboard body missing leaderboard key: %s", raw)
	}
}
