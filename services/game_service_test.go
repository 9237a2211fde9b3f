// services/game_service_test.go
package services

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"assassin-game-service/models"
	"assassin-game-service/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database namespaced by test name so
// parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Game{},
		&models.Player{},
		&models.Kill{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestActivateGameRefreshesRingAfterCommit(t *testing.T) {
	db := newTestDB(t)
	rings := NewRingManager(db)
	svc := NewGameService(db, rings)

	game := models.Game{ID: "g1", Name: "Campus Hunt", Mode: models.ModeWord, Status: models.StatusRegistration}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("create game: %v", err)
	}
	for _, p := range []models.Player{
		{GameID: "g1", ID: "alice", Name: "Alice", Secret: "raven", Alive: true},
		{GameID: "g1", ID: "bob", Name: "Bob", Secret: "viper", Alive: true},
		{GameID: "g1", ID: "carol", Name: "Carol", Secret: "ghost", Alive: true},
	} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("create player %s: %v", p.ID, err)
		}
	}

	// A reader caching the ring before activation must not stick the
	// targetless roster past the commit.
	if _, err := rings.Ring(&game); err != nil {
		t.Fatalf("warm ring cache: %v", err)
	}

	if err := svc.activateGame("g1"); err != nil {
		t.Fatalf("activateGame: %v", err)
	}

	var started models.Game
	if err := db.First(&started, "id = ?", "g1").Error; err != nil {
		t.Fatalf("reload game: %v", err)
	}
	if started.Status != models.StatusActive {
		t.Fatalf("game status = %q, want %q", started.Status, models.StatusActive)
	}

	ring, err := rings.Ring(&started)
	if err != nil {
		t.Fatalf("reload ring: %v", err)
	}
	members := ring.Members()
	if len(members) != 3 {
		t.Fatalf("ring has %d members, want 3", len(members))
	}
	targets := make(map[string]string, len(members))
	for _, m := range members {
		if m.TargetID == "" {
			t.Fatalf("member %s has no target after activation", m.ID)
		}
		if m.TargetID == m.ID {
			t.Fatalf("member %s targets themself in a 3-player ring", m.ID)
		}
		targets[m.ID] = m.TargetID
	}
	// Walking the edges must visit every member exactly once.
	seen := map[string]bool{"alice": true}
	cur := targets["alice"]
	for i := 0; i < len(members) && cur != "alice"; i++ {
		if seen[cur] {
			t.Fatalf("target chain revisits %s before closing", cur)
		}
		seen[cur] = true
		cur = targets[cur]
	}
	if cur != "alice" || len(seen) != len(members) {
		t.Fatalf("target chain is not a single cycle: visited %d of %d", len(seen), len(members))
	}
}

func TestImportRosterPersistsSheet(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	db := newTestDB(t)
	svc := NewGameService(db, NewRingManager(db))

	game := models.Game{ID: "g2", Name: "Word Hunt", Mode: models.ModeWord, Status: models.StatusRegistration}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("create game: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	names, err := mw.CreateFormFile("names", "names.txt")
	if err != nil {
		t.Fatalf("create names part: %v", err)
	}
	fmt.Fprint(names, "jcx, James Bond\nvesper, Vesper Lynd\n")
	words, err := mw.CreateFormFile("words", "words.txt")
	if err != nil {
		t.Fatalf("create words part: %v", err)
	}
	fmt.Fprint(words, "raven\nviper\n")
	mw.Close()

	app := fiber.New()
	app.Post("/games/:id/roster/import", svc.ImportRoster)

	req := httptest.NewRequest("POST", "/games/g2/roster/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("import request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("import status = %d, want 201", resp.StatusCode)
	}

	var count int64
	if err := db.Model(&models.Player{}).Where("game_id = ?", "g2").Count(&count).Error; err != nil {
		t.Fatalf("count players: %v", err)
	}
	if count != 2 {
		t.Fatalf("imported %d players, want 2", count)
	}

	sheet := utils.GetUploadPath(filepath.Join("rosters", "g2", "names.txt"))
	if _, err := os.Stat(sheet); err != nil {
		t.Fatalf("roster sheet not archived at %s: %v", sheet, err)
	}
	// The word list holds live secrets and must never hit disk.
	if _, err := os.Stat(utils.GetUploadPath(filepath.Join("rosters", "g2", "words.txt"))); err == nil {
		t.Fatal("word list was archived; secrets must stay out of the upload dir")
	}
}
