// workers/directory_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"assassin-game-service/models"
	"gorm.io/gorm"
)

// DirectoryProfile matches the JSON response from the campus directory
// sync service.
type DirectoryProfile struct {
	ID        string    `json:"id"` // the player id (campus username)
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the directory
// response.
type GetProfileChangesResponse struct {
	Profiles []DirectoryProfile `json:"profiles"`
}

// DirectorySyncWorker keeps player display names and mail addresses in
// step with the campus directory. It only ever touches profile columns
// — target assignments and liveness belong to the elimination engine
// alone.
type DirectorySyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewDirectorySyncWorker(db *gorm.DB, directoryBaseURL, endpointPath, serviceToken string) *DirectorySyncWorker {
	return &DirectorySyncWorker{
		db:           db,
		interval:     5 * time.Minute,
		baseURL:      directoryBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *DirectorySyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Directory Sync Worker (directory → players)…")
	go w.run(ctx)
}

func (w *DirectorySyncWorker) run(ctx context.Context) {
	lastSync := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			batchStart := time.Now().UTC()
			if err := w.syncBatch(ctx, lastSync); err != nil {
				log.Printf("❌ [DIRECTORY] Sync batch failed: %v", err)
				// Do NOT advance lastSync on failure — retry same window next tick
				continue
			}
			lastSync = batchStart
		case <-ctx.Done():
			log.Println("⏹️ Directory Sync Worker stopped")
			return
		}
	}
}

// syncBatch fetches profile changes from the directory and updates the
// matching player rows across all games.
func (w *DirectorySyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	u := fmt.Sprintf("%s%s?since=%s", w.baseURL, w.endpointPath, sinceStr)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to directory failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("directory non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode directory response: %w", err)
	}
	if len(response.Profiles) == 0 {
		return nil
	}

	log.Printf("[DIRECTORY] 📥 Processing %d profile change(s) since %s…", len(response.Profiles), sinceStr)

	var updated, errorCount int
	for _, profile := range response.Profiles {
		res := w.db.Model(&models.Player{}).
			Where("id = ?", profile.ID).
			Updates(map[string]interface{}{
				"name":  profile.Name,
				"email": profile.Email,
			})
		if res.Error != nil {
			errorCount++
			log.Printf("[DIRECTORY] ⚠️ Failed to update player %q: %v", profile.ID, res.Error)
			continue
		}
		updated += int(res.RowsAffected)
	}

	log.Printf("[DIRECTORY] ✅ Synced %d profile(s): %d player row(s) updated, %d errors",
		len(response.Profiles), updated, errorCount)
	return nil
}
