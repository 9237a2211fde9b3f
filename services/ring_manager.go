// services/ring_manager.go
package services

import (
	"fmt"
	"sync"

	"assassin-game-service/engine"
	"assassin-game-service/models"
	"assassin-game-service/utils"

	"gorm.io/gorm"
)

// RingManager owns the in-memory hunting ring of each active game,
// rebuilt lazily from the Players table (survives restarts). All
// services share one manager so every elimination for a game runs
// through the same ring and its critical section.
type RingManager struct {
	DB *gorm.DB

	mu    sync.Mutex
	rings map[string]*engine.Ring
}

func NewRingManager(db *gorm.DB) *RingManager {
	return &RingManager{DB: db, rings: make(map[string]*engine.Ring)}
}

// Ring returns the live ring for a game, loading it from storage on
// first use.
func (m *RingManager) Ring(game *models.Game) (*engine.Ring, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rings[game.ID]; ok {
		return r, nil
	}

	var players []models.Player
	if err := m.DB.Where("game_id = ?", game.ID).Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to load roster for game %s: %w", game.ID, err)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("game %s has no roster yet", game.ID)
	}

	members := make([]engine.Member, len(players))
	for i, p := range players {
		members[i] = engine.Member{
			ID:       p.ID,
			Name:     p.Name,
			Secret:   p.Secret,
			TargetID: p.TargetID,
			Alive:    p.Alive,
		}
	}
	// Seed kill counts from the append-only log so leaderboards survive
	// restarts.
	type killCount struct {
		KillerID string
		Count    int
	}
	var counts []killCount
	if err := m.DB.Model(&models.Kill{}).
		Select("killer_id, count(*) as count").
		Where("game_id = ?", game.ID).
		Group("killer_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to load kill counts for game %s: %w", game.ID, err)
	}
	byKiller := make(map[string]int, len(counts))
	for _, kc := range counts {
		byKiller[kc.KillerID] = kc.Count
	}
	for i := range members {
		members[i].Kills = byKiller[members[i].ID]
	}

	opts := []engine.Option{engine.WithNormalizer(utils.NormalizeSecret)}
	if game.RequiresProof() {
		opts = append(opts, engine.WithProofRequired())
	}
	ring, err := engine.Load(members, opts...)
	if err != nil {
		return nil, err
	}
	m.rings[game.ID] = ring
	return ring, nil
}

// Drop discards the cached ring, forcing a rebuild on next use. Called
// after roster (re)construction.
func (m *RingManager) Drop(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rings, gameID)
}
