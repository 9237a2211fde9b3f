// models/player.go
package models

import "time"

// Player is one roster entry. The id is externally assigned (a campus
// username or a slug derived from the display name) and is stable for
// the lifetime of the game; composite key with GameID so one person can
// appear in several games.
type Player struct {
	GameID string `json:"game_id" gorm:"primaryKey"`
	ID     string `json:"id" gorm:"primaryKey"`

	Name  string `json:"name" gorm:"not null"`
	Email string `json:"email"`

	// Secret word surrendered as proof of elimination (word mode)
	Secret string `json:"secret"`

	// Current hunt edge. Always a living player — or the player themself
	// once they are the sole survivor. Frozen at death.
	TargetID string `json:"target_id" gorm:"index"`
	Alive    bool   `json:"alive" gorm:"default:true;index"`

	// Owner-authored free text, no invariant
	LastWill string `json:"last_will" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
