// models/game.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// Regular assassin: eliminations are confirmed by the victim (or an
	// admin); no proof word is exchanged.
	ModeRegular = "regular"
	// Word assassin: each player carries a secret word, surrendered to
	// the killer as proof of elimination.
	ModeWord = "word"
)

const (
	StatusDraft        = "draft"
	StatusRegistration = "registration"
	StatusScheduled    = "scheduled" // auto-starts at StartAt
	StatusActive       = "active"
	StatusCompleted    = "completed"
)

type Game struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`
	Mode string `json:"mode" gorm:"default:'word'"` // regular | word

	// 🎛️ Lifecycle state
	Status  string     `json:"status" gorm:"default:'draft'"` // draft | registration | scheduled | active | completed
	StartAt *time.Time `json:"start_at"`                      // only used if scheduled

	// Set when the ring collapses to a single survivor
	WinnerID   string     `json:"winner_id,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// 🔗 Roster
	Players []Player `json:"players,omitempty" gorm:"foreignKey:GameID"`
}

// RequiresProof reports whether elimination reports in this game must
// carry the victim's secret word.
func (g *Game) RequiresProof() bool {
	return g.Mode == ModeWord
}
