// models/notification.go
package models

import "time"

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

const (
	NotificationKill    = "kill"    // new-target briefing for the killer
	NotificationVictory = "victory" // congratulations to the sole survivor
)

// Notification is an outbound email queued by the game transition and
// delivered asynchronously by the notification worker. Delivery failure
// never rolls back the elimination that queued it.
type Notification struct {
	ID       string `json:"id" gorm:"primaryKey"`
	GameID   string `json:"game_id" gorm:"index"`
	PlayerID string `json:"player_id" gorm:"index"`
	Type     string `json:"type"` // kill | victory

	Recipient string `json:"recipient"` // email address
	Subject   string `json:"subject"`
	Body      string `json:"body" gorm:"type:text"`

	Status    string     `json:"status" gorm:"default:'pending';index"` // pending | sent | failed
	LastError string     `json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
