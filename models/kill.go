// models/kill.go
package models

import "time"

// LocationUnset is the sentinel written to both coordinates when the
// reporter did not share a location.
const LocationUnset = -10000

// Kill is the append-only elimination log. Rows are created once per
// committed elimination and never mutated or deleted.
type Kill struct {
	ID       string `json:"id" gorm:"primaryKey"`
	GameID   string `json:"game_id" gorm:"not null;index"`
	KillerID string `json:"killer_id" gorm:"not null;index"`
	VictimID string `json:"victim_id" gorm:"not null;index"`

	Time time.Time `json:"time" gorm:"index"`

	// Either both valid coordinates or both LocationUnset
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasLocation reports whether the kill carries a real coordinate pair.
func (k *Kill) HasLocation() bool {
	return k.Latitude != LocationUnset && k.Longitude != LocationUnset
}
