// engine/errors.go
package engine

import "errors"

// Sentinel rejections. A failed report is a permanent rejection of that
// specific report, never a transient fault — callers must not retry.
var (
	// ErrInvalidInput — roster construction got an empty list, duplicate
	// ids, or fewer secret words than players.
	ErrInvalidInput = errors.New("invalid roster input")

	// ErrVictimNotAlive — the reported victim is already dead
	// (double-reported kill).
	ErrVictimNotAlive = errors.New("victim is not alive")

	// ErrNotYourTarget — the killer's current target is not the reported
	// victim. This is the core anti-cheat check.
	ErrNotYourTarget = errors.New("victim is not your assigned target")

	// ErrProofMismatch — the presented secret word does not match the
	// victim's word (word mode only).
	ErrProofMismatch = errors.New("secret word does not match")

	// ErrGameOver — a winner already exists; no further eliminations are
	// valid.
	ErrGameOver = errors.New("game has ended")

	// ErrUnknownPlayer — the referenced player id is not in the ring.
	ErrUnknownPlayer = errors.New("unknown player")
)
