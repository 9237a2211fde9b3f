// engine/ring.go
package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Member is one player inside the hunting ring.
type Member struct {
	ID       string
	Name     string
	Secret   string
	TargetID string
	Alive    bool
	Kills    int
}

// Outcome describes a committed elimination. On Victory the killer's new
// target is the killer themself and the game accepts no further reports.
type Outcome struct {
	KillerID        string
	VictimID        string
	Victory         bool
	NewTargetID     string
	NewTargetName   string
	NewTargetSecret string
}

// PlayerView is the read model for a single player's home screen.
type PlayerView struct {
	ID           string
	Name         string
	Alive        bool
	TargetID     string
	TargetName   string
	TargetSecret string
	Kills        int
}

// Standing is one leaderboard row.
type Standing struct {
	ID    string
	Name  string
	Alive bool
	Kills int
}

// Ring holds the live hunting ring of one game. All target edges over
// living members form a single cycle; the transition in report() is the
// only mutation and runs under the write lock, so readers never observe
// a half-applied elimination.
type Ring struct {
	mu sync.RWMutex

	members      map[string]*Member
	alive        int
	winnerID     string
	requireProof bool
	normalize    func(string) string
}

// Option configures a Ring at load time.
type Option func(*Ring)

// WithProofRequired makes report() check the presented secret word
// against the victim's (word-assassin mode).
func WithProofRequired() Option {
	return func(r *Ring) { r.requireProof = true }
}

// WithNormalizer sets the secret-word normalizer used for proof
// comparison. Without it, comparison is exact.
func WithNormalizer(fn func(string) string) Option {
	return func(r *Ring) { r.normalize = fn }
}

// Load rebuilds a ring from stored player rows. A sole living member
// targeting themself is recognized as an already-decided game.
func Load(members []Member, opts ...Option) (*Ring, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no members", ErrInvalidInput)
	}

	r := &Ring{members: make(map[string]*Member, len(members))}
	for _, o := range opts {
		o(r)
	}

	for i := range members {
		m := members[i]
		if m.ID == "" {
			return nil, fmt.Errorf("%w: member with empty id", ErrInvalidInput)
		}
		if _, dup := r.members[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate member id %q", ErrInvalidInput, m.ID)
		}
		r.members[m.ID] = &m
		if m.Alive {
			r.alive++
		}
	}

	if r.alive == 1 {
		for _, m := range r.members {
			if m.Alive && m.TargetID == m.ID {
				r.winnerID = m.ID
			}
		}
	}
	return r, nil
}

// ReportElimination applies a killer-reported kill. The commit callback
// runs inside the critical section with the would-be outcome; only if it
// returns nil is the in-memory state mutated, so a failed storage
// transaction leaves ring and store both unchanged.
func (r *Ring) ReportElimination(killerID, victimID, proof string, commit func(Outcome) error) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report(killerID, victimID, proof, true, commit)
}

// SelfReport applies a victim-confirmed death ("I died"). The hunter is
// resolved from the ring, and no proof is needed — the victim is the
// authenticated actor.
func (r *Ring) SelfReport(victimID string, commit func(Outcome) error) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	victim, ok := r.members[victimID]
	if !ok {
		return Outcome{}, ErrUnknownPlayer
	}
	if !victim.Alive {
		return Outcome{}, ErrVictimNotAlive
	}
	hunter := r.hunterOf(victimID)
	if hunter == "" {
		// Single survivor confirming their own "death" — the ring has
		// already collapsed to a self-loop.
		return Outcome{}, ErrGameOver
	}
	return r.report(hunter, victimID, "", false, commit)
}

// report is the five-step transition. Caller holds the write lock.
func (r *Ring) report(killerID, victimID, proof string, checkProof bool, commit func(Outcome) error) (Outcome, error) {
	if r.winnerID != "" {
		return Outcome{}, ErrGameOver
	}

	killer, ok := r.members[killerID]
	if !ok {
		return Outcome{}, ErrUnknownPlayer
	}
	victim, ok := r.members[victimID]
	if !ok {
		return Outcome{}, ErrUnknownPlayer
	}

	if !victim.Alive {
		return Outcome{}, ErrVictimNotAlive
	}
	// A dead player has no assigned target, so any report from one is a
	// wrong-target report.
	if !killer.Alive || killer.TargetID != victimID {
		return Outcome{}, ErrNotYourTarget
	}
	if checkProof && r.requireProof && !r.proofMatches(proof, victim.Secret) {
		return Outcome{}, ErrProofMismatch
	}

	// Edge-contraction: the killer inherits the victim's outgoing edge.
	next := r.members[victim.TargetID]
	out := Outcome{
		KillerID:        killerID,
		VictimID:        victimID,
		Victory:         next.ID == killerID,
		NewTargetID:     next.ID,
		NewTargetName:   next.Name,
		NewTargetSecret: next.Secret,
	}

	if commit != nil {
		if err := commit(out); err != nil {
			return Outcome{}, err
		}
	}

	victim.Alive = false // victim's TargetID stays frozen
	killer.TargetID = next.ID
	killer.Kills++
	r.alive--
	if out.Victory {
		r.winnerID = killerID
	}
	return out, nil
}

func (r *Ring) proofMatches(proof, secret string) bool {
	if r.normalize != nil {
		return r.normalize(proof) == r.normalize(secret)
	}
	return proof == secret
}

// hunterOf returns the living member currently hunting victimID, or ""
// when the victim hunts themself (winner state). Never memoized — the
// edge mutates on every elimination.
func (r *Ring) hunterOf(victimID string) string {
	for id, m := range r.members {
		if m.Alive && m.TargetID == victimID && id != victimID {
			return id
		}
	}
	return ""
}

// HunterOf is the read-locked lookup of who hunts the given player.
func (r *Ring) HunterOf(victimID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hunterOf(victimID)
}

// View returns the display state for one player.
func (r *Ring) View(id string) (PlayerView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		return PlayerView{}, ErrUnknownPlayer
	}
	target := r.members[m.TargetID]
	v := PlayerView{
		ID:       m.ID,
		Name:     m.Name,
		Alive:    m.Alive,
		TargetID: m.TargetID,
		Kills:    m.Kills,
	}
	if target != nil {
		v.TargetName = target.Name
		v.TargetSecret = target.Secret
	}
	return v, nil
}

// Leaderboard returns players with at least one kill, ordered by
// descending kill count then name, capped at limit (0 = no cap).
func (r *Ring) Leaderboard(limit int) []Standing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]Standing, 0, len(r.members))
	for _, m := range r.members {
		if m.Kills == 0 {
			continue
		}
		rows = append(rows, Standing{ID: m.ID, Name: m.Name, Alive: m.Alive, Kills: m.Kills})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kills != rows[j].Kills {
			return rows[i].Kills > rows[j].Kills
		}
		return rows[i].Name < rows[j].Name
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// LivenessCounts returns (alive, dead).
func (r *Ring) LivenessCounts() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alive, len(r.members) - r.alive
}

// WinnerID returns the sole survivor's id, or "" while the game runs.
func (r *Ring) WinnerID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.winnerID
}

// Members returns a snapshot of every member, dead and alive.
func (r *Ring) Members() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
