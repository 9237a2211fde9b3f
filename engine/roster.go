// engine/roster.go
package engine

import (
	"fmt"
	"math/rand"
)

// Registrant is a player signup before targets are assigned.
type Registrant struct {
	ID   string
	Name string
}

// Assignment is one fully-populated player produced by BuildRoster.
type Assignment struct {
	ID       string
	Name     string
	TargetID string
	Secret   string
	Alive    bool
}

// BuildRoster randomly permutes the registrants and assigns each one the
// next player in the permuted order as target, wrapping the last player
// back to the first, so the target edges form a single cycle over the
// whole roster. Secret words are drawn from an independently shuffled
// copy of the word pool — the two shuffles are deliberately separate
// random draws, not the same permutation.
//
// Pure function: no persistence, no side effects beyond the supplied
// rand source.
func BuildRoster(rng *rand.Rand, registrants []Registrant, secrets []string) ([]Assignment, error) {
	if len(registrants) == 0 {
		return nil, fmt.Errorf("%w: empty player list", ErrInvalidInput)
	}
	if len(secrets) < len(registrants) {
		return nil, fmt.Errorf("%w: %d secret words for %d players", ErrInvalidInput, len(secrets), len(registrants))
	}

	seen := make(map[string]bool, len(registrants))
	for _, r := range registrants {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: player with empty id", ErrInvalidInput)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate player id %q", ErrInvalidInput, r.ID)
		}
		seen[r.ID] = true
	}

	order := make([]Registrant, len(registrants))
	copy(order, registrants)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	words := make([]string, len(secrets))
	copy(words, secrets)
	rng.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	out := make([]Assignment, len(order))
	for i, r := range order {
		out[i] = Assignment{
			ID:       r.ID,
			Name:     r.Name,
			TargetID: order[(i+1)%len(order)].ID,
			Secret:   words[i],
			Alive:    true,
		}
	}
	return out, nil
}
