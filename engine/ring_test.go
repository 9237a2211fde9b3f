package engine

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

// threeRing builds A→B→C→A.
func threeRing(t *testing.T, opts ...Option) *Ring {
	t.Helper()
	r, err := Load([]Member{
		{ID: "a", Name: "Alice", Secret: "raven", TargetID: "b", Alive: true},
		{ID: "b", Name: "Bob", Secret: "viper", TargetID: "c", Alive: true},
		{ID: "c", Name: "Carol", Secret: "ghost", TargetID: "a", Alive: true},
	}, opts...)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return r
}

func snapshot(r *Ring) map[string]Member {
	out := make(map[string]Member)
	for _, m := range r.Members() {
		out[m.ID] = m
	}
	return out
}

func TestReportElimination_Scenario(t *testing.T) {
	r := threeRing(t)

	out, err := r.ReportElimination("a", "b", "", nil)
	if err != nil {
		t.Fatalf("a kills b: %v", err)
	}
	if out.Victory {
		t.Fatal("two players left, not a victory")
	}
	if out.NewTargetID != "c" || out.NewTargetName != "Carol" || out.NewTargetSecret != "ghost" {
		t.Fatalf("a should inherit c, got %+v", out)
	}

	s := snapshot(r)
	if s["b"].Alive {
		t.Fatal("b should be dead")
	}
	if s["b"].TargetID != "c" {
		t.Fatalf("dead b's target must stay frozen at c, got %q", s["b"].TargetID)
	}
	if s["a"].TargetID != "c" {
		t.Fatalf("a's target should be c, got %q", s["a"].TargetID)
	}
	if alive, dead := r.LivenessCounts(); alive != 2 || dead != 1 {
		t.Fatalf("liveness = (%d,%d), want (2,1)", alive, dead)
	}

	out, err = r.ReportElimination("a", "c", "", nil)
	if err != nil {
		t.Fatalf("a kills c: %v", err)
	}
	if !out.Victory {
		t.Fatal("expected victory on final elimination")
	}
	if r.WinnerID() != "a" {
		t.Fatalf("winner = %q, want a", r.WinnerID())
	}
	if s := snapshot(r); s["a"].TargetID != "a" {
		t.Fatalf("winner must target themself, got %q", s["a"].TargetID)
	}
}

func TestReportElimination_WrongTargetLeavesStateUnchanged(t *testing.T) {
	r := threeRing(t)
	before := snapshot(r)

	if _, err := r.ReportElimination("a", "c", "", nil); !errors.Is(err, ErrNotYourTarget) {
		t.Fatalf("err = %v, want ErrNotYourTarget", err)
	}
	after := snapshot(r)
	for id, m := range before {
		if after[id] != m {
			t.Fatalf("state changed for %s: %+v -> %+v", id, m, after[id])
		}
	}
}

func TestReportElimination_DoubleReportRejected(t *testing.T) {
	r := threeRing(t)
	if _, err := r.ReportElimination("a", "b", "", nil); err != nil {
		t.Fatalf("first report: %v", err)
	}
	after := snapshot(r)

	if _, err := r.ReportElimination("a", "b", "", nil); !errors.Is(err, ErrVictimNotAlive) {
		t.Fatalf("err = %v, want ErrVictimNotAlive", err)
	}
	if again := snapshot(r); len(again) != len(after) {
		t.Fatal("snapshot size changed")
	} else {
		for id, m := range after {
			if again[id] != m {
				t.Fatalf("second report mutated state for %s", id)
			}
		}
	}
}

func TestReportElimination_DeadKillerRejected(t *testing.T) {
	r := threeRing(t)
	if _, err := r.ReportElimination("a", "b", "", nil); err != nil {
		t.Fatalf("setup kill: %v", err)
	}
	// b is dead; b's frozen target is c, but reports from the dead are
	// wrong-target by definition.
	if _, err := r.ReportElimination("b", "c", "", nil); !errors.Is(err, ErrNotYourTarget) {
		t.Fatalf("err = %v, want ErrNotYourTarget", err)
	}
}

func TestReportElimination_ProofChecked(t *testing.T) {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	r := threeRing(t, WithProofRequired(), WithNormalizer(norm))

	if _, err := r.ReportElimination("a", "b", "wrong", nil); !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("err = %v, want ErrProofMismatch", err)
	}
	if _, err := r.ReportElimination("a", "b", "  VIPER ", nil); err != nil {
		t.Fatalf("normalized proof should match: %v", err)
	}
}

func TestReportElimination_CommitFailureLeavesStateUnchanged(t *testing.T) {
	r := threeRing(t)
	before := snapshot(r)

	boom := errors.New("tx failed")
	_, err := r.ReportElimination("a", "b", "", func(Outcome) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want commit error", err)
	}
	for id, m := range before {
		if snapshot(r)[id] != m {
			t.Fatalf("failed commit mutated state for %s", id)
		}
	}
	// A later commit that succeeds applies normally.
	if _, err := r.ReportElimination("a", "b", "", func(Outcome) error { return nil }); err != nil {
		t.Fatalf("retry after failed commit: %v", err)
	}
}

func TestGameOverAfterVictory(t *testing.T) {
	r := threeRing(t)
	mustKill(t, r, "a", "b")
	mustKill(t, r, "a", "c")

	if _, err := r.ReportElimination("a", "a", "", nil); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
	if _, err := r.SelfReport("a", nil); !errors.Is(err, ErrGameOver) {
		t.Fatalf("self-report after victory: err = %v, want ErrGameOver", err)
	}
}

func mustKill(t *testing.T, r *Ring, killer, victim string) {
	t.Helper()
	if _, err := r.ReportElimination(killer, victim, "", nil); err != nil {
		t.Fatalf("%s kills %s: %v", killer, victim, err)
	}
}

func TestSelfReport_ResolvesHunter(t *testing.T) {
	r := threeRing(t)

	out, err := r.SelfReport("b", nil)
	if err != nil {
		t.Fatalf("self-report: %v", err)
	}
	if out.KillerID != "a" || out.VictimID != "b" {
		t.Fatalf("outcome = %+v, want a kills b", out)
	}
	if s := snapshot(r); s["a"].TargetID != "c" {
		t.Fatalf("hunter should inherit c, got %q", s["a"].TargetID)
	}
}

func TestTerminalConvergence(t *testing.T) {
	// For any starting size, walking the ring with the unique valid
	// (hunter, target) pair ends in exactly one victory after N-1 kills.
	for _, n := range []int{1, 2, 3, 4, 8, 25} {
		rng := rand.New(rand.NewSource(int64(n) * 31))
		ids := make([]Registrant, n)
		for i := range ids {
			ids[i] = Registrant{ID: string(rune('a'+i%26)) + string(rune('0'+i/26)), Name: "P"}
		}
		pool := make([]string, n)
		for i := range pool {
			pool[i] = "w" + string(rune('0'+i%10)) + string(rune('0'+i/10))
		}
		roster, err := BuildRoster(rng, ids, pool)
		if err != nil {
			t.Fatalf("n=%d build: %v", n, err)
		}
		members := make([]Member, n)
		for i, a := range roster {
			members[i] = Member{ID: a.ID, Name: a.Name, Secret: a.Secret, TargetID: a.TargetID, Alive: a.Alive}
		}
		r, err := Load(members)
		if err != nil {
			t.Fatalf("n=%d load: %v", n, err)
		}

		killer := roster[0].ID
		victories := 0
		for i := 0; i < n-1; i++ {
			v, err := r.View(killer)
			if err != nil {
				t.Fatalf("n=%d view: %v", n, err)
			}
			out, err := r.ReportElimination(killer, v.TargetID, "", nil)
			if err != nil {
				t.Fatalf("n=%d kill %d: %v", n, i, err)
			}
			if out.Victory {
				victories++
			}
		}
		if n == 1 {
			// A one-player game is born decided.
			if r.WinnerID() != roster[0].ID {
				t.Fatalf("n=1: winner = %q", r.WinnerID())
			}
			continue
		}
		if victories != 1 {
			t.Fatalf("n=%d: %d victories, want exactly 1 on the final kill", n, victories)
		}
		if alive, _ := r.LivenessCounts(); alive != 1 {
			t.Fatalf("n=%d: %d players alive after convergence", n, alive)
		}
		if r.WinnerID() != killer {
			t.Fatalf("n=%d: winner = %q, want %q", n, r.WinnerID(), killer)
		}
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	r, err := Load([]Member{
		{ID: "a", Name: "Alice", TargetID: "b", Alive: true, Kills: 2},
		{ID: "b", Name: "Bob", TargetID: "c", Alive: true, Kills: 3},
		{ID: "c", Name: "Carol", TargetID: "d", Alive: false, Kills: 2},
		{ID: "d", Name: "Dan", TargetID: "a", Alive: true},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rows := r.Leaderboard(0)
	if len(rows) != 3 {
		t.Fatalf("expected 3 scored players, got %d", len(rows))
	}
	if rows[0].ID != "b" || rows[1].ID != "a" || rows[2].ID != "c" {
		t.Fatalf("order = %s,%s,%s", rows[0].ID, rows[1].ID, rows[2].ID)
	}
	if capped := r.Leaderboard(1); len(capped) != 1 || capped[0].ID != "b" {
		t.Fatalf("limit 1 should keep only the top row")
	}
}

func TestLoadRecognizesDecidedGame(t *testing.T) {
	r, err := Load([]Member{
		{ID: "a", Name: "Alice", TargetID: "a", Alive: true, Kills: 2},
		{ID: "b", Name: "Bob", TargetID: "c", Alive: false, Kills: 1},
		{ID: "c", Name: "Carol", TargetID: "a", Alive: false},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.WinnerID() != "a" {
		t.Fatalf("winner = %q, want a", r.WinnerID())
	}
	if _, err := r.ReportElimination("a", "b", "", nil); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
}
