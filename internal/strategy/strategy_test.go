package strategy

import (
	"math/rand"
	"testing"

	"github.com/derekprior/cupleague/internal/team"
)

func testTeams(n int) []team.Ref {
	names := []string{"Aces", "Bandits", "Comets", "Dragons", "Eagles", "Falcons", "Giants", "Hornets"}
	return team.Names(names[:n]...)
}

type pair struct{ a, b string }

func normalize(p Pairing) pair {
	a, b := p.Home.Token(), p.Away.Token()
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

func TestRounds(t *testing.T) {
	t.Run("even team count", func(t *testing.T) {
		rounds := Rounds(testTeams(6))
		if len(rounds) != 5 {
			t.Fatalf("rounds = %d, want 5", len(rounds))
		}
		for i, r := range rounds {
			if len(r) != 3 {
				t.Errorf("round %d has %d pairings, want 3", i+1, len(r))
			}
			seen := make(map[string]bool)
			for _, p := range r {
				for _, tok := range []string{p.Home.Token(), p.Away.Token()} {
					if seen[tok] {
						t.Errorf("round %d: %s plays twice", i+1, tok)
					}
					seen[tok] = true
				}
			}
		}
	})

	t.Run("every pair meets exactly once", func(t *testing.T) {
		counts := make(map[pair]int)
		for _, r := range Rounds(testTeams(6)) {
			for _, p := range r {
				counts[normalize(p)]++
			}
		}
		if len(counts) != 15 {
			t.Errorf("distinct pairs = %d, want 15", len(counts))
		}
		for p, c := range counts {
			if c != 1 {
				t.Errorf("%s vs %s = %d meetings, want 1", p.a, p.b, c)
			}
		}
	})

	t.Run("odd team count drops byes", func(t *testing.T) {
		rounds := Rounds(testTeams(5))
		if len(rounds) != 5 {
			t.Fatalf("rounds = %d, want 5", len(rounds))
		}
		total := 0
		for i, r := range rounds {
			if len(r) != 2 {
				t.Errorf("round %d has %d pairings, want 2", i+1, len(r))
			}
			for _, p := range r {
				if p.Home.Token() == "" || p.Away.Token() == "" {
					t.Errorf("round %d contains an empty team", i+1)
				}
			}
			total += len(r)
		}
		if total != 10 {
			t.Errorf("total pairings = %d, want 10", total)
		}
	})

	t.Run("first team is fixed at home", func(t *testing.T) {
		for i, r := range Rounds(testTeams(4)) {
			if r[0].Home.Name != "Aces" {
				t.Errorf("round %d first home = %s, want Aces", i+1, r[0].Home.Name)
			}
		}
	})
}

func TestDoubleRoundRobin(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pairings := (&DoubleRoundRobin{}).Pairings(testTeams(4), rng)

	t.Run("total pairing count", func(t *testing.T) {
		if len(pairings) != 12 {
			t.Errorf("pairings = %d, want 12", len(pairings))
		}
	})

	t.Run("mirror appended after first leg", func(t *testing.T) {
		half := len(pairings) / 2
		for i := 0; i < half; i++ {
			first, second := pairings[i], pairings[half+i]
			if first.Home != second.Away || first.Away != second.Home {
				t.Errorf("pairing %d mirror = %s vs %s, want %s vs %s",
					i, second.Home.Name, second.Away.Name, first.Away.Name, first.Home.Name)
			}
		}
	})

	t.Run("each ordered pair once", func(t *testing.T) {
		seen := make(map[pair]bool)
		for _, p := range pairings {
			k := pair{p.Home.Token(), p.Away.Token()}
			if seen[k] {
				t.Errorf("%s hosts %s twice", k.a, k.b)
			}
			seen[k] = true
		}
	})

	t.Run("rounds stay intact after shuffle", func(t *testing.T) {
		// With 4 teams each block of 2 consecutive pairings is one round.
		for i := 0; i < 6; i += 2 {
			a, b := pairings[i], pairings[i+1]
			tokens := map[string]bool{
				a.Home.Token(): true, a.Away.Token(): true,
				b.Home.Token(): true, b.Away.Token(): true,
			}
			if len(tokens) != 4 {
				t.Errorf("pairings %d-%d do not form a round", i, i+1)
			}
		}
	})
}

func TestGet(t *testing.T) {
	for _, name := range []string{"", NameDouble, NameSingle} {
		if _, err := Get(name); err != nil {
			t.Errorf("Get(%q) error: %v", name, err)
		}
	}
	if _, err := Get("swiss"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
