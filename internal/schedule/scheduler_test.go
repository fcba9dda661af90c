package schedule

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/derekprior/cupleague/internal/team"
)

func teamsN(n int) []team.Ref {
	refs := make([]team.Ref, n)
	for i := range refs {
		refs[i] = team.Ref{ID: fmt.Sprintf("t%02d", i+1), Name: fmt.Sprintf("Team %d", i+1)}
	}
	return refs
}

func seeded(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func TestGenerateFourTeamSeason(t *testing.T) {
	teams := team.Names("A", "B", "C", "D")
	matches, err := Generate(teams, Plan{
		MatchesPerDay: []int{3, 3},
		StartTime:     "18:00",
		MatchDuration: 30,
		Tables:        2,
	}, seeded(1))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("12 matches", func(t *testing.T) {
		if len(matches) != 12 {
			t.Errorf("matches = %d, want 12", len(matches))
		}
	})

	t.Run("6 matches per day", func(t *testing.T) {
		perDay := make(map[int]int)
		for _, m := range matches {
			perDay[m.Day]++
		}
		if perDay[1] != 6 || perDay[2] != 6 || len(perDay) != 2 {
			t.Errorf("per day = %v, want day 1: 6, day 2: 6", perDay)
		}
	})

	t.Run("slot start times", func(t *testing.T) {
		want := map[int]string{0: "18:00", 1: "18:30", 2: "19:00"}
		for _, m := range matches {
			if m.StartTime != want[m.Slot] {
				t.Errorf("day %d slot %d starts %s, want %s", m.Day, m.Slot, m.StartTime, want[m.Slot])
			}
		}
	})

	t.Run("rounds 1-3 on day 1 and 4-6 on day 2", func(t *testing.T) {
		for _, m := range matches {
			lo, hi := 1, 3
			if m.Day == 2 {
				lo, hi = 4, 6
			}
			if m.Round < lo || m.Round > hi {
				t.Errorf("day %d match has round %d, want %d..%d", m.Day, m.Round, lo, hi)
			}
			if m.Round != (m.Day-1)*3+m.Slot+1 {
				t.Errorf("day %d slot %d round = %d", m.Day, m.Slot, m.Round)
			}
		}
	})

	t.Run("every ordered pair exactly once", func(t *testing.T) {
		seen := make(map[[2]string]int)
		for _, m := range matches {
			seen[[2]string{m.Home.Token(), m.Away.Token()}]++
		}
		if len(seen) != 12 {
			t.Errorf("distinct ordered pairs = %d, want 12", len(seen))
		}
		for p, c := range seen {
			if p[0] == p[1] {
				t.Errorf("%s plays itself", p[0])
			}
			if c != 1 {
				t.Errorf("%s hosts %s %d times", p[0], p[1], c)
			}
		}
	})

	t.Run("no team plays twice in a slot", func(t *testing.T) {
		type key struct {
			day, slot int
			team      string
		}
		seen := make(map[key]bool)
		for _, m := range matches {
			for _, tok := range []string{m.Home.Token(), m.Away.Token()} {
				k := key{m.Day, m.Slot, tok}
				if seen[k] {
					t.Errorf("%s plays twice on day %d slot %d", tok, m.Day, m.Slot)
				}
				seen[k] = true
			}
		}
	})
}

func TestGenerateInvariants(t *testing.T) {
	for _, n := range []int{4, 6, 7, 10, 12} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			teams := teamsN(n)
			tables := n / 2
			roundsNeeded := 2 * (n - 1)
			if n%2 != 0 {
				roundsNeeded = 2 * n
			}
			plan := Plan{
				MatchesPerDay: []int{roundsNeeded/2 + 1, roundsNeeded / 2},
				StartTime:     "20:00",
				MatchDuration: 40,
				Tables:        tables,
			}
			matches, err := Generate(teams, plan, seeded(int64(n)))
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}

			if len(matches) != n*(n-1) {
				t.Errorf("matches = %d, want %d", len(matches), n*(n-1))
			}

			type slotKey struct{ day, slot, table int }
			seen := make(map[slotKey]bool)
			for _, m := range matches {
				k := slotKey{m.Day, m.Slot, m.Table}
				if seen[k] {
					t.Errorf("double booking at day %d slot %d table %d", m.Day, m.Slot, m.Table)
				}
				seen[k] = true
				if m.Table < 1 || m.Table > tables {
					t.Errorf("table %d outside [1, %d]", m.Table, tables)
				}
				if m.Home.Token() == "" || m.Away.Token() == "" {
					t.Error("bye pairing emitted")
				}
			}

			for i := range matches {
				if matches[i].GlobalOrder != i {
					t.Errorf("global order at %d = %d", i, matches[i].GlobalOrder)
				}
				if i == 0 {
					continue
				}
				prev, cur := matches[i-1], matches[i]
				if cur.Round < prev.Round {
					t.Errorf("round decreased from %d to %d at %d", prev.Round, cur.Round, i)
				}
				if cur.Day != prev.Day && cur.Round <= prev.Round {
					t.Errorf("day %d starts at round %d, previous day ended at %d", cur.Day, cur.Round, prev.Round)
				}
			}
		})
	}
}

func TestGenerateConfigurationErrors(t *testing.T) {
	base := Plan{MatchesPerDay: []int{3}, Tables: 2}
	cases := []struct {
		name  string
		teams []team.Ref
		plan  func(Plan) Plan
	}{
		{"single team", teamsN(1), func(p Plan) Plan { return p }},
		{"too many tables", teamsN(4), func(p Plan) Plan { p.Tables = 3; return p }},
		{"negative tables", teamsN(4), func(p Plan) Plan { p.Tables = -1; return p }},
		{"empty day plan", teamsN(4), func(p Plan) Plan { p.MatchesPerDay = nil; return p }},
		{"zero rounds day", teamsN(4), func(p Plan) Plan { p.MatchesPerDay = []int{2, 0}; return p }},
		{"bad start time", teamsN(4), func(p Plan) Plan { p.StartTime = "8pm"; return p }},
		{"negative duration", teamsN(4), func(p Plan) Plan { p.MatchDuration = -5; return p }},
		{"too many day dates", teamsN(4), func(p Plan) Plan { p.DayDates = []string{"2025-01-01", "2025-01-08"}; return p }},
		{"bad day date", teamsN(4), func(p Plan) Plan { p.DayDates = []string{"01/01/2025"}; return p }},
		{"unknown strategy", teamsN(4), func(p Plan) Plan { p.Strategy = "swiss"; return p }},
		{"duplicate team", team.Names("A", "B", "A", "C"), func(p Plan) Plan { return p }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.teams, tc.plan(base), seeded(1))
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestGenerateDefaults(t *testing.T) {
	matches, err := Generate(teamsN(12), Plan{MatchesPerDay: []int{1}}, seeded(3))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(matches) != 6 {
		t.Fatalf("matches = %d, want 6", len(matches))
	}
	for _, m := range matches {
		if m.StartTime != "08:00" {
			t.Errorf("start = %s, want 08:00", m.StartTime)
		}
		if m.Slot != 0 || m.Round != 1 {
			t.Errorf("slot/round = %d/%d, want 0/1", m.Slot, m.Round)
		}
	}
}

func TestGenerateUnderFill(t *testing.T) {
	// 4 teams have 6 rounds in a double round robin; the plan asks for 8.
	matches, err := Generate(teamsN(4), Plan{MatchesPerDay: []int{4, 3, 1}, Tables: 2}, seeded(5))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	perDay := make(map[int]int)
	for _, m := range matches {
		perDay[m.Day]++
	}
	if len(matches) != 12 {
		t.Errorf("matches = %d, want 12", len(matches))
	}
	if perDay[1] != 8 || perDay[2] != 4 || perDay[3] != 0 {
		t.Errorf("per day = %v, want 8/4/0", perDay)
	}
}

func TestGenerateDayDates(t *testing.T) {
	matches, err := Generate(teamsN(4), Plan{
		MatchesPerDay: []int{3, 3},
		Tables:        2,
		DayDates:      []string{"2025-03-01"},
	}, seeded(2))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for _, m := range matches {
		want := ""
		if m.Day == 1 {
			want = "2025-03-01"
		}
		if m.Date != want {
			t.Errorf("day %d date = %q, want %q", m.Day, m.Date, want)
		}
	}
}

func TestGenerateWrapsHourDisplay(t *testing.T) {
	matches, err := Generate(teamsN(4), Plan{
		MatchesPerDay: []int{3},
		StartTime:     "23:00",
		MatchDuration: 45,
		Tables:        2,
	}, seeded(4))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for _, m := range matches {
		if m.Slot == 2 {
			if m.StartTime != "00:30" {
				t.Errorf("slot 2 start = %s, want 00:30", m.StartTime)
			}
			if m.AbsoluteMinutes != 23*60+90 {
				t.Errorf("absolute minutes = %d, want %d", m.AbsoluteMinutes, 23*60+90)
			}
			if m.Day != 1 {
				t.Errorf("day rolled over to %d", m.Day)
			}
		}
	}
}

func TestGenerateSeedReproducible(t *testing.T) {
	plan := Plan{MatchesPerDay: []int{5, 5}, Tables: 3}
	a, err := Generate(teamsN(6), plan, seeded(99))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	b, err := Generate(teamsN(6), plan, seeded(99))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different fixtures")
	}
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	teams := teamsN(6)
	orig := make([]team.Ref, len(teams))
	copy(orig, teams)
	if _, err := Generate(teams, Plan{MatchesPerDay: []int{2}, Tables: 3}, seeded(8)); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !reflect.DeepEqual(teams, orig) {
		t.Error("Generate reordered the caller's team slice")
	}
}
