package schedule

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/strategy"
	"github.com/derekprior/cupleague/internal/team"
)

// ErrConfiguration is wrapped by every caller-input error Generate reports.
var ErrConfiguration = errors.New("invalid schedule configuration")

const (
	DefaultStartTime     = "08:00"
	DefaultMatchDuration = 40
	DefaultTables        = 6
)

// Match is one scheduled fixture.
type Match struct {
	Home            team.Ref `json:"home" yaml:"home" msgpack:"home"`
	Away            team.Ref `json:"away" yaml:"away" msgpack:"away"`
	Day             int      `json:"day" yaml:"day" msgpack:"day"`
	Table           int      `json:"table" yaml:"table" msgpack:"table"`
	Slot            int      `json:"slot" yaml:"slot" msgpack:"slot"`
	Round           int      `json:"round" yaml:"round" msgpack:"round"`
	StartTime       string   `json:"startTime" yaml:"start_time" msgpack:"start_time"`
	AbsoluteMinutes int      `json:"absoluteMinutes" yaml:"absolute_minutes" msgpack:"absolute_minutes"`
	GlobalOrder     int      `json:"globalOrder" yaml:"global_order" msgpack:"global_order"`
	Date            string   `json:"date,omitempty" yaml:"date,omitempty" msgpack:"date,omitempty"`
}

// Plan describes how a season is laid out over game days.
type Plan struct {
	// MatchesPerDay is the number of rounds played on each game day.
	MatchesPerDay []int
	StartTime     string
	MatchDuration int // minutes
	Tables        int
	// DayDates optionally attaches a calendar date to each game day.
	DayDates []string
	Strategy string
}

func (p Plan) withDefaults() Plan {
	if p.StartTime == "" {
		p.StartTime = DefaultStartTime
	}
	if p.MatchDuration == 0 {
		p.MatchDuration = DefaultMatchDuration
	}
	if p.Tables == 0 {
		p.Tables = DefaultTables
	}
	return p
}

// Option customizes a Generate call.
type Option func(*generator)

// WithRand injects the random source used for both shuffles. Tests pass a
// fixed-seed *rand.Rand to get reproducible fixtures.
func WithRand(rng strategy.Shuffler) Option {
	return func(g *generator) {
		g.rng = rng
	}
}

type generator struct {
	rng strategy.Shuffler
}

// Generate builds a conflict-free fixture list: teams are shuffled, paired
// by the plan's strategy, sliced into game days and laid out on tables and
// time slots. Configuration problems fail before any scheduling work.
func Generate(teams []team.Ref, plan Plan, opts ...Option) ([]Match, error) {
	plan = plan.withDefaults()
	startMinutes, err := validate(teams, plan)
	if err != nil {
		return nil, err
	}

	g := &generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	strat, err := strategy.Get(plan.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	shuffled := make([]team.Ref, len(teams))
	copy(shuffled, teams)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	pairings := strat.Pairings(shuffled, g.rng)
	return layout(pairings, len(teams), plan, startMinutes), nil
}

func validate(teams []team.Ref, plan Plan) (int, error) {
	if len(teams) < 2 {
		return 0, fmt.Errorf("%w: at least 2 teams are required, got %d", ErrConfiguration, len(teams))
	}

	seen := make(map[string]bool)
	for _, t := range teams {
		tok := t.Token()
		if tok == "" {
			return 0, fmt.Errorf("%w: team without id or name", ErrConfiguration)
		}
		if seen[tok] {
			return 0, fmt.Errorf("%w: team %q listed twice", ErrConfiguration, tok)
		}
		seen[tok] = true
	}

	maxTables := len(teams) / 2
	if plan.Tables < 1 {
		return 0, fmt.Errorf("%w: tables must be positive, got %d", ErrConfiguration, plan.Tables)
	}
	if plan.Tables > maxTables {
		return 0, fmt.Errorf("%w: too many tables (%d), at most %d for %d teams",
			ErrConfiguration, plan.Tables, maxTables, len(teams))
	}

	if len(plan.MatchesPerDay) == 0 {
		return 0, fmt.Errorf("%w: matches per day is required", ErrConfiguration)
	}
	for i, n := range plan.MatchesPerDay {
		if n < 1 {
			return 0, fmt.Errorf("%w: day %d has %d rounds, must be positive", ErrConfiguration, i+1, n)
		}
	}

	if plan.MatchDuration < 1 {
		return 0, fmt.Errorf("%w: match duration must be positive, got %d", ErrConfiguration, plan.MatchDuration)
	}

	startMinutes, err := clock.ParseHHMM(plan.StartTime)
	if err != nil {
		return 0, fmt.Errorf("%w: start time: %v", ErrConfiguration, err)
	}

	if len(plan.DayDates) > len(plan.MatchesPerDay) {
		return 0, fmt.Errorf("%w: %d day dates for %d game days",
			ErrConfiguration, len(plan.DayDates), len(plan.MatchesPerDay))
	}
	for _, d := range plan.DayDates {
		if _, err := clock.ParseDate(d, nil); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	return startMinutes, nil
}
