// Package league wires the fixture generator and the standings engine to a
// snapshot store. Every engine call works on a snapshot read for that call.
package league

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/derekprior/cupleague/internal/metrics"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/snapshot"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/team"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the service reads snapshots from and saves
// fixtures to.
type Store interface {
	LeagueTeams(ctx context.Context, leagueID string) ([]team.Ref, error)
	Snapshot(ctx context.Context, leagueID string) (*snapshot.League, error)
	SaveFixture(ctx context.Context, leagueID string, fixture []schedule.Match) ([]standings.Match, error)
}

// Service runs league computations.
type Service struct {
	store   Store
	metrics metrics.Metrics
	logger  *log.Logger
}

// NewService creates a Service. A nil logger uses the default logger.
func NewService(store Store, m metrics.Metrics, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, metrics: m, logger: logger}
}

// Fixture is the result of GenerateFixture.
type Fixture struct {
	Matches []schedule.Match
	// Saved holds the persisted rows when the fixture was saved.
	Saved []standings.Match
}

// GenerateFixture builds a fixture for the league's registered teams and,
// when save is set, stores it as scheduled matches.
func (s *Service) GenerateFixture(ctx context.Context, leagueID string, plan schedule.Plan, save bool, opts ...schedule.Option) (*Fixture, error) {
	teams, err := s.store.LeagueTeams(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}

	matches, err := schedule.Generate(teams, plan, opts...)
	if err != nil {
		return nil, err
	}
	s.metrics.IncFixturesGenerated()
	s.metrics.AddFixtureMatches(len(matches))
	s.logger.Info("fixture generated", "league", leagueID, "teams", len(teams), "matches", len(matches))

	f := &Fixture{Matches: matches}
	if !save {
		return f, nil
	}
	f.Saved, err = s.store.SaveFixture(ctx, leagueID, matches)
	if err != nil {
		return nil, fmt.Errorf("saving fixture: %w", err)
	}
	return f, nil
}

// Standings ranks the league inside w.
func (s *Service) Standings(ctx context.Context, leagueID string, w standings.Window) ([]standings.Row, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	var rows []standings.Row
	s.observe(metrics.KindStandings, func() {
		rows = standings.Compute(snap.Matches, snap.Teams, w)
	})
	return rows, nil
}

// RankSeries returns one team's position after every completed round.
func (s *Service) RankSeries(ctx context.Context, leagueID, teamID string) ([]standings.RankPoint, error) {
	snap, err := s.snapshot(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	var series []standings.RankPoint
	s.observe(metrics.KindRankSeries, func() {
		series = standings.RankSeries(snap.Matches, snap.Teams, teamID)
	})
	return series, nil
}

// AllRankSeries computes the rank series of every league team from one
// snapshot, one goroutine per team.
func (s *Service) AllRankSeries(ctx context.Context, leagueID string) (map[string][]standings.RankPoint, error) {
	snap, err := s.snapshot(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	results := make([][]standings.RankPoint, len(snap.Teams))
	g, gCtx := errgroup.WithContext(ctx)
	for i, t := range snap.Teams {
		i, t := i, t
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			s.observe(metrics.KindRankSeries, func() {
				results[i] = standings.RankSeries(snap.Matches, snap.Teams, t.Token())
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("computing rank series: %w", err)
	}

	out := make(map[string][]standings.RankPoint, len(snap.Teams))
	for i, t := range snap.Teams {
		out[t.Token()] = results[i]
	}
	return out, nil
}

// MVPs returns the MVP of every game day.
func (s *Service) MVPs(ctx context.Context, leagueID string) ([]standings.PeriodMVP, error) {
	snap, err := s.snapshot(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	var periods []standings.PeriodMVP
	s.observe(metrics.KindMVPs, func() {
		periods = standings.GameDayMVPs(snap.Matches, snap.Teams)
	})
	return periods, nil
}

// Progress reports how much of the season has been played.
func (s *Service) Progress(ctx context.Context, leagueID string) (standings.Progress, error) {
	snap, err := s.snapshot(ctx, leagueID)
	if err != nil {
		return standings.Progress{}, err
	}
	var p standings.Progress
	s.observe(metrics.KindProgress, func() {
		p = standings.SeasonProgress(snap.Matches)
	})
	return p, nil
}

func (s *Service) snapshot(ctx context.Context, leagueID string) (*snapshot.League, error) {
	snap, err := s.store.Snapshot(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("loading league %s: %w", leagueID, err)
	}
	s.logger.Debug("snapshot loaded", "league", leagueID, "teams", len(snap.Teams), "matches", len(snap.Matches))
	return snap, nil
}

func (s *Service) observe(kind string, fn func()) {
	start := time.Now()
	fn()
	s.metrics.IncComputations(kind)
	s.metrics.ObserveComputeDuration(kind, time.Since(start).Seconds())
}
