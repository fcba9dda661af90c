package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derekprior/cupleague/internal/league"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/snapshot"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/store"
	"github.com/derekprior/cupleague/internal/team"
)

var errReadOnly = errors.New("snapshot files are read-only; use --league to save to the database")

// fileSource serves a league snapshot held in memory, usually read from a
// snapshot file.
type fileSource struct {
	league *snapshot.League
}

var _ league.Store = (*fileSource)(nil)

func (s *fileSource) LeagueTeams(ctx context.Context, leagueID string) ([]team.Ref, error) {
	return s.league.Teams, nil
}

func (s *fileSource) Snapshot(ctx context.Context, leagueID string) (*snapshot.League, error) {
	return s.league, nil
}

func (s *fileSource) SaveFixture(ctx context.Context, leagueID string, fixture []schedule.Match) ([]standings.Match, error) {
	return nil, errReadOnly
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	loc, err := a.settings.Location()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, a.dsn(), store.WithLogger(a.logger), store.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

// sourceFlags select where league data is read from.
type sourceFlags struct {
	league   string
	snapshot string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.league, "league", "", "League id or name in the database (default: league name from config)")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Read the league from a snapshot file (.json, .yaml, .msgpack) instead of the database")
}

// service builds a league service over the selected source. The returned
// close func must be called when done.
func (a *app) service(ctx context.Context, f sourceFlags) (*league.Service, string, func(), error) {
	if f.snapshot != "" {
		snap, err := snapshot.LoadLeague(f.snapshot)
		if err != nil {
			return nil, "", nil, err
		}
		a.logger.Debug("snapshot file loaded", "path", f.snapshot, "teams", len(snap.Teams), "matches", len(snap.Matches))
		return league.NewService(&fileSource{league: snap}, a.metrics, a.logger), snap.LeagueID, func() {}, nil
	}

	leagueID, err := a.leagueID(f.league)
	if err != nil {
		return nil, "", nil, err
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			a.logger.Warn("closing database", "err", err)
		}
	}
	return league.NewService(st, a.metrics, a.logger), leagueID, closeFn, nil
}

func (a *app) leagueID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.settings != nil && a.settings.League.Name != "" {
		return a.settings.League.Name, nil
	}
	return "", fmt.Errorf("no league selected; pass --league or --snapshot")
}
