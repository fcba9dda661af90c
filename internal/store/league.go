package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/derekprior/cupleague/internal/team"
	"github.com/google/uuid"
)

// League is a persisted league.
type League struct {
	ID   string
	Name string
}

// CreateLeague inserts a league and returns it.
func (s *Store) CreateLeague(ctx context.Context, name string) (League, error) {
	l := League{ID: uuid.NewString(), Name: name}
	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO leagues (id, name, created_at) VALUES (?, ?, ?)"),
		l.ID, l.Name, s.now().UTC())
	if err != nil {
		return League{}, fmt.Errorf("creating league %q: %w", name, err)
	}
	s.logger.Info("league created", "league", l.ID, "name", name)
	return l, nil
}

// FindLeague looks a league up by id or name.
func (s *Store) FindLeague(ctx context.Context, idOrName string) (League, error) {
	return s.findLeague(ctx, s.db, idOrName)
}

func (s *Store) findLeague(ctx context.Context, q querier, idOrName string) (League, error) {
	var l League
	err := q.QueryRowContext(ctx,
		s.rebind("SELECT id, name FROM leagues WHERE id = ? OR name = ?"),
		idOrName, idOrName).Scan(&l.ID, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return League{}, fmt.Errorf("%w: %s", ErrLeagueNotFound, idOrName)
	}
	if err != nil {
		return League{}, fmt.Errorf("finding league %s: %w", idOrName, err)
	}
	return l, nil
}

// AddTeam registers a team by name, creating it on first use, and attaches
// it to the league. Adding a team twice is a no-op.
func (s *Store) AddTeam(ctx context.Context, leagueID, name string) (team.Ref, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return team.Ref{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	league, err := s.findLeague(ctx, tx, leagueID)
	if err != nil {
		return team.Ref{}, err
	}

	ref := team.Ref{Name: name}
	err = tx.QueryRowContext(ctx, s.rebind("SELECT id FROM teams WHERE name = ?"), name).Scan(&ref.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ref.ID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO teams (id, name) VALUES (?, ?)"), ref.ID, name); err != nil {
			return team.Ref{}, fmt.Errorf("creating team %q: %w", name, err)
		}
	case err != nil:
		return team.Ref{}, fmt.Errorf("finding team %q: %w", name, err)
	}

	var linked int
	if err := tx.QueryRowContext(ctx,
		s.rebind("SELECT COUNT(*) FROM league_teams WHERE league_id = ? AND team_id = ?"),
		league.ID, ref.ID).Scan(&linked); err != nil {
		return team.Ref{}, fmt.Errorf("checking league team: %w", err)
	}
	if linked == 0 {
		if _, err := tx.ExecContext(ctx,
			s.rebind("INSERT INTO league_teams (league_id, team_id) VALUES (?, ?)"),
			league.ID, ref.ID); err != nil {
			return team.Ref{}, fmt.Errorf("adding team %q to league: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return team.Ref{}, fmt.Errorf("committing team: %w", err)
	}
	s.logger.Debug("team added", "league", league.ID, "team", ref.ID, "name", name)
	return ref, nil
}

// LeagueTeams returns the league's teams ordered by name.
func (s *Store) LeagueTeams(ctx context.Context, leagueID string) ([]team.Ref, error) {
	league, err := s.findLeague(ctx, s.db, leagueID)
	if err != nil {
		return nil, err
	}
	return s.leagueTeams(ctx, s.db, league.ID)
}

func (s *Store) leagueTeams(ctx context.Context, q querier, leagueID string) ([]team.Ref, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT t.id, t.name
		FROM teams t
		JOIN league_teams lt ON lt.team_id = t.id
		WHERE lt.league_id = ?
		ORDER BY t.name, t.id`), leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing league teams: %w", err)
	}
	defer rows.Close()

	var refs []team.Ref
	for rows.Next() {
		var r team.Ref
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
