package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/snapshot"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/team"
	"github.com/google/uuid"
)

// Result is the outcome recorded for a played match.
type Result struct {
	HomeScore        int
	AwayScore        int
	HomeBestPlayerID string
	AwayBestPlayerID string
}

const matchColumns = `id, home_team_id, away_team_id, home_score, away_score, status,
	match_round, game_day, match_at, home_best_player_id, away_best_player_id`

// Snapshot reads the league's teams and matches inside one read
// transaction so the standings engine sees a consistent view.
func (s *Store) Snapshot(ctx context.Context, leagueID string) (*snapshot.League, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: s.dialect == dialectPostgres})
	if err != nil {
		return nil, fmt.Errorf("starting snapshot: %w", err)
	}
	defer tx.Rollback()

	league, err := s.findLeague(ctx, tx, leagueID)
	if err != nil {
		return nil, err
	}
	teams, err := s.leagueTeams(ctx, tx, league.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches(ctx, tx, league.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("closing snapshot: %w", err)
	}
	return &snapshot.League{LeagueID: league.ID, Teams: teams, Matches: matches}, nil
}

// Matches lists a league's matches in kick-off order.
func (s *Store) Matches(ctx context.Context, leagueID string) ([]standings.Match, error) {
	league, err := s.findLeague(ctx, s.db, leagueID)
	if err != nil {
		return nil, err
	}
	return s.matches(ctx, s.db, league.ID)
}

func (s *Store) matches(ctx context.Context, q querier, leagueID string) ([]standings.Match, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT `+matchColumns+`
		FROM matches
		WHERE league_id = ?
		ORDER BY match_at, match_round, match_table, id`), leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var out []standings.Match
	for rows.Next() {
		var (
			m      standings.Match
			status string
		)
		if err := rows.Scan(&m.ID, &m.HomeTeamID, &m.AwayTeamID, &m.HomeScore, &m.AwayScore, &status,
			&m.Round, &m.GameDay, &m.MatchAt, &m.HomeBestPlayerID, &m.AwayBestPlayerID); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m.Status = standings.Status(status)
		m.MatchAt = m.MatchAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveFixture persists a generated fixture as scheduled matches. Rounds
// continue after the league's highest stored round, teams are resolved by id
// and then by name, and undated game days are placed on today's date. Kick-off
// times are read in the store's location.
func (s *Store) SaveFixture(ctx context.Context, leagueID string, fixture []schedule.Match) ([]standings.Match, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	league, err := s.findLeague(ctx, tx, leagueID)
	if err != nil {
		return nil, err
	}
	teams, err := s.leagueTeams(ctx, tx, league.ID)
	if err != nil {
		return nil, err
	}
	resolve := resolver(teams)

	var baseRound int
	if err := tx.QueryRowContext(ctx,
		s.rebind("SELECT COALESCE(MAX(match_round), 0) FROM matches WHERE league_id = ?"),
		league.ID).Scan(&baseRound); err != nil {
		return nil, fmt.Errorf("reading last round: %w", err)
	}

	today := s.now().In(s.loc).Format(clock.DateLayout)
	insert := s.rebind(`INSERT INTO matches (id, league_id, home_team_id, away_team_id, status,
		match_round, game_day, match_table, match_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	saved := make([]standings.Match, 0, len(fixture))
	for _, fm := range fixture {
		home, ok := resolve(fm.Home)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotInLeague, fm.Home.Label())
		}
		away, ok := resolve(fm.Away)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotInLeague, fm.Away.Label())
		}

		date := fm.Date
		if date == "" {
			date = today
		}
		at, err := clock.AtMinutes(date, fm.AbsoluteMinutes, s.loc)
		if err != nil {
			return nil, err
		}

		m := standings.Match{
			ID:         uuid.NewString(),
			HomeTeamID: home,
			AwayTeamID: away,
			Status:     standings.StatusScheduled,
			Round:      baseRound + fm.Round,
			GameDay:    fm.Day,
			MatchAt:    at.UTC(),
		}
		if _, err := tx.ExecContext(ctx, insert, m.ID, league.ID, m.HomeTeamID, m.AwayTeamID,
			string(m.Status), m.Round, m.GameDay, fm.Table, m.MatchAt); err != nil {
			return nil, fmt.Errorf("saving match %s vs %s: %w", fm.Home.Label(), fm.Away.Label(), err)
		}
		saved = append(saved, m)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing fixture: %w", err)
	}
	s.logger.Info("fixture saved", "league", league.ID, "matches", len(saved), "base_round", baseRound)
	return saved, nil
}

func resolver(teams []team.Ref) func(team.Ref) (string, bool) {
	byID := make(map[string]bool, len(teams))
	byName := make(map[string]string, len(teams))
	for _, t := range teams {
		byID[t.ID] = true
		byName[t.Name] = t.ID
	}
	return func(r team.Ref) (string, bool) {
		if r.ID != "" && byID[r.ID] {
			return r.ID, true
		}
		id, ok := byName[r.Name]
		return id, ok
	}
}

// RecordResult stores a final score and the best players and marks the
// match completed.
func (s *Store) RecordResult(ctx context.Context, matchID string, r Result) error {
	if r.HomeScore < 0 || r.AwayScore < 0 {
		return fmt.Errorf("%w: negative score %d-%d", ErrInvalidResult, r.HomeScore, r.AwayScore)
	}
	if r.HomeScore == r.AwayScore {
		return fmt.Errorf("%w: scores must differ, got %d-%d", ErrInvalidResult, r.HomeScore, r.AwayScore)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE matches
		SET home_score = ?, away_score = ?, home_best_player_id = ?, away_best_player_id = ?, status = ?
		WHERE id = ?`),
		r.HomeScore, r.AwayScore, r.HomeBestPlayerID, r.AwayBestPlayerID, string(standings.StatusCompleted), matchID)
	if err != nil {
		return fmt.Errorf("recording result for %s: %w", matchID, err)
	}
	return expectOne(res, matchID)
}

// SetStatus moves a match to another lifecycle state.
func (s *Store) SetStatus(ctx context.Context, matchID string, status standings.Status) error {
	if _, err := standings.ParseStatus(string(status)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE matches SET status = ? WHERE id = ?"), string(status), matchID)
	if err != nil {
		return fmt.Errorf("setting status of %s: %w", matchID, err)
	}
	return expectOne(res, matchID)
}

func expectOne(res sql.Result, matchID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return nil
}
