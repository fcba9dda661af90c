package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:",
		WithLogger(log.New(io.Discard)),
		WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func setupLeague(t *testing.T, s *Store, names ...string) (League, []team.Ref) {
	t.Helper()
	ctx := context.Background()
	l, err := s.CreateLeague(ctx, "Spring")
	require.NoError(t, err)
	for _, n := range names {
		_, err := s.AddTeam(ctx, l.ID, n)
		require.NoError(t, err)
	}
	teams, err := s.LeagueTeams(ctx, l.ID)
	require.NoError(t, err)
	return l, teams
}

func TestDriver(t *testing.T) {
	cases := []struct{ dsn, driver, source string }{
		{"postgres://u:p@localhost/cup?sslmode=disable", "postgres", "postgres://u:p@localhost/cup?sslmode=disable"},
		{"postgresql://localhost/cup", "postgres", "postgresql://localhost/cup"},
		{"sqlite://cup.db", "sqlite3", "cup.db"},
		{"sqlite3://cup.db", "sqlite3", "cup.db"},
		{"cup.db", "sqlite3", "cup.db"},
		{":memory:", "sqlite3", ":memory:"},
	}
	for _, tc := range cases {
		driver, source := Driver(tc.dsn)
		assert.Equal(t, tc.driver, driver, tc.dsn)
		assert.Equal(t, tc.source, source, tc.dsn)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &Store{dialect: dialectSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestOpenRunsMigrations(t *testing.T) {
	s := setupStore(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	for _, table := range []string{"leagues", "teams", "league_teams", "matches"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestOpenFileDatabaseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cup.db")
	ctx := context.Background()

	s, err := Open(ctx, "sqlite://"+path, WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	_, err = s.CreateLeague(ctx, "Persisted")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	defer s.Close()
	l, err := s.FindLeague(ctx, "Persisted")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", l.Name)
}

func TestLeaguesAndTeams(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	l, teams := setupLeague(t, s, "Comets", "Aces", "Bandits")

	t.Run("teams ordered by name", func(t *testing.T) {
		require.Len(t, teams, 3)
		assert.Equal(t, []string{"Aces", "Bandits", "Comets"}, []string{teams[0].Name, teams[1].Name, teams[2].Name})
		for _, tm := range teams {
			assert.NotEmpty(t, tm.ID)
		}
	})

	t.Run("adding a team twice is a no-op", func(t *testing.T) {
		again, err := s.AddTeam(ctx, l.ID, "Aces")
		require.NoError(t, err)
		assert.Equal(t, teams[0], again)

		all, err := s.LeagueTeams(ctx, l.ID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("teams are shared across leagues", func(t *testing.T) {
		other, err := s.CreateLeague(ctx, "Autumn")
		require.NoError(t, err)
		ref, err := s.AddTeam(ctx, other.Name, "Aces")
		require.NoError(t, err)
		assert.Equal(t, teams[0].ID, ref.ID)
	})

	t.Run("find by id or name", func(t *testing.T) {
		byName, err := s.FindLeague(ctx, "Spring")
		require.NoError(t, err)
		assert.Equal(t, l, byName)
		byID, err := s.FindLeague(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l, byID)
	})

	t.Run("unknown league", func(t *testing.T) {
		_, err := s.LeagueTeams(ctx, "nope")
		assert.True(t, errors.Is(err, ErrLeagueNotFound))
		_, err = s.AddTeam(ctx, "nope", "Aces")
		assert.True(t, errors.Is(err, ErrLeagueNotFound))
	})
}

func TestSaveFixture(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	l, teams := setupLeague(t, s, "Aces", "Bandits", "Comets", "Dragons")

	// Generated from names only, as a league config would list them.
	fixture, err := schedule.Generate(team.Names("Aces", "Bandits", "Comets", "Dragons"), schedule.Plan{
		MatchesPerDay: []int{3, 3},
		StartTime:     "18:00",
		MatchDuration: 30,
		Tables:        2,
		DayDates:      []string{"2025-03-08"},
	})
	require.NoError(t, err)

	saved, err := s.SaveFixture(ctx, l.ID, fixture)
	require.NoError(t, err)
	require.Len(t, saved, 12)

	ids := make(map[string]bool)
	for _, tm := range teams {
		ids[tm.ID] = true
	}
	for i, m := range saved {
		assert.True(t, ids[m.HomeTeamID], "home team of match %d", i)
		assert.True(t, ids[m.AwayTeamID], "away team of match %d", i)
		assert.Equal(t, standings.StatusScheduled, m.Status)
		assert.Equal(t, fixture[i].Round, m.Round)
		assert.Equal(t, fixture[i].Day, m.GameDay)
	}

	t.Run("dated days use the day date", func(t *testing.T) {
		for i, m := range saved {
			if fixture[i].Day == 1 {
				want := time.Date(2025, time.March, 8, 18, 0, 0, 0, time.UTC).
					Add(time.Duration(fixture[i].Slot*30) * time.Minute)
				assert.True(t, want.Equal(m.MatchAt), "match %d at %v, want %v", i, m.MatchAt, want)
			}
		}
	})

	t.Run("undated days use today", func(t *testing.T) {
		for i, m := range saved {
			if fixture[i].Day == 2 {
				assert.Equal(t, "2025-03-01", m.MatchAt.Format("2006-01-02"))
			}
		}
	})

	t.Run("second fixture continues the rounds", func(t *testing.T) {
		more, err := s.SaveFixture(ctx, l.ID, fixture[:2])
		require.NoError(t, err)
		assert.Equal(t, 6+fixture[0].Round, more[0].Round)
	})

	t.Run("unknown team rolls back", func(t *testing.T) {
		bad := []schedule.Match{fixture[0], {Home: team.Ref{Name: "Aces"}, Away: team.Ref{Name: "Ghosts"}, Round: 1, Day: 1}}
		_, err := s.SaveFixture(ctx, l.ID, bad)
		assert.True(t, errors.Is(err, ErrTeamNotInLeague))

		all, err := s.Matches(ctx, l.ID)
		require.NoError(t, err)
		assert.Len(t, all, 14)
	})
}

func TestSaveFixtureInLeagueTimezone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC is already the next morning in Tokyo.
	now := time.Date(2025, time.March, 1, 20, 0, 0, 0, time.UTC)
	s, err := Open(context.Background(), ":memory:",
		WithLogger(log.New(io.Discard)),
		WithClock(func() time.Time { return now }),
		WithLocation(tokyo))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	l, teams := setupLeague(t, s, "Aces", "Bandits")
	fixture, err := schedule.Generate(teams, schedule.Plan{
		MatchesPerDay: []int{1, 1},
		StartTime:     "18:00",
		MatchDuration: 30,
		Tables:        1,
		DayDates:      []string{"2025-03-01"},
	})
	require.NoError(t, err)
	saved, err := s.SaveFixture(ctx, l.ID, fixture)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	assert.True(t, time.Date(2025, time.March, 1, 18, 0, 0, 0, tokyo).Equal(saved[0].MatchAt),
		"kick-off %v", saved[0].MatchAt)
	assert.Equal(t, "2025-03-02", saved[1].MatchAt.In(tokyo).Format("2006-01-02"), "undated day uses today in Tokyo")

	require.NoError(t, s.RecordResult(ctx, saved[0].ID, Result{HomeScore: 10, AwayScore: 3}))
	snap, err := s.Snapshot(ctx, l.ID)
	require.NoError(t, err)

	games := func(date string) int {
		n := 0
		for _, r := range standings.Compute(snap.Matches, snap.Teams, standings.Window{Date: date, Location: tokyo}) {
			n += r.Games
		}
		return n
	}
	assert.Equal(t, 2, games("2025-03-01"))
	assert.Equal(t, 0, games("2025-03-02"))
}

func TestResultsAndSnapshot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	l, teams := setupLeague(t, s, "Aces", "Bandits")

	fixture, err := schedule.Generate(teams, schedule.Plan{MatchesPerDay: []int{2}, Tables: 1, DayDates: []string{"2025-03-08"}})
	require.NoError(t, err)
	saved, err := s.SaveFixture(ctx, l.ID, fixture)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	require.NoError(t, s.RecordResult(ctx, saved[0].ID, Result{HomeScore: 16, AwayScore: 11, HomeBestPlayerID: "p1"}))
	require.NoError(t, s.SetStatus(ctx, saved[1].ID, standings.StatusInProgress))

	snap, err := s.Snapshot(ctx, "Spring")
	require.NoError(t, err)
	assert.Equal(t, l.ID, snap.LeagueID)
	assert.Equal(t, teams, snap.Teams)
	require.Len(t, snap.Matches, 2)

	first := snap.Matches[0]
	assert.Equal(t, saved[0].ID, first.ID)
	assert.Equal(t, standings.StatusCompleted, first.Status)
	assert.Equal(t, 16, first.HomeScore)
	assert.Equal(t, 11, first.AwayScore)
	assert.Equal(t, "p1", first.HomeBestPlayerID)
	assert.Equal(t, standings.StatusInProgress, snap.Matches[1].Status)

	rows := standings.Compute(snap.Matches, snap.Teams, standings.Window{})
	assert.Equal(t, saved[0].HomeTeamID, rows[0].TeamID)
	assert.Equal(t, 2, rows[0].Points)
	assert.Equal(t, 1, rows[1].Points)

	t.Run("invalid results", func(t *testing.T) {
		err := s.RecordResult(ctx, saved[1].ID, Result{HomeScore: 10, AwayScore: 10})
		assert.True(t, errors.Is(err, ErrInvalidResult))
		err = s.RecordResult(ctx, saved[1].ID, Result{HomeScore: -1, AwayScore: 10})
		assert.True(t, errors.Is(err, ErrInvalidResult))
	})

	t.Run("unknown match", func(t *testing.T) {
		err := s.RecordResult(ctx, "missing", Result{HomeScore: 10, AwayScore: 3})
		assert.True(t, errors.Is(err, ErrMatchNotFound))
		err = s.SetStatus(ctx, "missing", standings.StatusCancelled)
		assert.True(t, errors.Is(err, ErrMatchNotFound))
	})

	t.Run("unknown status", func(t *testing.T) {
		assert.Error(t, s.SetStatus(ctx, saved[1].ID, standings.Status("postponed")))
	})
}
