// Package store persists leagues, teams and matches in SQLite or Postgres.
// It is the snapshot source for the standings engine and the sink for
// generated fixtures; the engines themselves never touch it.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrLeagueNotFound  = errors.New("league not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrTeamNotInLeague = errors.New("team not in league")
	ErrInvalidResult   = errors.New("invalid match result")
)

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "postgres"
)

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

// Store wraps a database handle and the SQL dialect it speaks.
type Store struct {
	db      *sql.DB
	dialect string
	logger  *log.Logger
	now     func() time.Time
	loc     *time.Location
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for store events.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock overrides the time source used for created_at and undated
// fixtures.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLocation sets the league timezone. Fixture kick-off times and the
// date given to undated game days are wall-clock times in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Driver maps a DSN onto a database/sql driver name and data source.
// postgres:// and postgresql:// URLs use lib/pq; everything else is a
// SQLite path, optionally prefixed with sqlite://.
func Driver(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return dialectPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return dialectSQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "sqlite3://"):
		return dialectSQLite, strings.TrimPrefix(dsn, "sqlite3://")
	default:
		return dialectSQLite, dsn
	}
}

// Open connects to dsn, verifies the connection and applies pending
// migrations.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	driver, source := Driver(dsn)
	s := &Store{dialect: driver, logger: log.Default(), now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == dialectSQLite {
		// An in-memory database lives and dies with its connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}
	if driver == dialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}
	s.db = db

	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("store opened", "driver", driver)
	return s, nil
}

// Migrate applies every embedded migration that has not run yet.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(s.dialect); err != nil {
		return 0, fmt.Errorf("setting migration dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
