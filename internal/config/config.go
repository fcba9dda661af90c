package config

import (
	"fmt"
	"os"
	"time"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/strategy"
	"github.com/derekprior/cupleague/internal/team"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDatabaseURL = "CUPLEAGUE_DATABASE_URL"
	EnvLogLevel    = "CUPLEAGUE_LOG_LEVEL"
)

const defaultIntervalDays = 7

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse(clock.DateLayout, value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Time.Format(clock.DateLayout)
}

type BlackoutDate struct {
	Date   Date   `yaml:"date"`
	Reason string `yaml:"reason"`
}

// Season places undated game days on a regular cadence from StartDate,
// skipping blackout dates.
type Season struct {
	StartDate     *Date          `yaml:"start_date"`
	IntervalDays  int            `yaml:"interval_days"`
	BlackoutDates []BlackoutDate `yaml:"blackout_dates"`
}

type League struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// GameDay is one day of play. Rounds is how many round-robin rounds are
// played that day.
type GameDay struct {
	Date   *Date `yaml:"date"`
	Rounds int   `yaml:"rounds"`
}

type Schedule struct {
	Strategy      string    `yaml:"strategy"`
	StartTime     string    `yaml:"start_time"`
	MatchDuration int       `yaml:"match_duration"`
	Tables        int       `yaml:"tables"`
	GameDays      []GameDay `yaml:"game_days"`
}

type Config struct {
	League      League   `yaml:"league"`
	Teams       []string `yaml:"teams"`
	Season      Season   `yaml:"season"`
	Schedule    Schedule `yaml:"schedule"`
	DatabaseURL string   `yaml:"database_url"`
	LogLevel    string   `yaml:"log_level"`
}

// TeamRefs returns the configured teams as name-only references.
func (c *Config) TeamRefs() []team.Ref {
	return team.Names(c.Teams...)
}

// Location resolves the league timezone. An empty timezone is UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.League.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.League.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.League.Timezone, err)
	}
	return loc, nil
}

// DayDates returns the calendar date of every game day. Days with an
// explicit date keep it; when a season start is configured the others
// follow the cadence, skipping blackout dates and dates already taken.
// Without a season start undated days stay empty.
func (c *Config) DayDates() []string {
	dates := make([]string, len(c.Schedule.GameDays))
	taken := make(map[string]bool)
	for i, gd := range c.Schedule.GameDays {
		if gd.Date != nil {
			dates[i] = gd.Date.String()
			taken[dates[i]] = true
		}
	}
	if c.Season.StartDate == nil {
		return dates
	}

	blackout := make(map[string]bool)
	for _, b := range c.Season.BlackoutDates {
		blackout[b.Date.String()] = true
	}
	interval := c.Season.IntervalDays
	if interval == 0 {
		interval = defaultIntervalDays
	}

	next := c.Season.StartDate.Time
	for i := range dates {
		if dates[i] != "" {
			if t := c.Schedule.GameDays[i].Date.Time; !t.Before(next) {
				next = t.AddDate(0, 0, interval)
			}
			continue
		}
		for blackout[next.Format(clock.DateLayout)] || taken[next.Format(clock.DateLayout)] {
			next = next.AddDate(0, 0, interval)
		}
		dates[i] = next.Format(clock.DateLayout)
		next = next.AddDate(0, 0, interval)
	}
	return dates
}

// Plan converts the schedule section into a generator plan. Trailing
// undated days are trimmed from the date list.
func (c *Config) Plan() schedule.Plan {
	rounds := make([]int, len(c.Schedule.GameDays))
	for i, gd := range c.Schedule.GameDays {
		rounds[i] = gd.Rounds
	}

	dates := c.DayDates()
	last := len(dates)
	for last > 0 && dates[last-1] == "" {
		last--
	}

	return schedule.Plan{
		MatchesPerDay: rounds,
		StartTime:     c.Schedule.StartTime,
		MatchDuration: c.Schedule.MatchDuration,
		Tables:        c.Schedule.Tables,
		DayDates:      dates[:last],
		Strategy:      c.Schedule.Strategy,
	}
}

// ApplyEnv loads any .env files given (missing files are ignored) and lets
// the environment override the database URL and log level.
func (c *Config) ApplyEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok && v != "" {
		c.DatabaseURL = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if c.League.Name == "" {
		return fmt.Errorf("league name is required")
	}

	if len(c.Teams) < 2 {
		return fmt.Errorf("at least 2 teams are required, got %d", len(c.Teams))
	}
	seen := make(map[string]bool)
	for _, t := range c.Teams {
		if t == "" {
			return fmt.Errorf("team names cannot be empty")
		}
		if seen[t] {
			return fmt.Errorf("team %q is listed twice", t)
		}
		seen[t] = true
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if len(c.Schedule.GameDays) == 0 {
		return fmt.Errorf("at least one game day is required")
	}
	for i, gd := range c.Schedule.GameDays {
		if gd.Rounds < 1 {
			return fmt.Errorf("game day %d: rounds must be positive, got %d", i+1, gd.Rounds)
		}
	}

	if c.Schedule.StartTime != "" {
		if _, err := clock.ParseHHMM(c.Schedule.StartTime); err != nil {
			return fmt.Errorf("schedule start_time: %w", err)
		}
	}
	if c.Schedule.MatchDuration < 0 {
		return fmt.Errorf("schedule match_duration must be positive, got %d", c.Schedule.MatchDuration)
	}
	if c.Schedule.Tables < 0 {
		return fmt.Errorf("schedule tables must be positive, got %d", c.Schedule.Tables)
	}
	if c.Schedule.Tables > len(c.Teams)/2 {
		return fmt.Errorf("schedule tables (%d) exceed half the team count (%d)", c.Schedule.Tables, len(c.Teams)/2)
	}
	if _, err := strategy.Get(c.Schedule.Strategy); err != nil {
		return err
	}

	if c.Season.IntervalDays < 0 {
		return fmt.Errorf("season interval_days must be positive, got %d", c.Season.IntervalDays)
	}

	return nil
}
