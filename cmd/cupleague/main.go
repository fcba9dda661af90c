package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/derekprior/cupleague/internal/config"
	"github.com/derekprior/cupleague/internal/metrics"
)

const (
	defaultConfigFile  = "league.yaml"
	defaultEnvFile     = ".env"
	defaultDatabaseURL = "cupleague.db"
)

// app carries the global flags and what is built from them before a
// command runs.
type app struct {
	configFile  string
	envFile     string
	databaseURL string
	logLevel    string
	logFormat   string
	metricsFile string

	settings *config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Service
}

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

// loadConfig reads the league config. The environment overrides the
// database URL and log level.
func (a *app) loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath(a.configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv(a.envFile)
	return cfg, nil
}

// setup builds the logger and the metrics registry. A league config is
// optional here; commands that need one load it themselves.
func (a *app) setup(cmd *cobra.Command) error {
	if _, err := resolveConfigPath(a.configFile); err == nil {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}
		a.settings = cfg
	} else {
		a.settings = &config.Config{}
		a.settings.ApplyEnv(a.envFile)
	}

	level := a.logLevel
	if level == "" {
		level = a.settings.LogLevel
	}
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "cupleague",
	})
	switch a.logFormat {
	case "", "text":
	case "json":
		a.logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		a.logger.SetFormatter(log.LogfmtFormatter)
	default:
		return fmt.Errorf("unknown log format %q (want text, json or logfmt)", a.logFormat)
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewService(a.registry)
	return nil
}

// dsn picks the database: flag, then environment or config, then the
// default SQLite file.
func (a *app) dsn() string {
	if a.databaseURL != "" {
		return a.databaseURL
	}
	if a.settings != nil && a.settings.DatabaseURL != "" {
		return a.settings.DatabaseURL
	}
	return defaultDatabaseURL
}

func (a *app) flushMetrics() error {
	if a.metricsFile == "" || a.registry == nil {
		return nil
	}
	if err := metrics.WriteTextfile(a.metricsFile, a.registry); err != nil {
		return err
	}
	a.logger.Debug("metrics written", "path", a.metricsFile)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "cupleague",
		Short: "Cup league fixture generator and standings engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.flushMetrics()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to league config (default: league.yaml in current directory)")
	flags.StringVar(&a.envFile, "env-file", defaultEnvFile, "Optional .env file with CUPLEAGUE_* variables")
	flags.StringVar(&a.databaseURL, "database", "", "Database URL: postgres://... or a SQLite path (default: "+defaultDatabaseURL+")")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format: text, json or logfmt")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newInitCmd(),
		newScheduleCmd(a),
		newLeagueCmd(a),
		newResultsCmd(a),
		newStandingsCmd(a),
		newRankSeriesCmd(a),
		newMVPsCmd(a),
		newProgressCmd(a),
		newDBCmd(a),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newInitCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter league.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		// init runs before a config exists.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, outputPath)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", defaultConfigFile, "Output path for the config file")
	return cmd
}

func runInit(cmd *cobra.Command, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Cup League Configuration
# ========================
# This file defines a league and how its fixture is laid out.

league:
  name: Spring Cup
  # Timezone used for date windows in standings. Defaults to UTC.
  timezone: UTC

# Team names must be unique. An odd team count gives one team a bye per round.
teams: [Aces, Bandits, Comets, Dragons, Eagles, Falcons]

# Season places undated game days on a regular cadence from start_date.
season:
  start_date: "2026-03-07"
  interval_days: 7

  # Blackout dates are skipped when placing undated game days.
  blackout_dates:
    - date: "2026-03-21"
      reason: "Venue closed"

schedule:
  # "double_round_robin" plays every pairing home and away.
  # "single_round_robin" plays every pairing once.
  strategy: double_round_robin

  # First match of each game day and the length of a match, in minutes.
  start_time: "18:00"
  match_duration: 30

  # Tables played on at the same time. At most half the team count.
  tables: 3

  # Rounds played on each game day. A round is half the team count in
  # matches. Days may carry an explicit date; others follow the season cadence.
  game_days:
    - rounds: 4
    - rounds: 3
    - rounds: 3

# Database for saved fixtures and results. postgres://... or a SQLite path.
# CUPLEAGUE_DATABASE_URL overrides this.
database_url: cupleague.db

# CUPLEAGUE_LOG_LEVEL overrides this.
log_level: info
`
