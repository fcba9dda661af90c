package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/seed"
	"github.com/derekprior/cupleague/internal/snapshot"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/store"
)

func newLeagueCmd(a *app) *cobra.Command {
	leagueCmd := &cobra.Command{
		Use:   "league",
		Short: "Manage leagues and teams in the database",
	}

	createCmd := &cobra.Command{
		Use:          "create <name>",
		Short:        "Create an empty league",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			l, err := st.CreateLeague(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created league %s (%s)\n", l.Name, l.ID)
			return nil
		},
	}

	addTeamCmd := &cobra.Command{
		Use:          "add-team <league> <team>...",
		Short:        "Register teams with a league",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			for _, name := range args[1:] {
				ref, err := st.AddTeam(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s)\n", ref.Name, ref.ID)
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:          "import",
		Short:        "Create the configured league and register its teams",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd.Context(), cmd.OutOrStdout())
		},
	}

	var exportPath string
	var exportFlags sourceFlags
	exportCmd := &cobra.Command{
		Use:          "export",
		Short:        "Write a league snapshot file for offline standings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			leagueID, err := a.leagueID(exportFlags.league)
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			snap, err := st.Snapshot(cmd.Context(), leagueID)
			if err != nil {
				return err
			}
			if err := snapshot.Save(exportPath, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d teams and %d matches written to %s\n", len(snap.Teams), len(snap.Matches), exportPath)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&exportFlags.league, "league", "", "League id or name (default: league name from config)")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "league.json", "Snapshot file (.json, .yaml or .msgpack)")

	var matchesFlags sourceFlags
	matchesCmd := &cobra.Command{
		Use:          "matches",
		Short:        "List a league's matches",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			leagueID, err := a.leagueID(matchesFlags.league)
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			snap, err := st.Snapshot(cmd.Context(), leagueID)
			if err != nil {
				return err
			}
			printMatches(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	matchesCmd.Flags().StringVar(&matchesFlags.league, "league", "", "League id or name (default: league name from config)")

	leagueCmd.AddCommand(createCmd, addTeamCmd, importCmd, exportCmd, matchesCmd)
	return leagueCmd
}

func (a *app) runImport(ctx context.Context, w io.Writer) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := st.FindLeague(ctx, cfg.League.Name)
	if errors.Is(err, store.ErrLeagueNotFound) {
		l, err = st.CreateLeague(ctx, cfg.League.Name)
	}
	if err != nil {
		return err
	}
	for _, name := range cfg.Teams {
		if _, err := st.AddTeam(ctx, l.ID, name); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "✓ League %s has %d teams\n", l.Name, len(cfg.Teams))
	return nil
}

func printMatches(w io.Writer, snap *snapshot.League) {
	names := make(map[string]string, len(snap.Teams))
	for _, t := range snap.Teams {
		names[t.Token()] = t.Label()
	}
	fmt.Fprintf(w, "%-36s %-16s %3s %3s  %-18s %-18s %5s  %s\n", "ID", "Kick-off", "Day", "Rnd", "Home", "Away", "Score", "Status")
	for _, m := range snap.Matches {
		score := ""
		if m.Status == standings.StatusCompleted {
			score = fmt.Sprintf("%d-%d", m.HomeScore, m.AwayScore)
		}
		fmt.Fprintf(w, "%-36s %-16s %3d %3d  %-18s %-18s %5s  %s\n",
			m.ID, m.MatchAt.Format(clock.DateLayout+" 15:04"), m.GameDay, m.Round,
			names[m.HomeTeamID], names[m.AwayTeamID], score, m.Status)
	}
}

func newResultsCmd(a *app) *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Record match results",
	}

	var homeBest, awayBest string
	recordCmd := &cobra.Command{
		Use:          "record <match-id> <home-score> <away-score>",
		Short:        "Record a final score and mark the match completed",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("home score: %w", err)
			}
			away, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("away score: %w", err)
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			err = st.RecordResult(cmd.Context(), args[0], store.Result{
				HomeScore:        home,
				AwayScore:        away,
				HomeBestPlayerID: homeBest,
				AwayBestPlayerID: awayBest,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s finished %d-%d\n", args[0], home, away)
			return nil
		},
	}
	recordCmd.Flags().StringVar(&homeBest, "home-best", "", "Best player of the home team")
	recordCmd.Flags().StringVar(&awayBest, "away-best", "", "Best player of the away team")

	statusCmd := &cobra.Command{
		Use:          "status <match-id> <scheduled|in_progress|completed|cancelled>",
		Short:        "Move a match to another state",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := standings.ParseStatus(args[1])
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SetStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is %s\n", args[0], status)
			return nil
		},
	}

	var (
		seedFlags sourceFlags
		seedValue int64
		limit     int
	)
	seedCmd := &cobra.Command{
		Use:          "seed",
		Short:        "Fill scheduled matches with random results",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSeed(cmd.Context(), cmd.OutOrStdout(), seedFlags.league, seedValue, limit)
		},
	}
	seedCmd.Flags().StringVar(&seedFlags.league, "league", "", "League id or name (default: league name from config)")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "Random seed (default: time based)")
	seedCmd.Flags().IntVar(&limit, "limit", 0, "Only fill the first N scheduled matches (0 = all)")

	resultsCmd.AddCommand(recordCmd, statusCmd, seedCmd)
	return resultsCmd
}

func (a *app) runSeed(ctx context.Context, w io.Writer, leagueFlag string, seedValue int64, limit int) error {
	leagueID, err := a.leagueID(leagueFlag)
	if err != nil {
		return err
	}
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedValue))

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	matches, err := st.Matches(ctx, leagueID)
	if err != nil {
		return err
	}

	filled := 0
	for _, m := range matches {
		if m.Status != standings.StatusScheduled {
			continue
		}
		if limit > 0 && filled >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r := seed.RandomResult(rng, m.HomeTeamID, m.AwayTeamID)
		if err := st.RecordResult(ctx, m.ID, store.Result(r)); err != nil {
			return err
		}
		a.logger.Debug("result seeded", "match", m.ID, "home", r.HomeScore, "away", r.AwayScore)
		filled++
	}
	fmt.Fprintf(w, "✓ Seeded %d results (seed %d)\n", filled, seedValue)
	return nil
}

func newDBCmd(a *app) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	migrateCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply pending migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open migrates; report where it left the schema.
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			v, err := st.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Database at version %d\n", v)
			return nil
		},
	}

	dbCmd.AddCommand(migrateCmd)
	return dbCmd
}
