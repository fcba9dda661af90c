package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/derekprior/cupleague/internal/excel"
	"github.com/derekprior/cupleague/internal/league"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/snapshot"
	"github.com/derekprior/cupleague/internal/validator"
)

type generateOptions struct {
	output   string
	snapshot string
	league   string
	save     bool
	seed     int64
	print    bool
}

func newScheduleCmd(a *app) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate, print and validate fixtures",
	}

	var opts generateOptions
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a fixture from the league config",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	generateCmd.Flags().StringVarP(&opts.output, "output", "o", "fixture.xlsx", "Output Excel file path (empty to skip)")
	generateCmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Also write the fixture to a .json, .yaml or .msgpack file")
	generateCmd.Flags().StringVar(&opts.league, "league", "", "League id or name to save to (default: league name from config)")
	generateCmd.Flags().BoolVar(&opts.save, "save", false, "Save the fixture to the database as scheduled matches")
	generateCmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed for a reproducible fixture (default: time based)")
	generateCmd.Flags().BoolVar(&opts.print, "print", false, "Print the fixture grouped by game day")

	validateCmd := &cobra.Command{
		Use:          "validate <fixture.xlsx>",
		Short:        "Validate a fixture workbook against the league config",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.OutOrStdout(), args[0])
		},
	}

	printCmd := &cobra.Command{
		Use:          "print <fixture.json|yaml|msgpack>",
		Short:        "Print a fixture snapshot grouped by game day",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := snapshot.LoadFixture(args[0])
			if err != nil {
				return err
			}
			return schedule.Print(cmd.OutOrStdout(), fx.Matches)
		},
	}

	scheduleCmd.AddCommand(generateCmd, validateCmd, printCmd)
	return scheduleCmd
}

func (a *app) runGenerate(ctx context.Context, w io.Writer, opts generateOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a.logger.Debug("generating fixture", "seed", seed, "strategy", cfg.Schedule.Strategy)

	var (
		src      league.Store
		leagueID = cfg.League.Name
	)
	if opts.save {
		if opts.league != "" {
			leagueID = opts.league
		}
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		src = st
	} else {
		src = &fileSource{league: &snapshot.League{LeagueID: leagueID, Teams: cfg.TeamRefs()}}
	}

	svc := league.NewService(src, a.metrics, a.logger)
	plan := cfg.Plan()
	fx, err := svc.GenerateFixture(ctx, leagueID, plan, opts.save, schedule.WithRand(rand.New(rand.NewSource(seed))))
	if err != nil {
		if opts.save {
			return fmt.Errorf("%w (register the teams with `cupleague league import` first)", err)
		}
		return err
	}
	teams, err := src.LeagueTeams(ctx, leagueID)
	if err != nil {
		return err
	}

	tables := cfg.Schedule.Tables
	if tables == 0 {
		tables = schedule.DefaultTables
	}
	fmt.Fprintf(w, "✓ %d matches over %d game days on %d tables\n", len(fx.Matches), len(plan.MatchesPerDay), tables)

	summary := schedule.Summarize(fx.Matches)
	fmt.Fprintln(w, "\nPer Team Metrics:")
	fmt.Fprintf(w, "  %-20s %5s %5s %6s\n", "Team", "Home", "Away", "Games")
	for _, t := range teams {
		l := summary.Teams[t.Token()]
		if l == nil {
			l = &schedule.TeamLoad{}
		}
		fmt.Fprintf(w, "  %-20s %5d %5d %6d\n", t.Label(), l.Home, l.Away, l.Total)
	}
	fmt.Fprintln(w, "\nGame Days:")
	for _, d := range summary.Days {
		date := ""
		if d.Day-1 < len(plan.DayDates) {
			date = plan.DayDates[d.Day-1]
		}
		fmt.Fprintf(w, "  Day %-3d %-10s %3d matches in %2d slots, %s-%s\n", d.Day, date, d.Matches, d.Slots, d.First, d.Last)
	}
	played := make(map[int]int, len(summary.Days))
	for _, d := range summary.Days {
		played[d.Day] = d.Matches
	}
	for i, rounds := range plan.MatchesPerDay {
		want := rounds * (len(teams) / 2)
		if got := played[i+1]; got < want {
			fmt.Fprintf(w, "  ⚠ Day %d has %d of %d matches: the plan has more rounds than the strategy produces\n",
				i+1, got, want)
		}
	}

	if opts.print {
		fmt.Fprintln(w)
		if err := schedule.Print(w, fx.Matches); err != nil {
			return err
		}
	}

	if opts.output != "" {
		f, err := excel.Generate(teams, fx.Matches)
		if err != nil {
			return fmt.Errorf("generating Excel: %w", err)
		}
		if err := f.SaveAs(opts.output); err != nil {
			return fmt.Errorf("saving file: %w", err)
		}
		fmt.Fprintf(w, "\n✓ Fixture saved to %s\n", opts.output)
	}

	if opts.snapshot != "" {
		if err := snapshot.Save(opts.snapshot, &snapshot.Fixture{Teams: teams, Matches: fx.Matches}); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Fixture snapshot saved to %s\n", opts.snapshot)
	}

	if opts.save {
		fmt.Fprintf(w, "✓ %d matches saved to league %s\n", len(fx.Saved), leagueID)
	}
	return nil
}

func (a *app) runValidate(w io.Writer, fixturePath string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	violations, err := validator.Validate(cfg, fixturePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf(" (row %d)", v.Row)
		}
		switch v.Type {
		case "error":
			errors++
			fmt.Fprintf(w, "✗ Rule violation%s: %s\n", where, v.Message)
		case "warning":
			warnings++
			fmt.Fprintf(w, "⚠ Guideline violation%s: %s\n", where, v.Message)
		}
	}

	fmt.Fprintf(w, "\nValidation complete: %d rule violations, %d guideline violations\n", errors, warnings)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}
