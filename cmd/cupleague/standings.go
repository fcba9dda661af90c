package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/cupleague/internal/excel"
	"github.com/derekprior/cupleague/internal/snapshot"
	"github.com/derekprior/cupleague/internal/standings"
)

// output prints v as JSON or YAML, or falls back to the text printer.
func output(w io.Writer, format string, v any, text func()) error {
	switch format {
	case "", "text":
		text()
		return nil
	case "json", "yaml":
		data, err := snapshot.Marshal(snapshot.Format(format), v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func newStandingsCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		window standings.Window
		format string
		xlsx   string
	)
	cmd := &cobra.Command{
		Use:          "standings",
		Short:        "Rank the league from completed matches",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.settings.Location()
			if err != nil {
				return err
			}
			window.Location = loc

			svc, leagueID, closeFn, err := a.service(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer closeFn()

			rows, err := svc.Standings(cmd.Context(), leagueID, window)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := output(w, format, rows, func() { printStandings(w, rows) }); err != nil {
				return err
			}
			if xlsx != "" {
				if err := writeStandingsWorkbook(xlsx, rows); err != nil {
					return err
				}
				fmt.Fprintf(w, "✓ Standings written to %s\n", xlsx)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().IntVar(&window.UptoGameDay, "upto-gameday", 0, "Only count game days up to and including N")
	cmd.Flags().IntVar(&window.UptoRound, "upto-round", 0, "Only count rounds up to and including N")
	cmd.Flags().IntVar(&window.GameDay, "gameday", 0, "Only count game day N")
	cmd.Flags().StringVar(&window.Date, "date", "", "Only count matches played on YYYY-MM-DD in the league timezone")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Also write a Standings sheet into this workbook (created if missing)")
	return cmd
}

func printStandings(w io.Writer, rows []standings.Row) {
	fmt.Fprintf(w, "%3s  %-20s %3s %3s %4s %4s %3s %4s %4s %5s %4s\n",
		"#", "Team", "GP", "W", "W-R", "W-OT", "L", "L-R", "L-OT", "Diff", "Pts")
	for _, r := range rows {
		fmt.Fprintf(w, "%3d  %-20s %3d %3d %4d %4d %3d %4d %4d %+5d %4d\n",
			r.Rank, r.Name, r.Games, r.WinsTotal, r.WinsRegular, r.WinsOT,
			r.LossesTotal, r.LossesRegular, r.LossesOT, r.CupDiff, r.Points)
	}
}

func writeStandingsWorkbook(path string, rows []standings.Row) error {
	f, err := excelize.OpenFile(path)
	created := false
	if os.IsNotExist(err) {
		f, err = excelize.NewFile(), nil
		created = true
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := excel.WriteStandings(f, rows); err != nil {
		return err
	}
	if created {
		f.DeleteSheet("Sheet1")
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func newRankSeriesCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		teamID string
		format string
	)
	cmd := &cobra.Command{
		Use:          "rank-series",
		Short:        "Show each team's rank after every completed round",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, leagueID, closeFn, err := a.service(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer closeFn()

			var all map[string][]standings.RankPoint
			if teamID != "" {
				series, err := svc.RankSeries(cmd.Context(), leagueID, teamID)
				if err != nil {
					return err
				}
				all = map[string][]standings.RankPoint{teamID: series}
			} else {
				all, err = svc.AllRankSeries(cmd.Context(), leagueID)
				if err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			return output(w, format, all, func() {
				ids := make([]string, 0, len(all))
				for id := range all {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(w, "%s:", id)
					for _, p := range all[id] {
						fmt.Fprintf(w, " R%d=%d", p.Round, p.Rank)
					}
					fmt.Fprintln(w)
				}
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&teamID, "team", "", "Team id (or name for name-only snapshots); default: every team")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

func newMVPsCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		format string
	)
	cmd := &cobra.Command{
		Use:          "mvps",
		Short:        "Show the MVP of every completed game day",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, leagueID, closeFn, err := a.service(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer closeFn()

			periods, err := svc.MVPs(cmd.Context(), leagueID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return output(w, format, periods, func() {
				for _, p := range periods {
					label := fmt.Sprintf("Game day %d", p.GameDay)
					if p.GameDay == 0 {
						label = p.Date
					}
					if p.MVP == nil {
						fmt.Fprintf(w, "%-14s -\n", label)
						continue
					}
					fmt.Fprintf(w, "%-14s %s (%s, %d votes)\n", label, p.MVP.PlayerID, p.MVP.TeamID, p.MVP.Votes)
				}
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}

func newProgressCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		format string
	)
	cmd := &cobra.Command{
		Use:          "progress",
		Short:        "Show how much of the season has been played",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, leagueID, closeFn, err := a.service(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.Progress(cmd.Context(), leagueID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return output(w, format, p, func() {
				fmt.Fprintf(w, "%d of %d matches completed (%s)\n", p.Completed, p.Total, p.Status)
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	return cmd
}
