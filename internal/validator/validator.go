package validator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/derekprior/cupleague/internal/config"
	"github.com/derekprior/cupleague/internal/excel"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/strategy"
	"github.com/xuri/excelize/v2"
)

// Violation represents a problem found in a fixture workbook.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a fixture workbook and checks it against the league config.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	sheet, err := readMaster(f)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var violations []Violation

	// Check hard constraints
	violations = append(violations, checkTables(cfg, sheet)...)
	violations = append(violations, checkUnknownTeams(cfg, sheet.games)...)
	violations = append(violations, checkDoubleBooking(sheet.games)...)
	violations = append(violations, checkRoundOrder(sheet.rows)...)
	violations = append(violations, checkRepeatedPairings(cfg, sheet.games)...)

	// Check soft constraints
	violations = append(violations, checkMissingPairings(cfg, sheet.games)...)
	violations = append(violations, checkHomeAwayBalance(cfg, sheet.games)...)

	// Check game completeness
	violations = append(violations, checkGameCompleteness(cfg, sheet.games)...)

	return violations, nil
}

type slotRow struct {
	Row   int
	Day   int
	Date  string
	Time  string
	Round int
}

type parsedGame struct {
	Row   int
	Day   int
	Time  string
	Table int
	Home  string
	Away  string
}

type masterSheet struct {
	tables int
	rows   []slotRow
	games  []parsedGame
}

func readMaster(f *excelize.File) (*masterSheet, error) {
	rows, err := f.GetRows(excel.MasterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", excel.MasterSheet, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", excel.MasterSheet)
	}

	// Header row determines table columns (index 4+)
	header := rows[0]
	type tableCol struct {
		index int
		table int
	}
	var tableCols []tableCol
	for i := 4; i < len(header); i++ {
		n, err := strconv.Atoi(strings.TrimPrefix(header[i], "Table "))
		if err != nil {
			return nil, fmt.Errorf("unexpected column header %q", header[i])
		}
		tableCols = append(tableCols, tableCol{i, n})
	}

	sheet := &masterSheet{tables: len(tableCols)}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 4 || row[0] == "" {
			continue
		}

		day, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		round, err := strconv.Atoi(row[3])
		if err != nil {
			continue
		}
		sr := slotRow{Row: i + 1, Day: day, Date: row[1], Time: row[2], Round: round}
		sheet.rows = append(sheet.rows, sr)

		for _, tc := range tableCols {
			if tc.index >= len(row) || row[tc.index] == "" {
				continue
			}
			home, away, ok := excel.ParseGameCell(row[tc.index])
			if !ok {
				continue
			}
			sheet.games = append(sheet.games, parsedGame{
				Row:   sr.Row,
				Day:   day,
				Time:  sr.Time,
				Table: tc.table,
				Home:  home,
				Away:  away,
			})
		}
	}

	return sheet, nil
}

func checkTables(cfg *config.Config, sheet *masterSheet) []Violation {
	allowed := cfg.Schedule.Tables
	if allowed == 0 {
		allowed = schedule.DefaultTables
	}

	var violations []Violation
	if sheet.tables > allowed {
		violations = append(violations, Violation{
			Row:     1,
			Type:    "error",
			Message: fmt.Sprintf("fixture uses %d tables (max %d)", sheet.tables, allowed),
		})
	}
	for _, g := range sheet.games {
		if g.Table > allowed {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s vs %s on table %d (max %d)", g.Home, g.Away, g.Table, allowed),
			})
		}
	}
	return violations
}

func checkUnknownTeams(cfg *config.Config, games []parsedGame) []Violation {
	known := make(map[string]bool)
	for _, t := range cfg.Teams {
		known[t] = true
	}

	var violations []Violation
	for _, g := range games {
		for _, t := range []string{g.Home, g.Away} {
			if !known[t] {
				violations = append(violations, Violation{
					Row:     g.Row,
					Type:    "error",
					Message: fmt.Sprintf("%s is not a league team", t),
				})
			}
		}
		if g.Home == g.Away {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s is drawn against itself", g.Home),
			})
		}
	}
	return violations
}

func checkDoubleBooking(games []parsedGame) []Violation {
	type teamSlot struct {
		team string
		row  int
	}
	counts := make(map[teamSlot]int)
	for _, g := range games {
		counts[teamSlot{g.Home, g.Row}]++
		if g.Away != g.Home {
			counts[teamSlot{g.Away, g.Row}]++
		}
	}

	var violations []Violation
	for ts, n := range counts {
		if n > 1 {
			violations = append(violations, Violation{
				Row:     ts.row,
				Type:    "error",
				Message: fmt.Sprintf("%s plays %d games in one slot", ts.team, n),
			})
		}
	}
	sortByRow(violations)
	return violations
}

func checkRoundOrder(rows []slotRow) []Violation {
	var violations []Violation
	dayDates := make(map[int]string)
	for i, r := range rows {
		if d, ok := dayDates[r.Day]; ok && d != r.Date {
			violations = append(violations, Violation{
				Row:     r.Row,
				Type:    "error",
				Message: fmt.Sprintf("game day %d has two dates: %s and %s", r.Day, d, r.Date),
			})
		} else if !ok {
			dayDates[r.Day] = r.Date
		}

		if i == 0 {
			continue
		}
		prev := rows[i-1]
		if r.Day < prev.Day {
			violations = append(violations, Violation{
				Row:     r.Row,
				Type:    "error",
				Message: fmt.Sprintf("game day %d listed after game day %d", r.Day, prev.Day),
			})
		}
		if r.Round <= prev.Round {
			violations = append(violations, Violation{
				Row:     r.Row,
				Type:    "error",
				Message: fmt.Sprintf("round %d follows round %d", r.Round, prev.Round),
			})
		}
	}
	return violations
}

type pairKey struct{ home, away string }

// pairings counts games per pairing. A single round robin ignores sides.
func pairings(cfg *config.Config, games []parsedGame) (map[pairKey][]int, bool) {
	double := cfg.Schedule.Strategy != strategy.NameSingle
	counts := make(map[pairKey][]int)
	for _, g := range games {
		k := pairKey{g.Home, g.Away}
		if !double && k.home > k.away {
			k.home, k.away = k.away, k.home
		}
		counts[k] = append(counts[k], g.Row)
	}
	return counts, double
}

func checkRepeatedPairings(cfg *config.Config, games []parsedGame) []Violation {
	counts, double := pairings(cfg, games)

	var violations []Violation
	for k, rows := range counts {
		if len(rows) < 2 {
			continue
		}
		sep := " and "
		if double {
			sep = excel.GameSeparator
		}
		violations = append(violations, Violation{
			Row:     rows[1],
			Type:    "error",
			Message: fmt.Sprintf("%s%s%s scheduled %d times", k.home, sep, k.away, len(rows)),
		})
	}
	sortByRow(violations)
	return violations
}

func checkMissingPairings(cfg *config.Config, games []parsedGame) []Violation {
	counts, double := pairings(cfg, games)

	missing, total := 0, 0
	for i, a := range cfg.Teams {
		for j, b := range cfg.Teams {
			if i == j || (!double && j < i) {
				continue
			}
			total++
			k := pairKey{a, b}
			if !double && k.home > k.away {
				k.home, k.away = k.away, k.home
			}
			if len(counts[k]) == 0 {
				missing++
			}
		}
	}
	if missing == 0 {
		return nil
	}
	return []Violation{{
		Type:    "warning",
		Message: fmt.Sprintf("%d of %d pairings are not scheduled", missing, total),
	}}
}

func checkHomeAwayBalance(cfg *config.Config, games []parsedGame) []Violation {
	if cfg.Schedule.Strategy == strategy.NameSingle {
		return nil
	}

	home := make(map[string]int)
	away := make(map[string]int)
	for _, g := range games {
		home[g.Home]++
		away[g.Away]++
	}

	var violations []Violation
	for _, team := range cfg.Teams {
		if home[team] != away[team] {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has %d home and %d away games", team, home[team], away[team]),
			})
		}
	}
	return violations
}

func checkGameCompleteness(cfg *config.Config, games []parsedGame) []Violation {
	counts := make(map[string]int)
	for _, g := range games {
		counts[g.Home]++
		counts[g.Away]++
	}

	var violations []Violation
	for _, team := range cfg.Teams {
		if counts[team] == 0 {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s has no games scheduled", team),
			})
		}
	}
	return violations
}

func sortByRow(violations []Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Row != violations[j].Row {
			return violations[i].Row < violations[j].Row
		}
		return violations[i].Message < violations[j].Message
	})
}
