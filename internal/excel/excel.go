package excel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/team"
	"github.com/xuri/excelize/v2"
)

// Sheet names shared with the validator.
const (
	MasterSheet    = "Master Schedule"
	SummarySheet   = "Summary"
	StandingsSheet = "Standings"
)

// GameSeparator sits between the home and away team in a table cell.
const GameSeparator = " vs "

// masterFixed is the number of columns before the table columns.
const masterFixed = 4

// Generate creates an Excel workbook with the master schedule, a load
// summary and per-team sheets.
func Generate(teams []team.Ref, matches []schedule.Match) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeMasterSheet(f, matches); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeSummarySheet(f, teams, matches); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}

	if err := writeTeamSheets(f, teams, matches); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header, cell, centered int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	s.centered, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return s
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func maxTable(matches []schedule.Match) int {
	tables := 0
	for _, m := range matches {
		tables = max(tables, m.Table)
	}
	return tables
}

func writeMasterSheet(f *excelize.File, matches []schedule.Match) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)

	// Headers: Day, Date, Time, Round, Table 1, Table 2, ...
	tables := maxTable(matches)
	headers := []string{"Day", "Date", "Time", "Round"}
	for t := 1; t <= tables; t++ {
		headers = append(headers, fmt.Sprintf("Table %d", t))
	}
	writeHeaders(f, sheet, headers, st.header)

	// One row per (day, slot); tables fill across.
	type slotKey struct{ day, slot int }
	bySlot := make(map[slotKey][]schedule.Match)
	var keys []slotKey
	for _, m := range matches {
		k := slotKey{m.Day, m.Slot}
		if _, ok := bySlot[k]; !ok {
			keys = append(keys, k)
		}
		bySlot[k] = append(bySlot[k], m)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].slot < keys[j].slot
	})

	for i, k := range keys {
		row := i + 2
		slotMatches := bySlot[k]
		first := slotMatches[0]
		f.SetCellValue(sheet, cellRef(1, row), first.Day)
		f.SetCellValue(sheet, cellRef(2, row), first.Date)
		f.SetCellValue(sheet, cellRef(3, row), first.StartTime)
		f.SetCellValue(sheet, cellRef(4, row), first.Round)
		for _, m := range slotMatches {
			f.SetCellValue(sheet, cellRef(masterFixed+m.Table, row), GameCell(m.Home.Label(), m.Away.Label()))
		}

		if st.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(masterFixed, row), st.cell)
		}
		if st.centered != 0 && tables > 0 {
			f.SetCellStyle(sheet, cellRef(masterFixed+1, row), cellRef(len(headers), row), st.centered)
		}
	}

	// Set column widths (sized for Arial 16)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "C", 10)
	f.SetColWidth(sheet, "D", "D", 10)
	for t := 1; t <= tables; t++ {
		col := colLetter(masterFixed + t)
		f.SetColWidth(sheet, col, col, 34)
	}

	// Conditional formatting: idle tables get light red
	if tables == 0 || len(keys) == 0 {
		return nil
	}
	lastRow := len(keys) + 1
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	for t := 1; t <= tables; t++ {
		col := colLetter(masterFixed + t)
		cellRange := fmt.Sprintf("%s2:%s%d", col, col, lastRow)
		formula := fmt.Sprintf(`LEN(%s2)=0`, col)
		if err := f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: formula,
				Format:   &redFill,
			},
		}); err != nil {
			return err
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, teams []team.Ref, matches []schedule.Match) error {
	sheet := SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	summary := schedule.Summarize(matches)

	writeHeaders(f, sheet, []string{"Team", "Home", "Away", "Total"}, st.header)
	for i, t := range teams {
		row := i + 2
		load := summary.Teams[t.Token()]
		if load == nil {
			load = &schedule.TeamLoad{}
		}
		f.SetCellValue(sheet, cellRef(1, row), t.Label())
		f.SetCellValue(sheet, cellRef(2, row), load.Home)
		f.SetCellValue(sheet, cellRef(3, row), load.Away)
		f.SetCellValue(sheet, cellRef(4, row), load.Total)
	}

	// Day loads sit to the right of the team table.
	dayHeaders := []string{"Day", "Matches", "Slots", "First", "Last"}
	for i, h := range dayHeaders {
		f.SetCellValue(sheet, cellRef(i+6, 1), h)
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, cellRef(6, 1), cellRef(10, 1), st.header)
	}
	for i, d := range summary.Days {
		row := i + 2
		f.SetCellValue(sheet, cellRef(6, row), d.Day)
		f.SetCellValue(sheet, cellRef(7, row), d.Matches)
		f.SetCellValue(sheet, cellRef(8, row), d.Slots)
		f.SetCellValue(sheet, cellRef(9, row), d.First)
		f.SetCellValue(sheet, cellRef(10, row), d.Last)
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "J", 10)
	return nil
}

func writeTeamSheets(f *excelize.File, teams []team.Ref, matches []schedule.Match) error {
	used := make(map[string]bool)
	for _, t := range teams {
		sheet := SheetName(t.Label(), used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", t.Label(), err)
		}
		st := newStyles(f)

		headers := []string{"Day", "Date", "Time", "Table", "Opponent", "Home/Away", "Round"}
		writeHeaders(f, sheet, headers, st.header)

		// Collect this team's matches in play order
		type teamGame struct {
			m        schedule.Match
			opponent string
			homeAway string
		}
		var games []teamGame
		for _, m := range matches {
			if m.Home.Token() == t.Token() {
				games = append(games, teamGame{m: m, opponent: m.Away.Label(), homeAway: "Home"})
			} else if m.Away.Token() == t.Token() {
				games = append(games, teamGame{m: m, opponent: m.Home.Label(), homeAway: "Away"})
			}
		}
		sort.Slice(games, func(i, j int) bool {
			return games[i].m.GlobalOrder < games[j].m.GlobalOrder
		})

		for i, g := range games {
			row := i + 2
			f.SetCellValue(sheet, cellRef(1, row), g.m.Day)
			f.SetCellValue(sheet, cellRef(2, row), g.m.Date)
			f.SetCellValue(sheet, cellRef(3, row), g.m.StartTime)
			f.SetCellValue(sheet, cellRef(4, row), g.m.Table)
			f.SetCellValue(sheet, cellRef(5, row), g.opponent)
			f.SetCellValue(sheet, cellRef(6, row), g.homeAway)
			f.SetCellValue(sheet, cellRef(7, row), g.m.Round)
			if st.cell != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), st.cell)
			}
		}

		// Set column widths (sized for Arial 16)
		widths := map[string]float64{"A": 8, "B": 18, "C": 10, "D": 10, "E": 24, "F": 14, "G": 10}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}

	return nil
}

// WriteStandings adds (or replaces) the standings sheet.
func WriteStandings(f *excelize.File, rows []standings.Row) error {
	sheet := StandingsSheet
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		f.DeleteSheet(sheet)
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating standings sheet: %w", err)
	}
	st := newStyles(f)

	headers := []string{"#", "Team", "GP", "W", "W (reg)", "W (OT)", "L", "L (reg)", "L (OT)", "Cup diff", "Pts"}
	writeHeaders(f, sheet, headers, st.header)

	for i, r := range rows {
		row := i + 2
		values := []any{r.Rank, r.Name, r.Games, r.WinsTotal, r.WinsRegular, r.WinsOT,
			r.LossesTotal, r.LossesRegular, r.LossesOT, r.CupDiff, r.Points}
		for c, v := range values {
			f.SetCellValue(sheet, cellRef(c+1, row), v)
		}
		if st.centered != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), st.centered)
		}
	}

	f.SetColWidth(sheet, "A", "A", 6)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "K", 11)
	f.SetColWidth(sheet, "E", "F", 13)
	f.SetColWidth(sheet, "H", "I", 13)
	return nil
}

// GameCell formats a table cell.
func GameCell(home, away string) string {
	return home + GameSeparator + away
}

// ParseGameCell splits "Home vs Away". It reports false for anything else.
func ParseGameCell(cell string) (home, away string, ok bool) {
	home, away, ok = strings.Cut(cell, GameSeparator)
	if !ok || home == "" || away == "" {
		return "", "", false
	}
	return home, away, true
}

// SheetName turns a team label into a unique, valid worksheet name.
func SheetName(label string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, label)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Team"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	reserved := func(n string) bool {
		return used[strings.ToLower(n)] || strings.EqualFold(n, MasterSheet) ||
			strings.EqualFold(n, SummarySheet) || strings.EqualFold(n, StandingsSheet)
	}
	base := name
	for i := 2; reserved(name); i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
