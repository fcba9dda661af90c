package schedule

import (
	"fmt"
	"io"
	"sort"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/strategy"
)

// layout slices the pairing stream into game days and assigns tables and
// time slots. Day d receives the stream between the cumulative round counts
// before and after it, so a short stream silently under-fills trailing days.
func layout(pairings []strategy.Pairing, teamCount int, plan Plan, startMinutes int) []Match {
	var (
		out         []Match
		globalOrder int
		roundOffset int
		cumRounds   int
	)

	for d, rounds := range plan.MatchesPerDay {
		begin := min(cumRounds*teamCount/2, len(pairings))
		cumRounds += rounds
		end := min(cumRounds*teamCount/2, len(pairings))
		dayPairings := pairings[begin:end]

		var date string
		if d < len(plan.DayDates) {
			date = plan.DayDates[d]
		}

		scheduled := scheduleDay(dayPairings, d+1, date, startMinutes, plan, globalOrder, roundOffset)
		out = append(out, scheduled...)

		globalOrder += len(dayPairings)
		roundOffset += slotsFor(len(dayPairings), plan.Tables)
	}

	return out
}

// scheduleDay fills tables first and then advances slots.
func scheduleDay(pairings []strategy.Pairing, day int, date string, startMinutes int, plan Plan, globalOffset, roundOffset int) []Match {
	matches := make([]Match, 0, len(pairings))
	for i, p := range pairings {
		slot := i / plan.Tables
		table := i%plan.Tables + 1
		absolute := startMinutes + slot*plan.MatchDuration

		matches = append(matches, Match{
			Home:            p.Home,
			Away:            p.Away,
			Day:             day,
			Table:           table,
			Slot:            slot,
			Round:           roundOffset + slot + 1,
			StartTime:       clock.FormatHHMM(absolute),
			AbsoluteMinutes: absolute,
			GlobalOrder:     globalOffset + i,
			Date:            date,
		})
	}
	return matches
}

func slotsFor(matches, tables int) int {
	return (matches + tables - 1) / tables
}

// Print writes the fixture grouped by game day in global order.
func Print(w io.Writer, matches []Match) error {
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GlobalOrder < sorted[j].GlobalOrder
	})

	currentDay := 0
	for _, m := range sorted {
		if m.Day != currentDay {
			header := fmt.Sprintf("=== Game Day %d ===", m.Day)
			if m.Date != "" {
				header = fmt.Sprintf("=== Game Day %d (%s) ===", m.Day, m.Date)
			}
			if _, err := fmt.Fprintln(w, header); err != nil {
				return err
			}
			currentDay = m.Day
		}
		if _, err := fmt.Fprintf(w, "%3d  %s  R%-3d %s vs %s - table: %d\n",
			m.GlobalOrder, m.StartTime, m.Round, m.Home.Label(), m.Away.Label(), m.Table); err != nil {
			return err
		}
	}
	return nil
}

// TeamLoad counts how often a team appears in a fixture.
type TeamLoad struct {
	Home  int
	Away  int
	Total int
}

// DayLoad summarises one game day.
type DayLoad struct {
	Day     int
	Matches int
	Slots   int
	First   string
	Last    string

	firstMin, lastMin int
}

// Summary holds per-team and per-day counts for a fixture.
type Summary struct {
	Teams map[string]*TeamLoad
	Days  []DayLoad
}

// Summarize computes per-team and per-day statistics for a fixture.
func Summarize(matches []Match) Summary {
	s := Summary{Teams: make(map[string]*TeamLoad)}
	days := make(map[int]*DayLoad)
	slots := make(map[int]map[int]bool)

	load := func(tok string) *TeamLoad {
		l, ok := s.Teams[tok]
		if !ok {
			l = &TeamLoad{}
			s.Teams[tok] = l
		}
		return l
	}

	for _, m := range matches {
		h := load(m.Home.Token())
		h.Home++
		h.Total++
		a := load(m.Away.Token())
		a.Away++
		a.Total++

		dl, ok := days[m.Day]
		if !ok {
			dl = &DayLoad{Day: m.Day, First: m.StartTime, Last: m.StartTime,
				firstMin: m.AbsoluteMinutes, lastMin: m.AbsoluteMinutes}
			days[m.Day] = dl
			slots[m.Day] = make(map[int]bool)
		}
		dl.Matches++
		slots[m.Day][m.Slot] = true
		if m.AbsoluteMinutes < dl.firstMin {
			dl.firstMin, dl.First = m.AbsoluteMinutes, m.StartTime
		}
		if m.AbsoluteMinutes > dl.lastMin {
			dl.lastMin, dl.Last = m.AbsoluteMinutes, m.StartTime
		}
	}

	for day, dl := range days {
		dl.Slots = len(slots[day])
		s.Days = append(s.Days, *dl)
	}
	sort.Slice(s.Days, func(i, j int) bool {
		return s.Days[i].Day < s.Days[j].Day
	})
	return s
}
