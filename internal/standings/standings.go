// Package standings ranks a league from its completed matches. Every call
// rebuilds the table from the snapshot it is given; nothing is cached.
package standings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/team"
)

// Status is the lifecycle state of a match.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus accepts the four lifecycle names.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown match status %q", s)
	}
}

// Regulation is the target score of a regular game.
const Regulation = 10

// cupDiffCap is the winning score above which the cup differential is
// counted as 1.
const cupDiffCap = 13

// Match is a persisted match as the engine sees it.
type Match struct {
	ID               string    `json:"id" yaml:"id" msgpack:"id"`
	HomeTeamID       string    `json:"homeTeamId" yaml:"home_team_id" msgpack:"home_team_id"`
	AwayTeamID       string    `json:"awayTeamId" yaml:"away_team_id" msgpack:"away_team_id"`
	HomeScore        int       `json:"homeScore" yaml:"home_score" msgpack:"home_score"`
	AwayScore        int       `json:"awayScore" yaml:"away_score" msgpack:"away_score"`
	Status           Status    `json:"status" yaml:"status" msgpack:"status"`
	Round            int       `json:"round" yaml:"round" msgpack:"round"`
	GameDay          int       `json:"gameDay,omitempty" yaml:"game_day,omitempty" msgpack:"game_day,omitempty"`
	MatchAt          time.Time `json:"matchAt" yaml:"match_at" msgpack:"match_at"`
	HomeBestPlayerID string    `json:"homeBestPlayerId,omitempty" yaml:"home_best_player_id,omitempty" msgpack:"home_best_player_id,omitempty"`
	AwayBestPlayerID string    `json:"awayBestPlayerId,omitempty" yaml:"away_best_player_id,omitempty" msgpack:"away_best_player_id,omitempty"`
}

// Overtime reports whether the match went past regulation while staying close.
func (m Match) Overtime() bool {
	hi, lo := max(m.HomeScore, m.AwayScore), min(m.HomeScore, m.AwayScore)
	return hi > Regulation && lo >= Regulation
}

// CupDiff is the differential the winner gains and the loser gives up.
func (m Match) CupDiff() int {
	if max(m.HomeScore, m.AwayScore) > cupDiffCap {
		return 1
	}
	d := m.HomeScore - m.AwayScore
	if d < 0 {
		d = -d
	}
	return d
}

// Row is one team's line in the table.
type Row struct {
	Rank          int    `json:"rank" yaml:"rank" msgpack:"rank"`
	TeamID        string `json:"teamId" yaml:"team_id" msgpack:"team_id"`
	Name          string `json:"name" yaml:"name" msgpack:"name"`
	Games         int    `json:"games" yaml:"games" msgpack:"games"`
	WinsTotal     int    `json:"winsTotal" yaml:"wins_total" msgpack:"wins_total"`
	WinsRegular   int    `json:"winsRegular" yaml:"wins_regular" msgpack:"wins_regular"`
	WinsOT        int    `json:"winsOT" yaml:"wins_ot" msgpack:"wins_ot"`
	LossesTotal   int    `json:"lossesTotal" yaml:"losses_total" msgpack:"losses_total"`
	LossesRegular int    `json:"lossesRegular" yaml:"losses_regular" msgpack:"losses_regular"`
	LossesOT      int    `json:"lossesOT" yaml:"losses_ot" msgpack:"losses_ot"`
	CupDiff       int    `json:"cupDiff" yaml:"cup_diff" msgpack:"cup_diff"`
	Points        int    `json:"points" yaml:"points" msgpack:"points"`
}

// ErrInvalidWindow is returned by Window.Validate.
var ErrInvalidWindow = errors.New("invalid standings window")

// Window narrows the matches that count. Zero fields are inactive; active
// fields must all pass.
type Window struct {
	UptoGameDay int
	UptoRound   int
	GameDay     int
	// Date selects matches played on that calendar day in Location.
	Date     string
	Location *time.Location
}

// Validate rejects negative bounds and malformed dates. Compute itself
// trusts its window.
func (w Window) Validate() error {
	if w.UptoGameDay < 0 {
		return fmt.Errorf("%w: upto gameday %d", ErrInvalidWindow, w.UptoGameDay)
	}
	if w.UptoRound < 0 {
		return fmt.Errorf("%w: upto round %d", ErrInvalidWindow, w.UptoRound)
	}
	if w.GameDay < 0 {
		return fmt.Errorf("%w: gameday %d", ErrInvalidWindow, w.GameDay)
	}
	if w.Date != "" {
		if _, err := clock.ParseDate(w.Date, w.Location); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
	}
	return nil
}

type filter func(Match) bool

func (w Window) filter() filter {
	var dayStart, dayEnd time.Time
	hasDate := false
	if w.Date != "" {
		start, end, err := clock.DayRange(w.Date, w.Location)
		// An unparsable date matches nothing.
		if err != nil {
			return func(Match) bool { return false }
		}
		dayStart, dayEnd, hasDate = start, end, true
	}

	return func(m Match) bool {
		if m.Status != StatusCompleted {
			return false
		}
		if w.UptoGameDay > 0 && m.GameDay > w.UptoGameDay {
			return false
		}
		if w.UptoRound > 0 && m.Round > w.UptoRound {
			return false
		}
		if w.GameDay > 0 && m.GameDay != w.GameDay {
			return false
		}
		if hasDate && (m.MatchAt.Before(dayStart) || !m.MatchAt.Before(dayEnd)) {
			return false
		}
		return true
	}
}

// Compute builds the ranked table for teams from the completed matches that
// fall inside w. Matches between teams outside the league and matches with
// equal scores are ignored.
func Compute(matches []Match, teams []team.Ref, w Window) []Row {
	index := make(map[string]*Row, len(teams))
	rows := make([]*Row, 0, len(teams))
	for _, t := range teams {
		tok := t.Token()
		if _, dup := index[tok]; dup {
			continue
		}
		r := &Row{TeamID: tok, Name: t.Label()}
		index[tok] = r
		rows = append(rows, r)
	}

	keep := w.filter()
	for _, m := range matches {
		if !keep(m) {
			continue
		}
		home, away := index[m.HomeTeamID], index[m.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		if m.HomeScore == m.AwayScore {
			continue
		}
		winner, loser := home, away
		if m.AwayScore > m.HomeScore {
			winner, loser = away, home
		}
		record(winner, loser, m.Overtime(), m.CupDiff())
	}

	// Collators keep scratch buffers, so each call gets its own.
	names := collate.New(language.Und)
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j], names)
	})

	out := make([]Row, len(rows))
	for i, r := range rows {
		r.LossesTotal = r.LossesRegular + r.LossesOT
		r.Rank = i + 1
		out[i] = *r
	}
	return out
}

func record(winner, loser *Row, overtime bool, diff int) {
	winner.Games++
	loser.Games++
	winner.WinsTotal++
	if overtime {
		winner.WinsOT++
		winner.Points += 2
		loser.LossesOT++
		loser.Points++
	} else {
		winner.WinsRegular++
		winner.Points += 3
		loser.LossesRegular++
	}
	winner.CupDiff += diff
	loser.CupDiff -= diff
}

// less orders rows by points, wins, cup differential and regulation wins,
// then by name in Unicode collation order, so "bravo" sorts before "Charlie"
// and "Éclair" before "Zulu".
func less(a, b *Row, names *collate.Collator) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.WinsTotal != b.WinsTotal {
		return a.WinsTotal > b.WinsTotal
	}
	if a.CupDiff != b.CupDiff {
		return a.CupDiff > b.CupDiff
	}
	if a.WinsRegular != b.WinsRegular {
		return a.WinsRegular > b.WinsRegular
	}
	if c := names.CompareString(a.Name, b.Name); c != 0 {
		return c < 0
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.TeamID < b.TeamID
}
