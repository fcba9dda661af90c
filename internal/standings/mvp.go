package standings

import (
	"sort"
	"strconv"
	"time"

	"github.com/derekprior/cupleague/internal/clock"
	"github.com/derekprior/cupleague/internal/team"
)

// MVP is the most voted player of a period's winning team.
type MVP struct {
	PlayerID string `json:"playerId" yaml:"player_id" msgpack:"player_id"`
	TeamID   string `json:"teamId" yaml:"team_id" msgpack:"team_id"`
	Votes    int    `json:"votes" yaml:"votes" msgpack:"votes"`
}

// PeriodMVP is the result for one game day or one calendar date. MVP is nil
// while the period is unfinished or when nobody was nominated.
type PeriodMVP struct {
	Key     string `json:"key" yaml:"key" msgpack:"key"`
	GameDay int    `json:"gameDay,omitempty" yaml:"game_day,omitempty" msgpack:"game_day,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty" msgpack:"date,omitempty"`
	MVP     *MVP   `json:"mvp" yaml:"mvp" msgpack:"mvp"`
}

type period struct {
	PeriodMVP
	matches []indexed
}

type indexed struct {
	Match
	pos int
}

// GameDayMVPs groups matches by game day, falling back to the UTC date of
// MatchAt, and names an MVP for every period whose matches are all completed.
func GameDayMVPs(matches []Match, teams []team.Ref) []PeriodMVP {
	periods := make(map[string]*period)
	var order []*period

	for i, m := range matches {
		var key string
		p := PeriodMVP{}
		switch {
		case m.GameDay > 0:
			key = "gameday:" + strconv.Itoa(m.GameDay)
			p.Key, p.GameDay = strconv.Itoa(m.GameDay), m.GameDay
		case !m.MatchAt.IsZero():
			date := clock.DateKey(m.MatchAt)
			key = "date:" + date
			p.Key, p.Date = date, date
		default:
			continue
		}
		bucket, ok := periods[key]
		if !ok {
			bucket = &period{PeriodMVP: p}
			periods[key] = bucket
			order = append(order, bucket)
		}
		bucket.matches = append(bucket.matches, indexed{Match: m, pos: i})
	}

	out := make([]PeriodMVP, 0, len(order))
	for _, p := range order {
		p.MVP = p.pick(teams)
		out = append(out, p.PeriodMVP)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GameDay > 0 && b.GameDay > 0 {
			return a.GameDay < b.GameDay
		}
		if a.GameDay > 0 || b.GameDay > 0 {
			return a.GameDay > 0
		}
		return a.Date < b.Date
	})
	return out
}

func (p *period) pick(teams []team.Ref) *MVP {
	plain := make([]Match, len(p.matches))
	for i, m := range p.matches {
		if m.Status != StatusCompleted {
			return nil
		}
		plain[i] = m.Match
	}

	w := Window{GameDay: p.GameDay}
	if p.GameDay == 0 {
		w = Window{Date: p.Date, Location: time.UTC}
	}
	table := Compute(plain, teams, w)
	if len(table) == 0 {
		return nil
	}
	winner := table[0].TeamID

	ballots := make([]indexed, len(p.matches))
	copy(ballots, p.matches)
	sort.SliceStable(ballots, func(i, j int) bool {
		if !ballots[i].MatchAt.Equal(ballots[j].MatchAt) {
			return ballots[i].MatchAt.Before(ballots[j].MatchAt)
		}
		return ballots[i].pos < ballots[j].pos
	})

	votes := make(map[string]int)
	var candidates []string
	vote := func(player string) {
		if _, seen := votes[player]; !seen {
			candidates = append(candidates, player)
		}
		votes[player]++
	}
	for _, m := range ballots {
		if m.HomeTeamID == winner && m.HomeBestPlayerID != "" {
			vote(m.HomeBestPlayerID)
		}
		if m.AwayTeamID == winner && m.AwayBestPlayerID != "" {
			vote(m.AwayBestPlayerID)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return &MVP{PlayerID: best, TeamID: winner, Votes: votes[best]}
}
