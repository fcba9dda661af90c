package standings

import "github.com/derekprior/cupleague/internal/team"

// RankPoint is a team's position after a round. Rank 0 means the team is not
// part of the league.
type RankPoint struct {
	Round int `json:"round" yaml:"round" msgpack:"round"`
	Rank  int `json:"rank" yaml:"rank" msgpack:"rank"`
}

// MaxRound returns the highest round among completed matches.
func MaxRound(matches []Match) int {
	highest := 0
	for _, m := range matches {
		if m.Status == StatusCompleted && m.Round > highest {
			highest = m.Round
		}
	}
	return highest
}

// RankSeries recomputes the table after every round from 1 to the last
// completed round and records where teamID stood.
func RankSeries(matches []Match, teams []team.Ref, teamID string) []RankPoint {
	last := MaxRound(matches)
	series := make([]RankPoint, 0, last)
	for r := 1; r <= last; r++ {
		point := RankPoint{Round: r}
		for _, row := range Compute(matches, teams, Window{UptoRound: r}) {
			if row.TeamID == teamID {
				point.Rank = row.Rank
				break
			}
		}
		series = append(series, point)
	}
	return series
}
