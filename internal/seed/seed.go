// Package seed fills scheduled matches with plausible results for demos.
package seed

import "fmt"

// Source is the subset of *rand.Rand that result generation needs.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// overtimeRate is the share of seeded games that go to overtime.
const overtimeRate = 0.4

var overtimeWins = []int{13, 16, 19, 22}

// Result is a seeded final score plus one best player per side.
type Result struct {
	HomeScore        int
	AwayScore        int
	HomeBestPlayerID string
	AwayBestPlayerID string
}

// RandomScore draws a final score. Regular games end 10 to 0..9; overtime
// games end on one of 13, 16, 19 or 22 against 10..12.
func RandomScore(rng Source) (home, away int) {
	var win, lose int
	if rng.Float64() < overtimeRate {
		win = overtimeWins[rng.Intn(len(overtimeWins))]
		lose = 10 + rng.Intn(3)
	} else {
		win = 10
		lose = rng.Intn(10)
	}
	if rng.Float64() < 0.5 {
		return win, lose
	}
	return lose, win
}

// Roster returns the two placeholder players seeded for a team.
func Roster(teamID string) []string {
	return []string{fmt.Sprintf("%s-p1", teamID), fmt.Sprintf("%s-p2", teamID)}
}

// RandomResult draws a score and picks each side's best player from its
// seeded roster.
func RandomResult(rng Source, homeTeamID, awayTeamID string) Result {
	home, away := RandomScore(rng)
	homeRoster, awayRoster := Roster(homeTeamID), Roster(awayTeamID)
	return Result{
		HomeScore:        home,
		AwayScore:        away,
		HomeBestPlayerID: homeRoster[rng.Intn(len(homeRoster))],
		AwayBestPlayerID: awayRoster[rng.Intn(len(awayRoster))],
	}
}
