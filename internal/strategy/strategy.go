package strategy

import (
	"fmt"

	"github.com/derekprior/cupleague/internal/team"
)

// Pairing is a single home/away matchup.
type Pairing struct {
	Home team.Ref
	Away team.Ref
}

// Shuffler is the uniform-shuffle contract of *rand.Rand.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Strategy turns a team list into an ordered stream of pairings.
type Strategy interface {
	Pairings(teams []team.Ref, rng Shuffler) []Pairing
}

const (
	NameSingle = "single_round_robin"
	NameDouble = "double_round_robin"
)

// Get returns a Strategy by name. An empty name selects the double round robin.
func Get(name string) (Strategy, error) {
	switch name {
	case "", NameDouble:
		return &DoubleRoundRobin{}, nil
	case NameSingle:
		return &SingleRoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// SingleRoundRobin plays every pair once. Round order is shuffled, the
// pairings inside a round are not.
type SingleRoundRobin struct{}

func (s *SingleRoundRobin) Pairings(teams []team.Ref, rng Shuffler) []Pairing {
	rounds := Rounds(teams)
	rng.Shuffle(len(rounds), func(i, j int) {
		rounds[i], rounds[j] = rounds[j], rounds[i]
	})

	var pairings []Pairing
	for _, r := range rounds {
		pairings = append(pairings, r...)
	}
	return pairings
}

// DoubleRoundRobin plays the single round robin and then every pairing again
// with home and away swapped. The mirror is appended after the whole first
// leg rather than interleaved.
type DoubleRoundRobin struct{}

func (s *DoubleRoundRobin) Pairings(teams []team.Ref, rng Shuffler) []Pairing {
	first := (&SingleRoundRobin{}).Pairings(teams, rng)
	all := make([]Pairing, 0, 2*len(first))
	all = append(all, first...)
	for _, p := range first {
		all = append(all, Pairing{Home: p.Away, Away: p.Home})
	}
	return all
}

// bye marks the placeholder slot added for odd team counts.
const bye = -1

// Rounds builds a single round robin with the circle method: the first team
// stays fixed and the rest rotate one position per round. Odd team counts get
// a bye placeholder whose pairings are dropped, so every round is a perfect
// (or near-perfect) matching.
func Rounds(teams []team.Ref) [][]Pairing {
	list := make([]int, len(teams))
	for i := range teams {
		list[i] = i
	}
	if len(list)%2 != 0 {
		list = append(list, bye)
	}

	n := len(list)
	if n < 2 {
		return nil
	}
	rounds := make([][]Pairing, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([]Pairing, 0, n/2)
		for i := 0; i < n/2; i++ {
			home, away := list[i], list[n-1-i]
			if home == bye || away == bye {
				continue
			}
			round = append(round, Pairing{Home: teams[home], Away: teams[away]})
		}
		rounds = append(rounds, round)

		// Move the last entry into position 1.
		last := list[n-1]
		copy(list[2:], list[1:n-1])
		list[1] = last
	}
	return rounds
}
