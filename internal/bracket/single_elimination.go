package bracket

import "fmt"

type singleElimination struct {
	tournamentID int64
	rng          Shuffler
}

func (s *singleElimination) Format() Format { return SingleElimination }

func (s *singleElimination) MinTeams() int { return 2 }

// ValidateTeamCount requires a power of two so every round pairs cleanly.
func (s *singleElimination) ValidateTeamCount(count int) bool {
	return count >= s.MinTeams() && IsPowerOfTwo(count)
}

func (s *singleElimination) GenerateMatches(teams []Team) ([]Match, error) {
	if err := validateCount(s, len(teams), true); err != nil {
		return nil, err
	}
	ids := shuffledTeamIDs(teams, s.rng)
	return pairConsecutive(s.tournamentID, ids, 1, 0, func(n int) string {
		return positionTag("", 1, n)
	}), nil
}

func (s *singleElimination) AdvanceToNextRound(matches []Match) ([]Match, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	round, current := latestRound(matches)
	if err := requireResolved(round, current); err != nil {
		return nil, err
	}

	winners := roundWinners(current)
	if len(winners) <= 1 {
		return []Match{}, nil
	}
	if len(winners)%2 != 0 {
		return nil, fmt.Errorf("%w: %d winners in round %d", ErrUnevenRound, len(winners), round)
	}

	next := round + 1
	return pairConsecutive(s.tournamentID, winners, next, 0, func(n int) string {
		return positionTag("", next, n)
	}), nil
}

func (s *singleElimination) IsTournamentComplete(_ []Team, matches []Match) bool {
	return finalDecided(matches)
}

// Standings puts unbeaten teams first, then the rest by how late they were knocked out.
func (s *singleElimination) Standings(teams []Team, matches []Match) []Team {
	eliminated := make(map[int64]int)
	for _, m := range matches {
		if loser, ok := m.Loser(); ok {
			eliminated[loser] = m.RoundNumber
		}
	}
	return rankTeams(teams, func(a, b Team) bool {
		ra, outA := eliminated[a.ID]
		rb, outB := eliminated[b.ID]
		if outA != outB {
			return !outA
		}
		return ra > rb
	})
}
