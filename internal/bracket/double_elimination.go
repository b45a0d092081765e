package bracket

import "fmt"

// doubleElimination runs a winners bracket and a losers bracket side by side on a
// shared round counter. A team is out after its second loss. The last team standing
// in each bracket meets in a single GRAND_FINAL; there is no bracket reset.
type doubleElimination struct {
	tournamentID int64
	rng          Shuffler
}

func (s *doubleElimination) Format() Format { return DoubleElimination }

func (s *doubleElimination) MinTeams() int { return 2 }

func (s *doubleElimination) ValidateTeamCount(count int) bool {
	return count >= s.MinTeams() && IsPowerOfTwo(count)
}

func (s *doubleElimination) GenerateMatches(teams []Team) ([]Match, error) {
	if err := validateCount(s, len(teams), true); err != nil {
		return nil, err
	}
	ids := shuffledTeamIDs(teams, s.rng)
	return pairConsecutive(s.tournamentID, ids, 1, 0, func(n int) string {
		return positionTag("WB_", 1, n)
	}), nil
}

func (s *doubleElimination) AdvanceToNextRound(matches []Match) ([]Match, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	round, current := latestRound(matches)
	if err := requireResolved(round, current); err != nil {
		return nil, err
	}
	for _, m := range current {
		if m.BracketPosition == GrandFinal {
			return []Match{}, nil
		}
	}

	winnersBracket, losersBracket := s.brackets(matches, round, current)
	next := round + 1

	if len(winnersBracket) == 1 && len(losersBracket) == 1 {
		return []Match{{
			TournamentID:    s.tournamentID,
			Team1ID:         winnersBracket[0],
			Team2ID:         losersBracket[0],
			RoundNumber:     next,
			MatchNumber:     1,
			BracketPosition: GrandFinal,
			Status:          MatchScheduled,
		}}, nil
	}

	var out []Match
	if len(winnersBracket) >= 2 {
		if len(winnersBracket)%2 != 0 {
			return nil, fmt.Errorf("%w: %d teams left in the winners bracket", ErrUnevenRound, len(winnersBracket))
		}
		out = append(out, pairConsecutive(s.tournamentID, winnersBracket, next, 0, func(n int) string {
			return positionTag("WB_", next, n)
		})...)
	}
	if len(losersBracket) >= 2 {
		// An odd team out sits at the back of the queue and waits a round.
		out = append(out, pairConsecutive(s.tournamentID, losersBracket, next, len(out), func(n int) string {
			return positionTag("LB_", next, n)
		})...)
	}
	if out == nil {
		return []Match{}, nil
	}
	return out, nil
}

// brackets splits the surviving teams by loss count. The losers bracket is ordered
// so teams that sat out the last round play first, then losers bracket survivors,
// then the teams that just dropped down from the winners bracket.
func (s *doubleElimination) brackets(matches []Match, round int, current []Match) (winners, losers []int64) {
	losses := make(map[int64]int)
	var order []int64
	seen := make(map[int64]bool)
	for _, m := range matches {
		for _, id := range []int64{m.Team1ID, m.Team2ID} {
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
		if loser, ok := m.Loser(); ok {
			losses[loser]++
		}
	}

	playedLast := make(map[int64]BracketSide)
	for _, m := range current {
		playedLast[m.Team1ID] = m.Side()
		playedLast[m.Team2ID] = m.Side()
	}

	var waiting, survivors, dropped []int64
	for _, m := range current {
		if m.WinnerTeamID == nil {
			continue
		}
		w := *m.WinnerTeamID
		switch losses[w] {
		case 0:
			winners = append(winners, w)
		case 1:
			if m.Side() == LosersSide {
				survivors = append(survivors, w)
			}
		}
		if loser, ok := m.Loser(); ok && m.Side() == WinnersSide && losses[loser] == 1 {
			dropped = append(dropped, loser)
		}
	}
	for _, id := range order {
		if _, ok := playedLast[id]; !ok && losses[id] == 1 {
			waiting = append(waiting, id)
		}
	}
	for _, id := range order {
		if _, ok := playedLast[id]; !ok && losses[id] == 0 {
			winners = append(winners, id)
		}
	}

	losers = append(losers, waiting...)
	losers = append(losers, survivors...)
	losers = append(losers, dropped...)
	return winners, losers
}

func (s *doubleElimination) IsTournamentComplete(_ []Team, matches []Match) bool {
	for _, m := range matches {
		if m.BracketPosition == GrandFinal && m.WinnerTeamID != nil {
			return true
		}
	}
	return false
}

// Standings ranks teams with fewer than two losses above eliminated teams, each
// group ordered by wins then fewest losses.
func (s *doubleElimination) Standings(teams []Team, matches []Match) []Team {
	recs := records(matches)
	stat := func(id int64) record {
		if r, ok := recs[id]; ok {
			return *r
		}
		return record{}
	}
	var champion int64
	for _, m := range matches {
		if m.BracketPosition == GrandFinal && m.WinnerTeamID != nil {
			champion = *m.WinnerTeamID
		}
	}
	return rankTeams(teams, func(a, b Team) bool {
		if champion != 0 && (a.ID == champion) != (b.ID == champion) {
			return a.ID == champion
		}
		ra, rb := stat(a.ID), stat(b.ID)
		activeA, activeB := ra.losses < 2, rb.losses < 2
		if activeA != activeB {
			return activeA
		}
		if ra.wins != rb.wins {
			return ra.wins > rb.wins
		}
		return ra.losses < rb.losses
	})
}
