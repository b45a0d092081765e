package bracket

import "fmt"

const (
	pointsWin  = 3
	pointsDraw = 1
)

// roundRobin schedules every pairing up front in roster order, so it needs no random source.
type roundRobin struct {
	tournamentID int64
}

func (s *roundRobin) Format() Format { return RoundRobin }

func (s *roundRobin) MinTeams() int { return 2 }

func (s *roundRobin) ValidateTeamCount(count int) bool {
	return count >= s.MinTeams()
}

func (s *roundRobin) GenerateMatches(teams []Team) ([]Match, error) {
	if err := validateCount(s, len(teams), false); err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(teams)*(len(teams)-1)/2)
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			n := len(matches) + 1
			matches = append(matches, Match{
				TournamentID:    s.tournamentID,
				Team1ID:         teams[i].ID,
				Team2ID:         teams[j].ID,
				RoundNumber:     1,
				MatchNumber:     n,
				BracketPosition: fmt.Sprintf("RR%d", n),
				Status:          MatchScheduled,
			})
		}
	}
	return matches, nil
}

func (s *roundRobin) AdvanceToNextRound(_ []Match) ([]Match, error) {
	return []Match{}, nil
}

func (s *roundRobin) IsTournamentComplete(_ []Team, matches []Match) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if !m.Resolved() {
			return false
		}
	}
	return true
}

// Points returns the league points a team has earned so far.
func Points(teamID int64, matches []Match) int {
	r, ok := records(matches)[teamID]
	if !ok {
		return 0
	}
	return r.wins*pointsWin + r.draws*pointsDraw
}

// Standings is the league table: points, then goal difference, then goals for.
func (s *roundRobin) Standings(teams []Team, matches []Match) []Team {
	recs := records(matches)
	stat := func(id int64) record {
		if r, ok := recs[id]; ok {
			return *r
		}
		return record{}
	}
	return rankTeams(teams, func(a, b Team) bool {
		ra, rb := stat(a.ID), stat(b.ID)
		pa, pb := ra.wins*pointsWin+ra.draws*pointsDraw, rb.wins*pointsWin+rb.draws*pointsDraw
		if pa != pb {
			return pa > pb
		}
		da, db := ra.goalsFor-ra.goalsAgainst, rb.goalsFor-rb.goalsAgainst
		if da != db {
			return da > db
		}
		return ra.goalsFor > rb.goalsFor
	})
}
