package bracket

import "fmt"

const (
	maxGroupSize = 8
	minGroupSize = 3
)

// freeForAll splits the field into groups of up to eight. Each group is stored as one
// match: Team1ID and Team2ID hold the first two members and Notes lists everyone.
// The group winners move on until a single group remains.
type freeForAll struct {
	tournamentID int64
	rng          Shuffler
}

func (s *freeForAll) Format() Format { return FreeForAll }

func (s *freeForAll) MinTeams() int { return minGroupSize }

func (s *freeForAll) ValidateTeamCount(count int) bool {
	return count >= s.MinTeams()
}

func (s *freeForAll) GenerateMatches(teams []Team) ([]Match, error) {
	if err := validateCount(s, len(teams), false); err != nil {
		return nil, err
	}
	return s.groups(shuffledTeamIDs(teams, s.rng), 1), nil
}

// AdvanceToNextRound regroups the winners of the latest round. Two winners play a
// head-to-head final since they cannot fill a group of three.
func (s *freeForAll) AdvanceToNextRound(matches []Match) ([]Match, error) {
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
	if s.rng != nil {
		s.rng.Shuffle(len(winners), func(i, j int) { winners[i], winners[j] = winners[j], winners[i] })
	}
	return s.groups(winners, round+1), nil
}

// groups splits ids into ceil(n/8) groups whose sizes differ by at most one.
func (s *freeForAll) groups(ids []int64, round int) []Match {
	count := (len(ids) + maxGroupSize - 1) / maxGroupSize
	base, extra := len(ids)/count, len(ids)%count

	matches := make([]Match, 0, count)
	start := 0
	for g := 1; g <= count; g++ {
		size := base
		if g <= extra {
			size++
		}
		members := append([]int64(nil), ids[start:start+size]...)
		start += size

		notes := groupNotes(members)
		matches = append(matches, Match{
			TournamentID:    s.tournamentID,
			Team1ID:         members[0],
			Team2ID:         members[1],
			RoundNumber:     round,
			MatchNumber:     g,
			BracketPosition: fmt.Sprintf("FFA_R%dG%d", round, g),
			Status:          MatchScheduled,
			Notes:           &notes,
		})
	}
	return matches
}

func (s *freeForAll) IsTournamentComplete(_ []Team, matches []Match) bool {
	return finalDecided(matches)
}

type FFAScore struct {
	Points int
	Rounds int
}

// Scores awards round*3 to each group winner and one point to every other member
// of a resolved group.
func Scores(matches []Match) map[int64]FFAScore {
	scores := make(map[int64]FFAScore)
	for _, m := range matches {
		if !m.Resolved() {
			continue
		}
		for _, id := range m.Participants() {
			sc := scores[id]
			sc.Rounds++
			if m.IsWinner(id) {
				sc.Points += m.RoundNumber * 3
			} else {
				sc.Points++
			}
			scores[id] = sc
		}
	}
	return scores
}

func (s *freeForAll) Standings(teams []Team, matches []Match) []Team {
	scores := Scores(matches)
	return rankTeams(teams, func(a, b Team) bool {
		sa, sb := scores[a.ID], scores[b.ID]
		if sa.Points != sb.Points {
			return sa.Points > sb.Points
		}
		return sa.Rounds > sb.Rounds
	})
}
