package bracket

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported tournament format")
	ErrInvalidTeamCount  = errors.New("invalid team count")
	ErrRoundIncomplete   = errors.New("current round has unresolved matches")
	ErrUnevenRound       = errors.New("odd number of teams cannot be paired")
)

type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported tournament format %q", string(e.Format))
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

type TeamCountError struct {
	Format     Format
	Count      int
	Min        int
	PowerOfTwo bool
}

func (e *TeamCountError) Error() string {
	if e.Count >= e.Min && e.PowerOfTwo {
		return fmt.Sprintf("%s needs a power-of-two number of teams, got %d", e.Format.Label(), e.Count)
	}
	return fmt.Sprintf("%s needs at least %d teams, got %d", e.Format.Label(), e.Min, e.Count)
}

func (e *TeamCountError) Is(target error) bool {
	return target == ErrInvalidTeamCount
}

// Shuffler is the random source used for seeding. *rand.Rand from math/rand/v2 satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Strategy holds the format-specific bracket logic. Strategies are pure: they never
// persist anything and only look at the teams and matches handed to them.
type Strategy interface {
	Format() Format
	MinTeams() int
	ValidateTeamCount(count int) bool

	// GenerateMatches returns round one for the roster.
	GenerateMatches(teams []Team) ([]Match, error)

	// AdvanceToNextRound takes the match history and returns the next round, or an
	// empty slice once nothing remains to be played.
	AdvanceToNextRound(matches []Match) ([]Match, error)

	IsTournamentComplete(teams []Team, matches []Match) bool

	// Standings always returns a permutation of teams.
	Standings(teams []Team, matches []Match) []Team
}

func NewStrategy(format Format, tournamentID int64, rng Shuffler) (Strategy, error) {
	switch format {
	case SingleElimination:
		return &singleElimination{tournamentID: tournamentID, rng: rng}, nil
	case DoubleElimination:
		return &doubleElimination{tournamentID: tournamentID, rng: rng}, nil
	case RoundRobin:
		return &roundRobin{tournamentID: tournamentID}, nil
	case FreeForAll:
		return &freeForAll{tournamentID: tournamentID, rng: rng}, nil
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func validateCount(s Strategy, count int, powerOfTwo bool) error {
	if s.ValidateTeamCount(count) {
		return nil
	}
	return &TeamCountError{Format: s.Format(), Count: count, Min: s.MinTeams(), PowerOfTwo: powerOfTwo}
}

func shuffledTeamIDs(teams []Team, rng Shuffler) []int64 {
	ids := make([]int64, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	if rng != nil {
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}
	return ids
}

// pairConsecutive pairs ids[0] with ids[1], ids[2] with ids[3] and so on.
// Numbering starts after firstNumber so several brackets can share a round.
func pairConsecutive(tournamentID int64, ids []int64, round, firstNumber int, tag func(n int) string) []Match {
	matches := make([]Match, 0, len(ids)/2)
	for i := 0; i+1 < len(ids); i += 2 {
		n := len(matches) + 1
		matches = append(matches, Match{
			TournamentID:    tournamentID,
			Team1ID:         ids[i],
			Team2ID:         ids[i+1],
			RoundNumber:     round,
			MatchNumber:     firstNumber + n,
			BracketPosition: tag(n),
			Status:          MatchScheduled,
		})
	}
	return matches
}

// latestRound returns the highest round number and its matches, sorted by match number.
func latestRound(matches []Match) (int, []Match) {
	round := 0
	for _, m := range matches {
		if m.RoundNumber > round {
			round = m.RoundNumber
		}
	}
	var current []Match
	for _, m := range matches {
		if m.RoundNumber == round {
			current = append(current, m)
		}
	}
	sort.SliceStable(current, func(i, j int) bool {
		return current[i].MatchNumber < current[j].MatchNumber
	})
	return round, current
}

func requireResolved(round int, matches []Match) error {
	for _, m := range matches {
		if !m.Resolved() {
			return fmt.Errorf("%w: round %d match %d", ErrRoundIncomplete, round, m.MatchNumber)
		}
	}
	return nil
}

func roundWinners(matches []Match) []int64 {
	winners := make([]int64, 0, len(matches))
	for _, m := range matches {
		if m.WinnerTeamID != nil {
			winners = append(winners, *m.WinnerTeamID)
		}
	}
	return winners
}

// finalDecided is the completion rule shared by single elimination and FFA: the
// latest round is a single resolved match.
func finalDecided(matches []Match) bool {
	if len(matches) == 0 {
		return false
	}
	_, current := latestRound(matches)
	return len(current) == 1 && current[0].Resolved()
}

type record struct {
	wins, losses, draws    int
	goalsFor, goalsAgainst int
	played                 int
}

// records derives per-team results from the resolved head-to-head matches.
func records(matches []Match) map[int64]*record {
	recs := make(map[int64]*record)
	get := func(id int64) *record {
		r, ok := recs[id]
		if !ok {
			r = &record{}
			recs[id] = r
		}
		return r
	}
	for _, m := range matches {
		if !m.Resolved() {
			continue
		}
		r1, r2 := get(m.Team1ID), get(m.Team2ID)
		r1.played++
		r2.played++
		r1.goalsFor += m.Team1Score
		r1.goalsAgainst += m.Team2Score
		r2.goalsFor += m.Team2Score
		r2.goalsAgainst += m.Team1Score
		switch {
		case m.IsDraw():
			r1.draws++
			r2.draws++
		case m.IsWinner(m.Team1ID):
			r1.wins++
			r2.losses++
		case m.IsWinner(m.Team2ID):
			r2.wins++
			r1.losses++
		}
	}
	return recs
}

func rankTeams(teams []Team, less func(a, b Team) bool) []Team {
	ranked := make([]Team, len(teams))
	copy(ranked, teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	return ranked
}
