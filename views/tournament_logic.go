package views

import (
	"sort"

	"github.com/winterdragon/winterdragon/internal/bracket"
)

type BracketData struct {
	WBRounds       map[int][]bracket.Match
	WBRoundNums    []int
	LBRounds       map[int][]bracket.Match
	LBRoundNums    []int
	FinalRounds    map[int][]bracket.Match
	FinalRoundNums []int
	TeamMap        map[int64]bracket.Team
}

// PrepareBracketData groups matches by bracket side and round, each round in
// match order. Round robin and FFA matches all land on the winners side.
func PrepareBracketData(teams []bracket.Team, matches []bracket.Match) BracketData {
	teamMap := make(map[int64]bracket.Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}

	data := BracketData{
		WBRounds:    make(map[int][]bracket.Match),
		LBRounds:    make(map[int][]bracket.Match),
		FinalRounds: make(map[int][]bracket.Match),
		TeamMap:     teamMap,
	}

	for _, m := range matches {
		switch m.Side() {
		case bracket.WinnersSide:
			data.WBRoundNums = addToRound(data.WBRounds, data.WBRoundNums, m)
		case bracket.LosersSide:
			data.LBRoundNums = addToRound(data.LBRounds, data.LBRoundNums, m)
		case bracket.FinalsSide:
			data.FinalRoundNums = addToRound(data.FinalRounds, data.FinalRoundNums, m)
		}
	}

	sortRounds(data.WBRounds, data.WBRoundNums)
	sortRounds(data.LBRounds, data.LBRoundNums)
	sortRounds(data.FinalRounds, data.FinalRoundNums)
	return data
}

func addToRound(rounds map[int][]bracket.Match, nums []int, m bracket.Match) []int {
	if _, exists := rounds[m.RoundNumber]; !exists {
		nums = append(nums, m.RoundNumber)
	}
	rounds[m.RoundNumber] = append(rounds[m.RoundNumber], m)
	return nums
}

func sortRounds(rounds map[int][]bracket.Match, roundNums []int) {
	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchNumber < rounds[r][j].MatchNumber
		})
	}
}

// TeamName falls back to a placeholder for ids that are not in the map.
func (d BracketData) TeamName(id int64) string {
	if t, ok := d.TeamMap[id]; ok {
		return t.Name
	}
	return "TBD"
}
