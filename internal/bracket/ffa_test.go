package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFAGroupSizes(t *testing.T) {
	testCases := []struct {
		teams int
		sizes []int
	}{
		{3, []int{3}},
		{8, []int{8}},
		{9, []int{5, 4}},
		{17, []int{6, 6, 5}},
		{24, []int{8, 8, 8}},
		{25, []int{7, 6, 6, 6}},
	}

	for _, tc := range testCases {
		s, err := NewStrategy(FreeForAll, 1, keepOrder{})
		require.NoError(t, err)

		matches, err := s.GenerateMatches(makeTeams(tc.teams))
		require.NoError(t, err)
		require.Len(t, matches, len(tc.sizes))

		seen := make(map[int64]bool)
		for i, m := range matches {
			members := GroupTeamIDs(m)
			assert.Len(t, members, tc.sizes[i], "%d teams group %d", tc.teams, i+1)
			assert.Equal(t, members[0], m.Team1ID)
			assert.Equal(t, members[1], m.Team2ID)
			assert.Equal(t, i+1, m.MatchNumber)
			for _, id := range members {
				assert.False(t, seen[id])
				seen[id] = true
			}
		}
		assert.Len(t, seen, tc.teams, "every team is placed in a group")
	}
}

func TestFFAAdvance(t *testing.T) {
	s, err := NewStrategy(FreeForAll, 1, keepOrder{})
	require.NoError(t, err)

	teams := makeTeams(9)
	matches, err := s.GenerateMatches(teams)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "FFA_R1G1", matches[0].BracketPosition)
	assert.Equal(t, "FFA_R1G2", matches[1].BracketPosition)

	// The group winner need not be one of the first two members.
	resolve(&matches[0], 5)
	resolve(&matches[1], 9)
	assert.False(t, s.IsTournamentComplete(teams, matches))

	final, err := s.AdvanceToNextRound(matches)
	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, "FFA_R2G1", final[0].BracketPosition)
	assert.Equal(t, []int64{5, 9}, GroupTeamIDs(final[0]))

	matches = append(matches, final...)
	resolve(&matches[2], 9)
	assert.True(t, s.IsTournamentComplete(teams, matches))

	standings := s.Standings(teams, matches)
	assert.Equal(t, int64(9), standings[0].ID)
	assert.Equal(t, int64(5), standings[1].ID)

	scores := Scores(matches)
	assert.Equal(t, FFAScore{Points: 3 + 6, Rounds: 2}, scores[9])
	assert.Equal(t, FFAScore{Points: 3 + 1, Rounds: 2}, scores[5])
	assert.Equal(t, FFAScore{Points: 1, Rounds: 1}, scores[1])

	done, err := s.AdvanceToNextRound(matches)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestFFARegroupsThreeOrMoreWinners(t *testing.T) {
	s, err := NewStrategy(FreeForAll, 1, keepOrder{})
	require.NoError(t, err)

	matches, err := s.GenerateMatches(makeTeams(20))
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for i := range matches {
		resolve(&matches[i], GroupTeamIDs(matches[i])[2])
	}

	next, err := s.AdvanceToNextRound(matches)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Len(t, GroupTeamIDs(next[0]), 3)
	assert.Equal(t, 2, next[0].RoundNumber)
}

func TestFFASingleGroupCompletes(t *testing.T) {
	s, err := NewStrategy(FreeForAll, 1, keepOrder{})
	require.NoError(t, err)

	teams := makeTeams(5)
	matches, err := s.GenerateMatches(teams)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.False(t, s.IsTournamentComplete(teams, matches))

	resolve(&matches[0], 4)
	assert.True(t, s.IsTournamentComplete(teams, matches))
	assert.Equal(t, int64(4), s.Standings(teams, matches)[0].ID)
}
