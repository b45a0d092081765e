package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winterdragon/winterdragon/internal/bracket"
	users "github.com/winterdragon/winterdragon/internal/user"
	"github.com/winterdragon/winterdragon/internal/utils"
)

func teamNames(teams []bracket.Team) []string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return names
}

func TestStartTournamentRejectsInvalidTeamCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t, "Cup", bracket.SingleElimination, nil, 1)
	f.register(t, "Cup", 3)

	_, err := f.manager.StartTournament(ctx, guildID, "Cup")
	require.ErrorIs(t, err, bracket.ErrInvalidTeamCount)
	var countErr *bracket.TeamCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 3, countErr.Count)

	data, err := f.manager.GetTournamentData(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentRegistrationOpen, data.Tournament.Status)
	assert.Empty(t, data.Teams)
	assert.Empty(t, data.Matches)
}

func TestStartTournamentWithTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "Duos", bracket.SingleElimination, nil, 2)
	f.register(t, "Duos", 3)
	_, err := f.manager.StartTournament(ctx, guildID, "Duos")
	assert.ErrorIs(t, err, ErrUnevenTeams)

	_, err = f.manager.RegisterPlayer(ctx, guildID, "Duos", user(4))
	require.NoError(t, err)
	started, err := f.manager.StartTournament(ctx, guildID, "Duos")
	require.NoError(t, err)

	assert.Equal(t, bracket.TournamentInProgress, started.Tournament.Status)
	assert.Equal(t, []string{"Team 1", "Team 2"}, teamNames(started.Teams))
	require.Len(t, started.Matches, 1)
	assert.Equal(t, "R1M1", started.Matches[0].BracketPosition)

	data, err := f.manager.GetTournamentData(ctx, started.Tournament.ID)
	require.NoError(t, err)
	perTeam := make(map[int64]int)
	for _, p := range data.Players {
		require.NotNil(t, p.TeamID)
		perTeam[*p.TeamID]++
	}
	assert.Equal(t, map[int64]int{started.Teams[0].ID: 2, started.Teams[1].ID: 2}, perTeam)

	_, err = f.manager.StartTournament(ctx, guildID, "Duos")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSingleEliminationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "Cup", bracket.SingleElimination, nil, 1)
	f.register(t, "Cup", 4)

	started, err := f.manager.StartTournament(ctx, guildID, "Cup")
	require.NoError(t, err)
	require.Len(t, started.Matches, 2)
	id := started.Tournament.ID
	semi1, semi2 := started.Matches[0], started.Matches[1]
	assert.Equal(t, "player1", started.Teams[0].Name)

	t.Run("rejected reports", func(t *testing.T) {
		testCases := []struct {
			name  string
			input ReportInput
			err   error
		}{
			{"draw outside round robin", ReportInput{TournamentID: id, MatchID: semi1.ID}, ErrDrawNotAllowed},
			{"winner from another match", ReportInput{TournamentID: id, MatchID: semi1.ID, WinnerTeamID: &semi2.Team1ID}, ErrWinnerNotInMatch},
			{"unknown team name", ReportInput{TournamentID: id, MatchID: semi1.ID, WinnerName: "nobody"}, ErrWinnerNotInMatch},
			{"unknown match", ReportInput{TournamentID: id, MatchID: 999, WinnerTeamID: &semi1.Team1ID}, ErrMatchNotFound},
			{"unknown tournament", ReportInput{TournamentID: 999, MatchID: semi1.ID, WinnerTeamID: &semi1.Team1ID}, ErrTournamentNotFound},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.manager.ReportResult(ctx, tc.input)
				assert.ErrorIs(t, err, tc.err)
			})
		}
	})

	out, err := f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: semi1.ID, WinnerTeamID: &semi1.Team1ID, Team1Score: 2, Team2Score: 1, ReportedBy: "1"})
	require.NoError(t, err)
	assert.Empty(t, out.NewMatches, "the other semi final is still open")
	assert.False(t, out.Completed)
	assert.Equal(t, bracket.MatchCompleted, out.Match.Status)

	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: semi1.ID, WinnerTeamID: &semi1.Team2ID})
	assert.ErrorIs(t, err, ErrMatchResolved)

	out, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: semi2.ID, WinnerName: "PLAYER4"})
	require.NoError(t, err)
	require.Len(t, out.NewMatches, 1)
	final := out.NewMatches[0]
	assert.Equal(t, "R2M1", final.BracketPosition)
	assert.Equal(t, semi1.Team1ID, final.Team1ID)
	assert.Equal(t, semi2.Team2ID, final.Team2ID)

	out, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: final.ID, WinnerTeamID: &final.Team2ID})
	require.NoError(t, err)
	assert.True(t, out.Completed)
	require.Len(t, out.Standings, 4)
	assert.Equal(t, "player4", out.Standings[0].Name)
	assert.Equal(t, "player1", out.Standings[1].Name)
	assert.Equal(t, 2, out.Standings[0].Wins)

	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: final.ID, WinnerTeamID: &final.Team2ID})
	assert.ErrorIs(t, err, ErrTournamentNotActive)

	data, err := f.manager.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, data.Tournament.Status)
	assert.Nil(t, data.NextMatch())
	assert.Equal(t, teamNames(out.Standings), teamNames(data.Standings))

	assert.Equal(t, []string{
		EventRoundGenerated,
		EventMatchReported,
		EventMatchReported,
		EventRoundGenerated,
		EventMatchReported,
		EventTournamentCompleted,
	}, f.notifier.names())
	require.Equal(t, []int64{id}, f.archiver.ids)
	assert.IsType(t, &TournamentData{}, f.archiver.snapshots[0])
}

func TestRoundRobinFlowAllowsDraws(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "League", bracket.RoundRobin, utils.Ptr(3), 1)
	f.register(t, "League", 3)

	started, err := f.manager.StartTournament(ctx, guildID, "League")
	require.NoError(t, err)
	require.Len(t, started.Matches, 3)
	id := started.Tournament.ID

	// player1-player2, player1-player3, player2-player3
	m := started.Matches
	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m[0].ID, Team1Score: 1, Team2Score: 1})
	require.NoError(t, err)
	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m[1].ID, WinnerTeamID: &m[1].Team2ID, Team1Score: 0, Team2Score: 2})
	require.NoError(t, err)
	out, err := f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m[2].ID, WinnerTeamID: &m[2].Team2ID, Team1Score: 0, Team2Score: 1})
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Empty(t, out.NewMatches)
	assert.Equal(t, []string{"player3", "player2", "player1"}, teamNames(out.Standings), "player2 has the better goal difference")

	teams, err := f.manager.Standings(ctx, id)
	require.NoError(t, err)
	byName := make(map[string]bracket.Team)
	for _, team := range teams {
		byName[team.Name] = team
	}
	assert.Equal(t, 1, byName["player1"].Draws)
	assert.Equal(t, 1, byName["player1"].Losses)
	assert.Equal(t, 2, byName["player3"].Wins)
}

func TestFreeForAllFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "Brawl", bracket.FreeForAll, nil, 1)
	f.register(t, "Brawl", 4)

	started, err := f.manager.StartTournament(ctx, guildID, "Brawl")
	require.NoError(t, err)
	require.Len(t, started.Matches, 1)
	group := started.Matches[0]
	members := bracket.GroupTeamIDs(group)
	require.Len(t, members, 4)

	winner := members[3]
	out, err := f.manager.ReportResult(ctx, ReportInput{TournamentID: started.Tournament.ID, MatchID: group.ID, WinnerTeamID: &winner})
	require.NoError(t, err, "any group member may win, not only the first two")
	assert.True(t, out.Completed)
	assert.Equal(t, winner, out.Standings[0].ID)

	data, err := f.manager.GetTournamentData(ctx, started.Tournament.ID)
	require.NoError(t, err)
	for _, team := range data.Teams {
		if team.ID == winner {
			assert.Equal(t, 1, team.Wins)
		} else {
			assert.Equal(t, 1, team.Losses)
		}
	}
}

func TestDoubleEliminationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "Double", bracket.DoubleElimination, nil, 1)
	f.register(t, "Double", 4)

	started, err := f.manager.StartTournament(ctx, guildID, "Double")
	require.NoError(t, err)
	id := started.Tournament.ID

	pending := started.Matches
	played := 0
	for len(pending) > 0 {
		var next []bracket.Match
		for _, m := range pending {
			out, err := f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m.ID, WinnerTeamID: &m.Team1ID})
			require.NoError(t, err)
			played++
			next = append(next, out.NewMatches...)
			if out.Completed {
				assert.Equal(t, bracket.GrandFinal, m.BracketPosition)
			}
		}
		pending = next
	}

	assert.Equal(t, 6, played, "a four team double elimination bracket plays 2N-2 matches")
	data, err := f.manager.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, data.Tournament.Status)
}

func TestCancelKeepsMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "Cup", bracket.SingleElimination, nil, 1)
	f.register(t, "Cup", 2)

	started, err := f.manager.StartTournament(ctx, guildID, "Cup")
	require.NoError(t, err)
	_, err = f.manager.CancelTournament(ctx, guildID, "Cup")
	require.NoError(t, err)

	data, err := f.manager.GetTournamentData(ctx, started.Tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCancelled, data.Tournament.Status)
	assert.Len(t, data.Matches, 1)
	require.NotNil(t, data.NextMatch())

	m := started.Matches[0]
	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: started.Tournament.ID, MatchID: m.ID, WinnerTeamID: &m.Team1ID})
	assert.ErrorIs(t, err, ErrTournamentNotActive)
}

func TestReportRejectsContradictingScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "League", bracket.RoundRobin, nil, 1)
	f.register(t, "League", 3)

	started, err := f.manager.StartTournament(ctx, guildID, "League")
	require.NoError(t, err)
	id := started.Tournament.ID
	m := started.Matches

	testCases := []struct {
		name  string
		input ReportInput
	}{
		{"draw with unequal scores", ReportInput{TournamentID: id, MatchID: m[0].ID, Team1Score: 5, Team2Score: 0}},
		{"winner with the lower score", ReportInput{TournamentID: id, MatchID: m[1].ID, WinnerTeamID: &m[1].Team1ID, Team1Score: 0, Team2Score: 4}},
		{"winner with a tied score", ReportInput{TournamentID: id, MatchID: m[1].ID, WinnerTeamID: &m[1].Team2ID, Team1Score: 2, Team2Score: 2}},
		{"negative score", ReportInput{TournamentID: id, MatchID: m[2].ID, Team1Score: -1, Team2Score: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.manager.ReportResult(ctx, tc.input)
			assert.ErrorIs(t, err, ErrScoreMismatch)
		})
	}

	data, err := f.manager.GetTournamentData(ctx, id)
	require.NoError(t, err)
	for _, match := range data.Matches {
		assert.Equal(t, bracket.MatchScheduled, match.Status, "rejected reports leave %s untouched", match.BracketPosition)
	}

	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m[0].ID, Team1Score: 3, Team2Score: 3})
	require.NoError(t, err)
	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m[1].ID, WinnerTeamID: &m[1].Team2ID, Team1Score: 1, Team2Score: 4})
	require.NoError(t, err)
	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: id, MatchID: m[2].ID, WinnerTeamID: &m[2].Team1ID})
	require.NoError(t, err, "a winner without scores is accepted")
}

func TestReportWinnerNameIsScopedToMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "Cup", bracket.SingleElimination, nil, 1)
	for i, name := range []string{"sam", "alex", "sam", "jo"} {
		_, err := f.manager.RegisterPlayer(ctx, guildID, "Cup", users.User{ID: fmt.Sprintf("%d", 2000+i), Username: name})
		require.NoError(t, err)
	}

	started, err := f.manager.StartTournament(ctx, guildID, "Cup")
	require.NoError(t, err)
	require.Len(t, started.Matches, 2)
	semi2 := started.Matches[1]

	out, err := f.manager.ReportResult(ctx, ReportInput{TournamentID: started.Tournament.ID, MatchID: semi2.ID, WinnerName: "Sam", Team1Score: 2})
	require.NoError(t, err)
	require.NotNil(t, out.Match.WinnerTeamID)
	assert.Equal(t, semi2.Team1ID, *out.Match.WinnerTeamID)

	semi1 := started.Matches[0]
	_, err = f.manager.ReportResult(ctx, ReportInput{TournamentID: started.Tournament.ID, MatchID: semi1.ID, WinnerName: "jo"})
	assert.ErrorIs(t, err, ErrWinnerNotInMatch, "jo plays in the other semi final")
}
