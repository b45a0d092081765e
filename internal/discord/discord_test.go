package discord

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winterdragon/winterdragon/internal/bracket"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/service"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

func TestComponentIDs(t *testing.T) {
	id := uuid.New()

	t.Run("lobby", func(t *testing.T) {
		cid, err := parseComponentID(lobbyButtonID(id, lobbyStart))
		require.NoError(t, err)
		assert.Equal(t, componentID{Prefix: lobbyPrefix, ID: id, Action: lobbyStart}, cid)
	})

	t.Run("board cells round trip", func(t *testing.T) {
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				cid, err := parseComponentID(boardButtonID(id, row, col))
				require.NoError(t, err)
				assert.Equal(t, boardPrefix, cid.Prefix)

				r, c, err := cid.cell()
				require.NoError(t, err)
				assert.Equal(t, [2]int{row, col}, [2]int{r, c})
			}
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"", "ttt", "ttt:not-a-uuid:1", "lobby:" + id.String()} {
			_, err := parseComponentID(raw)
			assert.ErrorIs(t, err, ErrBadComponent, raw)
		}
	})

	t.Run("bad cell", func(t *testing.T) {
		for _, action := range []string{"9", "-1", "x"} {
			_, _, err := componentID{Prefix: boardPrefix, ID: id, Action: action}.cell()
			assert.ErrorIs(t, err, ErrBadComponent, action)
		}
	})
}

func buttons(rows []discordgo.MessageComponent) []discordgo.Button {
	var out []discordgo.Button
	for _, row := range rows {
		for _, c := range row.(discordgo.ActionsRow).Components {
			out = append(out, c.(discordgo.Button))
		}
	}
	return out
}

func TestBoardComponents(t *testing.T) {
	id := uuid.New()
	var board tictactoe.Board
	board[0][0] = tictactoe.X
	board[1][1] = tictactoe.O

	grid := buttons(boardComponents(id, board, false))
	require.Len(t, grid, 9)

	assert.Equal(t, "X", grid[0].Label)
	assert.Equal(t, discordgo.DangerButton, grid[0].Style)
	assert.True(t, grid[0].Disabled)
	assert.Equal(t, "O", grid[4].Label)
	assert.Equal(t, discordgo.PrimaryButton, grid[4].Style)
	assert.True(t, grid[4].Disabled)
	assert.False(t, grid[8].Disabled)
	assert.Equal(t, boardButtonID(id, 2, 2), grid[8].CustomID)

	for _, b := range buttons(boardComponents(id, board, true)) {
		assert.True(t, b.Disabled, "a finished game has no playable cells")
	}
}

func TestLobbyComponents(t *testing.T) {
	now := time.Now()
	l := lobby.New(tictactoe.GameName, lobby.Player{ID: "1", Name: "alice"}, 2, 2, time.Minute, now)

	row := buttons(lobbyComponents(l))
	require.Len(t, row, 3)
	assert.False(t, row[0].Disabled, "join")
	assert.True(t, row[2].Disabled, "start needs a second player")

	_, err := l.Join(lobby.Player{ID: "2", Name: "bob"}, now)
	require.NoError(t, err)

	row = buttons(lobbyComponents(l))
	assert.True(t, row[0].Disabled, "join is disabled once full")
	assert.False(t, row[2].Disabled)
	assert.Equal(t, lobbyButtonID(l.ID, lobbyStart), row[2].CustomID)

	embed := lobbyEmbed(l)
	assert.Contains(t, embed.Description, "alice (host)")
	assert.Contains(t, embed.Description, "bob")
	assert.Contains(t, embed.Footer.Text, "2/2 players")
}

func TestUserMessage(t *testing.T) {
	msg, ok := userMessage(service.ErrTournamentFull)
	assert.True(t, ok)
	assert.Equal(t, "Tournament is full.", msg)

	msg, ok = userMessage(fmt.Errorf("%w: 8 of 8 players", service.ErrTournamentFull))
	assert.True(t, ok)
	assert.Equal(t, "Tournament is full: 8 of 8 players.", msg)

	msg, ok = userMessage(fmt.Errorf("%w: a draw needs equal scores, got 5-0", service.ErrScoreMismatch))
	assert.True(t, ok)
	assert.Equal(t, "Scores do not match the reported result: a draw needs equal scores, got 5-0.", msg)

	_, ok = userMessage(&bracket.TeamCountError{Format: bracket.SingleElimination, Count: 3})
	assert.True(t, ok, "team count errors explain themselves")

	msg, ok = userMessage(errors.New("database is locked"))
	assert.False(t, ok)
	assert.NotContains(t, msg, "database")
}

func TestSubcommandOptions(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "tournament",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "report",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "Spring Cup"},
				{Name: "match", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(7)},
				{Name: "planned", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
			},
		}},
	}

	sub, opts := subcommandOf(data)
	assert.Equal(t, "report", sub)
	assert.Equal(t, "Spring Cup", opts.getString("name"))
	assert.Equal(t, "", opts.getString("winner"))

	n, ok := opts.getInt("match")
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = opts.getInt("score1")
	assert.False(t, ok)
	assert.True(t, opts.getBool("planned"))

	sub, _ = subcommandOf(discordgo.ApplicationCommandInteractionData{Name: "tournament"})
	assert.Empty(t, sub)
}

func TestCanManage(t *testing.T) {
	tournament := &bracket.Tournament{CreatorID: "1"}
	member := func(id string, perms int64) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{User: &discordgo.User{ID: id}, Permissions: perms},
		}}
	}

	assert.True(t, canManage(member("1", 0), tournament))
	assert.True(t, canManage(member("2", discordgo.PermissionManageGuild), tournament))
	assert.False(t, canManage(member("2", discordgo.PermissionSendMessages), tournament))
}

func TestStandingLines(t *testing.T) {
	winner := int64(1)
	matches := []bracket.Match{
		{ID: 1, Team1ID: 1, Team2ID: 2, WinnerTeamID: &winner, Status: bracket.MatchCompleted},
		{ID: 2, Team1ID: 1, Team2ID: 3, Status: bracket.MatchCompleted},
	}
	standings := []bracket.Team{
		{ID: 1, Name: "alice", Wins: 1, Draws: 1},
		{ID: 3, Name: "carol", Draws: 1},
		{ID: 2, Name: "bob", Losses: 1},
	}

	rr := standingLines(bracket.RoundRobin, standings, matches)
	assert.Equal(t, []string{
		"1. alice • 4 pts (1-0-1)",
		"2. carol • 1 pts (0-0-1)",
		"3. bob • 0 pts (0-1-0)",
	}, rr)

	se := standingLines(bracket.SingleElimination, standings, matches)
	assert.Equal(t, "1. alice (1-0-1)", se[0])
}

func TestMatchLine(t *testing.T) {
	names := map[int64]string{1: "alice", 2: "bob", 3: "carol"}
	winner := int64(2)

	line := matchLine(bracket.Match{ID: 4, BracketPosition: "WB_R1M1", Team1ID: 1, Team2ID: 2, WinnerTeamID: &winner, Team1Score: 1, Team2Score: 3, Status: bracket.MatchCompleted}, names)
	assert.Equal(t, "`#4` WB_R1M1: alice vs **bob** (1-3)", line)

	notes := "FFA group: 1,2,3"
	line = matchLine(bracket.Match{ID: 5, BracketPosition: "FFA_R1M1", Team1ID: 1, Team2ID: 2, Notes: &notes}, names)
	assert.Equal(t, "`#5` FFA_R1M1: alice vs bob vs carol", line)
}

func TestBoardEmbed(t *testing.T) {
	session := tictactoe.NewSession(uuid.New())
	_, err := session.Seat(tictactoe.Participant{ID: "1", Name: "alice"})
	require.NoError(t, err)
	_, err = session.Seat(tictactoe.Participant{ID: "2", Name: "bob"})
	require.NoError(t, err)

	embed := boardEmbed(session)
	assert.Equal(t, "alice (X) to move", embed.Description)

	for _, mv := range []struct {
		id       string
		row, col int
	}{{"1", 0, 0}, {"2", 1, 0}, {"1", 0, 1}, {"2", 1, 1}, {"1", 0, 2}} {
		_, err := session.Move(mv.id, mv.row, mv.col)
		require.NoError(t, err)
	}

	embed = boardEmbed(session)
	assert.True(t, strings.HasSuffix(embed.Description, "alice wins!"))
	assert.Equal(t, colorSuccess, embed.Color)
}

func TestTruncate(t *testing.T) {
	short := "a\nb"
	assert.Equal(t, short, truncate(short))

	long := strings.Repeat("0123456789\n", 200)
	out := truncate(long)
	assert.LessOrEqual(t, len(out), 1024)
	assert.True(t, strings.HasSuffix(out, "\n…"))
}
