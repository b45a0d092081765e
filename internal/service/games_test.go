package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winterdragon/winterdragon/internal/store"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

func TestGameServiceRecordsHumanGames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	games := NewGameService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	alice := tictactoe.Participant{ID: "1", Name: "alice"}
	bob := tictactoe.Participant{ID: "2", Name: "bob"}
	bot := tictactoe.Participant{ID: "bot", Name: "WinterDragon", Bot: true}

	require.NoError(t, games.RecordResult(ctx, &tictactoe.Result{Game: tictactoe.GameName, Player1ID: "1", Player2ID: "2", WinnerID: "1", LoserID: "2"}, alice, bob))
	require.NoError(t, games.RecordResult(ctx, &tictactoe.Result{Game: tictactoe.GameName, Player1ID: "2", Player2ID: "1"}, bob, alice))
	require.NoError(t, games.RecordResult(ctx, &tictactoe.Result{Game: tictactoe.GameName, Player1ID: "1", Player2ID: "bot", WinnerID: "bot", LoserID: "1"}, alice, bot))

	stats, err := games.Stats(ctx, tictactoe.GameName, "1", 5)
	require.NoError(t, err)
	assert.Equal(t, store.Record{Wins: 1, Losses: 0, Draws: 1}, stats.Record, "games against the bot are not counted")
	require.Len(t, stats.Leaderboard, 1)
	assert.Equal(t, "1", stats.Leaderboard[0].UserID)

	u, err := store.NewUserStore(db).GetUser(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
}
