package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playAgainstEveryReply lets the bot answer every possible opponent line and fails
// if the opponent ever wins.
func playAgainstEveryReply(t *testing.T, b Board, bot, turn Mark) {
	t.Helper()

	switch b.Outcome() {
	case Draw:
		return
	case XWins, OWins:
		require.Equal(t, bot, b.Winner(), "bot lost:\n%s", b.String())
		return
	}

	if turn == bot {
		row, col, err := BestMove(b, bot)
		require.NoError(t, err)
		require.NoError(t, b.Place(row, col, bot))
		playAgainstEveryReply(t, b, bot, turn.Opponent())
		return
	}
	for r := range Size {
		for c := range Size {
			if b[r][c] == Empty {
				next := b
				next[r][c] = turn
				playAgainstEveryReply(t, next, bot, turn.Opponent())
			}
		}
	}
}

func TestBestMoveNeverLoses(t *testing.T) {
	t.Run("bot plays O", func(t *testing.T) {
		playAgainstEveryReply(t, Board{}, O, X)
	})
	t.Run("bot plays X", func(t *testing.T) {
		playAgainstEveryReply(t, Board{}, X, X)
	})
}

func TestOptimalPlayDraws(t *testing.T) {
	for _, first := range []Mark{X, O} {
		t.Run(first.String()+" moves first", func(t *testing.T) {
			var b Board
			turn := first
			for b.Outcome() == Ongoing {
				row, col, err := BestMove(b, turn)
				require.NoError(t, err)
				require.NoError(t, b.Place(row, col, turn))
				turn = turn.Opponent()
			}
			assert.Equal(t, Draw, b.Outcome())
		})
	}
}

func TestBestMove(t *testing.T) {
	testCases := []struct {
		name     string
		board    Board
		player   Mark
		row, col int
	}{
		{"empty board takes the first cell", boardFrom("...", "...", "..."), X, 0, 0},
		{"takes the immediate win", boardFrom("XX.", "OO.", "X.."), O, 1, 2},
		{"blocks the opponent", boardFrom("X..", ".O.", "X.."), O, 1, 0},
		{"X blocks too", boardFrom("OO.", ".X.", "X.."), X, 0, 2},
		// (2,0) forks and (2,1) wins outright; both score +1 so the scan keeps the first.
		{"ties go to the first cell found", boardFrom("XO.", "XO.", "..X"), O, 2, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.board
			row, col, err := BestMove(tc.board, tc.player)
			require.NoError(t, err)
			assert.Equal(t, [2]int{tc.row, tc.col}, [2]int{row, col})
			assert.Equal(t, before, tc.board, "search must not touch the caller's board")
		})
	}
}

func TestBestMoveOnFinishedBoard(t *testing.T) {
	_, _, err := BestMove(boardFrom("XXX", "OO.", "..."), O)
	assert.ErrorIs(t, err, ErrNoMoves)

	_, _, err = BestMove(boardFrom("XOX", "XOO", "OXX"), X)
	assert.ErrorIs(t, err, ErrNoMoves)

	_, _, err = BestMove(Board{}, Empty)
	assert.Error(t, err)
}
