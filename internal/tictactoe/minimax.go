package tictactoe

import "errors"

var ErrNoMoves = errors.New("no moves left on the board")

const (
	scoreOWin = 1
	scoreXWin = -1
	scoreDraw = 0
)

// BestMove searches the full game tree with alpha-beta pruning. O maximizes and X
// minimizes. Cells are scanned row-major and only a strictly better score replaces
// the current pick, so ties go to the first cell found.
func BestMove(b Board, player Mark) (row, col int, err error) {
	if player != X && player != O {
		return 0, 0, errors.New("player must be X or O")
	}
	if b.Outcome() != Ongoing {
		return 0, 0, ErrNoMoves
	}

	maximizing := player == O
	best := scoreXWin - 1
	if !maximizing {
		best = scoreOWin + 1
	}
	alpha, beta := scoreXWin-1, scoreOWin+1
	row, col = -1, -1

	for r := range Size {
		for c := range Size {
			if b[r][c] != Empty {
				continue
			}
			b[r][c] = player
			score := minimax(&b, player.Opponent(), alpha, beta)
			b[r][c] = Empty

			if maximizing && score > best {
				best, row, col = score, r, c
				alpha = max(alpha, score)
			} else if !maximizing && score < best {
				best, row, col = score, r, c
				beta = min(beta, score)
			}
		}
	}
	return row, col, nil
}

func minimax(b *Board, turn Mark, alpha, beta int) int {
	switch b.Outcome() {
	case OWins:
		return scoreOWin
	case XWins:
		return scoreXWin
	case Draw:
		return scoreDraw
	}

	if turn == O {
		best := scoreXWin - 1
		for r := range Size {
			for c := range Size {
				if b[r][c] != Empty {
					continue
				}
				b[r][c] = O
				best = max(best, minimax(b, X, alpha, beta))
				b[r][c] = Empty
				alpha = max(alpha, best)
				if alpha >= beta {
					return best
				}
			}
		}
		return best
	}

	best := scoreOWin + 1
	for r := range Size {
		for c := range Size {
			if b[r][c] != Empty {
				continue
			}
			b[r][c] = X
			best = min(best, minimax(b, O, alpha, beta))
			b[r][c] = Empty
			beta = min(beta, best)
			if alpha >= beta {
				return best
			}
		}
	}
	return best
}
