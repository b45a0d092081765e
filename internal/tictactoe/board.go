package tictactoe

import (
	"errors"
	"strings"
)

const Size = 3

var (
	ErrOutOfBounds = errors.New("cell is outside the board")
	ErrCellTaken   = errors.New("cell is already taken")
)

type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	}
	return " "
}

func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

type Outcome int

const (
	Ongoing Outcome = iota
	XWins
	OWins
	Draw
)

// Board is a row-major 3x3 grid. The zero value is an empty board.
type Board [Size][Size]Mark

var lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

func (b *Board) Place(row, col int, m Mark) error {
	if !InBounds(row, col) {
		return ErrOutOfBounds
	}
	if b[row][col] != Empty {
		return ErrCellTaken
	}
	b[row][col] = m
	return nil
}

// Winner returns the mark holding a complete row, column or diagonal, or Empty.
func (b Board) Winner() Mark {
	for _, line := range lines {
		first := b[line[0][0]][line[0][1]]
		if first == Empty {
			continue
		}
		if b[line[1][0]][line[1][1]] == first && b[line[2][0]][line[2][1]] == first {
			return first
		}
	}
	return Empty
}

func (b Board) Full() bool {
	for r := range Size {
		for c := range Size {
			if b[r][c] == Empty {
				return false
			}
		}
	}
	return true
}

// Outcome reports exactly one of Ongoing, XWins, OWins or Draw. A completed line
// takes precedence over a full board.
func (b Board) Outcome() Outcome {
	switch b.Winner() {
	case X:
		return XWins
	case O:
		return OWins
	}
	if b.Full() {
		return Draw
	}
	return Ongoing
}

func (b Board) Count(m Mark) int {
	n := 0
	for r := range Size {
		for c := range Size {
			if b[r][c] == m {
				n++
			}
		}
	}
	return n
}

func (b Board) String() string {
	var sb strings.Builder
	for r := range Size {
		if r > 0 {
			sb.WriteString("\n-+-+-\n")
		}
		for c := range Size {
			if c > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(b[r][c].String())
		}
	}
	return sb.String()
}
