package tictactoe

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const GameName = "tictactoe"

var (
	ErrSessionFull    = errors.New("both seats are taken")
	ErrAlreadySeated  = errors.New("participant already has a seat")
	ErrNotInProgress  = errors.New("game is not in progress")
	ErrNotYourTurn    = errors.New("it is not your turn")
	ErrNotParticipant = errors.New("not a participant in this game")
	ErrGameStarted    = errors.New("game has already started")
	ErrNoBotToMove    = errors.New("current seat is not a bot")
)

type State string

const (
	WaitingForPlayers State = "waiting_for_players"
	InProgress        State = "in_progress"
	XWon              State = "x_won"
	OWon              State = "o_won"
	Drawn             State = "draw"
)

func (s State) Terminal() bool {
	return s == XWon || s == OWon || s == Drawn
}

type Participant struct {
	ID   string
	Name string
	Bot  bool
}

type Move struct {
	Mark          Mark
	Row, Col      int
	ParticipantID string
}

// Result is the persisted outcome of a finished game. WinnerID and LoserID are
// both empty for a draw.
type Result struct {
	ID        int64     `db:"id"`
	Game      string    `db:"game"`
	Player1ID string    `db:"player1_id"`
	Player2ID string    `db:"player2_id"`
	WinnerID  string    `db:"winner_id"`
	LoserID   string    `db:"loser_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *Result) IsDraw() bool {
	return r.WinnerID == "" && r.LoserID == ""
}

type MoveOutcome struct {
	Moves  []Move
	State  State
	Result *Result
}

// Session is a two-seat game. X always moves first. Seats marked as bots are
// played by BestMove as soon as it is their turn after a human move.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu    sync.Mutex
	board Board
	seats [2]*Participant
	turn  Mark
	state State
	moves []Move
}

func NewSession(id uuid.UUID) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		turn:      X,
		state:     WaitingForPlayers,
	}
}

func seatIndex(m Mark) int {
	if m == O {
		return 1
	}
	return 0
}

// Seat gives the participant the first free mark, X before O. Filling the second
// seat starts the game.
func (s *Session) Seat(p Participant) (Mark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != WaitingForPlayers {
		return Empty, ErrGameStarted
	}
	for _, seat := range s.seats {
		if seat != nil && seat.ID == p.ID {
			return Empty, ErrAlreadySeated
		}
	}

	mark := Empty
	for _, m := range []Mark{X, O} {
		if s.seats[seatIndex(m)] == nil {
			mark = m
			break
		}
	}
	if mark == Empty {
		return Empty, ErrSessionFull
	}

	seated := p
	s.seats[seatIndex(mark)] = &seated
	if s.seats[0] != nil && s.seats[1] != nil {
		s.state = InProgress
	}
	return mark, nil
}

// Leave frees a seat before the game starts.
func (s *Session) Leave(participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != WaitingForPlayers {
		return ErrGameStarted
	}
	for i, seat := range s.seats {
		if seat != nil && seat.ID == participantID {
			s.seats[i] = nil
			return nil
		}
	}
	return ErrNotParticipant
}

// Move validates and applies a human move, then lets a bot opponent reply.
// A rejected move leaves the session unchanged.
func (s *Session) Move(participantID string, row, col int) (*MoveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress {
		return nil, ErrNotInProgress
	}
	mark, ok := s.markOf(participantID)
	if !ok {
		return nil, ErrNotParticipant
	}
	if mark != s.turn {
		return nil, ErrNotYourTurn
	}
	if err := s.board.Place(row, col, mark); err != nil {
		return nil, err
	}

	out := &MoveOutcome{}
	s.record(out, Move{Mark: mark, Row: row, Col: col, ParticipantID: participantID})
	if err := s.playBots(out); err != nil {
		return nil, err
	}
	return s.finish(out), nil
}

// BotMove plays for the current seat when it belongs to a bot, which is needed
// when a bot holds X and has to open.
func (s *Session) BotMove() (*MoveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InProgress {
		return nil, ErrNotInProgress
	}
	if seat := s.seats[seatIndex(s.turn)]; seat == nil || !seat.Bot {
		return nil, ErrNoBotToMove
	}

	out := &MoveOutcome{}
	if err := s.playBots(out); err != nil {
		return nil, err
	}
	return s.finish(out), nil
}

func (s *Session) playBots(out *MoveOutcome) error {
	for s.state == InProgress {
		seat := s.seats[seatIndex(s.turn)]
		if seat == nil || !seat.Bot {
			return nil
		}
		row, col, err := BestMove(s.board, s.turn)
		if err != nil {
			return err
		}
		if err := s.board.Place(row, col, s.turn); err != nil {
			return err
		}
		s.record(out, Move{Mark: s.turn, Row: row, Col: col, ParticipantID: seat.ID})
	}
	return nil
}

func (s *Session) record(out *MoveOutcome, mv Move) {
	s.moves = append(s.moves, mv)
	out.Moves = append(out.Moves, mv)

	switch s.board.Outcome() {
	case XWins:
		s.state = XWon
	case OWins:
		s.state = OWon
	case Draw:
		s.state = Drawn
	default:
		s.turn = s.turn.Opponent()
	}
}

func (s *Session) finish(out *MoveOutcome) *MoveOutcome {
	out.State = s.state
	if s.state.Terminal() {
		out.Result = s.result()
	}
	return out
}

func (s *Session) result() *Result {
	x, o := s.seats[0], s.seats[1]
	r := &Result{
		Game:      GameName,
		Player1ID: x.ID,
		Player2ID: o.ID,
		CreatedAt: time.Now().UTC(),
	}
	switch s.state {
	case XWon:
		r.WinnerID, r.LoserID = x.ID, o.ID
	case OWon:
		r.WinnerID, r.LoserID = o.ID, x.ID
	}
	return r
}

func (s *Session) markOf(participantID string) (Mark, bool) {
	for i, seat := range s.seats {
		if seat != nil && seat.ID == participantID {
			if i == 0 {
				return X, true
			}
			return O, true
		}
	}
	return Empty, false
}

func (s *Session) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Turn() Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Player returns the participant holding the given mark.
func (s *Session) Player(m Mark) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != X && m != O {
		return Participant{}, false
	}
	seat := s.seats[seatIndex(m)]
	if seat == nil {
		return Participant{}, false
	}
	return *seat, true
}

func (s *Session) Moves() []Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Move(nil), s.moves...)
}
