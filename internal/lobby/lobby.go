package lobby

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLobbyFull        = errors.New("lobby is full")
	ErrAlreadyJoined    = errors.New("already in this lobby")
	ErrNotJoined        = errors.New("not in this lobby")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrLobbyClosed      = errors.New("lobby is no longer open")
	ErrNotHost          = errors.New("only the host can start the game")
)

type Status string

const (
	StatusOpen    Status = "open"
	StatusStarted Status = "started"
	StatusClosed  Status = "closed"
)

type Player struct {
	ID   string
	Name string
}

// Lobby collects players for a game before a session exists. Each player holds a
// seat index; joining takes the lowest free seat.
type Lobby struct {
	ID         uuid.UUID
	Game       string
	HostID     string
	MinPlayers int
	MaxPlayers int
	Status     Status
	ExpiresAt  time.Time

	seats []*Player
}

func New(game string, host Player, minPlayers, maxPlayers int, timeout time.Duration, now time.Time) *Lobby {
	l := &Lobby{
		ID:         uuid.New(),
		Game:       game,
		HostID:     host.ID,
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
		Status:     StatusOpen,
		ExpiresAt:  now.Add(timeout),
		seats:      make([]*Player, maxPlayers),
	}
	l.seats[0] = &host
	return l
}

// Join returns the seat the player was given.
func (l *Lobby) Join(p Player, now time.Time) (int, error) {
	if err := l.open(now); err != nil {
		return -1, err
	}
	if l.seatOf(p.ID) >= 0 {
		return -1, ErrAlreadyJoined
	}
	seat := l.lowestFreeSeat()
	if seat < 0 {
		return -1, ErrLobbyFull
	}
	joined := p
	l.seats[seat] = &joined
	return seat, nil
}

// Leave frees the player's seat. The lobby closes once the last player leaves and
// the host role passes to the lowest remaining seat.
func (l *Lobby) Leave(playerID string, now time.Time) error {
	if err := l.open(now); err != nil {
		return err
	}
	seat := l.seatOf(playerID)
	if seat < 0 {
		return ErrNotJoined
	}
	l.seats[seat] = nil

	players := l.Players()
	if len(players) == 0 {
		l.Status = StatusClosed
		return nil
	}
	if playerID == l.HostID {
		l.HostID = players[0].ID
	}
	return nil
}

// Start closes the lobby and returns the players in seat order.
func (l *Lobby) Start(playerID string, now time.Time) ([]Player, error) {
	if err := l.open(now); err != nil {
		return nil, err
	}
	if playerID != l.HostID {
		return nil, ErrNotHost
	}
	players := l.Players()
	if len(players) < l.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	l.Status = StatusStarted
	return players, nil
}

func (l *Lobby) Players() []Player {
	var players []Player
	for _, p := range l.seats {
		if p != nil {
			players = append(players, *p)
		}
	}
	return players
}

func (l *Lobby) Full() bool {
	return l.lowestFreeSeat() < 0
}

func (l *Lobby) Expired(now time.Time) bool {
	return l.Status == StatusOpen && !now.Before(l.ExpiresAt)
}

func (l *Lobby) open(now time.Time) error {
	if l.Status != StatusOpen || l.Expired(now) {
		return ErrLobbyClosed
	}
	return nil
}

func (l *Lobby) seatOf(playerID string) int {
	for i, p := range l.seats {
		if p != nil && p.ID == playerID {
			return i
		}
	}
	return -1
}

func (l *Lobby) lowestFreeSeat() int {
	for i, p := range l.seats {
		if p == nil {
			return i
		}
	}
	return -1
}
