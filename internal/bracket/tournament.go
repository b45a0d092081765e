package bracket

import (
	"fmt"
	"time"
)

type TournamentStatus string

const (
	TournamentPlanned            TournamentStatus = "planned"
	TournamentRegistrationOpen   TournamentStatus = "registration_open"
	TournamentRegistrationClosed TournamentStatus = "registration_closed"
	TournamentInProgress         TournamentStatus = "in_progress"
	TournamentCompleted          TournamentStatus = "completed"
	TournamentCancelled          TournamentStatus = "cancelled"
)

var statusRank = map[TournamentStatus]int{
	TournamentPlanned:            0,
	TournamentRegistrationOpen:   1,
	TournamentRegistrationClosed: 2,
	TournamentInProgress:         3,
	TournamentCompleted:          4,
}

// Terminal reports whether the tournament accepts no further registrations or results.
func (s TournamentStatus) Terminal() bool {
	return s == TournamentCompleted || s == TournamentCancelled
}

// CanTransitionTo allows forward moves only, plus cancelling any non-terminal tournament.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == TournamentCancelled {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// AcceptsRegistration is true while players may still sign up.
func (s TournamentStatus) AcceptsRegistration() bool {
	return s == TournamentPlanned || s == TournamentRegistrationOpen
}

func (s TournamentStatus) Glyph() string {
	switch s {
	case TournamentPlanned:
		return "📅"
	case TournamentRegistrationOpen:
		return "🟢"
	case TournamentRegistrationClosed:
		return "🔒"
	case TournamentInProgress:
		return "⚔️"
	case TournamentCompleted:
		return "🏆"
	case TournamentCancelled:
		return "❌"
	}
	return "❔"
}

type Format string

const (
	SingleElimination Format = "single_elimination"
	DoubleElimination Format = "double_elimination"
	RoundRobin        Format = "round_robin"
	FreeForAll        Format = "ffa"
)

var Formats = []Format{SingleElimination, DoubleElimination, RoundRobin, FreeForAll}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", &UnsupportedFormatError{Format: Format(s)}
}

func (f Format) Label() string {
	switch f {
	case SingleElimination:
		return "Single Elimination"
	case DoubleElimination:
		return "Double Elimination"
	case RoundRobin:
		return "Round Robin"
	case FreeForAll:
		return "Free For All"
	}
	return fmt.Sprintf("Unknown (%s)", string(f))
}

type Tournament struct {
	ID          int64            `db:"id" json:"id"`
	Name        string           `db:"name" json:"name"`
	Description *string          `db:"description" json:"description,omitempty"`
	Format      Format           `db:"format" json:"format"`
	Status      TournamentStatus `db:"status" json:"status"`
	GuildID     string           `db:"guild_id" json:"guild_id"`
	CreatorID   string           `db:"creator_id" json:"creator_id"`
	MaxPlayers  *int             `db:"max_players" json:"max_players,omitempty"`
	TeamSize    int              `db:"team_size" json:"team_size"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
