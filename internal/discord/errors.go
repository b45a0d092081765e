package discord

import (
	"errors"
	"strings"
	"unicode"

	"github.com/winterdragon/winterdragon/internal/bracket"
	"github.com/winterdragon/winterdragon/internal/lobby"
	"github.com/winterdragon/winterdragon/internal/service"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

var (
	ErrNotOrganizer = errors.New("only the organizer or a server manager can do this")
	ErrNotPlayer    = errors.New("only organizers and players of this tournament can report results")
	ErrUnknownGame  = errors.New("this game is over or no longer exists")
	ErrBadComponent = errors.New("unrecognised button")

	ErrSelfChallenge = errors.New("you cannot challenge yourself")
)

// userErrors are safe to show to whoever triggered them.
var userErrors = []error{
	ErrNotOrganizer,
	ErrNotPlayer,
	ErrUnknownGame,
	ErrBadComponent,
	ErrSelfChallenge,

	service.ErrTournamentNotFound,
	service.ErrNameRequired,
	service.ErrNameTaken,
	service.ErrInvalidTeamSize,
	service.ErrInvalidMaxPlayers,
	service.ErrRegistrationClosed,
	service.ErrAlreadyRegistered,
	service.ErrAlreadySpectating,
	service.ErrNotRegistered,
	service.ErrTournamentFull,
	service.ErrInvalidStatusTransition,
	service.ErrTournamentNotActive,
	service.ErrMatchNotFound,
	service.ErrMatchResolved,
	service.ErrWinnerNotInMatch,
	service.ErrDrawNotAllowed,
	service.ErrScoreMismatch,
	service.ErrUnevenTeams,

	bracket.ErrUnsupportedFormat,
	bracket.ErrInvalidTeamCount,

	lobby.ErrLobbyFull,
	lobby.ErrAlreadyJoined,
	lobby.ErrNotJoined,
	lobby.ErrNotEnoughPlayers,
	lobby.ErrLobbyClosed,
	lobby.ErrNotHost,

	tictactoe.ErrSessionFull,
	tictactoe.ErrAlreadySeated,
	tictactoe.ErrNotInProgress,
	tictactoe.ErrNotYourTurn,
	tictactoe.ErrNotParticipant,
	tictactoe.ErrGameStarted,
	tictactoe.ErrCellTaken,
	tictactoe.ErrOutOfBounds,
}

// userMessage returns the text to show for err and whether err is a known
// validation error.
func userMessage(err error) (string, bool) {
	for _, known := range userErrors {
		if errors.Is(err, known) {
			return capitalize(err.Error()), true
		}
	}
	return "Something went wrong, please try again later.", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return strings.TrimSpace(string(r)) + "."
}
