package service

import "errors"

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrNameRequired            = errors.New("tournament name is required")
	ErrNameTaken               = errors.New("an active tournament with this name already exists")
	ErrInvalidTeamSize         = errors.New("team size must be at least 1")
	ErrInvalidMaxPlayers       = errors.New("max players must be at least 2")
	ErrRegistrationClosed      = errors.New("registration is closed")
	ErrAlreadyRegistered       = errors.New("already registered as a player")
	ErrAlreadySpectating       = errors.New("already registered as a spectator")
	ErrNotRegistered           = errors.New("not registered as a player")
	ErrTournamentFull          = errors.New("tournament is full")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTournamentNotActive     = errors.New("tournament is not in progress")
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchResolved           = errors.New("match already has a result")
	ErrWinnerNotInMatch        = errors.New("winner did not play in this match")
	ErrDrawNotAllowed          = errors.New("draws are only allowed in round robin")
	ErrScoreMismatch           = errors.New("scores do not match the reported result")
	ErrUnevenTeams             = errors.New("players cannot be split into full teams")
)
