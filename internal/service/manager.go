package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/winterdragon/winterdragon/internal/bracket"
	"github.com/winterdragon/winterdragon/internal/store"
	users "github.com/winterdragon/winterdragon/internal/user"
	"github.com/winterdragon/winterdragon/internal/utils"
)

// Event names sent to the Notifier.
const (
	EventMatchReported       = "MATCH_REPORTED"
	EventRoundGenerated      = "ROUND_GENERATED"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
	EventTournamentCancelled = "TOURNAMENT_CANCELLED"
)

// Notifier receives tournament events after they are committed.
type Notifier interface {
	Notify(tournamentID int64, event string, payload any)
}

// Archiver stores a snapshot of a finished tournament.
type Archiver interface {
	ArchiveTournament(ctx context.Context, tournamentID int64, snapshot any) error
}

// Manager owns tournament registration and drives each tournament through its
// bracket strategy. It is the only writer of tournament, player and spectator rows.
type Manager struct {
	db           *sqlx.DB
	tournaments  *store.TournamentStore
	participants *store.ParticipantStore
	users        *store.UserStore
	logger       *slog.Logger
	notifier     Notifier
	archiver     Archiver
	newShuffler  func() bracket.Shuffler
	locks        *keyedMutex
}

type ManagerOption func(*Manager)

func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

func WithArchiver(a Archiver) ManagerOption {
	return func(m *Manager) { m.archiver = a }
}

// WithShuffler replaces the random source used for seeding and team draws.
func WithShuffler(fn func() bracket.Shuffler) ManagerOption {
	return func(m *Manager) { m.newShuffler = fn }
}

func NewManager(db *sqlx.DB, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		db:           db,
		tournaments:  store.NewTournamentStore(db),
		participants: store.NewParticipantStore(db),
		users:        store.NewUserStore(db),
		logger:       logger,
		newShuffler: func() bracket.Shuffler {
			return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
		},
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateTournamentInput struct {
	GuildID     string
	CreatorID   string
	Name        string
	Description string
	Format      bracket.Format
	MaxPlayers  *int
	TeamSize    int
	// Planned creates the tournament closed for registration until it is opened.
	Planned bool
}

type TournamentListing struct {
	Tournament  bracket.Tournament
	StatusGlyph string
	PlayerCount int
	Capacity    string
}

func (s *Manager) CreateTournament(ctx context.Context, input CreateTournamentInput) (*bracket.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.TeamSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamSize, input.TeamSize)
	}
	if input.MaxPlayers != nil && *input.MaxPlayers < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxPlayers, *input.MaxPlayers)
	}
	if _, err := bracket.NewStrategy(input.Format, 0, nil); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = s.tournaments.GetActiveTournamentByNameTx(ctx, tx, input.GuildID, name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, name)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to check tournament name: %w", err)
	}

	status := bracket.TournamentRegistrationOpen
	if input.Planned {
		status = bracket.TournamentPlanned
	}
	tournament := &bracket.Tournament{
		Name:        name,
		Description: utils.StringOrNil(input.Description),
		Format:      input.Format,
		Status:      status,
		GuildID:     input.GuildID,
		CreatorID:   input.CreatorID,
		MaxPlayers:  input.MaxPlayers,
		TeamSize:    input.TeamSize,
	}
	if err := s.tournaments.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("tournament created", "tournament_id", tournament.ID, "guild_id", tournament.GuildID, "format", tournament.Format)
	return tournament, nil
}

// FindTournament returns the active tournament with this name in the guild.
func (s *Manager) FindTournament(ctx context.Context, guildID, name string) (*bracket.Tournament, error) {
	tournament, err := s.tournaments.GetActiveTournamentByName(ctx, guildID, strings.TrimSpace(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrTournamentNotFound, name)
	}
	return tournament, err
}

func (s *Manager) OpenRegistration(ctx context.Context, guildID, name string) (*bracket.Tournament, error) {
	return s.transition(ctx, guildID, name, bracket.TournamentRegistrationOpen)
}

func (s *Manager) CloseRegistration(ctx context.Context, guildID, name string) (*bracket.Tournament, error) {
	return s.transition(ctx, guildID, name, bracket.TournamentRegistrationClosed)
}

// CancelTournament stops a tournament. Its matches are kept as they are.
func (s *Manager) CancelTournament(ctx context.Context, guildID, name string) (*bracket.Tournament, error) {
	tournament, err := s.transition(ctx, guildID, name, bracket.TournamentCancelled)
	if err != nil {
		return nil, err
	}
	s.notify(tournament.ID, EventTournamentCancelled, tournament)
	return tournament, nil
}

func (s *Manager) transition(ctx context.Context, guildID, name string, next bracket.TournamentStatus) (*bracket.Tournament, error) {
	found, err := s.FindTournament(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, found.ID)
	if err != nil {
		return nil, err
	}
	if !tournament.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, tournament.Status, next)
	}
	if err := s.tournaments.UpdateTournamentStatusTx(ctx, tx, tournament.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("tournament status changed", "tournament_id", tournament.ID, "from", tournament.Status, "to", next)
	tournament.Status = next
	return tournament, nil
}

// RegisterPlayer signs a user up as a player. The user row is created or refreshed
// on the way.
func (s *Manager) RegisterPlayer(ctx context.Context, guildID, name string, user users.User) (*bracket.Player, error) {
	found, err := s.FindTournament(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, found.ID)
	if err != nil {
		return nil, err
	}
	if !tournament.Status.AcceptsRegistration() {
		return nil, fmt.Errorf("%w: %s is %s", ErrRegistrationClosed, tournament.Name, tournament.Status)
	}
	if err := s.checkNotRegistered(ctx, tx, tournament.ID, user.ID); err != nil {
		return nil, err
	}
	if tournament.MaxPlayers != nil {
		count, err := s.participants.CountPlayersTx(ctx, tx, tournament.ID)
		if err != nil {
			return nil, err
		}
		if count >= *tournament.MaxPlayers {
			return nil, fmt.Errorf("%w: %d/%d", ErrTournamentFull, count, *tournament.MaxPlayers)
		}
	}

	if err := s.users.UpsertUser(ctx, tx, &user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	player := &bracket.Player{
		TournamentID: tournament.ID,
		UserID:       user.ID,
		Username:     user.Username,
		JoinedAt:     time.Now().UTC(),
	}
	if err := s.participants.AddPlayer(ctx, tx, player); err != nil {
		return nil, fmt.Errorf("failed to add player: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("player registered", "tournament_id", tournament.ID, "user_id", user.ID)
	return player, nil
}

func (s *Manager) RegisterSpectator(ctx context.Context, guildID, name string, user users.User) (*bracket.Spectator, error) {
	found, err := s.FindTournament(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, found.ID)
	if err != nil {
		return nil, err
	}
	if tournament.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrRegistrationClosed, tournament.Name, tournament.Status)
	}
	if err := s.checkNotRegistered(ctx, tx, tournament.ID, user.ID); err != nil {
		return nil, err
	}

	if err := s.users.UpsertUser(ctx, tx, &user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	spectator := &bracket.Spectator{
		TournamentID: tournament.ID,
		UserID:       user.ID,
		Username:     user.Username,
		JoinedAt:     time.Now().UTC(),
	}
	if err := s.participants.AddSpectator(ctx, tx, spectator); err != nil {
		return nil, fmt.Errorf("failed to add spectator: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("spectator registered", "tournament_id", tournament.ID, "user_id", user.ID)
	return spectator, nil
}

// A user is a player or a spectator of a tournament, never both.
func (s *Manager) checkNotRegistered(ctx context.Context, tx *sqlx.Tx, tournamentID int64, userID string) error {
	isPlayer, err := s.participants.IsPlayerTx(ctx, tx, tournamentID, userID)
	if err != nil {
		return err
	}
	if isPlayer {
		return ErrAlreadyRegistered
	}
	isSpectator, err := s.participants.IsSpectatorTx(ctx, tx, tournamentID, userID)
	if err != nil {
		return err
	}
	if isSpectator {
		return ErrAlreadySpectating
	}
	return nil
}

// WithdrawPlayer removes a player before the tournament starts.
func (s *Manager) WithdrawPlayer(ctx context.Context, guildID, name, userID string) error {
	found, err := s.FindTournament(ctx, guildID, name)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, found.ID)
	if err != nil {
		return err
	}
	if !tournament.Status.CanTransitionTo(bracket.TournamentInProgress) {
		return fmt.Errorf("%w: %s is %s", ErrRegistrationClosed, tournament.Name, tournament.Status)
	}
	removed, err := s.participants.RemovePlayer(ctx, tx, tournament.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}
	if !removed {
		return ErrNotRegistered
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("player withdrew", "tournament_id", tournament.ID, "user_id", userID)
	return nil
}

func (s *Manager) ListTournaments(ctx context.Context, guildID string) ([]TournamentListing, error) {
	tournaments, err := s.tournaments.GetTournamentsByGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	ids := make([]int64, len(tournaments))
	for i, t := range tournaments {
		ids[i] = t.ID
	}
	counts, err := s.participants.CountPlayers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}

	listings := make([]TournamentListing, len(tournaments))
	for i, t := range tournaments {
		listings[i] = TournamentListing{
			Tournament:  t,
			StatusGlyph: t.Status.Glyph(),
			PlayerCount: counts[t.ID],
			Capacity:    capacityLabel(counts[t.ID], t.MaxPlayers),
		}
	}
	return listings, nil
}

func capacityLabel(count int, max *int) string {
	limit := "∞"
	if max != nil {
		limit = strconv.Itoa(*max)
	}
	return strconv.Itoa(count) + "/" + limit
}

func (s *Manager) notify(tournamentID int64, event string, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(tournamentID, event, payload)
}
