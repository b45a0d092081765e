package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/winterdragon/winterdragon/internal/store"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
	users "github.com/winterdragon/winterdragon/internal/user"
)

// GameService persists finished mini-game results and answers stats queries.
type GameService struct {
	db      *sqlx.DB
	results *store.GameResultStore
	users   *store.UserStore
	logger  *slog.Logger
}

func NewGameService(db *sqlx.DB, logger *slog.Logger) *GameService {
	return &GameService{
		db:      db,
		results: store.NewGameResultStore(db),
		users:   store.NewUserStore(db),
		logger:  logger,
	}
}

// RecordResult stores a finished game. Results involving a bot are not kept.
func (s *GameService) RecordResult(ctx context.Context, result *tictactoe.Result, participants ...tictactoe.Participant) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range participants {
		if p.Bot {
			return nil
		}
		if err := s.users.UpsertUser(ctx, tx, &users.User{ID: p.ID, Username: p.Name}); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.results.CreateResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save game result: %w", err)
	}
	s.logger.Info("game result recorded", "game", result.Game, "winner_id", result.WinnerID, "draw", result.IsDraw())
	return nil
}

type PlayerStats struct {
	Record      store.Record
	Leaderboard []store.LeaderboardEntry
}

func (s *GameService) Stats(ctx context.Context, game, userID string, top int) (*PlayerStats, error) {
	record, err := s.results.GetRecord(ctx, game, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	board, err := s.results.Leaderboard(ctx, game, top)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return &PlayerStats{Record: record, Leaderboard: board}, nil
}
