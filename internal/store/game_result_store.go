package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/winterdragon/winterdragon/internal/tictactoe"
)

const (
	createResultQuery = `
		INSERT INTO game_results (game, player1_id, player2_id, winner_id, loser_id)
		VALUES (:game, :player1_id, :player2_id, :winner_id, :loser_id)
	`
	// Draws are stored with an empty winner and loser.
	recordQuery = `
		SELECT
			COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(CASE WHEN loser_id = ? THEN 1 ELSE 0 END), 0) AS losses,
			COALESCE(SUM(CASE WHEN winner_id = '' AND loser_id = '' THEN 1 ELSE 0 END), 0) AS draws
		FROM game_results
		WHERE game = ? AND (player1_id = ? OR player2_id = ?)
	`
	leaderboardQuery = `
		SELECT winner_id AS user_id, COUNT(*) AS wins
		FROM game_results
		WHERE game = ? AND winner_id != ''
		GROUP BY winner_id
		ORDER BY wins DESC, MIN(created_at) ASC
		LIMIT ?
	`
)

type Record struct {
	Wins   int `db:"wins"`
	Losses int `db:"losses"`
	Draws  int `db:"draws"`
}

type LeaderboardEntry struct {
	UserID string `db:"user_id"`
	Wins   int    `db:"wins"`
}

type GameResultStore struct {
	db *sqlx.DB
}

func NewGameResultStore(db *sqlx.DB) *GameResultStore {
	return &GameResultStore{db: db}
}

func (s *GameResultStore) CreateResult(ctx context.Context, result *tictactoe.Result) error {
	res, err := s.db.NamedExecContext(ctx, createResultQuery, result)
	if err != nil {
		return err
	}
	result.ID, err = res.LastInsertId()
	return err
}

func (s *GameResultStore) GetRecord(ctx context.Context, game, userID string) (Record, error) {
	var rec Record
	err := s.db.GetContext(ctx, &rec, recordQuery, userID, userID, game, userID, userID)
	return rec, err
}

func (s *GameResultStore) Leaderboard(ctx context.Context, game string, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := s.db.SelectContext(ctx, &entries, leaderboardQuery, game, limit)
	return entries, err
}
