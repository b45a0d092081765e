package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/winterdragon/winterdragon/internal/bracket"
)

const (
	selectPlayersQuery = `
		SELECT p.id, p.tournament_id, p.user_id, u.username, p.team_id, p.joined_at
		FROM players p JOIN users u ON u.id = p.user_id
	`
	selectSpectatorsQuery = `
		SELECT s.id, s.tournament_id, s.user_id, u.username, s.joined_at
		FROM spectators s JOIN users u ON u.id = s.user_id
	`
	createPlayerQuery = `
		INSERT INTO players (tournament_id, user_id) VALUES (:tournament_id, :user_id)
	`
	createSpectatorQuery = `
		INSERT INTO spectators (tournament_id, user_id) VALUES (:tournament_id, :user_id)
	`
)

// ParticipantStore keeps track of who plays in and who watches a tournament.
type ParticipantStore struct {
	db *sqlx.DB
}

func NewParticipantStore(db *sqlx.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) AddPlayer(ctx context.Context, tx *sqlx.Tx, player *bracket.Player) error {
	res, err := tx.NamedExecContext(ctx, createPlayerQuery, player)
	if err != nil {
		return err
	}
	player.ID, err = res.LastInsertId()
	return err
}

func (s *ParticipantStore) RemovePlayer(ctx context.Context, tx *sqlx.Tx, tournamentID int64, userID string) (bool, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM players WHERE tournament_id = ? AND user_id = ?", tournamentID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *ParticipantStore) GetPlayers(ctx context.Context, tournamentID int64) ([]bracket.Player, error) {
	return getPlayers(ctx, s.db, tournamentID)
}

func (s *ParticipantStore) GetPlayersTx(ctx context.Context, tx *sqlx.Tx, tournamentID int64) ([]bracket.Player, error) {
	return getPlayers(ctx, tx, tournamentID)
}

func getPlayers(ctx context.Context, q sqlx.QueryerContext, tournamentID int64) ([]bracket.Player, error) {
	var players []bracket.Player
	err := sqlx.SelectContext(ctx, q, &players, selectPlayersQuery+" WHERE p.tournament_id = ? ORDER BY p.id ASC", tournamentID)
	return players, err
}

// CountPlayers returns the number of registered players per tournament id.
func (s *ParticipantStore) CountPlayers(ctx context.Context, tournamentIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return counts, nil
	}
	query, args, err := sqlx.In("SELECT tournament_id, COUNT(*) AS n FROM players WHERE tournament_id IN (?) GROUP BY tournament_id", tournamentIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		TournamentID int64 `db:"tournament_id"`
		N            int   `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.TournamentID] = r.N
	}
	return counts, nil
}

func (s *ParticipantStore) CountPlayersTx(ctx context.Context, tx *sqlx.Tx, tournamentID int64) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM players WHERE tournament_id = ?", tournamentID)
	return n, err
}

func (s *ParticipantStore) IsPlayerTx(ctx context.Context, tx *sqlx.Tx, tournamentID int64, userID string) (bool, error) {
	return exists(ctx, tx, "SELECT EXISTS (SELECT 1 FROM players WHERE tournament_id = ? AND user_id = ?)", tournamentID, userID)
}

func (s *ParticipantStore) AssignTeamTx(ctx context.Context, tx *sqlx.Tx, playerID, teamID int64) error {
	_, err := tx.ExecContext(ctx, "UPDATE players SET team_id = ? WHERE id = ?", teamID, playerID)
	return err
}

func (s *ParticipantStore) AddSpectator(ctx context.Context, tx *sqlx.Tx, spectator *bracket.Spectator) error {
	res, err := tx.NamedExecContext(ctx, createSpectatorQuery, spectator)
	if err != nil {
		return err
	}
	spectator.ID, err = res.LastInsertId()
	return err
}

func (s *ParticipantStore) GetSpectators(ctx context.Context, tournamentID int64) ([]bracket.Spectator, error) {
	var spectators []bracket.Spectator
	err := s.db.SelectContext(ctx, &spectators, selectSpectatorsQuery+" WHERE s.tournament_id = ? ORDER BY s.id ASC", tournamentID)
	return spectators, err
}

func (s *ParticipantStore) IsSpectatorTx(ctx context.Context, tx *sqlx.Tx, tournamentID int64, userID string) (bool, error) {
	return exists(ctx, tx, "SELECT EXISTS (SELECT 1 FROM spectators WHERE tournament_id = ? AND user_id = ?)", tournamentID, userID)
}

func exists(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (bool, error) {
	var found bool
	err := sqlx.GetContext(ctx, q, &found, query, args...)
	return found, err
}
