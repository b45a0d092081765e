package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/winterdragon/winterdragon/internal/bracket"
)

const (
	tournamentColumns = "id, name, description, format, status, guild_id, creator_id, max_players, team_size, created_at"
	teamColumns       = "id, tournament_id, name, wins, losses, draws, created_at"
	matchColumns      = `id, tournament_id, team1_id, team2_id, round_number, match_number, bracket_position,
		winner_team_id, team1_score, team2_score, status, notes, reported_by, completed_at, created_at`

	createTournamentQuery = `
		INSERT INTO tournaments (name, description, format, status, guild_id, creator_id, max_players, team_size)
		VALUES (:name, :description, :format, :status, :guild_id, :creator_id, :max_players, :team_size)
	`
	createTeamQuery = `
		INSERT INTO teams (tournament_id, name) VALUES (:tournament_id, :name)
	`
	createMatchQuery = `
		INSERT INTO matches (tournament_id, team1_id, team2_id, round_number, match_number, bracket_position, status, notes)
		VALUES (:tournament_id, :team1_id, :team2_id, :round_number, :match_number, :bracket_position, :status, :notes)
	`
	updateMatchResultQuery = `
		UPDATE matches SET
		winner_team_id = :winner_team_id,
		team1_score = :team1_score,
		team2_score = :team2_score,
		status = :status,
		reported_by = :reported_by,
		completed_at = :completed_at
		WHERE id = :id
	`
	updateTeamRecordQuery = `
		UPDATE teams SET wins = wins + ?, losses = losses + ?, draws = draws + ? WHERE id = ?
	`
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// CreateTournament inserts the tournament and fills in its generated id.
func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	res, err := tx.NamedExecContext(ctx, createTournamentQuery, tournament)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tournament.ID = id
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (s *TournamentStore) GetTournament(ctx context.Context, id int64) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id int64) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, id int64) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, "SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

// GetActiveTournamentByName finds the non-terminal tournament with this name in a guild.
// Names are matched case-insensitively.
func (s *TournamentStore) GetActiveTournamentByName(ctx context.Context, guildID, name string) (*bracket.Tournament, error) {
	return getActiveTournamentByName(ctx, s.db, guildID, name)
}

func (s *TournamentStore) GetActiveTournamentByNameTx(ctx context.Context, tx *sqlx.Tx, guildID, name string) (*bracket.Tournament, error) {
	return getActiveTournamentByName(ctx, tx, guildID, name)
}

func getActiveTournamentByName(ctx context.Context, q sqlx.QueryerContext, guildID, name string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, `
		SELECT `+tournamentColumns+` FROM tournaments
		WHERE guild_id = ? AND name = ? COLLATE NOCASE AND status NOT IN (?, ?)
		ORDER BY id DESC LIMIT 1`,
		guildID, name, bracket.TournamentCompleted, bracket.TournamentCancelled)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

// GetTournamentsByGuild lists a guild's tournaments, newest first.
func (s *TournamentStore) GetTournamentsByGuild(ctx context.Context, guildID string) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT "+tournamentColumns+" FROM tournaments WHERE guild_id = ? ORDER BY created_at DESC, id DESC", guildID)
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id int64, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

// CreateTeams inserts the teams one by one so each gets its generated id back.
func (s *TournamentStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []bracket.Team) error {
	for i := range teams {
		res, err := tx.NamedExecContext(ctx, createTeamQuery, teams[i])
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		teams[i].ID = id
	}
	return nil
}

func (s *TournamentStore) GetTeams(ctx context.Context, tournamentID int64) ([]bracket.Team, error) {
	return getTeams(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetTeamsTx(ctx context.Context, tx *sqlx.Tx, tournamentID int64) ([]bracket.Team, error) {
	return getTeams(ctx, tx, tournamentID)
}

func getTeams(ctx context.Context, q sqlx.QueryerContext, tournamentID int64) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := sqlx.SelectContext(ctx, q, &teams, "SELECT "+teamColumns+" FROM teams WHERE tournament_id = ? ORDER BY id ASC", tournamentID)
	return teams, err
}

// AddTeamRecordTx adds to a team's counters in place so concurrent reports never overwrite each other.
func (s *TournamentStore) AddTeamRecordTx(ctx context.Context, tx *sqlx.Tx, teamID int64, wins, losses, draws int) error {
	_, err := tx.ExecContext(ctx, updateTeamRecordQuery, wins, losses, draws, teamID)
	return err
}

// CreateMatches inserts the matches one by one so each gets its generated id back.
func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	for i := range matches {
		res, err := tx.NamedExecContext(ctx, createMatchQuery, matches[i])
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		matches[i].ID = id
	}
	return nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID int64) ([]bracket.Match, error) {
	return getMatches(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID int64) ([]bracket.Match, error) {
	return getMatches(ctx, tx, tournamentID)
}

func getMatches(ctx context.Context, q sqlx.QueryerContext, tournamentID int64) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, "SELECT "+matchColumns+" FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_number ASC", tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id int64) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, "SELECT "+matchColumns+" FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) UpdateMatchResultTx(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, updateMatchResultQuery, match)
	return err
}
