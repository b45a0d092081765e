package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winterdragon/winterdragon/internal/bracket"
	users "github.com/winterdragon/winterdragon/internal/user"
	"github.com/winterdragon/winterdragon/internal/utils"
)

const testGuildID = "900000000000000001"

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// Every connection to :memory: is a new database.
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func withTx(t *testing.T, db *sqlx.DB, fn func(tx *sqlx.Tx)) {
	t.Helper()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func seedTournament(t *testing.T, db *sqlx.DB, name string, status bracket.TournamentStatus) *bracket.Tournament {
	t.Helper()
	tournament := &bracket.Tournament{
		Name:        name,
		Description: utils.StringOrNil("weekly cup"),
		Format:      bracket.SingleElimination,
		Status:      status,
		GuildID:     testGuildID,
		CreatorID:   "100",
		MaxPlayers:  utils.Ptr(8),
		TeamSize:    1,
	}
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, NewTournamentStore(db).CreateTournament(context.Background(), tx, tournament))
	})
	return tournament
}

func seedTeams(t *testing.T, db *sqlx.DB, tournamentID int64, names ...string) []bracket.Team {
	t.Helper()
	teams := make([]bracket.Team, len(names))
	for i, name := range names {
		teams[i] = bracket.Team{TournamentID: tournamentID, Name: name}
	}
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, NewTournamentStore(db).CreateTeams(context.Background(), tx, teams))
	})
	return teams
}

func TestCreateTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	tournament := seedTournament(t, db, "Test Tournament", bracket.TournamentRegistrationOpen)
	require.NotZero(t, tournament.ID)

	fetched, err := store.GetTournament(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, fetched.ID)
	assert.Equal(t, tournament.Name, fetched.Name)
	assert.Equal(t, "weekly cup", utils.OrZero(fetched.Description))
	assert.Equal(t, bracket.SingleElimination, fetched.Format)
	assert.Equal(t, bracket.TournamentRegistrationOpen, fetched.Status)
	assert.Equal(t, testGuildID, fetched.GuildID)
	assert.Equal(t, 8, utils.OrZero(fetched.MaxPlayers))
	assert.Equal(t, 1, fetched.TeamSize)
	assert.WithinDuration(t, time.Now().UTC(), fetched.CreatedAt, time.Minute)

	_, err = store.GetTournament(context.Background(), tournament.ID+100)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetActiveTournamentByName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	old := seedTournament(t, db, "Friday Cup", bracket.TournamentCompleted)
	current := seedTournament(t, db, "Friday Cup", bracket.TournamentInProgress)
	require.NotEqual(t, old.ID, current.ID)

	withTx(t, db, func(tx *sqlx.Tx) {
		found, err := store.GetActiveTournamentByNameTx(context.Background(), tx, testGuildID, "friday cup")
		require.NoError(t, err)
		assert.Equal(t, current.ID, found.ID)

		_, err = store.GetActiveTournamentByNameTx(context.Background(), tx, "another guild", "Friday Cup")
		assert.ErrorIs(t, err, sql.ErrNoRows)

		require.NoError(t, store.UpdateTournamentStatusTx(context.Background(), tx, current.ID, bracket.TournamentCancelled))
		_, err = store.GetActiveTournamentByNameTx(context.Background(), tx, testGuildID, "Friday Cup")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	list, err := store.GetTournamentsByGuild(context.Background(), testGuildID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, current.ID, list[0].ID)
}

func TestTeamsAndRecords(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	tournament := seedTournament(t, db, "Cup", bracket.TournamentInProgress)
	teams := seedTeams(t, db, tournament.ID, "A", "B")
	require.NotZero(t, teams[0].ID)
	require.NotEqual(t, teams[0].ID, teams[1].ID)

	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.AddTeamRecordTx(context.Background(), tx, teams[0].ID, 1, 0, 0))
		require.NoError(t, store.AddTeamRecordTx(context.Background(), tx, teams[0].ID, 0, 1, 1))
	})

	fetched, err := store.GetTeams(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, "A", fetched[0].Name)
	assert.Equal(t, 1, fetched[0].Wins)
	assert.Equal(t, 1, fetched[0].Losses)
	assert.Equal(t, 1, fetched[0].Draws)
	assert.Zero(t, fetched[1].Wins)
}

func TestCreateMatchesAndReportResult(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	tournament := seedTournament(t, db, "Cup", bracket.TournamentInProgress)
	teams := seedTeams(t, db, tournament.ID, "A", "B", "C", "D")

	notes := "FFA group: 1,2,3"
	matches := []bracket.Match{
		{TournamentID: tournament.ID, Team1ID: teams[0].ID, Team2ID: teams[1].ID, RoundNumber: 1, MatchNumber: 1, BracketPosition: "R1M1", Status: bracket.MatchScheduled},
		{TournamentID: tournament.ID, Team1ID: teams[2].ID, Team2ID: teams[3].ID, RoundNumber: 1, MatchNumber: 2, BracketPosition: "R1M2", Status: bracket.MatchScheduled, Notes: &notes},
	}
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.CreateMatches(context.Background(), tx, matches))
	})
	require.NotZero(t, matches[0].ID)
	require.NotZero(t, matches[1].ID)

	withTx(t, db, func(tx *sqlx.Tx) {
		m, err := store.GetMatchTx(context.Background(), tx, matches[0].ID)
		require.NoError(t, err)
		assert.False(t, m.Resolved())

		m.WinnerTeamID = utils.Ptr(teams[1].ID)
		m.Team1Score, m.Team2Score = 1, 3
		m.Status = bracket.MatchCompleted
		m.ReportedBy = utils.Ptr("100")
		m.CompletedAt = utils.Ptr(time.Now().UTC())
		require.NoError(t, store.UpdateMatchResultTx(context.Background(), tx, m))
	})

	fetched, err := store.GetMatches(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 2)

	assert.Equal(t, "R1M1", fetched[0].BracketPosition)
	require.NotNil(t, fetched[0].WinnerTeamID)
	assert.Equal(t, teams[1].ID, *fetched[0].WinnerTeamID)
	assert.Equal(t, 3, fetched[0].Team2Score)
	assert.Equal(t, bracket.MatchCompleted, fetched[0].Status)
	assert.Equal(t, "100", utils.OrZero(fetched[0].ReportedBy))
	assert.NotNil(t, fetched[0].CompletedAt)

	assert.Nil(t, fetched[1].WinnerTeamID)
	assert.Equal(t, notes, utils.OrZero(fetched[1].Notes))
	assert.Equal(t, bracket.MatchScheduled, fetched[1].Status)
}

func TestUpsertUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewUserStore(db)
	withTx(t, db, func(tx *sqlx.Tx) {
		require.NoError(t, store.UpsertUser(context.Background(), tx, &users.User{ID: "100", Username: "old"}))
		require.NoError(t, store.UpsertUser(context.Background(), tx, &users.User{ID: "100", Username: "new"}))
	})

	user, err := store.GetUser(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "new", user.Username)
}
