package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	database, err := Open(Memory)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database.DB, "file://../../migrations"))
	// A second run has nothing to apply.
	require.NoError(t, RunMigrations(database.DB, "file://../../migrations"))

	var tables []string
	err = database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'schema_migrations' ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"game_results", "matches", "players", "spectators", "teams", "tournaments", "users"}, tables)

	var fk int
	require.NoError(t, database.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}
