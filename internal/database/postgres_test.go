package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/auth?sslmode=disable", migrateURL("postgres://u:p@db:5432/auth?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/auth", migrateURL("postgresql://u@db/auth"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, entries, "migrations/000001_create_users_and_sessions.up.sql")
	assert.Contains(t, entries, "migrations/000001_create_users_and_sessions.down.sql")
}
