package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-insight/internal/adapters/secondary/sqlite"
	"github.com/lorrc/ticket-insight/internal/config"
)

// newTestDB opens a private migrated in-memory database for one test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath, config.DatabaseConfig{})
	require.NoError(t, err)
	require.NoError(t, sqlite.MigrateUp(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}
