package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-insight/internal/config"
	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.DatabaseConfig{URL: "sqlite::memory:"})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, config.DriverSQLite, store.Driver)
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.MigrateUp())
	require.NoError(t, store.MigrateUp(), "second run is a no-op")

	created, err := store.Tickets.Create(ctx, &domain.Ticket{
		Title:    "Checkout error",
		Category: domain.CategoryBug,
		Priority: domain.PriorityMedium,
		Status:   domain.StatusOpen,
	})
	require.NoError(t, err)

	_, err = store.Requests.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/tickets.db"

	store, err := Open(ctx, config.DatabaseConfig{URL: "sqlite://" + path, MaxOpenConns: 4, MaxIdleConns: 2})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.MigrateUp())

	m, err := store.Migrator()
	require.NoError(t, err)
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestOpen_RejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{URL: "mysql://localhost/db"})
	assert.Error(t, err)
}
