// Package storage opens the ticket store selected by DATABASE_URL and exposes
// it through the core ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-insight/internal/adapters/secondary/postgres"
	"github.com/lorrc/ticket-insight/internal/adapters/secondary/sqlite"
	"github.com/lorrc/ticket-insight/internal/config"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// Store bundles the repositories and transaction manager of one database.
type Store struct {
	Driver   string
	Tickets  ports.TicketRepository
	Requests ports.APIRequestRepository
	Tx       ports.TransactionManager

	ping     func(ctx context.Context) error
	close    func()
	migrator func() (*migrate.Migrate, error)
}

// Open connects to the database named by cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver, target, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return newPostgresStore(pool, target), nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, target, cfg)
		if err != nil {
			return nil, err
		}
		return newSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func newPostgresStore(pool *pgxpool.Pool, url string) *Store {
	return &Store{
		Driver:   config.DriverPostgres,
		Tickets:  postgres.NewTicketRepository(pool),
		Requests: postgres.NewAPIRequestRepository(pool),
		Tx:       postgres.NewTransactionManager(pool),
		ping:     pool.Ping,
		close:    pool.Close,
		migrator: func() (*migrate.Migrate, error) { return postgres.NewMigrator(url) },
	}
}

func newSQLiteStore(db *sql.DB) *Store {
	return &Store{
		Driver:   config.DriverSQLite,
		Tickets:  sqlite.NewTicketRepository(db),
		Requests: sqlite.NewAPIRequestRepository(db),
		Tx:       sqlite.NewTransactionManager(db),
		ping:     db.PingContext,
		close:    func() { _ = db.Close() },
		migrator: func() (*migrate.Migrate, error) { return sqlite.NewMigrator(db) },
	}
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.close()
}

// Migrator returns a migrate instance over the embedded schema. For SQLite,
// closing it also closes the store.
func (s *Store) Migrator() (*migrate.Migrate, error) {
	return s.migrator()
}

// MigrateUp applies every pending migration. An up-to-date schema is not an error.
func (s *Store) MigrateUp() error {
	m, err := s.Migrator()
	if err != nil {
		return err
	}
	// The SQLite migrator shares the store's connection and is left open.
	if s.Driver == config.DriverPostgres {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
