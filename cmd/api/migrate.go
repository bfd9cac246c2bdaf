package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/lorrc/ticket-insight/internal/adapters/secondary/storage"
)

var steps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back, or inspect the embedded schema migrations for the store named by DATABASE_URL.`,
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runMigration(migrateDown),
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE:  runMigration(migrateUp),
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			RunE:  runMigration(migrateVersion),
		},
	)

	return cmd
}

// runMigration opens the store, builds a migrator and hands it to action.
func runMigration(action func(cmd *cobra.Command, m *migrate.Migrate) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadEnv()
		if err != nil {
			return err
		}

		store, err := storage.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := store.Migrator()
		if err != nil {
			return err
		}
		defer m.Close()

		logger.Info("running migration command", "command", cmd.Name(), "driver", store.Driver)
		return action(cmd, m)
	}
}

func migrateUp(cmd *cobra.Command, m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return migrateVersion(cmd, m)
}

func migrateDown(cmd *cobra.Command, m *migrate.Migrate) error {
	if steps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return migrateVersion(cmd, m)
}

func migrateVersion(cmd *cobra.Command, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		cmd.Println("no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	cmd.Printf("version %d (dirty: %t)\n", version, dirty)
	return nil
}
