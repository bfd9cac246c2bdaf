package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorrc/ticket-insight/internal/config"
	"github.com/lorrc/ticket-insight/internal/infrastructure/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "api",
		Short: "Ticket & API request tracking service",
		Long:  `Tracks user-reported tickets with automatic classification and records API request metadata for monitoring.`,
		// Running the binary without a subcommand starts the server.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadEnv loads configuration and builds the logger shared by every command.
func loadEnv() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)

	return cfg, logger, nil
}
