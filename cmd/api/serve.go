package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/lorrc/ticket-insight/internal/adapters/primary/http"
	mw "github.com/lorrc/ticket-insight/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-insight/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-insight/internal/adapters/secondary/events"
	"github.com/lorrc/ticket-insight/internal/adapters/secondary/storage"
	"github.com/lorrc/ticket-insight/internal/core/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Open the store, apply migrations when DB_AUTO_MIGRATE is set, and serve the REST API and event stream until interrupted.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database connection established", "driver", store.Driver)

	if cfg.Database.AutoMigrate {
		if err := store.MigrateUp(); err != nil {
			return err
		}
		logger.Info("database schema is up to date")
	}

	// 2. Real-time fan-out: websocket hub plus optional NATS
	hub := websocket.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	broadcaster := events.NewFanout(hub)
	if cfg.NATS.URL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.App.Name, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		broadcaster = append(broadcaster, publisher)
		logger.Info("publishing ticket events to nats", "subject_prefix", cfg.NATS.SubjectPrefix)
	}

	// 3. Core services
	ticketService := services.NewTicketService(store.Tickets, store.Tx, broadcaster)
	requestLogService := services.NewRequestLogService(store.Requests, store.Tx)

	// 4. Router
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Config:            cfg,
		Logger:            logger,
		TicketService:     ticketService,
		RequestLogService: requestLogService,
		Store:             store,
		Driver:            store.Driver,
		Hub:               hub,
		RateLimiter:       rateLimiter,
	})

	// 5. Serve with graceful shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	stopHub()

	logger.Info("server shutdown complete")
	return nil
}
