package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/config"
	"s3-file-drop/internal/server"
	"s3-file-drop/internal/storage"
)

// startupTimeout bounds the bucket check and database setup.
const startupTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := server.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat, cfg.Env)

	srv, cleanup, err := setup(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup_failed")
		os.Exit(1)
	}
	defer cleanup()

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("driver", cfg.Storage.Driver).
			Str("bucket", cfg.Storage.Bucket).
			Str("version", cfg.Version).
			Str("commit", cfg.Commit).
			Msg("starting")
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting_down")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown_error")
			cleanup()
			os.Exit(1)
		}
		logger.Info().Msg("shutdown_complete")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server_error")
			cleanup()
			os.Exit(1)
		}
	}
}

// setup connects the storage driver and, when DATABASE_URL is set, the
// activity log, then builds the HTTP server. cleanup releases whatever was
// opened and is safe to call more than once.
func setup(cfg *config.Config, logger zerolog.Logger) (*server.Server, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, cleanup, fmt.Errorf("storage: %w", err)
	}

	var activity server.ActivityLog
	if cfg.DatabaseURL != "" {
		db, err := audit.OpenDB(cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("activity log: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })

		logger.Info().Msg("running_migrations")
		if err := audit.RunMigrations(db); err != nil {
			cleanup()
			return nil, cleanup, fmt.Errorf("activity log migrations: %w", err)
		}
		logger.Info().Msg("migrations_complete")
		activity = audit.New(db)
	} else {
		logger.Info().Msg("activity log disabled (DATABASE_URL not set)")
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		Build:          server.BuildInfo{Version: cfg.Version, Commit: cfg.Commit},
		Store:          store,
		Activity:       activity,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowOrigins:   cfg.AllowOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})
	return srv, cleanup, nil
}
