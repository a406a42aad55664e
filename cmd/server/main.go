package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dealerops/invstage/internal/config"
	"github.com/dealerops/invstage/internal/logging"
	"github.com/dealerops/invstage/internal/staging"
	"github.com/dealerops/invstage/internal/store"
	"github.com/dealerops/invstage/internal/web"
)

func main() {
	// Load .env if present (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"skip_flagged", cfg.Pipeline.SkipFlagged,
		"persistence", cfg.Database.URL != "",
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// The staging store is optional; without DATABASE_URL runs are kept
	// only in the in-memory registry.
	var st *store.Store
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		st = store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure staging schema", "error", err)
			os.Exit(1)
		}
		slog.Info("staging store ready")
	}

	service := staging.NewService(cfg.Pipeline, st, slog.Default())
	server := web.NewServer(service, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
