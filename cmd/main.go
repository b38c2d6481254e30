package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/inventory-service/config"
	"github.com/angeloszaimis/inventory-service/internal/database"
	"github.com/angeloszaimis/inventory-service/internal/handler"
	"github.com/angeloszaimis/inventory-service/internal/httpserver"
	"github.com/angeloszaimis/inventory-service/internal/metrics"
	"github.com/angeloszaimis/inventory-service/internal/router"
	"github.com/angeloszaimis/inventory-service/internal/users"
	"github.com/angeloszaimis/inventory-service/pkg/logger"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code. Deferred cleanup has finished by the
// time it returns.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrDatabaseURLMissing) {
			slog.Error("missing database configuration", slog.String("env", config.DatabaseURLEnv))
		} else {
			slog.Error("failed to load config", slog.Any("err", err))
		}
		return 1
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	boot := newBootstrapper(cfg, log)
	pool, err := connectDatabase(ctx, cfg, boot, log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Interrupted before database became available")
			return 0
		}
		log.Error("Failed to prepare database", slog.Any("err", err))
		return 1
	}

	return serve(ctx, cfg, log, boot, pool)
}

// serve runs the API and optional metrics listeners until ctx is done or a
// listener fails. It owns pool and closes it before returning.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, boot *database.Bootstrapper, pool *database.SQLPool) int {
	defer func() {
		if err := pool.Close(); err != nil {
			log.Error("Error closing database pool", slog.Any("err", err))
		}
	}()

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	collector.Start(ctx)

	srv, err := httpserver.New("api", cfg.Server.Address, newAPIHandler(log, pool, collector), log)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return 1
	}

	servers := []*httpserver.Server{srv}
	if cfg.Metrics.Address != "" {
		metricsSrv, err := httpserver.New("metrics", cfg.Metrics.Address, setupMetricsRouter(collector, boot), log)
		if err != nil {
			log.Error("Failed to create metrics server", slog.Any("err", err))
			return 1
		}
		servers = append(servers, metricsSrv)
	}

	srvErrCh := make(chan error, len(servers))
	for _, s := range servers {
		go func() {
			srvErrCh <- s.Start()
		}()
	}

	code := 0
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			code = 1
		}
	}

	for _, s := range servers {
		if err := s.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	}

	return code
}

func newBootstrapper(cfg *config.Config, log *slog.Logger) *database.Bootstrapper {
	limits := database.Limits{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	}
	return database.NewBootstrapper(log, cfg.RetryInterval(), limits)
}

// connectDatabase blocks until the database answers, then applies the
// schema. Nothing listens before it returns.
func connectDatabase(ctx context.Context, cfg *config.Config, boot *database.Bootstrapper, log *slog.Logger) (*database.SQLPool, error) {
	pool, err := boot.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, pool, log); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return pool, nil
}

func newAPIHandler(log *slog.Logger, pool database.Pool, collector *metrics.Collector) http.Handler {
	rt := router.New(log, users.NewHandler(log))
	return handler.NewInventoryHandler(log, pool, rt, collector)
}
