package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/dnsaas/internal/adapters/api"
	"github.com/poyrazK/dnsaas/internal/adapters/events"
	"github.com/poyrazK/dnsaas/internal/adapters/repository"
	"github.com/poyrazK/dnsaas/internal/config"
	"github.com/poyrazK/dnsaas/internal/core/services"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("DNSAAS_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("dnsaas: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("could not ping database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	repo := repository.NewPostgresRepository(db)
	opts := services.Options{
		SecRecordTypes: cfg.SecTypes(),
		SeoRecordTypes: cfg.SeoTypes(),
		DefaultTTL:     cfg.Records.DefaultTTL,
		Logger:         logger,
	}
	checks := map[string]services.HealthChecker{}
	if cfg.RedisEnabled() {
		notifier := events.NewRedisNotifier(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		defer notifier.Close()
		if err := notifier.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, change events will be dropped until it recovers", "redis", cfg.Redis.String(), "error", err)
		}
		opts.Notifier = notifier
		checks["redis"] = notifier
	} else {
		logger.Info("redis not configured, change events are disabled")
	}

	handler := api.NewAPIHandler(
		services.NewRequestService(repo, opts),
		services.NewTemplateService(repo, opts),
		services.NewAdminService(repo, opts, checks),
		repo, logger,
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	go reportDBStats(ctx, db)

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           api.MetricsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("management API listening", "addr", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func reportDBStats(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.DBConnectionsActive.Set(float64(db.Stats().InUse))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
