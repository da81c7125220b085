// Command dnsaas-watch prints accepted change requests as they are published,
// one JSON object per line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poyrazK/dnsaas/internal/adapters/events"
	"github.com/poyrazK/dnsaas/internal/config"
	"github.com/poyrazK/dnsaas/internal/core/domain"
)

func main() {
	configPath := flag.String("config", os.Getenv("DNSAAS_CONFIG"), "path to the YAML configuration file")
	kind := flag.String("kind", "", "only print changes to this target kind (record or domain)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, domain.EntityKind(*kind), os.Stdout); err != nil {
		log.Fatalf("dnsaas-watch: %v", err)
	}
}

func run(ctx context.Context, configPath string, kind domain.EntityKind, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.RedisEnabled() {
		return errors.New("redis.addr is not configured")
	}
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("unknown target kind %q", kind)
	}

	notifier := events.NewRedisNotifier(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
	defer notifier.Close()

	changes, err := notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", cfg.Redis.Channel, err)
	}
	slog.Info("watching change events", "redis", cfg.Redis.String(), "channel", cfg.Redis.Channel)

	enc := json.NewEncoder(out)
	for ev := range changes {
		if kind != "" && ev.TargetKind != kind {
			continue
		}
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	return nil
}
