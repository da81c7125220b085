// Package events publishes accepted change requests over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "dnsaas:changes"

// RedisNotifier implements ports.ChangeNotifier with Redis PUBLISH.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

var _ ports.ChangeNotifier = (*RedisNotifier)(nil)

func NewRedisNotifier(addr string, password string, db int, channel string) *RedisNotifier {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: rdb, channel: channel}
}

// Publish sends the event as JSON to every subscriber of the channel.
func (n *RedisNotifier) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	return nil
}

// Subscribe decodes events from the channel until ctx is done. Malformed
// messages are logged and skipped.
func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	pubsub := n.client.Subscribe(ctx, n.channel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan domain.ChangeEvent)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("dropping malformed change event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
