package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

// engine is shared by the public services. Every mutation runs through inTx.
type engine struct {
	repo ports.Repository
	opts Options
	log  *slog.Logger
}

func newEngine(repo ports.Repository, opts Options) *engine {
	opts = opts.withDefaults()
	return &engine{repo: repo, opts: opts, log: opts.Logger}
}

// inTx runs fn in one transaction with a session bound to it. Hooks registered
// with session.afterCommit run only once the transaction committed.
func (e *engine) inTx(ctx context.Context, actor *domain.User, fn func(s *session) error) error {
	var hooks []func(context.Context)
	err := e.repo.RunInTx(ctx, func(tx ports.Repository) error {
		s := &session{
			repo:   tx,
			opts:   e.opts,
			log:    e.log,
			actor:  actor,
			policy: NewAcceptancePolicy(tx, e.opts.SecRecordTypes, e.opts.SeoRecordTypes),
		}
		if err := fn(s); err != nil {
			return err
		}
		hooks = s.hooks
		return nil
	})
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

// session carries the acting user and the transaction-bound repository.
type session struct {
	repo   ports.Repository
	opts   Options
	log    *slog.Logger
	actor  *domain.User
	policy *AcceptancePolicy
	hooks  []func(context.Context)
}

func (s *session) now() time.Time { return s.opts.Now() }

func (s *session) afterCommit(h func(context.Context)) {
	s.hooks = append(s.hooks, h)
}

func (s *session) actorID() string {
	if s.actor == nil {
		return ""
	}
	return s.actor.ID
}

// publish queues a change event and the transition metric for after commit.
func (s *session) publish(event domain.ChangeEvent) {
	notifier := s.opts.Notifier
	log := s.log
	s.afterCommit(func(ctx context.Context) {
		metrics.TransitionsTotal.WithLabelValues(string(event.RequestKind), string(domain.StateAccepted)).Inc()
		if notifier == nil {
			return
		}
		if err := notifier.Publish(ctx, event); err != nil {
			metrics.NotifyErrors.Inc()
			log.Warn("failed to publish change event", "request_id", event.RequestID, "kind", event.RequestKind, "error", err)
		}
	})
}

// audit writes one audit row for a terminal transition.
func (s *session) audit(ctx context.Context, action, resourceType, resourceID string, change *domain.Change) error {
	details := "{}"
	if change != nil {
		b, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(b)
	}
	entry := &domain.AuditLog{
		ID:           uuid.New().String(),
		UserID:       s.actorID(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    s.now(),
	}
	if err := s.repo.SaveAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	return nil
}
