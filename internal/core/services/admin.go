package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
)

// HealthChecker is implemented by adapters that can report their own health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type adminService struct {
	*engine
	checks map[string]HealthChecker
}

// NewAdminService returns ownership administration and bookkeeping operations.
// checks are reported by HealthCheck in addition to the repository.
func NewAdminService(repo ports.Repository, opts Options, checks map[string]HealthChecker) ports.AdminService {
	return &adminService{engine: newEngine(repo, opts), checks: checks}
}

func (a *adminService) CreateService(ctx context.Context, user *domain.User, svc *domain.Service) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	if svc.Name == "" || svc.UID == "" {
		return &domain.ValidationError{Field: "uid", Message: "service name and uid are required"}
	}
	svc.ID = uuid.New().String()
	svc.CreatedAt = a.opts.Now()
	if err := a.repo.CreateService(ctx, svc); err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (a *adminService) AddServiceOwner(ctx context.Context, user *domain.User, owner *domain.ServiceOwner) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	if owner.OwnershipType != domain.OwnershipBusiness && owner.OwnershipType != domain.OwnershipTechnical {
		return &domain.ValidationError{Field: "ownership_type", Message: fmt.Sprintf("unknown ownership type %q", owner.OwnershipType)}
	}
	return a.inTx(ctx, user, func(s *session) error {
		svc, err := s.repo.GetService(ctx, owner.ServiceID)
		if err != nil {
			return fmt.Errorf("failed to load service: %w", err)
		}
		if svc == nil {
			return fmt.Errorf("service %s: %w", owner.ServiceID, domain.ErrNotFound)
		}
		u, err := s.repo.GetUser(ctx, owner.UserID)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if u == nil {
			return fmt.Errorf("user %s: %w", owner.UserID, domain.ErrNotFound)
		}
		owner.CreatedAt = s.now()
		if err := s.repo.AddServiceOwner(ctx, owner); err != nil {
			return fmt.Errorf("failed to add service owner: %w", err)
		}
		return nil
	})
}

func (a *adminService) RemoveServiceOwner(ctx context.Context, user *domain.User, serviceID string, userID string) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	if err := a.repo.RemoveServiceOwner(ctx, serviceID, userID); err != nil {
		return fmt.Errorf("failed to remove service owner: %w", err)
	}
	return nil
}

// GrantAuthorisation lets a user mutate one entity. Superusers and whoever may
// already mutate the entity can grant it.
func (a *adminService) GrantAuthorisation(ctx context.Context, user *domain.User, grant *domain.Authorisation) error {
	if user == nil {
		return domain.ErrPermissionDenied
	}
	if !grant.TargetKind.Valid() {
		return &domain.ValidationError{Field: "target_kind", Message: fmt.Sprintf("unknown target kind %q", grant.TargetKind)}
	}
	return a.inTx(ctx, user, func(s *session) error {
		ref := &domain.DeleteRequest{TargetKind: grant.TargetKind, TargetID: grant.TargetID}
		_, target, err := s.loadDeleteTarget(ctx, ref)
		if err != nil {
			return err
		}
		ok, err := s.policy.auth.CanMutate(ctx, user, target.(domain.Ownable), domain.ActionUpdate, nil)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}
		grant.ID = uuid.New().String()
		grant.CreatedAt = s.now()
		if err := s.repo.CreateAuthorisation(ctx, grant); err != nil {
			return fmt.Errorf("failed to create authorisation: %w", err)
		}
		return nil
	})
}

// SetAcceptance toggles the SEC/SEO acceptance requirements of a domain.
func (a *adminService) SetAcceptance(ctx context.Context, user *domain.User, domainID string, requireSec, requireSeo bool) (*domain.Domain, error) {
	if err := requireSuperuser(user); err != nil {
		return nil, err
	}
	var out *domain.Domain
	err := a.inTx(ctx, user, func(s *session) error {
		d, err := s.repo.GetDomain(ctx, domainID)
		if err != nil {
			return fmt.Errorf("failed to load domain: %w", err)
		}
		if d == nil {
			return fmt.Errorf("domain %s: %w", domainID, domain.ErrNotFound)
		}
		d.RequireSecAcceptance = requireSec
		d.RequireSeoAcceptance = requireSeo
		d.UpdatedAt = s.now()
		if err := s.repo.UpdateDomain(ctx, d); err != nil {
			return fmt.Errorf("failed to update domain: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}

func (a *adminService) SyncAutoTXT(ctx context.Context, user *domain.User, entries []domain.AutoTXT) ([]domain.Record, error) {
	if err := requireSuperuser(user); err != nil {
		return nil, err
	}
	var out []domain.Record
	err := a.inTx(ctx, user, func(s *session) error {
		var err error
		out, err = s.syncAutoTXT(ctx, entries)
		return err
	})
	return out, err
}

func (a *adminService) RecordsForIPs(ctx context.Context, ips []string, types []domain.RecordType) ([]domain.Record, error) {
	return recordsForIPs(ctx, a.repo, ips, types)
}

// ListAuditLogs returns the caller's own audit trail; superusers see everyone's.
func (a *adminService) ListAuditLogs(ctx context.Context, user *domain.User) ([]domain.AuditLog, error) {
	if user == nil {
		return nil, domain.ErrPermissionDenied
	}
	userID := user.ID
	if user.IsSuperuser {
		userID = ""
	}
	return a.repo.GetAuditLogs(ctx, userID)
}

func (a *adminService) HealthCheck(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	results := map[string]error{"postgres": a.repo.Ping(ctx)}
	for name, c := range a.checks {
		results[name] = c.Ping(ctx)
	}
	return results
}
