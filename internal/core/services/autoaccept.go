package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
)

// AcceptancePolicy decides whether a request may be applied without review.
type AcceptancePolicy struct {
	repo ports.Repository
	auth *Authorizer
	sec  []domain.RecordType
	seo  []domain.RecordType
}

func NewAcceptancePolicy(repo ports.Repository, sec, seo []domain.RecordType) *AcceptancePolicy {
	if len(sec) == 0 {
		sec = DefaultSecRecordTypes
	}
	if len(seo) == 0 {
		seo = DefaultSeoRecordTypes
	}
	return &AcceptancePolicy{repo: repo, auth: NewAuthorizer(repo), sec: sec, seo: seo}
}

// CanAutoAcceptRecord decides create and update record requests.
func (p *AcceptancePolicy) CanAutoAcceptRecord(ctx context.Context, user *domain.User, req *domain.RecordRequest, action domain.Action) (bool, error) {
	zone, err := p.repo.GetDomain(ctx, req.DomainID)
	if err != nil {
		return false, fmt.Errorf("failed to load domain: %w", err)
	}
	if zone == nil {
		return false, &domain.ConfigurationError{Message: "record request has no domain"}
	}
	ok, err := p.auth.CanMutate(ctx, user, zone, action, zone)
	if err != nil || !ok {
		return false, err
	}
	if action == domain.ActionUpdate {
		if req.RecordID == nil {
			return false, &domain.ConfigurationError{Message: "update request has no record"}
		}
		rec, err := p.repo.GetRecord(ctx, *req.RecordID)
		if err != nil {
			return false, fmt.Errorf("failed to load record: %w", err)
		}
		if ok, err = p.auth.CanMutate(ctx, user, rec, action, zone); err != nil || !ok {
			return false, err
		}
	}
	gated, err := p.gated(ctx, user, p.sec, zone.RequireSecAcceptance, req.Type, zone)
	if err != nil {
		return false, err
	}
	return !gated, nil
}

// CanAutoAcceptDelete decides delete requests for both records and domains.
func (p *AcceptancePolicy) CanAutoAcceptDelete(ctx context.Context, user *domain.User, req *domain.DeleteRequest) (bool, error) {
	switch req.TargetKind {
	case domain.KindDomain:
		d, err := p.repo.GetDomain(ctx, req.TargetID)
		if err != nil {
			return false, fmt.Errorf("failed to load domain: %w", err)
		}
		return p.auth.CanMutate(ctx, user, d, domain.ActionDelete, nil)
	case domain.KindRecord:
		rec, err := p.repo.GetRecord(ctx, req.TargetID)
		if err != nil {
			return false, fmt.Errorf("failed to load record: %w", err)
		}
		if rec == nil {
			return false, &domain.ConfigurationError{Message: "delete request has no record"}
		}
		zone, err := p.repo.GetDomain(ctx, rec.DomainID)
		if err != nil {
			return false, fmt.Errorf("failed to load domain: %w", err)
		}
		ok, err := p.auth.CanMutate(ctx, user, zone, domain.ActionDelete, zone)
		if err != nil || !ok {
			return false, err
		}
		if ok, err = p.auth.CanMutate(ctx, user, rec, domain.ActionDelete, zone); err != nil || !ok {
			return false, err
		}
		gated, err := p.gated(ctx, user, p.seo, zone.RequireSeoAcceptance, rec.Type, zone)
		if err != nil {
			return false, err
		}
		return !gated, nil
	}
	return false, &domain.ConfigurationError{Message: fmt.Sprintf("unknown delete target kind %q", req.TargetKind)}
}

// CanAutoAcceptDomain decides domain create and update requests. Creating a
// top-level domain is reserved to superusers; a subdomain may be created by
// anyone allowed to mutate its parent.
func (p *AcceptancePolicy) CanAutoAcceptDomain(ctx context.Context, user *domain.User, req *domain.DomainRequest, action domain.Action) (bool, error) {
	if user != nil && user.IsSuperuser {
		return true, nil
	}
	var target *domain.Domain
	var err error
	switch action {
	case domain.ActionCreate:
		if req.ParentDomainID == nil {
			return false, nil
		}
		target, err = p.repo.GetDomain(ctx, *req.ParentDomainID)
	case domain.ActionUpdate:
		if req.DomainID == nil {
			return false, &domain.ConfigurationError{Message: "update request has no domain"}
		}
		target, err = p.repo.GetDomain(ctx, *req.DomainID)
	default:
		return false, &domain.ConfigurationError{Message: fmt.Sprintf("unsupported domain action %q", action)}
	}
	if err != nil {
		return false, fmt.Errorf("failed to load domain: %w", err)
	}
	return p.auth.CanMutate(ctx, user, target, action, nil)
}

// gated reports whether an acceptance gate applies: the user is not a
// superuser, the type is sensitive, the domain is public (no template or a
// public template) and the domain requires acceptance.
func (p *AcceptancePolicy) gated(ctx context.Context, user *domain.User, types []domain.RecordType, required bool, t domain.RecordType, zone *domain.Domain) (bool, error) {
	if user != nil && user.IsSuperuser {
		return false, nil
	}
	if !required || !slices.Contains(types, domain.NormalizeType(t)) {
		return false, nil
	}
	if zone.TemplateID != nil {
		tpl, err := p.repo.GetDomainTemplate(ctx, *zone.TemplateID)
		if err != nil {
			return false, fmt.Errorf("failed to load domain template: %w", err)
		}
		if tpl != nil && !tpl.IsPublicDomain {
			return false, nil
		}
	}
	return true, nil
}
