package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
)

// Authorizer decides whether a user may mutate an entity directly. It holds no
// state of its own: service membership and grants are read on every call.
type Authorizer struct {
	repo ports.OwnershipRepository
}

func NewAuthorizer(repo ports.OwnershipRepository) *Authorizer {
	return &Authorizer{repo: repo}
}

// CanMutate resolves, first match wins: superuser, unrestricted zone (record
// create/update only), direct owner, service owner, per-object authorisation.
//
// zone is the domain a record mutation happens under; pass nil when the
// mutation targets a domain itself.
func (a *Authorizer) CanMutate(ctx context.Context, user *domain.User, target domain.Ownable, action domain.Action, zone *domain.Domain) (bool, error) {
	if isNilOwnable(target) {
		return false, &domain.ConfigurationError{Message: fmt.Sprintf("can't check %s permission without a target", action)}
	}
	if user == nil {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}
	if zone != nil && zone.Unrestricted && (action == domain.ActionCreate || action == domain.ActionUpdate) {
		return true, nil
	}
	if owner := target.Owner(); owner != nil && *owner == user.ID {
		return true, nil
	}
	if svc := target.Service(); svc != nil {
		owners, err := a.repo.ListServiceOwnerIDs(ctx, *svc)
		if err != nil {
			return false, fmt.Errorf("failed to list owners of service %s: %w", *svc, err)
		}
		if slices.Contains(owners, user.ID) {
			return true, nil
		}
	}
	if target.EntityID() != "" {
		granted, err := a.repo.ListAuthorisedUserIDs(ctx, target.Kind(), target.EntityID())
		if err != nil {
			return false, fmt.Errorf("failed to list authorisations: %w", err)
		}
		if slices.Contains(granted, user.ID) {
			return true, nil
		}
	}
	return false, nil
}

func isNilOwnable(o domain.Ownable) bool {
	switch v := o.(type) {
	case nil:
		return true
	case *domain.Domain:
		return v == nil
	case *domain.Record:
		return v == nil
	}
	return false
}
