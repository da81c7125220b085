package services

import (
	"context"
	"fmt"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

// effectiveAutoPtr is the record override, falling back to the domain policy.
func effectiveAutoPtr(rec *domain.Record, zone *domain.Domain) domain.AutoPtr {
	if rec.AutoPtr != nil {
		return *rec.AutoPtr
	}
	return zone.AutoPtr
}

// syncPTR replaces the PTR records depending on rec with the one its current
// content and policy call for.
func (s *session) syncPTR(ctx context.Context, rec *domain.Record, zone *domain.Domain) error {
	deps, err := s.repo.ListDependentRecords(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to list dependents of %s: %w", rec.ID, err)
	}
	for i := range deps {
		if deps[i].Type != domain.TypePTR {
			continue
		}
		if err := s.deleteRecordTree(ctx, &deps[i], true); err != nil {
			return err
		}
	}

	if rec.Type != domain.TypeA && rec.Type != domain.TypeAAAA {
		return nil
	}
	policy := effectiveAutoPtr(rec, zone)
	if policy != domain.AutoPtrAlways && policy != domain.AutoPtrOnlyIfDomain {
		return nil
	}

	host, zoneName, err := domain.ReversePointer(rec.Content)
	if err != nil {
		return err
	}
	ptrName := host + "." + zoneName

	var reverse *domain.Domain
	switch policy {
	case domain.AutoPtrAlways:
		reverse, err = s.reverseDomain(ctx, zoneName, zone)
	case domain.AutoPtrOnlyIfDomain:
		reverse, err = s.matchingReverseDomain(ctx, zoneName)
	}
	if err != nil {
		return err
	}
	if reverse == nil {
		metrics.PTRRecords.WithLabelValues("skipped").Inc()
		s.log.Debug("no reverse domain for record", "record_id", rec.ID, "reverse_zone", zoneName)
		return nil
	}

	dependsOn := rec.ID
	ptr := &domain.Record{
		DomainID:    reverse.ID,
		Name:        ptrName,
		Type:        domain.TypePTR,
		Content:     rec.Name,
		TTL:         rec.TTL,
		Auth:        true,
		OwnerID:     rec.OwnerID,
		ServiceID:   rec.ServiceID,
		DependsOnID: &dependsOn,
	}
	if err := s.createRecord(ctx, ptr, true); err != nil {
		return fmt.Errorf("failed to create PTR for %s: %w", rec.Name, err)
	}
	metrics.PTRRecords.WithLabelValues("created").Inc()
	return nil
}

// reverseDomain gets or creates the reverse zone for the ALWAYS policy. A new
// zone uses the forward domain's reverse template and never creates PTRs itself.
func (s *session) reverseDomain(ctx context.Context, name string, forward *domain.Domain) (*domain.Domain, error) {
	existing, err := s.repo.GetDomainByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reverse domain %s: %w", name, err)
	}
	if existing != nil {
		return existing, nil
	}
	reverse := &domain.Domain{
		Name:       name,
		Type:       forward.Type,
		TemplateID: forward.ReverseTemplateID,
		AutoPtr:    domain.AutoPtrNever,
		OwnerID:    forward.OwnerID,
		ServiceID:  forward.ServiceID,
	}
	if err := s.createDomain(ctx, reverse); err != nil {
		return nil, fmt.Errorf("failed to create reverse domain %s: %w", name, err)
	}
	return reverse, nil
}

// matchingReverseDomain returns the most specific existing reverse domain, or nil.
func (s *session) matchingReverseDomain(ctx context.Context, name string) (*domain.Domain, error) {
	candidates := domain.MatchingReverseZones(name)
	found, err := s.repo.ListDomainsByNames(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reverse domains: %w", err)
	}
	byName := make(map[string]*domain.Domain, len(found))
	for i := range found {
		byName[found[i].Name] = &found[i]
	}
	for _, c := range candidates {
		if d, ok := byName[c]; ok {
			return d, nil
		}
	}
	return nil, nil
}
