package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
)

// nextChangeDate returns the current unix time, or prev+1 when the clock has
// not moved past prev. change_date never goes backwards.
func (s *session) nextChangeDate(prev int64) int64 {
	return max(s.now().Unix(), prev+1)
}

// bumpSerial moves the SOA change_date of a domain forward after one of its
// records changed. Domains without an SOA record are left alone.
func (s *session) bumpSerial(ctx context.Context, domainID, changedID string) error {
	records, err := s.repo.ListRecordsForDomain(ctx, domainID)
	if err != nil {
		return fmt.Errorf("failed to list records for serial update: %w", err)
	}
	for i := range records {
		soa := &records[i]
		if soa.Type != domain.TypeSOA || soa.ID == changedID {
			continue
		}
		soa.ChangeDate = s.nextChangeDate(soa.ChangeDate)
		soa.UpdatedAt = s.now()
		if err := s.repo.UpdateRecord(ctx, soa); err != nil {
			return fmt.Errorf("failed to update SOA serial: %w", err)
		}
	}
	return nil
}

// containingDomain returns the longest existing domain that name belongs to.
func (s *session) containingDomain(ctx context.Context, name string) (*domain.Domain, error) {
	labels := strings.Split(name, ".")
	candidates := make([]string, 0, len(labels))
	for i := range labels {
		candidates = append(candidates, strings.Join(labels[i:], "."))
	}
	found, err := s.repo.ListDomainsByNames(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to look up domains for %s: %w", name, err)
	}
	var best *domain.Domain
	for i := range found {
		if best == nil || len(found[i].Name) > len(best.Name) {
			best = &found[i]
		}
	}
	return best, nil
}

// syncAutoTXT upserts TXT records keyed by (name, subtype).
func (s *session) syncAutoTXT(ctx context.Context, entries []domain.AutoTXT) ([]domain.Record, error) {
	var out []domain.Record
	for _, e := range entries {
		name := domain.NormalizeName(e.Name)
		zone, err := s.containingDomain(ctx, name)
		if err != nil {
			return nil, err
		}
		if zone == nil {
			s.log.Info("skipping auto TXT without a domain", "name", name, "subtype", e.Subtype)
			continue
		}
		existing, err := s.repo.ListRecordsByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to list records named %s: %w", name, err)
		}
		idx := slices.IndexFunc(existing, func(r domain.Record) bool {
			return r.Type == domain.TypeTXT && r.Subtype == e.Subtype && r.DomainID == zone.ID
		})
		if idx >= 0 {
			rec := existing[idx]
			if rec.Content != e.Content {
				rec.Content = e.Content
				if err := s.updateRecord(ctx, &rec); err != nil {
					return nil, err
				}
			}
			out = append(out, rec)
			continue
		}
		rec := domain.Record{
			DomainID: zone.ID,
			Name:     name,
			Type:     domain.TypeTXT,
			Content:  e.Content,
			Auth:     true,
			Subtype:  e.Subtype,
			OwnerID:  zone.OwnerID,
		}
		if err := s.createRecord(ctx, &rec, false); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// recordsForIPs collects the records describing a set of addresses: the A
// records themselves, CNAMEs and TXTs at their names and PTRs at their reverse
// names. A non-empty types list filters the result.
func recordsForIPs(ctx context.Context, repo ports.RecordRepository, ips []string, types []domain.RecordType) ([]domain.Record, error) {
	if len(ips) == 0 {
		return nil, nil
	}
	want := func(t domain.RecordType) bool { return len(types) == 0 || slices.Contains(types, t) }

	aRecords, err := repo.ListRecordsByContent(ctx, domain.TypeA, ips)
	if err != nil {
		return nil, fmt.Errorf("failed to list A records: %w", err)
	}
	names := make([]string, 0, len(aRecords))
	for _, r := range aRecords {
		names = append(names, r.Name)
	}
	var reverse []string
	for _, ip := range ips {
		rn, err := domain.ReverseName(ip)
		if err != nil {
			return nil, err
		}
		reverse = append(reverse, rn)
	}

	var out []domain.Record
	if want(domain.TypeA) {
		out = append(out, aRecords...)
	}
	if len(names) > 0 {
		if want(domain.TypeCNAME) {
			cnames, err := repo.ListRecordsByContent(ctx, domain.TypeCNAME, names)
			if err != nil {
				return nil, fmt.Errorf("failed to list CNAME records: %w", err)
			}
			out = append(out, cnames...)
		}
		if want(domain.TypeTXT) {
			txts, err := repo.ListRecordsByNames(ctx, domain.TypeTXT, names)
			if err != nil {
				return nil, fmt.Errorf("failed to list TXT records: %w", err)
			}
			out = append(out, txts...)
		}
	}
	if want(domain.TypePTR) {
		ptrs, err := repo.ListRecordsByNames(ctx, domain.TypePTR, reverse)
		if err != nil {
			return nil, fmt.Errorf("failed to list PTR records: %w", err)
		}
		out = append(out, ptrs...)
	}
	return out, nil
}
