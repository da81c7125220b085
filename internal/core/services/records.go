package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsaas/internal/core/domain"
)

// normalizeRecord lower-cases the name, upper-cases the type and fills defaults.
func (s *session) normalizeRecord(rec *domain.Record) {
	rec.Name = domain.NormalizeName(rec.Name)
	rec.Type = domain.NormalizeType(rec.Type)
	if rec.TTL <= 0 {
		rec.TTL = s.opts.DefaultTTL
	}
}

// validateRecord checks content and, unless skipped, CNAME exclusivity.
func (s *session) validateRecord(ctx context.Context, rec *domain.Record, checkConflicts bool) error {
	s.normalizeRecord(rec)
	if err := domain.ValidateRecordContent(rec.Type, rec.Name, rec.Content); err != nil {
		return err
	}
	if !checkConflicts {
		return nil
	}
	sameName, err := s.repo.ListRecordsByName(ctx, rec.Name)
	if err != nil {
		return fmt.Errorf("failed to list records named %s: %w", rec.Name, err)
	}
	if ids := domain.Conflicts(rec.Type, rec.ID, sameName); len(ids) > 0 {
		return domain.ConflictError(rec.Type, ids)
	}
	return nil
}

// domainField loads a domain named by the caller. Unknown ids are the
// caller's mistake and fail validation on field.
func (s *session) domainField(ctx context.Context, field, id string) (*domain.Domain, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: field, Message: "domain id is required"}
	}
	d, err := s.repo.GetDomain(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain %s: %w", id, err)
	}
	if d == nil {
		return nil, &domain.ValidationError{Field: field, Message: fmt.Sprintf("domain %s does not exist", id)}
	}
	return d, nil
}

// loadDomain loads a domain referenced by stored data. A dangling id there
// means the database is inconsistent.
func (s *session) loadDomain(ctx context.Context, id string) (*domain.Domain, error) {
	d, err := s.repo.GetDomain(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain %s: %w", id, err)
	}
	if d == nil {
		return nil, &domain.ConfigurationError{Message: fmt.Sprintf("domain %s does not exist", id)}
	}
	return d, nil
}

// createRecord validates and persists a new record, then maintains its PTR and
// the domain serial. Derived records (PTRs) skip conflict checks.
func (s *session) createRecord(ctx context.Context, rec *domain.Record, derived bool) error {
	if err := s.validateRecord(ctx, rec, !derived); err != nil {
		return err
	}
	zone, err := s.loadDomain(ctx, rec.DomainID)
	if err != nil {
		return err
	}
	now := s.now()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.ChangeDate = s.nextChangeDate(rec.ChangeDate)
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	if rec.Type == domain.TypeA || rec.Type == domain.TypeAAAA {
		if err := s.syncPTR(ctx, rec, zone); err != nil {
			return err
		}
	}
	return s.bumpSerial(ctx, rec.DomainID, rec.ID)
}

func (s *session) updateRecord(ctx context.Context, rec *domain.Record) error {
	if err := s.validateRecord(ctx, rec, true); err != nil {
		return err
	}
	zone, err := s.loadDomain(ctx, rec.DomainID)
	if err != nil {
		return err
	}
	rec.UpdatedAt = s.now()
	rec.ChangeDate = s.nextChangeDate(rec.ChangeDate)
	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}
	if err := s.syncPTR(ctx, rec, zone); err != nil {
		return err
	}
	return s.bumpSerial(ctx, rec.DomainID, rec.ID)
}

// deleteRecord removes a record together with everything depending on it.
func (s *session) deleteRecord(ctx context.Context, rec *domain.Record) error {
	return s.deleteRecordTree(ctx, rec, true)
}

func (s *session) deleteRecordTree(ctx context.Context, rec *domain.Record, bump bool) error {
	deps, err := s.repo.ListDependentRecords(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to list dependents of %s: %w", rec.ID, err)
	}
	for i := range deps {
		if err := s.deleteRecordTree(ctx, &deps[i], true); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteRecord(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", rec.ID, err)
	}
	if !bump || rec.Type == domain.TypeSOA {
		return nil
	}
	return s.bumpSerial(ctx, rec.DomainID, rec.ID)
}

// createDomain validates and persists a new domain and renders its template.
func (s *session) createDomain(ctx context.Context, d *domain.Domain) error {
	d.Name = domain.NormalizeName(d.Name)
	if err := domain.ValidateDomainName(d.Name); err != nil {
		return err
	}
	existing, err := s.repo.GetDomainByName(ctx, d.Name)
	if err != nil {
		return fmt.Errorf("failed to look up domain %s: %w", d.Name, err)
	}
	if existing != nil {
		return &domain.ValidationError{Field: "name", Message: "domain with this name already exists", ConflictingIDs: []string{existing.ID}}
	}
	if d.AutoPtr == "" {
		d.AutoPtr = domain.AutoPtrAlways
	}
	if !d.AutoPtr.Valid() {
		return &domain.ValidationError{Field: "auto_ptr", Message: fmt.Sprintf("unknown auto_ptr policy %q", d.AutoPtr)}
	}
	now := s.now()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := s.repo.CreateDomain(ctx, d); err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	if d.TemplateID != nil {
		return s.applyTemplate(ctx, d, *d.TemplateID)
	}
	return nil
}

// updateDomain persists d and rebinds its template when the binding changed.
func (s *session) updateDomain(ctx context.Context, d *domain.Domain, previous *domain.Domain) error {
	d.Name = domain.NormalizeName(d.Name)
	if err := domain.ValidateDomainName(d.Name); err != nil {
		return err
	}
	if d.Name != previous.Name {
		existing, err := s.repo.GetDomainByName(ctx, d.Name)
		if err != nil {
			return fmt.Errorf("failed to look up domain %s: %w", d.Name, err)
		}
		if existing != nil && existing.ID != d.ID {
			return &domain.ValidationError{Field: "name", Message: "domain with this name already exists", ConflictingIDs: []string{existing.ID}}
		}
	}
	if !d.AutoPtr.Valid() {
		return &domain.ValidationError{Field: "auto_ptr", Message: fmt.Sprintf("unknown auto_ptr policy %q", d.AutoPtr)}
	}
	d.UpdatedAt = s.now()
	if err := s.repo.UpdateDomain(ctx, d); err != nil {
		return fmt.Errorf("failed to update domain %s: %w", d.ID, err)
	}
	if !sameRef(previous.TemplateID, d.TemplateID) {
		return s.rebind(ctx, d, previous.TemplateID, d.TemplateID)
	}
	return nil
}

// deleteDomain removes a domain, its records and the PTRs depending on them.
func (s *session) deleteDomain(ctx context.Context, d *domain.Domain) error {
	records, err := s.repo.ListRecordsForDomain(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("failed to list records of %s: %w", d.Name, err)
	}
	for i := range records {
		rec := records[i]
		// An earlier deletion in this loop may already have removed it as a dependent.
		still, err := s.repo.GetRecord(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", rec.ID, err)
		}
		if still == nil {
			continue
		}
		if err := s.deleteRecordTree(ctx, still, false); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteDomain(ctx, d.ID); err != nil {
		return fmt.Errorf("failed to delete domain %s: %w", d.Name, err)
	}
	return nil
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
