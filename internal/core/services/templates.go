package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

// applyTemplate renders every RecordTemplate of a DomainTemplate into d.
func (s *session) applyTemplate(ctx context.Context, d *domain.Domain, templateID string) error {
	rts, err := s.repo.ListRecordTemplates(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to list record templates: %w", err)
	}
	for i := range rts {
		if err := s.renderInto(ctx, &rts[i], d); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) renderInto(ctx context.Context, rt *domain.RecordTemplate, d *domain.Domain) error {
	rec := rt.Render(d)
	if err := s.createRecord(ctx, &rec, false); err != nil {
		return fmt.Errorf("failed to render template %s into %s: %w", rt.ID, d.Name, err)
	}
	metrics.TemplateRecords.WithLabelValues("rendered").Inc()
	return nil
}

// removeTemplateRecords deletes the records of d generated by any RecordTemplate
// of the given DomainTemplate, along with their dependents.
func (s *session) removeTemplateRecords(ctx context.Context, d *domain.Domain, templateID string) error {
	rts, err := s.repo.ListRecordTemplates(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to list record templates: %w", err)
	}
	owned := make(map[string]bool, len(rts))
	for _, rt := range rts {
		owned[rt.ID] = true
	}
	records, err := s.repo.ListRecordsForDomain(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("failed to list records of %s: %w", d.Name, err)
	}
	for i := range records {
		rec := &records[i]
		if rec.TemplateID == nil || !owned[*rec.TemplateID] {
			continue
		}
		if err := s.deleteRecord(ctx, rec); err != nil {
			return err
		}
		metrics.TemplateRecords.WithLabelValues("removed").Inc()
	}
	return nil
}

// rebind swaps the template-generated record set of d from one binding to another.
func (s *session) rebind(ctx context.Context, d *domain.Domain, from, to *string) error {
	s.log.Info("rebinding domain template", "domain", d.Name, "from", deref(from), "to", deref(to))
	if from != nil {
		if err := s.removeTemplateRecords(ctx, d, *from); err != nil {
			return err
		}
	}
	if to != nil {
		return s.applyTemplate(ctx, d, *to)
	}
	return nil
}

// deleteTemplateRecords removes every record generated by one RecordTemplate.
func (s *session) deleteTemplateRecords(ctx context.Context, recordTemplateID string) error {
	records, err := s.repo.ListRecordsByTemplate(ctx, recordTemplateID)
	if err != nil {
		return fmt.Errorf("failed to list records of template %s: %w", recordTemplateID, err)
	}
	for i := range records {
		if err := s.deleteRecord(ctx, &records[i]); err != nil {
			return err
		}
		metrics.TemplateRecords.WithLabelValues("removed").Inc()
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

type templateService struct {
	*engine
}

// NewTemplateService returns the template administration service. Every
// operation is reserved to superusers.
func NewTemplateService(repo ports.Repository, opts Options) ports.TemplateService {
	return &templateService{engine: newEngine(repo, opts)}
}

func requireSuperuser(user *domain.User) error {
	if user == nil || !user.IsSuperuser {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (t *templateService) CreateDomainTemplate(ctx context.Context, user *domain.User, tpl *domain.DomainTemplate) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	if tpl.Name == "" {
		return &domain.ValidationError{Field: "name", Message: "template name cannot be empty"}
	}
	return t.inTx(ctx, user, func(s *session) error {
		tpl.ID = uuid.New().String()
		tpl.CreatedAt = s.now()
		if err := s.repo.CreateDomainTemplate(ctx, tpl); err != nil {
			return fmt.Errorf("failed to create domain template: %w", err)
		}
		return nil
	})
}

// DeleteDomainTemplate removes the template, its record templates and the
// records they generated. Bound domains are left without a template.
func (t *templateService) DeleteDomainTemplate(ctx context.Context, user *domain.User, id string) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	return t.inTx(ctx, user, func(s *session) error {
		tpl, err := s.repo.GetDomainTemplate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load domain template: %w", err)
		}
		if tpl == nil {
			return domain.ErrNotFound
		}
		rts, err := s.repo.ListRecordTemplates(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list record templates: %w", err)
		}
		for _, rt := range rts {
			if err := s.deleteTemplateRecords(ctx, rt.ID); err != nil {
				return err
			}
		}
		if err := s.repo.DeleteDomainTemplate(ctx, id); err != nil {
			return fmt.Errorf("failed to delete domain template: %w", err)
		}
		s.log.Info("domain template deleted", "template_id", id, "record_templates", len(rts))
		return nil
	})
}

// CreateRecordTemplate stores the template and renders it into every domain
// bound to its DomainTemplate.
func (t *templateService) CreateRecordTemplate(ctx context.Context, user *domain.User, rt *domain.RecordTemplate) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	if err := validateRecordTemplate(rt); err != nil {
		return err
	}
	return t.inTx(ctx, user, func(s *session) error {
		parent, err := s.repo.GetDomainTemplate(ctx, rt.DomainTemplateID)
		if err != nil {
			return fmt.Errorf("failed to load domain template: %w", err)
		}
		if parent == nil {
			return domain.ErrNotFound
		}
		rt.ID = uuid.New().String()
		rt.CreatedAt = s.now()
		if err := s.repo.CreateRecordTemplate(ctx, rt); err != nil {
			return fmt.Errorf("failed to create record template: %w", err)
		}
		bound, err := s.repo.ListDomainsByTemplate(ctx, rt.DomainTemplateID)
		if err != nil {
			return fmt.Errorf("failed to list bound domains: %w", err)
		}
		for i := range bound {
			if err := s.renderInto(ctx, rt, &bound[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateRecordTemplate re-renders the records the template generated.
func (t *templateService) UpdateRecordTemplate(ctx context.Context, user *domain.User, rt *domain.RecordTemplate) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	if err := validateRecordTemplate(rt); err != nil {
		return err
	}
	return t.inTx(ctx, user, func(s *session) error {
		current, err := s.repo.GetRecordTemplate(ctx, rt.ID)
		if err != nil {
			return fmt.Errorf("failed to load record template: %w", err)
		}
		if current == nil {
			return domain.ErrNotFound
		}
		rt.DomainTemplateID = current.DomainTemplateID
		rt.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateRecordTemplate(ctx, rt); err != nil {
			return fmt.Errorf("failed to update record template: %w", err)
		}
		records, err := s.repo.ListRecordsByTemplate(ctx, rt.ID)
		if err != nil {
			return fmt.Errorf("failed to list records of template %s: %w", rt.ID, err)
		}
		for i := range records {
			rec := &records[i]
			zone, err := s.loadDomain(ctx, rec.DomainID)
			if err != nil {
				return err
			}
			rendered := rt.Render(zone)
			rendered.ID = rec.ID
			rendered.Disabled = rec.Disabled
			rendered.CreatedAt = rec.CreatedAt
			if err := s.updateRecord(ctx, &rendered); err != nil {
				return err
			}
		}
		s.log.Info("record template updated", "template_id", rt.ID, "records", len(records))
		return nil
	})
}

// DeleteRecordTemplate removes the template and cascades to its records and their PTRs.
func (t *templateService) DeleteRecordTemplate(ctx context.Context, user *domain.User, id string) error {
	if err := requireSuperuser(user); err != nil {
		return err
	}
	return t.inTx(ctx, user, func(s *session) error {
		current, err := s.repo.GetRecordTemplate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load record template: %w", err)
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if err := s.deleteTemplateRecords(ctx, id); err != nil {
			return err
		}
		if err := s.repo.DeleteRecordTemplate(ctx, id); err != nil {
			return fmt.Errorf("failed to delete record template: %w", err)
		}
		s.log.Info("record template deleted", slog.String("template_id", id))
		return nil
	})
}

func validateRecordTemplate(rt *domain.RecordTemplate) error {
	rt.Type = domain.NormalizeType(rt.Type)
	if rt.Type == "" {
		return &domain.ValidationError{Field: "type", Message: "record type is required"}
	}
	if rt.Name == "" {
		return &domain.ValidationError{Field: "name", Message: "record name is required"}
	}
	if rt.AutoPtr != nil && !rt.AutoPtr.Valid() {
		return &domain.ValidationError{Field: "auto_ptr", Message: fmt.Sprintf("unknown auto_ptr policy %q", *rt.AutoPtr)}
	}
	return nil
}
