package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

type requestService struct {
	*engine
}

// NewRequestService returns the change-request entry points. Each call decides
// between applying the change directly and queueing an OPEN request for review.
func NewRequestService(repo ports.Repository, opts Options) ports.RequestService {
	return &requestService{engine: newEngine(repo, opts)}
}

func (s *session) newHeader(key string) domain.Request {
	now := s.now()
	if key == "" {
		key = uuid.New().String()
	}
	return domain.Request{
		ID:        uuid.New().String(),
		Key:       key,
		OwnerID:   s.actorID(),
		State:     domain.StateOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func countRequest(s *session, kind domain.RequestKind, out *domain.Outcome) {
	s.afterCommit(func(context.Context) {
		metrics.RequestsTotal.WithLabelValues(string(kind), string(out.Disposition)).Inc()
	})
}

func applyRecordFields(req *domain.RecordRequest, f domain.RecordFields) {
	if f.Name != nil {
		req.Name = *f.Name
	}
	if f.Type != nil {
		req.Type = *f.Type
	}
	if f.Content != nil {
		req.Content = *f.Content
	}
	if f.TTL != nil {
		req.TTL = *f.TTL
	}
	if f.Priority != nil {
		req.Priority = f.Priority
	}
	if f.Auth != nil {
		req.Auth = *f.Auth
	}
	if f.Disabled != nil {
		req.Disabled = *f.Disabled
	}
	if f.Remarks != nil {
		req.Remarks = *f.Remarks
	}
	if f.OwnerID != nil {
		req.TargetOwnerID = f.OwnerID
	}
	if f.ServiceID != nil {
		req.ServiceID = f.ServiceID
	}
	if f.AutoPtr != nil {
		req.AutoPtr = f.AutoPtr
	}
}

// validateRecordRequest validates the record the request would produce and
// writes the normalized values back onto the request.
func (s *session) validateRecordRequest(ctx context.Context, req *domain.RecordRequest, base domain.Record) error {
	if req.AutoPtr != nil && !req.AutoPtr.Valid() {
		return &domain.ValidationError{Field: "auto_ptr", Message: fmt.Sprintf("unknown auto_ptr policy %q", *req.AutoPtr)}
	}
	candidate := base
	copyFields(recordCopyFields, req, &candidate)
	if err := s.validateRecord(ctx, &candidate, true); err != nil {
		return err
	}
	req.Name = candidate.Name
	req.Type = candidate.Type
	req.TTL = candidate.TTL
	return nil
}

func (r *requestService) CreateRecordRequest(ctx context.Context, user *domain.User, fields domain.RecordFields) (*domain.Outcome, error) {
	if user == nil {
		return nil, domain.ErrPermissionDenied
	}
	var out *domain.Outcome
	err := r.inTx(ctx, user, func(s *session) error {
		if _, err := s.domainField(ctx, "domain_id", fields.DomainID); err != nil {
			return err
		}
		req := &domain.RecordRequest{
			Request:  s.newHeader(fields.Key),
			DomainID: fields.DomainID,
			TTL:      s.opts.DefaultTTL,
			Auth:     true,
		}
		applyRecordFields(req, fields)
		if err := s.validateRecordRequest(ctx, req, domain.Record{DomainID: req.DomainID}); err != nil {
			return err
		}
		if err := s.repo.CreateRecordRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to create record request: %w", err)
		}

		ok, err := s.policy.CanAutoAcceptRecord(ctx, user, req, domain.ActionCreate)
		if err != nil {
			return err
		}
		out = &domain.Outcome{Disposition: domain.DispositionQueued, RecordRequest: req}
		if ok {
			rec, err := s.acceptRecordRequest(ctx, req)
			if err != nil {
				return err
			}
			out = &domain.Outcome{Disposition: domain.DispositionCreated, AutoAccepted: true, RecordRequest: req, Record: rec}
		}
		countRequest(s, domain.KindRecordRequest, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecordRequest proposes a change to an existing record. When OPEN
// requests already exist for it and the user cannot apply the change directly,
// their ids are returned instead of queueing another one.
func (r *requestService) UpdateRecordRequest(ctx context.Context, user *domain.User, recordID string, fields domain.RecordFields) (*domain.Outcome, error) {
	if user == nil {
		return nil, domain.ErrPermissionDenied
	}
	var out *domain.Outcome
	err := r.inTx(ctx, user, func(s *session) error {
		rec, err := s.repo.GetRecord(ctx, recordID)
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", recordID, err)
		}
		if rec == nil {
			return fmt.Errorf("record %s: %w", recordID, domain.ErrNotFound)
		}
		id := rec.ID
		req := &domain.RecordRequest{
			Request:       s.newHeader(fields.Key),
			DomainID:      rec.DomainID,
			RecordID:      &id,
			Name:          rec.Name,
			Type:          rec.Type,
			Content:       rec.Content,
			TTL:           rec.TTL,
			Priority:      rec.Priority,
			Auth:          rec.Auth,
			Disabled:      rec.Disabled,
			Remarks:       rec.Remarks,
			TargetOwnerID: rec.OwnerID,
			ServiceID:     rec.ServiceID,
			AutoPtr:       rec.AutoPtr,
		}
		applyRecordFields(req, fields)
		if err := s.validateRecordRequest(ctx, req, *rec); err != nil {
			return err
		}

		ok, err := s.policy.CanAutoAcceptRecord(ctx, user, req, domain.ActionUpdate)
		if err != nil {
			return err
		}
		if !ok {
			open, err := s.repo.ListOpenRecordRequests(ctx, recordID)
			if err != nil {
				return fmt.Errorf("failed to list open requests: %w", err)
			}
			if len(open) > 0 {
				ids := make([]string, 0, len(open))
				for _, o := range open {
					ids = append(ids, o.ID)
				}
				out = &domain.Outcome{Disposition: domain.DispositionPending, PendingRequestIDs: ids}
				countRequest(s, domain.KindRecordRequest, out)
				return nil
			}
		}

		if err := s.repo.CreateRecordRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to create record request: %w", err)
		}
		out = &domain.Outcome{Disposition: domain.DispositionQueued, RecordRequest: req}
		if ok {
			updated, err := s.acceptRecordRequest(ctx, req)
			if err != nil {
				return err
			}
			out = &domain.Outcome{Disposition: domain.DispositionUpdated, AutoAccepted: true, RecordRequest: req, Record: updated}
		}
		countRequest(s, domain.KindRecordRequest, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyDomainFields(req *domain.DomainRequest, f domain.DomainFields) {
	if f.ParentDomainID != nil {
		req.ParentDomainID = f.ParentDomainID
	}
	if f.Name != nil {
		req.Name = *f.Name
	}
	if f.Master != nil {
		req.Master = *f.Master
	}
	if f.Type != nil {
		req.Type = *f.Type
	}
	if f.Account != nil {
		req.Account = *f.Account
	}
	if f.Remarks != nil {
		req.Remarks = *f.Remarks
	}
	if f.TemplateID != nil {
		req.TemplateID = emptyToNil(f.TemplateID)
	}
	if f.ReverseTemplateID != nil {
		req.ReverseTemplateID = emptyToNil(f.ReverseTemplateID)
	}
	if f.AutoPtr != nil {
		req.AutoPtr = *f.AutoPtr
	}
	if f.Unrestricted != nil {
		req.Unrestricted = *f.Unrestricted
	}
	if f.OwnerID != nil {
		req.TargetOwnerID = f.OwnerID
	}
	if f.ServiceID != nil {
		req.ServiceID = f.ServiceID
	}
}

// emptyToNil turns an explicit "" into an unbound reference.
func emptyToNil(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

func (s *session) validateDomainRequest(ctx context.Context, req *domain.DomainRequest, selfID string) error {
	req.Name = domain.NormalizeName(req.Name)
	if err := domain.ValidateDomainName(req.Name); err != nil {
		return err
	}
	existing, err := s.repo.GetDomainByName(ctx, req.Name)
	if err != nil {
		return fmt.Errorf("failed to look up domain %s: %w", req.Name, err)
	}
	if existing != nil && existing.ID != selfID {
		return &domain.ValidationError{Field: "name", Message: "domain with this name already exists", ConflictingIDs: []string{existing.ID}}
	}
	if !req.AutoPtr.Valid() {
		return &domain.ValidationError{Field: "auto_ptr", Message: fmt.Sprintf("unknown auto_ptr policy %q", req.AutoPtr)}
	}
	for field, id := range map[string]*string{"template": req.TemplateID, "reverse_template": req.ReverseTemplateID} {
		if id == nil {
			continue
		}
		tpl, err := s.repo.GetDomainTemplate(ctx, *id)
		if err != nil {
			return fmt.Errorf("failed to load domain template: %w", err)
		}
		if tpl == nil {
			return &domain.ValidationError{Field: field, Message: fmt.Sprintf("domain template %s does not exist", *id)}
		}
	}
	return nil
}

// parentOf finds the closest existing domain above name.
func (s *session) parentOf(ctx context.Context, name string) (*domain.Domain, error) {
	_, rest, ok := strings.Cut(domain.NormalizeName(name), ".")
	if !ok || rest == "" {
		return nil, nil
	}
	return s.containingDomain(ctx, rest)
}

func (r *requestService) CreateDomainRequest(ctx context.Context, user *domain.User, fields domain.DomainFields) (*domain.Outcome, error) {
	if user == nil {
		return nil, domain.ErrPermissionDenied
	}
	var out *domain.Outcome
	err := r.inTx(ctx, user, func(s *session) error {
		req := &domain.DomainRequest{
			Request: s.newHeader(fields.Key),
			AutoPtr: domain.AutoPtrAlways,
		}
		applyDomainFields(req, fields)
		if err := s.validateDomainRequest(ctx, req, ""); err != nil {
			return err
		}
		if req.ParentDomainID != nil {
			if _, err := s.domainField(ctx, "parent_domain_id", *req.ParentDomainID); err != nil {
				return err
			}
		} else {
			parent, err := s.parentOf(ctx, req.Name)
			if err != nil {
				return err
			}
			if parent != nil {
				req.ParentDomainID = &parent.ID
			}
		}
		if err := s.repo.CreateDomainRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to create domain request: %w", err)
		}

		ok, err := s.policy.CanAutoAcceptDomain(ctx, user, req, domain.ActionCreate)
		if err != nil {
			return err
		}
		out = &domain.Outcome{Disposition: domain.DispositionQueued, DomainRequest: req}
		if ok {
			d, err := s.acceptDomainRequest(ctx, req)
			if err != nil {
				return err
			}
			out = &domain.Outcome{Disposition: domain.DispositionCreated, AutoAccepted: true, DomainRequest: req, Domain: d}
		}
		countRequest(s, domain.KindDomainRequest, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestService) UpdateDomainRequest(ctx context.Context, user *domain.User, domainID string, fields domain.DomainFields) (*domain.Outcome, error) {
	if user == nil {
		return nil, domain.ErrPermissionDenied
	}
	var out *domain.Outcome
	err := r.inTx(ctx, user, func(s *session) error {
		d, err := s.repo.GetDomain(ctx, domainID)
		if err != nil {
			return fmt.Errorf("failed to load domain %s: %w", domainID, err)
		}
		if d == nil {
			return fmt.Errorf("domain %s: %w", domainID, domain.ErrNotFound)
		}
		id := d.ID
		req := &domain.DomainRequest{
			Request:           s.newHeader(fields.Key),
			DomainID:          &id,
			Name:              d.Name,
			Master:            d.Master,
			Type:              d.Type,
			Account:           d.Account,
			Remarks:           d.Remarks,
			TemplateID:        d.TemplateID,
			ReverseTemplateID: d.ReverseTemplateID,
			AutoPtr:           d.AutoPtr,
			Unrestricted:      d.Unrestricted,
			TargetOwnerID:     d.OwnerID,
			ServiceID:         d.ServiceID,
		}
		applyDomainFields(req, fields)
		if err := s.validateDomainRequest(ctx, req, d.ID); err != nil {
			return err
		}
		if err := s.repo.CreateDomainRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to create domain request: %w", err)
		}

		ok, err := s.policy.CanAutoAcceptDomain(ctx, user, req, domain.ActionUpdate)
		if err != nil {
			return err
		}
		out = &domain.Outcome{Disposition: domain.DispositionQueued, DomainRequest: req}
		if ok {
			updated, err := s.acceptDomainRequest(ctx, req)
			if err != nil {
				return err
			}
			out = &domain.Outcome{Disposition: domain.DispositionUpdated, AutoAccepted: true, DomainRequest: req, Domain: updated}
		}
		countRequest(s, domain.KindDomainRequest, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestService) DeleteRequest(ctx context.Context, user *domain.User, kind domain.EntityKind, targetID string) (*domain.Outcome, error) {
	if user == nil {
		return nil, domain.ErrPermissionDenied
	}
	if !kind.Valid() {
		return nil, &domain.ValidationError{Field: "target_kind", Message: fmt.Sprintf("unknown target kind %q", kind)}
	}
	var out *domain.Outcome
	err := r.inTx(ctx, user, func(s *session) error {
		req := &domain.DeleteRequest{
			Request:    s.newHeader(""),
			TargetKind: kind,
			TargetID:   targetID,
		}
		if _, _, err := s.loadDeleteTarget(ctx, req); err != nil {
			return err
		}
		if err := s.repo.CreateDeleteRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to create delete request: %w", err)
		}
		ok, err := s.policy.CanAutoAcceptDelete(ctx, user, req)
		if err != nil {
			return err
		}
		out = &domain.Outcome{Disposition: domain.DispositionQueued, DeleteRequest: req}
		if ok {
			if err := s.acceptDeleteRequest(ctx, req); err != nil {
				return err
			}
			out = &domain.Outcome{Disposition: domain.DispositionDeleted, AutoAccepted: true, DeleteRequest: req}
		}
		countRequest(s, domain.KindDeleteRequest, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Accept applies an OPEN request. Accepting a closed request changes nothing.
func (r *requestService) Accept(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string) (*domain.Outcome, error) {
	if err := requireSuperuser(user); err != nil {
		return nil, err
	}
	return r.transition(ctx, user, kind, requestID, true)
}

// Reject closes an OPEN request without applying it.
func (r *requestService) Reject(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string) (*domain.Outcome, error) {
	if err := requireSuperuser(user); err != nil {
		return nil, err
	}
	return r.transition(ctx, user, kind, requestID, false)
}

func (r *requestService) transition(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string, accept bool) (*domain.Outcome, error) {
	var out *domain.Outcome
	err := r.inTx(ctx, user, func(s *session) error {
		loaded, err := loadRequest(ctx, s.repo, kind, requestID, true)
		if err != nil {
			return err
		}
		out = loaded
		out.Disposition = domain.DispositionClosed
		switch kind {
		case domain.KindRecordRequest:
			if !accept {
				return s.rejectRecordRequest(ctx, out.RecordRequest)
			}
			out.Record, err = s.acceptRecordRequest(ctx, out.RecordRequest)
		case domain.KindDomainRequest:
			if !accept {
				return s.rejectDomainRequest(ctx, out.DomainRequest)
			}
			out.Domain, err = s.acceptDomainRequest(ctx, out.DomainRequest)
		case domain.KindDeleteRequest:
			if !accept {
				return s.rejectDeleteRequest(ctx, out.DeleteRequest)
			}
			err = s.acceptDeleteRequest(ctx, out.DeleteRequest)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestService) GetRequest(ctx context.Context, kind domain.RequestKind, requestID string) (*domain.Outcome, error) {
	out, err := loadRequest(ctx, r.repo, kind, requestID, false)
	if err != nil {
		return nil, err
	}
	switch {
	case out.RecordRequest != nil && out.RecordRequest.State.Terminal():
		out.Disposition = domain.DispositionClosed
	case out.DomainRequest != nil && out.DomainRequest.State.Terminal():
		out.Disposition = domain.DispositionClosed
	case out.DeleteRequest != nil && out.DeleteRequest.State.Terminal():
		out.Disposition = domain.DispositionClosed
	default:
		out.Disposition = domain.DispositionQueued
	}
	return out, nil
}

// loadRequest resolves a request of any kind into an Outcome holding it. With
// lock set the row stays locked until the transaction ends.
func loadRequest(ctx context.Context, repo ports.RequestRepository, kind domain.RequestKind, id string, lock bool) (*domain.Outcome, error) {
	notFound := fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	switch kind {
	case domain.KindRecordRequest:
		get := repo.GetRecordRequest
		if lock {
			get = repo.LockRecordRequest
		}
		req, err := get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load record request: %w", err)
		}
		if req == nil {
			return nil, notFound
		}
		return &domain.Outcome{RecordRequest: req}, nil
	case domain.KindDomainRequest:
		get := repo.GetDomainRequest
		if lock {
			get = repo.LockDomainRequest
		}
		req, err := get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load domain request: %w", err)
		}
		if req == nil {
			return nil, notFound
		}
		return &domain.Outcome{DomainRequest: req}, nil
	case domain.KindDeleteRequest:
		get := repo.GetDeleteRequest
		if lock {
			get = repo.LockDeleteRequest
		}
		req, err := get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load delete request: %w", err)
		}
		if req == nil {
			return nil, notFound
		}
		return &domain.Outcome{DeleteRequest: req}, nil
	}
	return nil, &domain.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown request kind %q", kind)}
}
