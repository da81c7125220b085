package services

import (
	"context"
	"fmt"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/infrastructure/metrics"
)

// copyField names one request field and the target field it is copied to.
type copyField[S, T any] struct {
	source string
	target string
	apply  func(src *S, dst *T)
}

var recordCopyFields = []copyField[domain.RecordRequest, domain.Record]{
	{"name", "name", func(s *domain.RecordRequest, d *domain.Record) { d.Name = s.Name }},
	{"type", "type", func(s *domain.RecordRequest, d *domain.Record) { d.Type = s.Type }},
	{"content", "content", func(s *domain.RecordRequest, d *domain.Record) { d.Content = s.Content }},
	{"prio", "prio", func(s *domain.RecordRequest, d *domain.Record) { d.Priority = s.Priority }},
	{"auth", "auth", func(s *domain.RecordRequest, d *domain.Record) { d.Auth = s.Auth }},
	{"disabled", "disabled", func(s *domain.RecordRequest, d *domain.Record) { d.Disabled = s.Disabled }},
	{"remarks", "remarks", func(s *domain.RecordRequest, d *domain.Record) { d.Remarks = s.Remarks }},
	{"ttl", "ttl", func(s *domain.RecordRequest, d *domain.Record) { d.TTL = s.TTL }},
	{"target_owner", "owner", func(s *domain.RecordRequest, d *domain.Record) {
		if s.TargetOwnerID != nil {
			d.OwnerID = s.TargetOwnerID
		}
	}},
	{"service", "service", func(s *domain.RecordRequest, d *domain.Record) { d.ServiceID = s.ServiceID }},
	{"auto_ptr", "auto_ptr", func(s *domain.RecordRequest, d *domain.Record) { d.AutoPtr = s.AutoPtr }},
}

var domainCopyFields = []copyField[domain.DomainRequest, domain.Domain]{
	{"name", "name", func(s *domain.DomainRequest, d *domain.Domain) { d.Name = s.Name }},
	{"master", "master", func(s *domain.DomainRequest, d *domain.Domain) { d.Master = s.Master }},
	{"type", "type", func(s *domain.DomainRequest, d *domain.Domain) { d.Type = s.Type }},
	{"account", "account", func(s *domain.DomainRequest, d *domain.Domain) { d.Account = s.Account }},
	{"remarks", "remarks", func(s *domain.DomainRequest, d *domain.Domain) { d.Remarks = s.Remarks }},
	{"template", "template", func(s *domain.DomainRequest, d *domain.Domain) { d.TemplateID = s.TemplateID }},
	{"reverse_template", "reverse_template", func(s *domain.DomainRequest, d *domain.Domain) { d.ReverseTemplateID = s.ReverseTemplateID }},
	{"auto_ptr", "auto_ptr", func(s *domain.DomainRequest, d *domain.Domain) { d.AutoPtr = s.AutoPtr }},
	{"unrestricted", "unrestricted", func(s *domain.DomainRequest, d *domain.Domain) { d.Unrestricted = s.Unrestricted }},
	{"target_owner", "owner", func(s *domain.DomainRequest, d *domain.Domain) {
		if s.TargetOwnerID != nil {
			d.OwnerID = s.TargetOwnerID
		}
	}},
	{"service", "service", func(s *domain.DomainRequest, d *domain.Domain) { d.ServiceID = s.ServiceID }},
}

func copyFields[S, T any](fields []copyField[S, T], src *S, dst *T) {
	for _, f := range fields {
		f.apply(src, dst)
	}
}

func (s *session) warnClosed(req *domain.Request, kind domain.RequestKind) {
	s.log.Warn("request is already closed", "request_id", req.ID, "kind", kind, "state", req.State)
}

func (s *session) countTransition(kind domain.RequestKind, state domain.RequestState) {
	s.afterCommit(func(context.Context) {
		metrics.TransitionsTotal.WithLabelValues(string(kind), string(state)).Inc()
	})
}

// recordTarget resolves the record a request points at. A request without a
// record targets a fresh record in its domain, owned by the requester. An
// update whose record has since been deleted yields a nil target.
func (s *session) recordTarget(ctx context.Context, req *domain.RecordRequest) (*domain.Record, domain.Action, error) {
	if req.RecordID == nil {
		owner := req.OwnerID
		return &domain.Record{DomainID: req.DomainID, OwnerID: &owner, Auth: true}, domain.ActionCreate, nil
	}
	rec, err := s.repo.GetRecord(ctx, *req.RecordID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load record %s: %w", *req.RecordID, err)
	}
	return rec, domain.ActionUpdate, nil
}

// recordChange diffs the target against the request. Without a target the
// request is diffed against itself.
func recordChange(action domain.Action, target *domain.Record, req *domain.RecordRequest) *domain.Change {
	switch {
	case action == domain.ActionCreate:
		return domain.NewChange(action, req.AsEmptyHistory(), req.AsHistoryDump())
	case target == nil:
		return domain.NewChange(action, req.AsHistoryDump(), req.AsHistoryDump())
	}
	return domain.NewChange(action, target.AsHistoryDump(), req.AsHistoryDump())
}

// acceptRecordRequest applies an OPEN record request. A closed request is
// left as is and its current record, if any, is returned.
func (s *session) acceptRecordRequest(ctx context.Context, req *domain.RecordRequest) (*domain.Record, error) {
	if req.State.Terminal() {
		s.warnClosed(&req.Request, domain.KindRecordRequest)
		return s.currentRecord(ctx, req.RecordID)
	}
	target, action, err := s.recordTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &domain.ValidationError{Field: "record_id", Message: fmt.Sprintf("record %s no longer exists", *req.RecordID)}
	}
	change := recordChange(action, target, req)
	copyFields(recordCopyFields, req, target)

	if action == domain.ActionCreate {
		err = s.createRecord(ctx, target, false)
	} else {
		err = s.updateRecord(ctx, target)
	}
	if err != nil {
		return nil, err
	}

	req.RecordID = &target.ID
	req.State = domain.StateAccepted
	req.LastChangeJSON = change
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateRecordRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save record request: %w", err)
	}
	if err := s.audit(ctx, "ACCEPT_RECORD_REQUEST", "RECORD_REQUEST", req.ID, change); err != nil {
		return nil, err
	}
	s.publish(domain.ChangeEvent{
		RequestKind: domain.KindRecordRequest,
		RequestID:   req.ID,
		TargetKind:  domain.KindRecord,
		TargetID:    target.ID,
		Change:      change,
		At:          req.UpdatedAt,
	})
	return target, nil
}

func (s *session) rejectRecordRequest(ctx context.Context, req *domain.RecordRequest) error {
	if req.State.Terminal() {
		s.warnClosed(&req.Request, domain.KindRecordRequest)
		return nil
	}
	target, action, err := s.recordTarget(ctx, req)
	if err != nil {
		return err
	}
	req.State = domain.StateRejected
	req.LastChangeJSON = recordChange(action, target, req)
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateRecordRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to save record request: %w", err)
	}
	s.countTransition(domain.KindRecordRequest, domain.StateRejected)
	return s.audit(ctx, "REJECT_RECORD_REQUEST", "RECORD_REQUEST", req.ID, req.LastChangeJSON)
}

func (s *session) currentRecord(ctx context.Context, id *string) (*domain.Record, error) {
	if id == nil {
		return nil, nil
	}
	rec, err := s.repo.GetRecord(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", *id, err)
	}
	return rec, nil
}

func (s *session) domainTarget(ctx context.Context, req *domain.DomainRequest) (*domain.Domain, domain.Action, error) {
	if req.DomainID == nil {
		owner := req.OwnerID
		return &domain.Domain{OwnerID: &owner, AutoPtr: domain.AutoPtrAlways}, domain.ActionCreate, nil
	}
	d, err := s.repo.GetDomain(ctx, *req.DomainID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load domain %s: %w", *req.DomainID, err)
	}
	return d, domain.ActionUpdate, nil
}

func domainChange(action domain.Action, target *domain.Domain, req *domain.DomainRequest) *domain.Change {
	switch {
	case action == domain.ActionCreate:
		return domain.NewChange(action, req.AsEmptyHistory(), req.AsHistoryDump())
	case target == nil:
		return domain.NewChange(action, req.AsHistoryDump(), req.AsHistoryDump())
	}
	return domain.NewChange(action, target.AsHistoryDump(), req.AsHistoryDump())
}

func (s *session) acceptDomainRequest(ctx context.Context, req *domain.DomainRequest) (*domain.Domain, error) {
	if req.State.Terminal() {
		s.warnClosed(&req.Request, domain.KindDomainRequest)
		return s.currentDomain(ctx, req.DomainID)
	}
	target, action, err := s.domainTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &domain.ValidationError{Field: "domain_id", Message: fmt.Sprintf("domain %s no longer exists", *req.DomainID)}
	}
	change := domainChange(action, target, req)
	previous := *target
	copyFields(domainCopyFields, req, target)

	if action == domain.ActionCreate {
		err = s.createDomain(ctx, target)
	} else {
		err = s.updateDomain(ctx, target, &previous)
	}
	if err != nil {
		return nil, err
	}

	req.DomainID = &target.ID
	req.State = domain.StateAccepted
	req.LastChangeJSON = change
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateDomainRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save domain request: %w", err)
	}
	if err := s.audit(ctx, "ACCEPT_DOMAIN_REQUEST", "DOMAIN_REQUEST", req.ID, change); err != nil {
		return nil, err
	}
	s.publish(domain.ChangeEvent{
		RequestKind: domain.KindDomainRequest,
		RequestID:   req.ID,
		TargetKind:  domain.KindDomain,
		TargetID:    target.ID,
		Change:      change,
		At:          req.UpdatedAt,
	})
	return target, nil
}

func (s *session) rejectDomainRequest(ctx context.Context, req *domain.DomainRequest) error {
	if req.State.Terminal() {
		s.warnClosed(&req.Request, domain.KindDomainRequest)
		return nil
	}
	target, action, err := s.domainTarget(ctx, req)
	if err != nil {
		return err
	}
	req.State = domain.StateRejected
	req.LastChangeJSON = domainChange(action, target, req)
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateDomainRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to save domain request: %w", err)
	}
	s.countTransition(domain.KindDomainRequest, domain.StateRejected)
	return s.audit(ctx, "REJECT_DOMAIN_REQUEST", "DOMAIN_REQUEST", req.ID, req.LastChangeJSON)
}

func (s *session) currentDomain(ctx context.Context, id *string) (*domain.Domain, error) {
	if id == nil {
		return nil, nil
	}
	d, err := s.repo.GetDomain(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain %s: %w", *id, err)
	}
	return d, nil
}

// deleteTarget loads and removes one kind of entity a DeleteRequest can point at.
type deleteTarget struct {
	load   func(ctx context.Context, id string) (domain.HistoryDumper, error)
	remove func(ctx context.Context, target domain.HistoryDumper) error
}

func (s *session) deleteTargets() map[domain.EntityKind]deleteTarget {
	return map[domain.EntityKind]deleteTarget{
		domain.KindDomain: {
			load: func(ctx context.Context, id string) (domain.HistoryDumper, error) {
				d, err := s.repo.GetDomain(ctx, id)
				if err != nil || d == nil {
					return nil, err
				}
				return d, nil
			},
			remove: func(ctx context.Context, target domain.HistoryDumper) error {
				return s.deleteDomain(ctx, target.(*domain.Domain))
			},
		},
		domain.KindRecord: {
			load: func(ctx context.Context, id string) (domain.HistoryDumper, error) {
				r, err := s.repo.GetRecord(ctx, id)
				if err != nil || r == nil {
					return nil, err
				}
				return r, nil
			},
			remove: func(ctx context.Context, target domain.HistoryDumper) error {
				return s.deleteRecord(ctx, target.(*domain.Record))
			},
		},
	}
}

func (s *session) loadDeleteTarget(ctx context.Context, req *domain.DeleteRequest) (deleteTarget, domain.HistoryDumper, error) {
	kind, ok := s.deleteTargets()[req.TargetKind]
	if !ok {
		return deleteTarget{}, nil, &domain.ConfigurationError{Message: fmt.Sprintf("unknown delete target kind %q", req.TargetKind)}
	}
	target, err := kind.load(ctx, req.TargetID)
	if err != nil {
		return deleteTarget{}, nil, fmt.Errorf("failed to load %s %s: %w", req.TargetKind, req.TargetID, err)
	}
	if target == nil {
		return deleteTarget{}, nil, fmt.Errorf("%s %s: %w", req.TargetKind, req.TargetID, domain.ErrNotFound)
	}
	return kind, target, nil
}

// acceptDeleteRequest removes the target of an OPEN delete request.
func (s *session) acceptDeleteRequest(ctx context.Context, req *domain.DeleteRequest) error {
	if req.State.Terminal() {
		s.warnClosed(&req.Request, domain.KindDeleteRequest)
		return nil
	}
	kind, target, err := s.loadDeleteTarget(ctx, req)
	if err != nil {
		return err
	}
	change := domain.NewChange(domain.ActionDelete, target.AsHistoryDump(), target.AsEmptyHistory())
	if err := kind.remove(ctx, target); err != nil {
		return err
	}
	req.State = domain.StateAccepted
	req.LastChangeJSON = change
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateDeleteRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to save delete request: %w", err)
	}
	if err := s.audit(ctx, "ACCEPT_DELETE_REQUEST", "DELETE_REQUEST", req.ID, change); err != nil {
		return err
	}
	s.publish(domain.ChangeEvent{
		RequestKind: domain.KindDeleteRequest,
		RequestID:   req.ID,
		TargetKind:  req.TargetKind,
		TargetID:    req.TargetID,
		Change:      change,
		At:          req.UpdatedAt,
	})
	return nil
}

func (s *session) rejectDeleteRequest(ctx context.Context, req *domain.DeleteRequest) error {
	if req.State.Terminal() {
		s.warnClosed(&req.Request, domain.KindDeleteRequest)
		return nil
	}
	kind, ok := s.deleteTargets()[req.TargetKind]
	if !ok {
		return &domain.ConfigurationError{Message: fmt.Sprintf("unknown delete target kind %q", req.TargetKind)}
	}
	target, err := kind.load(ctx, req.TargetID)
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", req.TargetKind, req.TargetID, err)
	}
	// A target removed in the meantime leaves nothing to diff.
	change := domain.NewChange(domain.ActionDelete, domain.HistoryDump{}, domain.HistoryDump{})
	if target != nil {
		change = domain.NewChange(domain.ActionDelete, target.AsHistoryDump(), target.AsEmptyHistory())
	}
	req.State = domain.StateRejected
	req.LastChangeJSON = change
	req.UpdatedAt = s.now()
	if err := s.repo.UpdateDeleteRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to save delete request: %w", err)
	}
	s.countTransition(domain.KindDeleteRequest, domain.StateRejected)
	return s.audit(ctx, "REJECT_DELETE_REQUEST", "DELETE_REQUEST", req.ID, req.LastChangeJSON)
}
