package testutil

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
)

// ErrInjected is the default error returned by an injected fault.
var ErrInjected = errors.New("injected failure")

type memState struct {
	users           map[string]domain.User
	apiKeys         map[string]domain.APIKey
	services        map[string]domain.Service
	serviceOwners   []domain.ServiceOwner
	authorisations  []domain.Authorisation
	domains         map[string]domain.Domain
	records         map[string]domain.Record
	domainTemplates map[string]domain.DomainTemplate
	recordTemplates map[string]domain.RecordTemplate
	domainRequests  map[string]domain.DomainRequest
	recordRequests  map[string]domain.RecordRequest
	deleteRequests  map[string]domain.DeleteRequest
	auditLogs       []domain.AuditLog
}

func newMemState() *memState {
	return &memState{
		users:           map[string]domain.User{},
		apiKeys:         map[string]domain.APIKey{},
		services:        map[string]domain.Service{},
		domains:         map[string]domain.Domain{},
		records:         map[string]domain.Record{},
		domainTemplates: map[string]domain.DomainTemplate{},
		recordTemplates: map[string]domain.RecordTemplate{},
		domainRequests:  map[string]domain.DomainRequest{},
		recordRequests:  map[string]domain.RecordRequest{},
		deleteRequests:  map[string]domain.DeleteRequest{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		users:           maps.Clone(s.users),
		apiKeys:         maps.Clone(s.apiKeys),
		services:        maps.Clone(s.services),
		serviceOwners:   slices.Clone(s.serviceOwners),
		authorisations:  slices.Clone(s.authorisations),
		domains:         maps.Clone(s.domains),
		records:         maps.Clone(s.records),
		domainTemplates: maps.Clone(s.domainTemplates),
		recordTemplates: maps.Clone(s.recordTemplates),
		domainRequests:  maps.Clone(s.domainRequests),
		recordRequests:  maps.Clone(s.recordRequests),
		deleteRequests:  maps.Clone(s.deleteRequests),
		auditLogs:       slices.Clone(s.auditLogs),
	}
}

type store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	state  *memState
	faults map[string]error
}

// MemoryRepository is an in-memory ports.Repository. RunInTx snapshots the
// whole state and restores it when the callback fails.
type MemoryRepository struct {
	s    *store
	inTx bool
}

var _ ports.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{s: &store{state: newMemState(), faults: map[string]error{}}}
}

// FailOn makes the named method return err (ErrInjected when nil) until cleared.
func (r *MemoryRepository) FailOn(method string, err error) {
	if err == nil {
		err = ErrInjected
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.faults[method] = err
}

// ClearFaults removes every injected failure.
func (r *MemoryRepository) ClearFaults() {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.faults = map[string]error{}
}

// lock acquires the data lock and returns the injected fault for method, if any.
func (r *MemoryRepository) lock(method string) (*memState, error) {
	r.s.mu.Lock()
	return r.s.state, r.s.faults[method]
}

func (r *MemoryRepository) unlock() { r.s.mu.Unlock() }

func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(tx ports.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	snapshot := r.s.state.clone()
	r.s.mu.Unlock()

	if err := fn(&MemoryRepository{s: r.s, inTx: true}); err != nil {
		r.s.mu.Lock()
		r.s.state = snapshot
		r.s.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	_, err := r.lock("Ping")
	defer r.unlock()
	return err
}

// Users and API keys

func (r *MemoryRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	st, err := r.lock("GetUser")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if u, ok := st.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	st, err := r.lock("GetUserByUsername")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	for _, u := range st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *domain.User) error {
	st, err := r.lock("CreateUser")
	defer r.unlock()
	if err != nil {
		return err
	}
	for _, u := range st.users {
		if u.Username == user.Username {
			return fmt.Errorf("duplicate username %q", user.Username)
		}
	}
	st.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	st, err := r.lock("GetAPIKeyByHash")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	for _, k := range st.apiKeys {
		if k.KeyHash == keyHash {
			return &k, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	st, err := r.lock("CreateAPIKey")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.apiKeys[key.ID] = *key
	return nil
}

func (r *MemoryRepository) ListAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error) {
	st, err := r.lock("ListAPIKeys")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.APIKey
	for _, k := range st.apiKeys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) DeleteAPIKey(ctx context.Context, userID string, id string) error {
	st, err := r.lock("DeleteAPIKey")
	defer r.unlock()
	if err != nil {
		return err
	}
	if k, ok := st.apiKeys[id]; ok && k.UserID == userID {
		delete(st.apiKeys, id)
	}
	return nil
}

// Ownership

func (r *MemoryRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	st, err := r.lock("GetService")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if s, ok := st.services[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *MemoryRepository) CreateService(ctx context.Context, svc *domain.Service) error {
	st, err := r.lock("CreateService")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.services[svc.ID] = *svc
	return nil
}

func (r *MemoryRepository) ListServiceOwnerIDs(ctx context.Context, serviceID string) ([]string, error) {
	st, err := r.lock("ListServiceOwnerIDs")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, o := range st.serviceOwners {
		if o.ServiceID == serviceID {
			ids = append(ids, o.UserID)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) AddServiceOwner(ctx context.Context, owner *domain.ServiceOwner) error {
	st, err := r.lock("AddServiceOwner")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.serviceOwners = append(st.serviceOwners, *owner)
	return nil
}

func (r *MemoryRepository) RemoveServiceOwner(ctx context.Context, serviceID string, userID string) error {
	st, err := r.lock("RemoveServiceOwner")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.serviceOwners = slices.DeleteFunc(st.serviceOwners, func(o domain.ServiceOwner) bool {
		return o.ServiceID == serviceID && o.UserID == userID
	})
	return nil
}

func (r *MemoryRepository) ListAuthorisedUserIDs(ctx context.Context, kind domain.EntityKind, targetID string) ([]string, error) {
	st, err := r.lock("ListAuthorisedUserIDs")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, a := range st.authorisations {
		if a.TargetKind == kind && a.TargetID == targetID {
			ids = append(ids, a.AuthorisedID)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) CreateAuthorisation(ctx context.Context, a *domain.Authorisation) error {
	st, err := r.lock("CreateAuthorisation")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.authorisations = append(st.authorisations, *a)
	return nil
}

// Domains

func (r *MemoryRepository) GetDomain(ctx context.Context, id string) (*domain.Domain, error) {
	st, err := r.lock("GetDomain")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if d, ok := st.domains[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	st, err := r.lock("GetDomainByName")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	for _, d := range st.domains {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListDomainsByNames(ctx context.Context, names []string) ([]domain.Domain, error) {
	st, err := r.lock("ListDomainsByNames")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedDomains(st.domains, func(d domain.Domain) bool { return slices.Contains(names, d.Name) }), nil
}

func (r *MemoryRepository) ListDomainsByTemplate(ctx context.Context, templateID string) ([]domain.Domain, error) {
	st, err := r.lock("ListDomainsByTemplate")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedDomains(st.domains, func(d domain.Domain) bool {
		return d.TemplateID != nil && *d.TemplateID == templateID
	}), nil
}

func (r *MemoryRepository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	st, err := r.lock("CreateDomain")
	defer r.unlock()
	if err != nil {
		return err
	}
	for _, existing := range st.domains {
		if existing.Name == d.Name {
			return fmt.Errorf("duplicate domain name %q", d.Name)
		}
	}
	st.domains[d.ID] = *d
	return nil
}

func (r *MemoryRepository) UpdateDomain(ctx context.Context, d *domain.Domain) error {
	st, err := r.lock("UpdateDomain")
	defer r.unlock()
	if err != nil {
		return err
	}
	if _, ok := st.domains[d.ID]; !ok {
		return domain.ErrNotFound
	}
	st.domains[d.ID] = *d
	return nil
}

// DeleteDomain removes the domain and its records.
func (r *MemoryRepository) DeleteDomain(ctx context.Context, id string) error {
	st, err := r.lock("DeleteDomain")
	defer r.unlock()
	if err != nil {
		return err
	}
	delete(st.domains, id)
	maps.DeleteFunc(st.records, func(_ string, rec domain.Record) bool { return rec.DomainID == id })
	return nil
}

// Records

func (r *MemoryRepository) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	st, err := r.lock("GetRecord")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if rec, ok := st.records[id]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListRecordsByName(ctx context.Context, name string) ([]domain.Record, error) {
	st, err := r.lock("ListRecordsByName")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedRecords(st.records, func(rec domain.Record) bool { return rec.Name == name }), nil
}

func (r *MemoryRepository) ListRecordsForDomain(ctx context.Context, domainID string) ([]domain.Record, error) {
	st, err := r.lock("ListRecordsForDomain")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedRecords(st.records, func(rec domain.Record) bool { return rec.DomainID == domainID }), nil
}

func (r *MemoryRepository) ListRecordsByTemplate(ctx context.Context, recordTemplateID string) ([]domain.Record, error) {
	st, err := r.lock("ListRecordsByTemplate")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedRecords(st.records, func(rec domain.Record) bool {
		return rec.TemplateID != nil && *rec.TemplateID == recordTemplateID
	}), nil
}

func (r *MemoryRepository) ListDependentRecords(ctx context.Context, recordID string) ([]domain.Record, error) {
	st, err := r.lock("ListDependentRecords")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedRecords(st.records, func(rec domain.Record) bool {
		return rec.DependsOnID != nil && *rec.DependsOnID == recordID
	}), nil
}

func (r *MemoryRepository) ListRecordsByContent(ctx context.Context, qType domain.RecordType, contents []string) ([]domain.Record, error) {
	st, err := r.lock("ListRecordsByContent")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedRecords(st.records, func(rec domain.Record) bool {
		return rec.Type == qType && slices.Contains(contents, rec.Content)
	}), nil
}

func (r *MemoryRepository) ListRecordsByNames(ctx context.Context, qType domain.RecordType, names []string) ([]domain.Record, error) {
	st, err := r.lock("ListRecordsByNames")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	return sortedRecords(st.records, func(rec domain.Record) bool {
		return rec.Type == qType && slices.Contains(names, rec.Name)
	}), nil
}

func (r *MemoryRepository) CreateRecord(ctx context.Context, rec *domain.Record) error {
	st, err := r.lock("CreateRecord")
	defer r.unlock()
	if err != nil {
		return err
	}
	if _, ok := st.domains[rec.DomainID]; !ok {
		return fmt.Errorf("record %s references unknown domain %s", rec.ID, rec.DomainID)
	}
	st.records[rec.ID] = *rec
	return nil
}

func (r *MemoryRepository) UpdateRecord(ctx context.Context, rec *domain.Record) error {
	st, err := r.lock("UpdateRecord")
	defer r.unlock()
	if err != nil {
		return err
	}
	if _, ok := st.records[rec.ID]; !ok {
		return domain.ErrNotFound
	}
	st.records[rec.ID] = *rec
	return nil
}

func (r *MemoryRepository) DeleteRecord(ctx context.Context, id string) error {
	st, err := r.lock("DeleteRecord")
	defer r.unlock()
	if err != nil {
		return err
	}
	delete(st.records, id)
	return nil
}

// Templates

func (r *MemoryRepository) GetDomainTemplate(ctx context.Context, id string) (*domain.DomainTemplate, error) {
	st, err := r.lock("GetDomainTemplate")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if t, ok := st.domainTemplates[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryRepository) CreateDomainTemplate(ctx context.Context, t *domain.DomainTemplate) error {
	st, err := r.lock("CreateDomainTemplate")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.domainTemplates[t.ID] = *t
	return nil
}

// DeleteDomainTemplate removes its record templates and unbinds domains, like
// the ON DELETE rules of the SQL schema.
func (r *MemoryRepository) DeleteDomainTemplate(ctx context.Context, id string) error {
	st, err := r.lock("DeleteDomainTemplate")
	defer r.unlock()
	if err != nil {
		return err
	}
	delete(st.domainTemplates, id)
	maps.DeleteFunc(st.recordTemplates, func(_ string, rt domain.RecordTemplate) bool { return rt.DomainTemplateID == id })
	for k, d := range st.domains {
		if d.TemplateID != nil && *d.TemplateID == id {
			d.TemplateID = nil
		}
		if d.ReverseTemplateID != nil && *d.ReverseTemplateID == id {
			d.ReverseTemplateID = nil
		}
		st.domains[k] = d
	}
	return nil
}

func (r *MemoryRepository) GetRecordTemplate(ctx context.Context, id string) (*domain.RecordTemplate, error) {
	st, err := r.lock("GetRecordTemplate")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if t, ok := st.recordTemplates[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListRecordTemplates(ctx context.Context, domainTemplateID string) ([]domain.RecordTemplate, error) {
	st, err := r.lock("ListRecordTemplates")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.RecordTemplate
	for _, t := range st.recordTemplates {
		if t.DomainTemplateID == domainTemplateID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) CreateRecordTemplate(ctx context.Context, t *domain.RecordTemplate) error {
	st, err := r.lock("CreateRecordTemplate")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.recordTemplates[t.ID] = *t
	return nil
}

func (r *MemoryRepository) UpdateRecordTemplate(ctx context.Context, t *domain.RecordTemplate) error {
	st, err := r.lock("UpdateRecordTemplate")
	defer r.unlock()
	if err != nil {
		return err
	}
	if _, ok := st.recordTemplates[t.ID]; !ok {
		return domain.ErrNotFound
	}
	st.recordTemplates[t.ID] = *t
	return nil
}

func (r *MemoryRepository) DeleteRecordTemplate(ctx context.Context, id string) error {
	st, err := r.lock("DeleteRecordTemplate")
	defer r.unlock()
	if err != nil {
		return err
	}
	delete(st.recordTemplates, id)
	return nil
}

// Requests

func (r *MemoryRepository) GetDomainRequest(ctx context.Context, id string) (*domain.DomainRequest, error) {
	st, err := r.lock("GetDomainRequest")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if req, ok := st.domainRequests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

// LockDomainRequest reads like GetDomainRequest. RunInTx already runs
// transactions one at a time.
func (r *MemoryRepository) LockDomainRequest(ctx context.Context, id string) (*domain.DomainRequest, error) {
	st, err := r.lock("LockDomainRequest")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if req, ok := st.domainRequests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (r *MemoryRepository) CreateDomainRequest(ctx context.Context, req *domain.DomainRequest) error {
	st, err := r.lock("CreateDomainRequest")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.domainRequests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) UpdateDomainRequest(ctx context.Context, req *domain.DomainRequest) error {
	st, err := r.lock("UpdateDomainRequest")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.domainRequests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) GetRecordRequest(ctx context.Context, id string) (*domain.RecordRequest, error) {
	st, err := r.lock("GetRecordRequest")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if req, ok := st.recordRequests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (r *MemoryRepository) LockRecordRequest(ctx context.Context, id string) (*domain.RecordRequest, error) {
	st, err := r.lock("LockRecordRequest")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if req, ok := st.recordRequests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (r *MemoryRepository) CreateRecordRequest(ctx context.Context, req *domain.RecordRequest) error {
	st, err := r.lock("CreateRecordRequest")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.recordRequests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) UpdateRecordRequest(ctx context.Context, req *domain.RecordRequest) error {
	st, err := r.lock("UpdateRecordRequest")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.recordRequests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) ListOpenRecordRequests(ctx context.Context, recordID string) ([]domain.RecordRequest, error) {
	st, err := r.lock("ListOpenRecordRequests")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.RecordRequest
	for _, req := range st.recordRequests {
		if req.State == domain.StateOpen && req.RecordID != nil && *req.RecordID == recordID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) GetDeleteRequest(ctx context.Context, id string) (*domain.DeleteRequest, error) {
	st, err := r.lock("GetDeleteRequest")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if req, ok := st.deleteRequests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (r *MemoryRepository) LockDeleteRequest(ctx context.Context, id string) (*domain.DeleteRequest, error) {
	st, err := r.lock("LockDeleteRequest")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	if req, ok := st.deleteRequests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (r *MemoryRepository) CreateDeleteRequest(ctx context.Context, req *domain.DeleteRequest) error {
	st, err := r.lock("CreateDeleteRequest")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.deleteRequests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) UpdateDeleteRequest(ctx context.Context, req *domain.DeleteRequest) error {
	st, err := r.lock("UpdateDeleteRequest")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.deleteRequests[req.ID] = *req
	return nil
}

// Audit

func (r *MemoryRepository) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	st, err := r.lock("SaveAuditLog")
	defer r.unlock()
	if err != nil {
		return err
	}
	st.auditLogs = append(st.auditLogs, *log)
	return nil
}

// GetAuditLogs returns the entries of one user, or every entry for "".
func (r *MemoryRepository) GetAuditLogs(ctx context.Context, userID string) ([]domain.AuditLog, error) {
	st, err := r.lock("GetAuditLogs")
	defer r.unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.AuditLog
	for _, l := range st.auditLogs {
		if userID == "" || l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func sortedDomains(all map[string]domain.Domain, keep func(domain.Domain) bool) []domain.Domain {
	var out []domain.Domain
	for _, d := range all {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedRecords(all map[string]domain.Record, keep func(domain.Record) bool) []domain.Record {
	var out []domain.Record
	for _, rec := range all {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out
}
