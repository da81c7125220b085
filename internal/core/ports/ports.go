package ports

import (
	"context"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

// Lookups return (nil, nil) when the entity does not exist.

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	ListAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, userID string, id string) error
}

type OwnershipRepository interface {
	GetService(ctx context.Context, id string) (*domain.Service, error)
	CreateService(ctx context.Context, svc *domain.Service) error
	ListServiceOwnerIDs(ctx context.Context, serviceID string) ([]string, error)
	AddServiceOwner(ctx context.Context, owner *domain.ServiceOwner) error
	RemoveServiceOwner(ctx context.Context, serviceID string, userID string) error
	ListAuthorisedUserIDs(ctx context.Context, kind domain.EntityKind, targetID string) ([]string, error)
	CreateAuthorisation(ctx context.Context, a *domain.Authorisation) error
}

type DomainRepository interface {
	GetDomain(ctx context.Context, id string) (*domain.Domain, error)
	GetDomainByName(ctx context.Context, name string) (*domain.Domain, error)
	ListDomainsByNames(ctx context.Context, names []string) ([]domain.Domain, error)
	ListDomainsByTemplate(ctx context.Context, templateID string) ([]domain.Domain, error)
	CreateDomain(ctx context.Context, d *domain.Domain) error
	UpdateDomain(ctx context.Context, d *domain.Domain) error
	DeleteDomain(ctx context.Context, id string) error
}

type RecordRepository interface {
	GetRecord(ctx context.Context, id string) (*domain.Record, error)
	ListRecordsByName(ctx context.Context, name string) ([]domain.Record, error)
	ListRecordsForDomain(ctx context.Context, domainID string) ([]domain.Record, error)
	ListRecordsByTemplate(ctx context.Context, recordTemplateID string) ([]domain.Record, error)
	ListDependentRecords(ctx context.Context, recordID string) ([]domain.Record, error)
	ListRecordsByContent(ctx context.Context, qType domain.RecordType, contents []string) ([]domain.Record, error)
	ListRecordsByNames(ctx context.Context, qType domain.RecordType, names []string) ([]domain.Record, error)
	CreateRecord(ctx context.Context, r *domain.Record) error
	UpdateRecord(ctx context.Context, r *domain.Record) error
	DeleteRecord(ctx context.Context, id string) error
}

type TemplateRepository interface {
	GetDomainTemplate(ctx context.Context, id string) (*domain.DomainTemplate, error)
	CreateDomainTemplate(ctx context.Context, t *domain.DomainTemplate) error
	DeleteDomainTemplate(ctx context.Context, id string) error
	GetRecordTemplate(ctx context.Context, id string) (*domain.RecordTemplate, error)
	ListRecordTemplates(ctx context.Context, domainTemplateID string) ([]domain.RecordTemplate, error)
	CreateRecordTemplate(ctx context.Context, t *domain.RecordTemplate) error
	UpdateRecordTemplate(ctx context.Context, t *domain.RecordTemplate) error
	DeleteRecordTemplate(ctx context.Context, id string) error
}

// RequestRepository stores change requests. The Lock variants read a request
// like their Get counterparts but hold its row until the surrounding
// transaction ends, so two transitions of one request run one after the other.
type RequestRepository interface {
	GetDomainRequest(ctx context.Context, id string) (*domain.DomainRequest, error)
	LockDomainRequest(ctx context.Context, id string) (*domain.DomainRequest, error)
	CreateDomainRequest(ctx context.Context, r *domain.DomainRequest) error
	UpdateDomainRequest(ctx context.Context, r *domain.DomainRequest) error
	GetRecordRequest(ctx context.Context, id string) (*domain.RecordRequest, error)
	LockRecordRequest(ctx context.Context, id string) (*domain.RecordRequest, error)
	CreateRecordRequest(ctx context.Context, r *domain.RecordRequest) error
	UpdateRecordRequest(ctx context.Context, r *domain.RecordRequest) error
	ListOpenRecordRequests(ctx context.Context, recordID string) ([]domain.RecordRequest, error)
	GetDeleteRequest(ctx context.Context, id string) (*domain.DeleteRequest, error)
	LockDeleteRequest(ctx context.Context, id string) (*domain.DeleteRequest, error)
	CreateDeleteRequest(ctx context.Context, r *domain.DeleteRequest) error
	UpdateDeleteRequest(ctx context.Context, r *domain.DeleteRequest) error
}

type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log *domain.AuditLog) error
	GetAuditLogs(ctx context.Context, userID string) ([]domain.AuditLog, error)
}

// Repository is the full storage port used by the core services.
type Repository interface {
	UserRepository
	OwnershipRepository
	DomainRepository
	RecordRepository
	TemplateRepository
	RequestRepository
	AuditRepository

	// RunInTx runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise. Calling
	// RunInTx on a transaction-bound repository joins the outer transaction.
	RunInTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
}

// ChangeNotifier publishes accepted changes to interested consumers.
type ChangeNotifier interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// RequestService is the change-request entry point consumed by the API.
type RequestService interface {
	CreateRecordRequest(ctx context.Context, user *domain.User, fields domain.RecordFields) (*domain.Outcome, error)
	UpdateRecordRequest(ctx context.Context, user *domain.User, recordID string, fields domain.RecordFields) (*domain.Outcome, error)
	CreateDomainRequest(ctx context.Context, user *domain.User, fields domain.DomainFields) (*domain.Outcome, error)
	UpdateDomainRequest(ctx context.Context, user *domain.User, domainID string, fields domain.DomainFields) (*domain.Outcome, error)
	DeleteRequest(ctx context.Context, user *domain.User, kind domain.EntityKind, targetID string) (*domain.Outcome, error)
	Accept(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string) (*domain.Outcome, error)
	Reject(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string) (*domain.Outcome, error)
	GetRequest(ctx context.Context, kind domain.RequestKind, requestID string) (*domain.Outcome, error)
}

// TemplateService manages domain and record templates.
type TemplateService interface {
	CreateDomainTemplate(ctx context.Context, user *domain.User, t *domain.DomainTemplate) error
	DeleteDomainTemplate(ctx context.Context, user *domain.User, id string) error
	CreateRecordTemplate(ctx context.Context, user *domain.User, t *domain.RecordTemplate) error
	UpdateRecordTemplate(ctx context.Context, user *domain.User, t *domain.RecordTemplate) error
	DeleteRecordTemplate(ctx context.Context, user *domain.User, id string) error
}

// AdminService covers ownership administration and record bookkeeping.
type AdminService interface {
	CreateService(ctx context.Context, user *domain.User, svc *domain.Service) error
	AddServiceOwner(ctx context.Context, user *domain.User, owner *domain.ServiceOwner) error
	RemoveServiceOwner(ctx context.Context, user *domain.User, serviceID string, userID string) error
	GrantAuthorisation(ctx context.Context, user *domain.User, a *domain.Authorisation) error
	SetAcceptance(ctx context.Context, user *domain.User, domainID string, requireSec, requireSeo bool) (*domain.Domain, error)
	SyncAutoTXT(ctx context.Context, user *domain.User, entries []domain.AutoTXT) ([]domain.Record, error)
	RecordsForIPs(ctx context.Context, ips []string, types []domain.RecordType) ([]domain.Record, error)
	ListAuditLogs(ctx context.Context, user *domain.User) ([]domain.AuditLog, error)
	HealthCheck(ctx context.Context) map[string]error
}
