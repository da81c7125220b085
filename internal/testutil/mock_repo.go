package testutil

import (
	"context"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockRequestService is a testify mock of ports.RequestService.
type MockRequestService struct {
	mock.Mock
}

func outcome(args mock.Arguments) (*domain.Outcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Outcome), args.Error(1)
}

func (m *MockRequestService) CreateRecordRequest(ctx context.Context, user *domain.User, fields domain.RecordFields) (*domain.Outcome, error) {
	return outcome(m.Called(user, fields))
}

func (m *MockRequestService) UpdateRecordRequest(ctx context.Context, user *domain.User, recordID string, fields domain.RecordFields) (*domain.Outcome, error) {
	return outcome(m.Called(user, recordID, fields))
}

func (m *MockRequestService) CreateDomainRequest(ctx context.Context, user *domain.User, fields domain.DomainFields) (*domain.Outcome, error) {
	return outcome(m.Called(user, fields))
}

func (m *MockRequestService) UpdateDomainRequest(ctx context.Context, user *domain.User, domainID string, fields domain.DomainFields) (*domain.Outcome, error) {
	return outcome(m.Called(user, domainID, fields))
}

func (m *MockRequestService) DeleteRequest(ctx context.Context, user *domain.User, kind domain.EntityKind, targetID string) (*domain.Outcome, error) {
	return outcome(m.Called(user, kind, targetID))
}

func (m *MockRequestService) Accept(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string) (*domain.Outcome, error) {
	return outcome(m.Called(user, kind, requestID))
}

func (m *MockRequestService) Reject(ctx context.Context, user *domain.User, kind domain.RequestKind, requestID string) (*domain.Outcome, error) {
	return outcome(m.Called(user, kind, requestID))
}

func (m *MockRequestService) GetRequest(ctx context.Context, kind domain.RequestKind, requestID string) (*domain.Outcome, error) {
	return outcome(m.Called(kind, requestID))
}
