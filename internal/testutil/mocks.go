package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

// MockNotifier implements ports.ChangeNotifier for testing.
type MockNotifier struct {
	mu          sync.Mutex
	Events      []domain.ChangeEvent
	FailPublish bool
}

func (m *MockNotifier) Publish(_ context.Context, event domain.ChangeEvent) error {
	if m.FailPublish {
		return errors.New("publish failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// Published returns a copy of the events seen so far.
func (m *MockNotifier) Published() []domain.ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChangeEvent(nil), m.Events...)
}

// MockHealthChecker reports a fixed error from Ping.
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) Ping(_ context.Context) error { return m.Err }
