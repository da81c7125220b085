package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/poyrazK/dnsaas/internal/testutil"
	"github.com/stretchr/testify/require"
)

// tickClock advances by one second on every reading.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	ctx       context.Context
	repo      *testutil.MemoryRepository
	notifier  *testutil.MockNotifier
	opts      Options
	requests  ports.RequestService
	templates ports.TemplateService
	admin     ports.AdminService

	root     *domain.User
	owner    *domain.User
	stranger *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		repo:     testutil.NewMemoryRepository(),
		notifier: &testutil.MockNotifier{},
	}
	clock := &tickClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.opts = Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Notifier: f.notifier,
		Now:      clock.Now,
	}
	f.requests = NewRequestService(f.repo, f.opts)
	f.templates = NewTemplateService(f.repo, f.opts)
	f.admin = NewAdminService(f.repo, f.opts, nil)

	f.root = f.user(t, "root", true)
	f.owner = f.user(t, "owner", false)
	f.stranger = f.user(t, "stranger", false)
	return f
}

func (f *fixture) user(t *testing.T, name string, superuser bool) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New().String(), Username: name, IsSuperuser: superuser, Active: true}
	require.NoError(t, f.repo.CreateUser(f.ctx, u))
	return u
}

// domain stores a domain owned by f.owner directly in the repository.
func (f *fixture) domain(t *testing.T, name string, mods ...func(*domain.Domain)) *domain.Domain {
	t.Helper()
	d := &domain.Domain{
		ID:      uuid.New().String(),
		Name:    name,
		Type:    domain.DomainNative,
		OwnerID: &f.owner.ID,
		AutoPtr: domain.AutoPtrNever,
	}
	for _, m := range mods {
		m(d)
	}
	require.NoError(t, f.repo.CreateDomain(f.ctx, d))
	return d
}

func (f *fixture) record(t *testing.T, d *domain.Domain, name string, typ domain.RecordType, content string, mods ...func(*domain.Record)) *domain.Record {
	t.Helper()
	r := &domain.Record{
		ID:       uuid.New().String(),
		DomainID: d.ID,
		Name:     name,
		Type:     typ,
		Content:  content,
		TTL:      3600,
		Auth:     true,
		OwnerID:  d.OwnerID,
	}
	for _, m := range mods {
		m(r)
	}
	require.NoError(t, f.repo.CreateRecord(f.ctx, r))
	return r
}

func (f *fixture) records(t *testing.T, d *domain.Domain) []domain.Record {
	t.Helper()
	recs, err := f.repo.ListRecordsForDomain(f.ctx, d.ID)
	require.NoError(t, err)
	return recs
}

func (f *fixture) auditCount(t *testing.T) int {
	t.Helper()
	logs, err := f.repo.GetAuditLogs(f.ctx, "")
	require.NoError(t, err)
	return len(logs)
}

func ptr[T any](v T) *T { return &v }

func recordFields(d *domain.Domain, name string, typ domain.RecordType, content string) domain.RecordFields {
	return domain.RecordFields{DomainID: d.ID, Name: ptr(name), Type: ptr(typ), Content: ptr(content)}
}

func withAutoPtr(p domain.AutoPtr) func(*domain.Domain) {
	return func(d *domain.Domain) { d.AutoPtr = p }
}
