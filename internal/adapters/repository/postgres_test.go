package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("dnsaas_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to apply migrations: %s", err)
	}

	return db, func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
}

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Migrations are idempotent.
	require.NoError(t, Migrate(db))

	owner := &domain.User{ID: "550e8400-e29b-41d4-a716-446655440000", Username: "owner", Active: true, CreatedAt: now}
	require.NoError(t, repo.CreateUser(ctx, owner))

	tpl := &domain.DomainTemplate{ID: "550e8400-e29b-41d4-a716-446655440010", Name: "base", IsPublicDomain: true, CreatedAt: now}
	require.NoError(t, repo.CreateDomainTemplate(ctx, tpl))
	rt := &domain.RecordTemplate{ID: "550e8400-e29b-41d4-a716-446655440011", DomainTemplateID: tpl.ID,
		Name: "{domain-name}", Type: domain.TypeNS, Content: "ns1.{domain-name}", TTL: 3600, Auth: true, CreatedAt: now}
	require.NoError(t, repo.CreateRecordTemplate(ctx, rt))

	d := &domain.Domain{
		ID: "550e8400-e29b-41d4-a716-446655440001", Name: "example.com", Type: domain.DomainNative,
		OwnerID: &owner.ID, TemplateID: &tpl.ID, ReverseTemplateID: &tpl.ID, AutoPtr: domain.AutoPtrAlways,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateDomain(ctx, d))

	// 1. Case-insensitive domain lookup (RFC 1034)
	found, err := repo.GetDomainByName(ctx, "ExAmPlE.CoM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, d.ID, found.ID)

	// 2. Records round trip with nullable columns
	prio := 10
	mx := &domain.Record{ID: "550e8400-e29b-41d4-a716-446655440002", DomainID: d.ID, Name: "example.com",
		Type: domain.TypeMX, Content: "mail.example.com", TTL: 3600, Priority: &prio, Auth: true,
		TemplateID: &rt.ID, ChangeDate: 1432720132, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateRecord(ctx, mx))
	got, err := repo.GetRecord(ctx, mx.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, *got.Priority)
	assert.Nil(t, got.AutoPtr)
	assert.Equal(t, int64(1432720132), got.ChangeDate)

	// 3. RunInTx rolls back on error
	boom := errors.New("boom")
	err = repo.RunInTx(ctx, func(tx ports.Repository) error {
		if err := tx.DeleteRecord(ctx, mx.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	still, err := repo.GetRecord(ctx, mx.ID)
	require.NoError(t, err)
	assert.NotNil(t, still, "the delete must be rolled back")

	// 4. Requests persist their diff as JSONB
	rr := &domain.RecordRequest{
		Request:  domain.Request{ID: "550e8400-e29b-41d4-a716-446655440003", Key: "k1", OwnerID: owner.ID, State: domain.StateOpen, CreatedAt: now, UpdatedAt: now},
		DomainID: d.ID, RecordID: &mx.ID, Name: mx.Name, Type: mx.Type, Content: "mail2.example.com", TTL: 3600, Auth: true,
	}
	require.NoError(t, repo.CreateRecordRequest(ctx, rr))
	open, err := repo.ListOpenRecordRequests(ctx, mx.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)

	rr.State = domain.StateAccepted
	rr.LastChangeJSON = domain.NewChange(domain.ActionUpdate, mx.AsHistoryDump(), rr.AsHistoryDump())
	require.NoError(t, repo.UpdateRecordRequest(ctx, rr))
	stored, err := repo.GetRecordRequest(ctx, rr.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastChangeJSON)
	assert.Equal(t, "mail2.example.com", stored.LastChangeJSON.Fields["content"].New)
	err = repo.RunInTx(ctx, func(tx ports.Repository) error {
		locked, err := tx.LockRecordRequest(ctx, rr.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.StateAccepted, locked.State)
		return nil
	})
	require.NoError(t, err)
	open, err = repo.ListOpenRecordRequests(ctx, mx.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	// 5. Deleting a domain template unbinds domains and drops its record templates
	require.NoError(t, repo.DeleteDomainTemplate(ctx, tpl.ID))
	unbound, err := repo.GetDomain(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, unbound.TemplateID)
	assert.Nil(t, unbound.ReverseTemplateID)
	rts, err := repo.ListRecordTemplates(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, rts)

	// 6. Audit logs
	require.NoError(t, repo.SaveAuditLog(ctx, &domain.AuditLog{ID: "550e8400-e29b-41d4-a716-446655440004", UserID: owner.ID,
		Action: "ACCEPT_RECORD_REQUEST", ResourceType: "RECORD_REQUEST", ResourceID: rr.ID, Details: "{}", CreatedAt: now}))
	logs, err := repo.GetAuditLogs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// 7. Deleting the domain cascades to its records
	require.NoError(t, repo.DeleteDomain(ctx, d.ID))
	leftover, err := repo.ListRecordsForDomain(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, leftover)
}
