package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/poyrazK/dnsaas/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var domainCols = []string{"id", "name", "master", "type", "account", "remarks", "owner_id", "service_id",
	"template_id", "reverse_template_id", "unrestricted", "require_sec_acceptance", "require_seo_acceptance",
	"auto_ptr", "notified_serial", "created_at", "updated_at"}

var recordCols = []string{"id", "domain_id", "name", "type", "content", "ttl", "prio", "auth", "disabled",
	"remarks", "owner_id", "service_id", "auto_ptr", "template_id", "depends_on_id", "subtype", "change_date",
	"created_at", "updated_at"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %s", err)
		}
		db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_Domains(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("GetDomain", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(domainCols).
			AddRow("d1", "example.com", "", "NATIVE", "", "", "u1", nil, "t1", nil, false, true, false, "ALWAYS", nil, now, now)
		mock.ExpectQuery(`SELECT (.+) FROM domains WHERE id = \$1`).WithArgs("d1").WillReturnRows(rows)

		d, err := repo.GetDomain(ctx, "d1")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "example.com", d.Name)
		assert.Equal(t, domain.DomainNative, d.Type)
		assert.Equal(t, "u1", *d.OwnerID)
		assert.Nil(t, d.ServiceID)
		assert.Equal(t, "t1", *d.TemplateID)
		assert.True(t, d.RequireSecAcceptance)
		assert.Equal(t, domain.AutoPtrAlways, d.AutoPtr)
	})

	t.Run("GetDomainByName missing", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM domains WHERE LOWER\(name\) = LOWER\(\$1\)`).
			WithArgs("Nope.COM").
			WillReturnRows(sqlmock.NewRows(domainCols))

		d, err := repo.GetDomainByName(ctx, "Nope.COM")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("ListDomainsByNames", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(domainCols).
			AddRow("d2", "20.10.in-addr.arpa", "", "", "", "", nil, nil, nil, nil, false, false, false, "NEVER", int64(7), now, now)
		mock.ExpectQuery(`SELECT (.+) FROM domains WHERE name IN \(\$1, \$2\) ORDER BY name`).
			WithArgs("30.20.10.in-addr.arpa", "20.10.in-addr.arpa").
			WillReturnRows(rows)

		ds, err := repo.ListDomainsByNames(ctx, []string{"30.20.10.in-addr.arpa", "20.10.in-addr.arpa"})
		require.NoError(t, err)
		require.Len(t, ds, 1)
		assert.Equal(t, int64(7), *ds[0].NotifiedSerial)

		none, err := repo.ListDomainsByNames(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdateDomain not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(`UPDATE domains SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateDomain(ctx, &domain.Domain{ID: "missing", Name: "x.com"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteDomain", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(`DELETE FROM domains WHERE id = \$1`).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.DeleteDomain(ctx, "d1"))
	})
}

func TestPostgresRepository_Records(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("CreateRecord", func(t *testing.T) {
		repo, mock := newMock(t)
		prio := 10
		owner := "u1"
		rec := &domain.Record{ID: "r1", DomainID: "d1", Name: "example.com", Type: domain.TypeMX,
			Content: "mail.example.com", TTL: 3600, Priority: &prio, Auth: true, OwnerID: &owner, CreatedAt: now, UpdatedAt: now}
		mock.ExpectExec(`INSERT INTO records`).
			WithArgs("r1", "d1", "example.com", "MX", "mail.example.com", 3600, 10, true, false, "", "u1", nil,
				nil, nil, nil, "", int64(0), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, repo.CreateRecord(ctx, rec))
	})

	t.Run("GetRecord", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(recordCols).
			AddRow("r2", "d1", "1.0.0.10.in-addr.arpa", "PTR", "www.example.com", 3600, nil, true, false, "",
				nil, nil, "NEVER", nil, "r1", "", int64(1432720132), now, now)
		mock.ExpectQuery(`SELECT (.+) FROM records WHERE id = \$1`).WithArgs("r2").WillReturnRows(rows)

		rec, err := repo.GetRecord(ctx, "r2")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Nil(t, rec.Priority)
		require.NotNil(t, rec.AutoPtr)
		assert.Equal(t, domain.AutoPtrNever, *rec.AutoPtr)
		assert.Equal(t, "r1", *rec.DependsOnID)
		assert.Equal(t, int64(1432720132), rec.ChangeDate)
	})

	t.Run("ListRecordsByContent", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(recordCols).
			AddRow("r1", "d1", "www.example.com", "A", "10.0.0.1", 60, nil, true, false, "",
				nil, nil, nil, nil, nil, "", int64(0), now, now)
		mock.ExpectQuery(`SELECT (.+) FROM records WHERE type = \$1 AND content IN \(\$2, \$3\) ORDER BY name, type, id`).
			WithArgs("A", "10.0.0.1", "10.0.0.2").
			WillReturnRows(rows)

		recs, err := repo.ListRecordsByContent(ctx, domain.TypeA, []string{"10.0.0.1", "10.0.0.2"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 60, recs[0].TTL)
	})

	t.Run("UpdateRecord not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(`UPDATE records SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.UpdateRecord(ctx, &domain.Record{ID: "gone"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPostgresRepository_RunInTx(t *testing.T) {
	ctx := context.Background()
	entry := &domain.AuditLog{ID: "a1", UserID: "u1", Action: "ACCEPT_RECORD_REQUEST", ResourceType: "RECORD_REQUEST",
		ResourceID: "rr1", Details: "{}", CreatedAt: time.Now()}

	t.Run("commit and join", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM records`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.RunInTx(ctx, func(tx ports.Repository) error {
			if err := tx.SaveAuditLog(ctx, entry); err != nil {
				return err
			}
			// The nested call must not open a second transaction.
			return tx.RunInTx(ctx, func(inner ports.Repository) error {
				return inner.DeleteRecord(ctx, "r1")
			})
		})
		assert.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		repo, mock := newMock(t)
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(boom)
		mock.ExpectRollback()

		err := repo.RunInTx(ctx, func(tx ports.Repository) error {
			return tx.SaveAuditLog(ctx, entry)
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("begin failure", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		called := false
		err := repo.RunInTx(ctx, func(ports.Repository) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}

func TestPostgresRepository_Requests(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	header := []string{"id", "key", "owner_id", "state", "last_change_json", "created_at", "updated_at"}

	t.Run("GetRecordRequest decodes the diff", func(t *testing.T) {
		repo, mock := newMock(t)
		cols := append(append([]string{}, header...), "domain_id", "record_id", "name", "type", "content", "ttl",
			"prio", "auth", "disabled", "remarks", "target_owner_id", "service_id", "auto_ptr")
		change := []byte(`{"content":{"old":"10.0.0.1","new":"10.0.0.2"},"_request_type":"update"}`)
		rows := sqlmock.NewRows(cols).
			AddRow("rr1", "k1", "u1", "ACCEPTED", change, now, now, "d1", "r1", "www.example.com", "A",
				"10.0.0.2", 3600, nil, true, false, "", nil, nil, nil)
		mock.ExpectQuery(`SELECT (.+) FROM record_requests WHERE id = \$1`).WithArgs("rr1").WillReturnRows(rows)

		req, err := repo.GetRecordRequest(ctx, "rr1")
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, domain.StateAccepted, req.State)
		require.NotNil(t, req.LastChangeJSON)
		assert.Equal(t, domain.ActionUpdate, req.LastChangeJSON.RequestType)
		assert.Equal(t, "10.0.0.2", req.LastChangeJSON.Fields["content"].New)
	})

	t.Run("LockRecordRequest holds the row in the transaction", func(t *testing.T) {
		repo, mock := newMock(t)
		cols := append(append([]string{}, header...), "domain_id", "record_id", "name", "type", "content", "ttl",
			"prio", "auth", "disabled", "remarks", "target_owner_id", "service_id", "auto_ptr")
		rows := sqlmock.NewRows(cols).
			AddRow("rr1", "k1", "u1", "OPEN", nil, now, now, "d1", "r1", "www.example.com", "A",
				"10.0.0.2", 3600, nil, true, false, "", nil, nil, nil)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM record_requests WHERE id = \$1 FOR UPDATE`).WithArgs("rr1").WillReturnRows(rows)
		mock.ExpectCommit()

		var req *domain.RecordRequest
		err := repo.RunInTx(ctx, func(tx ports.Repository) error {
			var err error
			req, err = tx.LockRecordRequest(ctx, "rr1")
			return err
		})
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, domain.StateOpen, req.State)
		assert.Nil(t, req.LastChangeJSON)
	})

	t.Run("LockDomainRequest and LockDeleteRequest lock too", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`FROM domain_requests WHERE id = \$1 FOR UPDATE`).WithArgs("dq1").
			WillReturnRows(sqlmock.NewRows(header))
		mock.ExpectQuery(`FROM delete_requests WHERE id = \$1 FOR UPDATE`).WithArgs("dr1").
			WillReturnRows(sqlmock.NewRows(header))

		dq, err := repo.LockDomainRequest(ctx, "dq1")
		require.NoError(t, err)
		assert.Nil(t, dq)
		dr, err := repo.LockDeleteRequest(ctx, "dr1")
		require.NoError(t, err)
		assert.Nil(t, dr)
	})

	t.Run("ListOpenRecordRequests", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`FROM record_requests WHERE record_id = \$1 AND state = \$2`).
			WithArgs("r1", "OPEN").
			WillReturnRows(sqlmock.NewRows(header))

		reqs, err := repo.ListOpenRecordRequests(ctx, "r1")
		require.NoError(t, err)
		assert.Empty(t, reqs)
	})

	t.Run("CreateDeleteRequest", func(t *testing.T) {
		repo, mock := newMock(t)
		req := &domain.DeleteRequest{
			Request:    domain.Request{ID: "dr1", Key: "k", OwnerID: "u1", State: domain.StateOpen, CreatedAt: now, UpdatedAt: now},
			TargetKind: domain.KindRecord,
			TargetID:   "r1",
		}
		mock.ExpectExec(`INSERT INTO delete_requests`).
			WithArgs("dr1", "k", "u1", "OPEN", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), "record", "r1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, repo.CreateDeleteRequest(ctx, req))
	})

	t.Run("UpdateDeleteRequest stores the diff", func(t *testing.T) {
		repo, mock := newMock(t)
		req := &domain.DeleteRequest{Request: domain.Request{ID: "dr1", State: domain.StateRejected, UpdatedAt: now}}
		req.LastChangeJSON = domain.NewChange(domain.ActionDelete,
			domain.HistoryDump{"name": "www.example.com"}, domain.HistoryDump{"name": ""})
		mock.ExpectExec(`UPDATE delete_requests SET state = \$2, last_change_json = \$3`).
			WithArgs("dr1", "REJECTED", `{"_request_type":"delete","name":{"old":"www.example.com","new":""}}`, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateDeleteRequest(ctx, req))
	})
}

func TestPostgresRepository_AuditLogs(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "user_id", "action", "resource_type", "resource_id", "details", "created_at"}

	t.Run("one user", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(cols).AddRow("a1", "u1", "ACCEPT_RECORD_REQUEST", "RECORD_REQUEST", "rr1", "{}", time.Now())
		mock.ExpectQuery(`SELECT (.+) FROM audit_logs WHERE user_id = \$1 ORDER BY created_at DESC`).
			WithArgs("u1").
			WillReturnRows(rows)

		logs, err := repo.GetAuditLogs(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "RECORD_REQUEST", logs[0].ResourceType)
	})

	t.Run("everyone", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM audit_logs ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(cols))

		logs, err := repo.GetAuditLogs(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestPostgresRepository_Ownership(t *testing.T) {
	ctx := context.Background()

	t.Run("ListServiceOwnerIDs", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`SELECT user_id FROM service_owners WHERE service_id = \$1`).
			WithArgs("s1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1").AddRow("u2"))

		ids, err := repo.ListServiceOwnerIDs(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, ids)
	})

	t.Run("AddServiceOwner upserts", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(`INSERT INTO service_owners (.+) ON CONFLICT \(service_id, user_id\) DO UPDATE`).
			WithArgs("s1", "u1", "TO", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.AddServiceOwner(ctx, &domain.ServiceOwner{ServiceID: "s1", UserID: "u1", OwnershipType: domain.OwnershipTechnical})
		assert.NoError(t, err)
	})

	t.Run("ListAuthorisedUserIDs", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`SELECT authorised_id FROM authorisations WHERE target_kind = \$1 AND target_id = \$2`).
			WithArgs("domain", "d1").
			WillReturnRows(sqlmock.NewRows([]string{"authorised_id"}).AddRow("u3"))

		ids, err := repo.ListAuthorisedUserIDs(ctx, domain.KindDomain, "d1")
		require.NoError(t, err)
		assert.Equal(t, []string{"u3"}, ids)
	})
}
