package repository

import (
	"context"
	"database/sql"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

const recordColumns = `id, domain_id, name, type, content, ttl, prio, auth, disabled, remarks, owner_id,
	service_id, auto_ptr, template_id, depends_on_id, subtype, change_date, created_at, updated_at`

const recordOrder = ` ORDER BY name, type, id`

func scanRecord(s scanner) (domain.Record, error) {
	var rec domain.Record
	var prio sql.NullInt64
	err := s.Scan(&rec.ID, &rec.DomainID, &rec.Name, &rec.Type, &rec.Content, &rec.TTL, &prio, &rec.Auth,
		&rec.Disabled, &rec.Remarks, &rec.OwnerID, &rec.ServiceID, &rec.AutoPtr, &rec.TemplateID,
		&rec.DependsOnID, &rec.Subtype, &rec.ChangeDate, &rec.CreatedAt, &rec.UpdatedAt)
	rec.Priority = nullInt(prio)
	return rec, err
}

func (r *PostgresRepository) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	return queryOne(ctx, r.q, scanRecord, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
}

func (r *PostgresRepository) ListRecordsByName(ctx context.Context, name string) ([]domain.Record, error) {
	return queryList(ctx, r.q, scanRecord, `SELECT `+recordColumns+` FROM records WHERE name = $1`+recordOrder, name)
}

func (r *PostgresRepository) ListRecordsForDomain(ctx context.Context, domainID string) ([]domain.Record, error) {
	return queryList(ctx, r.q, scanRecord, `SELECT `+recordColumns+` FROM records WHERE domain_id = $1`+recordOrder, domainID)
}

func (r *PostgresRepository) ListRecordsByTemplate(ctx context.Context, recordTemplateID string) ([]domain.Record, error) {
	return queryList(ctx, r.q, scanRecord, `SELECT `+recordColumns+` FROM records WHERE template_id = $1`+recordOrder, recordTemplateID)
}

func (r *PostgresRepository) ListDependentRecords(ctx context.Context, recordID string) ([]domain.Record, error) {
	return queryList(ctx, r.q, scanRecord, `SELECT `+recordColumns+` FROM records WHERE depends_on_id = $1`+recordOrder, recordID)
}

func (r *PostgresRepository) ListRecordsByContent(ctx context.Context, qType domain.RecordType, contents []string) ([]domain.Record, error) {
	return r.listRecordsIn(ctx, "content", qType, contents)
}

func (r *PostgresRepository) ListRecordsByNames(ctx context.Context, qType domain.RecordType, names []string) ([]domain.Record, error) {
	return r.listRecordsIn(ctx, "name", qType, names)
}

func (r *PostgresRepository) listRecordsIn(ctx context.Context, column string, qType domain.RecordType, values []string) ([]domain.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	query := `SELECT ` + recordColumns + ` FROM records WHERE type = $1 AND ` + column +
		` IN (` + placeholders(2, len(values)) + `)` + recordOrder
	args := append([]any{string(qType)}, stringArgs(values)...)
	return queryList(ctx, r.q, scanRecord, query, args...)
}

func autoPtrArg(p *domain.AutoPtr) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func (r *PostgresRepository) CreateRecord(ctx context.Context, rec *domain.Record) error {
	query := `INSERT INTO records (` + recordColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.ExecContext(ctx, query, rec.ID, rec.DomainID, rec.Name, string(rec.Type), rec.Content, rec.TTL,
		rec.Priority, rec.Auth, rec.Disabled, rec.Remarks, rec.OwnerID, rec.ServiceID, autoPtrArg(rec.AutoPtr),
		rec.TemplateID, rec.DependsOnID, rec.Subtype, rec.ChangeDate, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *PostgresRepository) UpdateRecord(ctx context.Context, rec *domain.Record) error {
	query := `UPDATE records SET domain_id = $2, name = $3, type = $4, content = $5, ttl = $6, prio = $7, auth = $8,
	          disabled = $9, remarks = $10, owner_id = $11, service_id = $12, auto_ptr = $13, template_id = $14,
	          depends_on_id = $15, subtype = $16, change_date = $17, updated_at = $18
	          WHERE id = $1`
	return execAffecting(ctx, r.q, domain.ErrNotFound, query, rec.ID, rec.DomainID, rec.Name, string(rec.Type),
		rec.Content, rec.TTL, rec.Priority, rec.Auth, rec.Disabled, rec.Remarks, rec.OwnerID, rec.ServiceID,
		autoPtrArg(rec.AutoPtr), rec.TemplateID, rec.DependsOnID, rec.Subtype, rec.ChangeDate, rec.UpdatedAt)
}

func (r *PostgresRepository) DeleteRecord(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	return err
}
