package repository

import (
	"context"
	"database/sql"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

func (r *PostgresRepository) GetDomainTemplate(ctx context.Context, id string) (*domain.DomainTemplate, error) {
	return queryOne(ctx, r.q, func(s scanner) (domain.DomainTemplate, error) {
		var t domain.DomainTemplate
		err := s.Scan(&t.ID, &t.Name, &t.IsPublicDomain, &t.CreatedAt)
		return t, err
	}, `SELECT id, name, is_public_domain, created_at FROM domain_templates WHERE id = $1`, id)
}

func (r *PostgresRepository) CreateDomainTemplate(ctx context.Context, t *domain.DomainTemplate) error {
	query := `INSERT INTO domain_templates (id, name, is_public_domain, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, t.ID, t.Name, t.IsPublicDomain, t.CreatedAt)
	return err
}

// DeleteDomainTemplate cascades to record templates and unbinds domains
// through the schema's foreign keys.
func (r *PostgresRepository) DeleteDomainTemplate(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM domain_templates WHERE id = $1`, id)
	return err
}

const recordTemplateColumns = `id, domain_template_id, name, type, content, ttl, prio, auth, remarks, auto_ptr, created_at`

func scanRecordTemplate(s scanner) (domain.RecordTemplate, error) {
	var t domain.RecordTemplate
	var prio sql.NullInt64
	err := s.Scan(&t.ID, &t.DomainTemplateID, &t.Name, &t.Type, &t.Content, &t.TTL, &prio, &t.Auth, &t.Remarks,
		&t.AutoPtr, &t.CreatedAt)
	t.Priority = nullInt(prio)
	return t, err
}

func (r *PostgresRepository) GetRecordTemplate(ctx context.Context, id string) (*domain.RecordTemplate, error) {
	return queryOne(ctx, r.q, scanRecordTemplate, `SELECT `+recordTemplateColumns+` FROM record_templates WHERE id = $1`, id)
}

func (r *PostgresRepository) ListRecordTemplates(ctx context.Context, domainTemplateID string) ([]domain.RecordTemplate, error) {
	query := `SELECT ` + recordTemplateColumns + ` FROM record_templates WHERE domain_template_id = $1 ORDER BY created_at, id`
	return queryList(ctx, r.q, scanRecordTemplate, query, domainTemplateID)
}

func (r *PostgresRepository) CreateRecordTemplate(ctx context.Context, t *domain.RecordTemplate) error {
	query := `INSERT INTO record_templates (` + recordTemplateColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.ExecContext(ctx, query, t.ID, t.DomainTemplateID, t.Name, string(t.Type), t.Content, t.TTL,
		t.Priority, t.Auth, t.Remarks, autoPtrArg(t.AutoPtr), t.CreatedAt)
	return err
}

func (r *PostgresRepository) UpdateRecordTemplate(ctx context.Context, t *domain.RecordTemplate) error {
	query := `UPDATE record_templates SET name = $2, type = $3, content = $4, ttl = $5, prio = $6, auth = $7,
	          remarks = $8, auto_ptr = $9 WHERE id = $1`
	return execAffecting(ctx, r.q, domain.ErrNotFound, query, t.ID, t.Name, string(t.Type), t.Content, t.TTL,
		t.Priority, t.Auth, t.Remarks, autoPtrArg(t.AutoPtr))
}

func (r *PostgresRepository) DeleteRecordTemplate(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM record_templates WHERE id = $1`, id)
	return err
}
