package repository

import (
	"context"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

const domainColumns = `id, name, master, type, account, remarks, owner_id, service_id, template_id,
	reverse_template_id, unrestricted, require_sec_acceptance, require_seo_acceptance, auto_ptr,
	notified_serial, created_at, updated_at`

func scanDomain(s scanner) (domain.Domain, error) {
	var d domain.Domain
	err := s.Scan(&d.ID, &d.Name, &d.Master, &d.Type, &d.Account, &d.Remarks, &d.OwnerID, &d.ServiceID,
		&d.TemplateID, &d.ReverseTemplateID, &d.Unrestricted, &d.RequireSecAcceptance, &d.RequireSeoAcceptance,
		&d.AutoPtr, &d.NotifiedSerial, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *PostgresRepository) GetDomain(ctx context.Context, id string) (*domain.Domain, error) {
	return queryOne(ctx, r.q, scanDomain, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)
}

// GetDomainByName compares names case-insensitively (RFC 1034).
func (r *PostgresRepository) GetDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	return queryOne(ctx, r.q, scanDomain, `SELECT `+domainColumns+` FROM domains WHERE LOWER(name) = LOWER($1)`, name)
}

func (r *PostgresRepository) ListDomainsByNames(ctx context.Context, names []string) ([]domain.Domain, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := `SELECT ` + domainColumns + ` FROM domains WHERE name IN (` + placeholders(1, len(names)) + `) ORDER BY name`
	return queryList(ctx, r.q, scanDomain, query, stringArgs(names)...)
}

func (r *PostgresRepository) ListDomainsByTemplate(ctx context.Context, templateID string) ([]domain.Domain, error) {
	return queryList(ctx, r.q, scanDomain, `SELECT `+domainColumns+` FROM domains WHERE template_id = $1 ORDER BY name`, templateID)
}

func (r *PostgresRepository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	query := `INSERT INTO domains (` + domainColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.ExecContext(ctx, query, d.ID, d.Name, d.Master, string(d.Type), d.Account, d.Remarks, d.OwnerID,
		d.ServiceID, d.TemplateID, d.ReverseTemplateID, d.Unrestricted, d.RequireSecAcceptance,
		d.RequireSeoAcceptance, string(d.AutoPtr), d.NotifiedSerial, d.CreatedAt, d.UpdatedAt)
	return err
}

// UpdateDomain never writes notified_serial, which belongs to PowerDNS.
func (r *PostgresRepository) UpdateDomain(ctx context.Context, d *domain.Domain) error {
	query := `UPDATE domains SET name = $2, master = $3, type = $4, account = $5, remarks = $6, owner_id = $7,
	          service_id = $8, template_id = $9, reverse_template_id = $10, unrestricted = $11,
	          require_sec_acceptance = $12, require_seo_acceptance = $13, auto_ptr = $14, updated_at = $15
	          WHERE id = $1`
	return execAffecting(ctx, r.q, domain.ErrNotFound, query, d.ID, d.Name, d.Master, string(d.Type), d.Account,
		d.Remarks, d.OwnerID, d.ServiceID, d.TemplateID, d.ReverseTemplateID, d.Unrestricted,
		d.RequireSecAcceptance, d.RequireSeoAcceptance, string(d.AutoPtr), d.UpdatedAt)
}

// DeleteDomain relies on ON DELETE CASCADE to drop the domain's records.
func (r *PostgresRepository) DeleteDomain(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM domains WHERE id = $1`, id)
	return err
}
