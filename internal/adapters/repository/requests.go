package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

const requestColumns = `id, key, owner_id, state, last_change_json, created_at, updated_at`

// headerDest returns the scan targets for the shared request columns. The
// raw change JSON is decoded by decodeChange once the row is scanned.
func headerDest(h *domain.Request, raw *[]byte) []any {
	return []any{&h.ID, &h.Key, &h.OwnerID, &h.State, raw, &h.CreatedAt, &h.UpdatedAt}
}

func decodeChange(h *domain.Request, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var c domain.Change
	if err := json.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("decode last_change_json of request %s: %w", h.ID, err)
	}
	h.LastChangeJSON = &c
	return nil
}

// changeArg encodes the diff for a JSONB column, NULL when absent.
func changeArg(c *domain.Change) (any, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Domain requests

const domainRequestColumns = requestColumns + `, domain_id, parent_domain_id, name, master, type, account,
	remarks, template_id, reverse_template_id, auto_ptr, unrestricted, target_owner_id, service_id`

func scanDomainRequest(s scanner) (domain.DomainRequest, error) {
	var req domain.DomainRequest
	var raw []byte
	dest := append(headerDest(&req.Request, &raw), &req.DomainID, &req.ParentDomainID, &req.Name, &req.Master,
		&req.Type, &req.Account, &req.Remarks, &req.TemplateID, &req.ReverseTemplateID, &req.AutoPtr,
		&req.Unrestricted, &req.TargetOwnerID, &req.ServiceID)
	if err := s.Scan(dest...); err != nil {
		return req, err
	}
	return req, decodeChange(&req.Request, raw)
}

func (r *PostgresRepository) GetDomainRequest(ctx context.Context, id string) (*domain.DomainRequest, error) {
	return queryOne(ctx, r.q, scanDomainRequest, `SELECT `+domainRequestColumns+` FROM domain_requests WHERE id = $1`, id)
}

func (r *PostgresRepository) LockDomainRequest(ctx context.Context, id string) (*domain.DomainRequest, error) {
	return queryOne(ctx, r.q, scanDomainRequest, `SELECT `+domainRequestColumns+` FROM domain_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) CreateDomainRequest(ctx context.Context, req *domain.DomainRequest) error {
	change, err := changeArg(req.LastChangeJSON)
	if err != nil {
		return err
	}
	query := `INSERT INTO domain_requests (` + domainRequestColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err = r.q.ExecContext(ctx, query, req.ID, req.Key, req.OwnerID, string(req.State), change, req.CreatedAt,
		req.UpdatedAt, req.DomainID, req.ParentDomainID, req.Name, req.Master, string(req.Type), req.Account,
		req.Remarks, req.TemplateID, req.ReverseTemplateID, string(req.AutoPtr), req.Unrestricted,
		req.TargetOwnerID, req.ServiceID)
	return err
}

func (r *PostgresRepository) UpdateDomainRequest(ctx context.Context, req *domain.DomainRequest) error {
	change, err := changeArg(req.LastChangeJSON)
	if err != nil {
		return err
	}
	query := `UPDATE domain_requests SET state = $2, last_change_json = $3, updated_at = $4, domain_id = $5,
	          parent_domain_id = $6, name = $7, master = $8, type = $9, account = $10, remarks = $11,
	          template_id = $12, reverse_template_id = $13, auto_ptr = $14, unrestricted = $15,
	          target_owner_id = $16, service_id = $17
	          WHERE id = $1`
	return execAffecting(ctx, r.q, domain.ErrNotFound, query, req.ID, string(req.State), change, req.UpdatedAt,
		req.DomainID, req.ParentDomainID, req.Name, req.Master, string(req.Type), req.Account, req.Remarks,
		req.TemplateID, req.ReverseTemplateID, string(req.AutoPtr), req.Unrestricted, req.TargetOwnerID,
		req.ServiceID)
}

// Record requests

const recordRequestColumns = requestColumns + `, domain_id, record_id, name, type, content, ttl, prio, auth,
	disabled, remarks, target_owner_id, service_id, auto_ptr`

func scanRecordRequest(s scanner) (domain.RecordRequest, error) {
	var req domain.RecordRequest
	var raw []byte
	var prio sql.NullInt64
	dest := append(headerDest(&req.Request, &raw), &req.DomainID, &req.RecordID, &req.Name, &req.Type,
		&req.Content, &req.TTL, &prio, &req.Auth, &req.Disabled, &req.Remarks, &req.TargetOwnerID,
		&req.ServiceID, &req.AutoPtr)
	if err := s.Scan(dest...); err != nil {
		return req, err
	}
	req.Priority = nullInt(prio)
	return req, decodeChange(&req.Request, raw)
}

func (r *PostgresRepository) GetRecordRequest(ctx context.Context, id string) (*domain.RecordRequest, error) {
	return queryOne(ctx, r.q, scanRecordRequest, `SELECT `+recordRequestColumns+` FROM record_requests WHERE id = $1`, id)
}

func (r *PostgresRepository) LockRecordRequest(ctx context.Context, id string) (*domain.RecordRequest, error) {
	return queryOne(ctx, r.q, scanRecordRequest, `SELECT `+recordRequestColumns+` FROM record_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) CreateRecordRequest(ctx context.Context, req *domain.RecordRequest) error {
	change, err := changeArg(req.LastChangeJSON)
	if err != nil {
		return err
	}
	query := `INSERT INTO record_requests (` + recordRequestColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err = r.q.ExecContext(ctx, query, req.ID, req.Key, req.OwnerID, string(req.State), change, req.CreatedAt,
		req.UpdatedAt, req.DomainID, req.RecordID, req.Name, string(req.Type), req.Content, req.TTL, req.Priority,
		req.Auth, req.Disabled, req.Remarks, req.TargetOwnerID, req.ServiceID, autoPtrArg(req.AutoPtr))
	return err
}

func (r *PostgresRepository) UpdateRecordRequest(ctx context.Context, req *domain.RecordRequest) error {
	change, err := changeArg(req.LastChangeJSON)
	if err != nil {
		return err
	}
	query := `UPDATE record_requests SET state = $2, last_change_json = $3, updated_at = $4, domain_id = $5,
	          record_id = $6, name = $7, type = $8, content = $9, ttl = $10, prio = $11, auth = $12,
	          disabled = $13, remarks = $14, target_owner_id = $15, service_id = $16, auto_ptr = $17
	          WHERE id = $1`
	return execAffecting(ctx, r.q, domain.ErrNotFound, query, req.ID, string(req.State), change, req.UpdatedAt,
		req.DomainID, req.RecordID, req.Name, string(req.Type), req.Content, req.TTL, req.Priority, req.Auth,
		req.Disabled, req.Remarks, req.TargetOwnerID, req.ServiceID, autoPtrArg(req.AutoPtr))
}

func (r *PostgresRepository) ListOpenRecordRequests(ctx context.Context, recordID string) ([]domain.RecordRequest, error) {
	query := `SELECT ` + recordRequestColumns + ` FROM record_requests WHERE record_id = $1 AND state = $2 ORDER BY id`
	return queryList(ctx, r.q, scanRecordRequest, query, recordID, string(domain.StateOpen))
}

// Delete requests

const deleteRequestColumns = requestColumns + `, target_kind, target_id`

func scanDeleteRequest(s scanner) (domain.DeleteRequest, error) {
	var req domain.DeleteRequest
	var raw []byte
	dest := append(headerDest(&req.Request, &raw), &req.TargetKind, &req.TargetID)
	if err := s.Scan(dest...); err != nil {
		return req, err
	}
	return req, decodeChange(&req.Request, raw)
}

func (r *PostgresRepository) GetDeleteRequest(ctx context.Context, id string) (*domain.DeleteRequest, error) {
	return queryOne(ctx, r.q, scanDeleteRequest, `SELECT `+deleteRequestColumns+` FROM delete_requests WHERE id = $1`, id)
}

func (r *PostgresRepository) LockDeleteRequest(ctx context.Context, id string) (*domain.DeleteRequest, error) {
	return queryOne(ctx, r.q, scanDeleteRequest, `SELECT `+deleteRequestColumns+` FROM delete_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) CreateDeleteRequest(ctx context.Context, req *domain.DeleteRequest) error {
	change, err := changeArg(req.LastChangeJSON)
	if err != nil {
		return err
	}
	query := `INSERT INTO delete_requests (` + deleteRequestColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.q.ExecContext(ctx, query, req.ID, req.Key, req.OwnerID, string(req.State), change, req.CreatedAt,
		req.UpdatedAt, string(req.TargetKind), req.TargetID)
	return err
}

func (r *PostgresRepository) UpdateDeleteRequest(ctx context.Context, req *domain.DeleteRequest) error {
	change, err := changeArg(req.LastChangeJSON)
	if err != nil {
		return err
	}
	query := `UPDATE delete_requests SET state = $2, last_change_json = $3, updated_at = $4 WHERE id = $1`
	return execAffecting(ctx, r.q, domain.ErrNotFound, query, req.ID, string(req.State), change, req.UpdatedAt)
}
