package repository

import (
	"context"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

const userColumns = `id, username, email, is_superuser, active, created_at`

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.IsSuperuser, &u.Active, &u.CreatedAt)
	return u, err
}

func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return queryOne(ctx, r.q, scanUser, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return queryOne(ctx, r.q, scanUser, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, email, is_superuser, active, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.IsSuperuser, user.Active, user.CreatedAt)
	return err
}

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, active, created_at, expires_at`

func scanAPIKey(s scanner) (domain.APIKey, error) {
	var k domain.APIKey
	err := s.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Active, &k.CreatedAt, &k.ExpiresAt)
	return k, err
}

func (r *PostgresRepository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	return queryOne(ctx, r.q, scanAPIKey, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash)
}

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, active, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query, key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Active, key.CreatedAt, key.ExpiresAt)
	return err
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error) {
	return queryList(ctx, r.q, scanAPIKey, `SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) DeleteAPIKey(ctx context.Context, userID string, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

// Ownership

func (r *PostgresRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return queryOne(ctx, r.q, func(s scanner) (domain.Service, error) {
		var svc domain.Service
		err := s.Scan(&svc.ID, &svc.Name, &svc.UID, &svc.IsActive, &svc.CreatedAt)
		return svc, err
	}, `SELECT id, name, uid, is_active, created_at FROM services WHERE id = $1`, id)
}

func (r *PostgresRepository) CreateService(ctx context.Context, svc *domain.Service) error {
	query := `INSERT INTO services (id, name, uid, is_active, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, svc.ID, svc.Name, svc.UID, svc.IsActive, svc.CreatedAt)
	return err
}

func (r *PostgresRepository) ListServiceOwnerIDs(ctx context.Context, serviceID string) ([]string, error) {
	return queryStrings(ctx, r.q, `SELECT user_id FROM service_owners WHERE service_id = $1`, serviceID)
}

func (r *PostgresRepository) AddServiceOwner(ctx context.Context, owner *domain.ServiceOwner) error {
	query := `INSERT INTO service_owners (service_id, user_id, ownership_type, created_at) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (service_id, user_id) DO UPDATE SET ownership_type = EXCLUDED.ownership_type`
	_, err := r.q.ExecContext(ctx, query, owner.ServiceID, owner.UserID, string(owner.OwnershipType), owner.CreatedAt)
	return err
}

func (r *PostgresRepository) RemoveServiceOwner(ctx context.Context, serviceID string, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM service_owners WHERE service_id = $1 AND user_id = $2`, serviceID, userID)
	return err
}

func (r *PostgresRepository) ListAuthorisedUserIDs(ctx context.Context, kind domain.EntityKind, targetID string) ([]string, error) {
	return queryStrings(ctx, r.q, `SELECT authorised_id FROM authorisations WHERE target_kind = $1 AND target_id = $2`, string(kind), targetID)
}

func (r *PostgresRepository) CreateAuthorisation(ctx context.Context, a *domain.Authorisation) error {
	query := `INSERT INTO authorisations (id, target_kind, target_id, authorised_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, a.ID, string(a.TargetKind), a.TargetID, a.AuthorisedID, a.CreatedAt)
	return err
}
