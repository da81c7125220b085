package repository

import (
	"context"

	"github.com/poyrazK/dnsaas/internal/core/domain"
)

func (r *PostgresRepository) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, query, log.ID, log.UserID, log.Action, log.ResourceType, log.ResourceID, log.Details, log.CreatedAt)
	return err
}

// GetAuditLogs returns the entries of one user, newest first. An empty
// userID returns every entry.
func (r *PostgresRepository) GetAuditLogs(ctx context.Context, userID string) ([]domain.AuditLog, error) {
	query := `SELECT id, user_id, action, resource_type, resource_id, details, created_at FROM audit_logs`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	return queryList(ctx, r.q, func(s scanner) (domain.AuditLog, error) {
		var l domain.AuditLog
		err := s.Scan(&l.ID, &l.UserID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.CreatedAt)
		return l, err
	}, query, args...)
}
