// Package repository stores dnsaas state in PostgreSQL, next to the PowerDNS
// domains and records tables.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poyrazK/dnsaas/internal/core/ports"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresRepository implements ports.Repository using PostgreSQL.
type PostgresRepository struct {
	db   *sql.DB
	q    dbtx
	inTx bool
}

var _ ports.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, q: db}
}

// RunInTx runs fn inside one transaction. A repository that is already bound
// to a transaction joins it instead of opening a nested one.
func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(tx ports.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	tx, errTx := r.db.BeginTx(ctx, nil)
	if errTx != nil {
		return fmt.Errorf("begin transaction: %w", errTx)
	}
	defer func() {
		if errRollback := tx.Rollback(); errRollback != nil && !errors.Is(errRollback, sql.ErrTxDone) {
			slog.Warn("failed to rollback transaction", "error", errRollback)
		}
	}()

	if err := fn(&PostgresRepository{db: r.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if errCommit := tx.Commit(); errCommit != nil {
		return fmt.Errorf("commit transaction: %w", errCommit)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func closeRows(rows *sql.Rows) {
	if errClose := rows.Close(); errClose != nil {
		slog.Warn("failed to close rows", "error", errClose)
	}
}

// queryOne returns (nil, nil) when no row matches.
func queryOne[T any](ctx context.Context, q dbtx, scan func(scanner) (T, error), query string, args ...any) (*T, error) {
	v, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryList[T any](ctx context.Context, q dbtx, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, errQuery := q.QueryContext(ctx, query, args...)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	var out []T
	for rows.Next() {
		v, errScan := scan(rows)
		if errScan != nil {
			return nil, errScan
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func queryStrings(ctx context.Context, q dbtx, query string, args ...any) ([]string, error) {
	return queryList(ctx, q, func(s scanner) (string, error) {
		var v string
		err := s.Scan(&v)
		return v, err
	}, query, args...)
}

// execAffecting fails with notFound when the statement touched no row.
func execAffecting(ctx context.Context, q dbtx, notFound error, query string, args ...any) error {
	res, errExec := q.ExecContext(ctx, query, args...)
	if errExec != nil {
		return errExec
	}
	n, errRows := res.RowsAffected()
	if errRows != nil {
		return errRows
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// placeholders renders "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(parts, ", ")
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// nullInt converts a nullable column into *int.
func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
