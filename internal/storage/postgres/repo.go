// Package postgres implements the budget warehouse repository using pgx v5.
// Fact and summary loads go through COPY; DDL and audit rows go through Exec.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetetl/internal/storage"
)

// Kind is this backend's registry key.
const Kind = "postgres"

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, Config{DSN: cfg.DSN})
	})
	storage.RegisterDDL(Kind, Bootstrap)
}

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository backed by a pgx connection pool.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Exec runs a single statement with optional arguments.
func (r *Repository) Exec(ctx context.Context, sql string, args ...any) error {
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return pgDetail(err)
	}
	return nil
}

// CopyFrom bulk-inserts rows into a possibly schema-qualified table via the
// COPY protocol. Rows must be aligned to the columns order.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	n, err := r.pool.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", pgFQN(table), pgDetail(err))
	}
	return n, nil
}

// Close releases the connection pool.
func (r *Repository) Close() { r.pool.Close() }

// pgDetail surfaces the server-side detail of a PgError, which pgx otherwise
// buries behind a terse one-liner.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %s (%s)", pgErr.Message, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "budget.budget_data" to
// "budget"."budget_data". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
