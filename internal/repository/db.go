// Package repository persists session units and continuations in Postgres
// via pgx. Embeddings are stored as pgvector columns; tags and parsed
// sections as jsonb.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryer is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so every repository works inside and outside a transaction.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
