// Package store is the main relational store: durable storage for
// users, namespaces, tags, permissions, tag-values, about-values,
// opaque blobs, and the dirty-object log,
// plus the collection-style data access functions every layer above it
// composes from.
package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fluidinfo/logger"
)

//go:embed schema.sql
var schemaSQL string

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every data
// access function in this package can run either directly against the
// pool or inside the single per-request transaction the Facade opens.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the connection pool to the main store.
type Store struct {
	Pool *pgxpool.Pool
}

// Open parses dsn, applies maxConns, and establishes the connection pool.
// It does not apply the schema; call Migrate separately so that schema
// application is an explicit, loggable step.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parsing dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: opening pool: %w", err)
	}
	logger.Info("store: connected, max_conns=%d", cfg.MaxConns)
	return &Store{Pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.Pool.Close() }

// Migrate applies the embedded schema. It is idempotent (every statement
// uses IF NOT EXISTS / CREATE OR REPLACE) so it is safe to call on every
// process start; applying the one schema this repo owns is the only
// migration step there is.
func (s *Store) Migrate(ctx context.Context) error {
	logger.Info("store: applying schema")
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: applying schema: %w", err)
	}
	return nil
}

// Begin opens a new transaction. The Facade opens exactly one of these
// per request and commits or rolls it back based on whether
// the request's model calls returned a *models.Error.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.Pool.Begin(ctx)
}
