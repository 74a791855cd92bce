package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations repositories use. It is satisfied
// by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx, so the same repository code runs
// against a pooled connection or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is implemented by queriers that can open a transaction.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Scope wraps the connection a request's repositories operate on.
// The connection has a bounded statement_timeout set on acquisition.
type Scope struct {
	Conn Querier

	pooled *pgxpool.Conn // set when the scope owns a pooled connection
}

// Close releases the pooled connection, if any, back to the pool.
// It MUST be called for scopes created with AcquireScope.
func (s *Scope) Close() {
	if s.pooled == nil {
		return
	}
	s.pooled.Release()
	s.pooled = nil
}

// AcquireScope acquires a connection from the pool with the configured
// statement timeout applied. The returned Scope MUST be closed with
// defer scope.Close().
func (db *DB) AcquireScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	_, err = conn.Exec(ctx, "SELECT set_config('statement_timeout', $1, false)",
		fmt.Sprintf("%d", db.statementTimeout.Milliseconds()))
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to set statement timeout: %w", err)
	}

	return &Scope{Conn: conn, pooled: conn}, nil
}

type contextKey string

// ScopeKey is the context key for storing the request-scoped database connection.
const ScopeKey contextKey = "dbScope"

// GetScope retrieves the request-scoped database connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok
}

// SetScope stores the request-scoped database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// WithTransaction runs fn inside a transaction on the current scope's
// connection. The context passed to fn carries a scope backed by the
// transaction, so repository calls made through it share the transaction.
// fn returning an error rolls the transaction back; otherwise it commits.
func WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	scope, ok := GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	b, ok := scope.Conn.(beginner)
	if !ok {
		return fmt.Errorf("database scope does not support transactions")
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := SetScope(ctx, &Scope{Conn: tx})
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
