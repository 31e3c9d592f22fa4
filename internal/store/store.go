package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
)

// Store exposes the generated queries plus a transactional unit of work.
type Store interface {
	dbgen.Querier
	ExecTx(ctx context.Context, fn func(q dbgen.Querier) error) error
}

// PG is the Postgres-backed Store.
type PG struct {
	*dbgen.Queries
	Pool *pgxpool.Pool
}

// NewPG wraps a pool with generated queries.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{Queries: dbgen.New(pool), Pool: pool}
}

// ExecTx runs fn inside a single database transaction. Any error returned by
// fn rolls back every write made through the supplied querier.
func (s *PG) ExecTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	if s == nil || s.Pool == nil {
		return errors.New("store: pool not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ Store = (*PG)(nil)
