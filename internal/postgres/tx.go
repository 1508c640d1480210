package postgres

import (
	"context"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// WithTx runs fn in a read-committed transaction. Callers lock the rows they
// validate with SELECT ... FOR UPDATE, so a concurrent writer blocks and then
// re-reads the committed row instead of failing with a serialization error.
// Any error from fn, or a panic, rolls the whole unit back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "postgres: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "postgres: commit tx")
	}
	return nil
}
