package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// txBeginner is the slice of pgxpool.Pool the stores need to open transactions.
// Kept as an interface so tests can substitute a fake.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// withTx runs fn inside a single transaction. Any error from fn discards all
// writes; the transaction commits only when fn returns nil. Every multi-row
// mutation in this package goes through here so partial writes cannot be
// observed.
func withTx(ctx context.Context, pool txBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
