package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallerSetting is the transaction-local setting the row-level policies read the acting user from.
const CallerSetting = "app.current_user_id"

// WithCallerTx runs fn in a transaction scoped to caller: the caller id is published to the
// row-level policies for the lifetime of the transaction only. A nil error from fn commits.
func WithCallerTx(ctx context.Context, pool *pgxpool.Pool, caller uuid.UUID, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT set_config($1, $2, true)`, CallerSetting, caller.String()); err != nil {
		return fmt.Errorf("set caller: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
