package database

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a transaction, rolling back when fn fails.
func WithTx(ctx context.Context, database *sql.DB, fn func(transaction *sql.Tx) error) error {
	transaction, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(transaction); err != nil {
		_ = transaction.Rollback()
		return err
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
