package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nv0110/bosstracker/internal/database"
)

type DeletedAccount struct {
	WeeklyRecords int64
	UserData      int64
	Tokens        int64
}

type AccountRepository interface {
	DeleteUser(ctx context.Context, userID string) (DeletedAccount, error)
}

type SQLiteAccountRepository struct {
	database *sql.DB
}

func NewAccountRepository(database *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{database: database}
}

// DeleteUser removes every row owned by the user in a single transaction.
func (repository *SQLiteAccountRepository) DeleteUser(ctx context.Context, userID string) (DeletedAccount, error) {
	var deleted DeletedAccount
	err := database.WithTx(ctx, repository.database, func(transaction *sql.Tx) error {
		statements := []struct {
			query string
			count *int64
		}{
			{"DELETE FROM user_boss_data WHERE user_id = ?", &deleted.WeeklyRecords},
			{"DELETE FROM user_data WHERE user_id = ?", &deleted.UserData},
			{"DELETE FROM api_tokens WHERE user_id = ?", &deleted.Tokens},
		}
		for _, statement := range statements {
			result, err := transaction.ExecContext(ctx, statement.query, userID)
			if err != nil {
				return fmt.Errorf("deleting account rows: %w", err)
			}
			if *statement.count, err = result.RowsAffected(); err != nil {
				return fmt.Errorf("counting deleted rows: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return DeletedAccount{}, err
	}
	return deleted, nil
}
