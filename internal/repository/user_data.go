package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nv0110/bosstracker/internal/models"
)

// UserData is one user_data row. Data is the opaque settings blob, kept raw so the
// caller can decide which shape it is in.
type UserData struct {
	UserID       string
	Data         []byte
	PitchedItems []models.PitchedItem
	UpdatedAt    time.Time
}

type UserDataRepository interface {
	Find(ctx context.Context, userID string) (*UserData, error)
	SaveData(ctx context.Context, userID string, data []byte) error
	SavePitchedItems(ctx context.Context, userID string, items []models.PitchedItem) error
	Save(ctx context.Context, userID string, data []byte, items []models.PitchedItem) error
	ListUserIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID string) error
}

type SQLiteUserDataRepository struct {
	database *sql.DB
}

func NewUserDataRepository(database *sql.DB) *SQLiteUserDataRepository {
	return &SQLiteUserDataRepository{database: database}
}

func (repository *SQLiteUserDataRepository) Find(ctx context.Context, userID string) (*UserData, error) {
	var (
		userData     UserData
		data         string
		pitchedItems string
	)
	err := repository.database.QueryRowContext(ctx,
		"SELECT user_id, data, pitched_items, updated_at FROM user_data WHERE user_id = ?", userID,
	).Scan(&userData.UserID, &data, &pitchedItems, &userData.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user data: %w", err)
	}

	userData.Data = []byte(data)
	userData.PitchedItems = []models.PitchedItem{}
	if pitchedItems != "" {
		if err := json.Unmarshal([]byte(pitchedItems), &userData.PitchedItems); err != nil {
			return nil, fmt.Errorf("decoding pitched items: %w", err)
		}
	}
	return &userData, nil
}

func (repository *SQLiteUserDataRepository) SaveData(ctx context.Context, userID string, data []byte) error {
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO user_data (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving user data: %w", err)
	}
	return nil
}

func (repository *SQLiteUserDataRepository) SavePitchedItems(ctx context.Context, userID string, items []models.PitchedItem) error {
	encoded, err := encodePitchedItems(items)
	if err != nil {
		return err
	}
	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO user_data (user_id, pitched_items, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET pitched_items = excluded.pitched_items, updated_at = excluded.updated_at`,
		userID, encoded, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving pitched items: %w", err)
	}
	return nil
}

func (repository *SQLiteUserDataRepository) Save(ctx context.Context, userID string, data []byte, items []models.PitchedItem) error {
	encoded, err := encodePitchedItems(items)
	if err != nil {
		return err
	}
	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO user_data (user_id, data, pitched_items, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			data = excluded.data,
			pitched_items = excluded.pitched_items,
			updated_at = excluded.updated_at`,
		userID, string(data), encoded, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving user data and pitched items: %w", err)
	}
	return nil
}

func (repository *SQLiteUserDataRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := repository.database.QueryContext(ctx, "SELECT user_id FROM user_data ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("listing user ids: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}

func (repository *SQLiteUserDataRepository) Delete(ctx context.Context, userID string) error {
	if _, err := repository.database.ExecContext(ctx, "DELETE FROM user_data WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting user data: %w", err)
	}
	return nil
}

func encodePitchedItems(items []models.PitchedItem) (string, error) {
	if items == nil {
		items = []models.PitchedItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding pitched items: %w", err)
	}
	return string(encoded), nil
}
