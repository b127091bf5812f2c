package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nv0110/bosstracker/internal/database"
	"github.com/nv0110/bosstracker/internal/models"
)

var ErrVersionConflict = errors.New("weekly record version conflict")

type WeeklyRecordRepository interface {
	Find(ctx context.Context, userID string, weekStart models.WeekKey) (*models.WeeklyRecord, error)
	Upsert(ctx context.Context, userID string, weekStart models.WeekKey, update models.WeeklyRecordUpdate) (models.WeeklyRecord, error)
	ListWeeks(ctx context.Context, userID string) ([]models.WeekKey, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type SQLiteWeeklyRecordRepository struct {
	database *sql.DB
}

func NewWeeklyRecordRepository(database *sql.DB) *SQLiteWeeklyRecordRepository {
	return &SQLiteWeeklyRecordRepository{database: database}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectWeeklyRecord = `SELECT user_id, week_start, char_map, boss_config, weekly_clears, next_id, version, updated_at
	FROM user_boss_data WHERE user_id = ? AND week_start = ?`

// Find returns nil without error when the week has no row yet.
func (repository *SQLiteWeeklyRecordRepository) Find(ctx context.Context, userID string, weekStart models.WeekKey) (*models.WeeklyRecord, error) {
	return findWeeklyRecord(ctx, repository.database, userID, weekStart)
}

func findWeeklyRecord(ctx context.Context, querier rowQuerier, userID string, weekStart models.WeekKey) (*models.WeeklyRecord, error) {
	var (
		record                             models.WeeklyRecord
		charMap, bossConfig, weeklyClears string
	)
	err := querier.QueryRowContext(ctx, selectWeeklyRecord, userID, string(weekStart)).Scan(
		&record.UserID, &record.WeekStart, &charMap, &bossConfig, &weeklyClears,
		&record.NextID, &record.Version, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding weekly record: %w", err)
	}

	if record.CharMap, err = decodeIDMap(charMap); err != nil {
		return nil, fmt.Errorf("decoding char map: %w", err)
	}
	if record.BossConfig, err = decodeIDMap(bossConfig); err != nil {
		return nil, fmt.Errorf("decoding boss config: %w", err)
	}
	if record.WeeklyClears, err = decodeIDMap(weeklyClears); err != nil {
		return nil, fmt.Errorf("decoding weekly clears: %w", err)
	}
	return &record, nil
}

// Upsert merges the non-nil fields of update into the (user, week) row, creating
// it when absent, and bumps the row version.
func (repository *SQLiteWeeklyRecordRepository) Upsert(ctx context.Context, userID string, weekStart models.WeekKey, update models.WeeklyRecordUpdate) (models.WeeklyRecord, error) {
	charMap, err := encodeIDMap(update.CharMap)
	if err != nil {
		return models.WeeklyRecord{}, fmt.Errorf("encoding char map: %w", err)
	}
	bossConfig, err := encodeIDMap(update.BossConfig)
	if err != nil {
		return models.WeeklyRecord{}, fmt.Errorf("encoding boss config: %w", err)
	}
	weeklyClears, err := encodeIDMap(update.WeeklyClears)
	if err != nil {
		return models.WeeklyRecord{}, fmt.Errorf("encoding weekly clears: %w", err)
	}
	var nextID any
	if update.NextID != nil {
		nextID = int(*update.NextID)
	}

	var saved *models.WeeklyRecord
	err = database.WithTx(ctx, repository.database, func(transaction *sql.Tx) error {
		if update.ExpectedVersion != nil {
			current, err := findWeeklyRecord(ctx, transaction, userID, weekStart)
			if err != nil {
				return err
			}
			version := 0
			if current != nil {
				version = current.Version
			}
			if version != *update.ExpectedVersion {
				return fmt.Errorf("%w: expected version %d, found %d", ErrVersionConflict, *update.ExpectedVersion, version)
			}
		}

		_, err := transaction.ExecContext(ctx,
			`INSERT INTO user_boss_data (user_id, week_start, char_map, boss_config, weekly_clears, next_id, version, updated_at)
			VALUES (?1, ?2, coalesce(?3, '{}'), coalesce(?4, '{}'), coalesce(?5, '{}'), coalesce(?6, 0), 1, ?7)
			ON CONFLICT(user_id, week_start) DO UPDATE SET
				char_map = coalesce(?3, char_map),
				boss_config = coalesce(?4, boss_config),
				weekly_clears = coalesce(?5, weekly_clears),
				next_id = coalesce(?6, next_id),
				version = version + 1,
				updated_at = ?7`,
			userID, string(weekStart), charMap, bossConfig, weeklyClears, nextID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting weekly record: %w", err)
		}

		saved, err = findWeeklyRecord(ctx, transaction, userID, weekStart)
		return err
	})
	if err != nil {
		return models.WeeklyRecord{}, err
	}
	return *saved, nil
}

func (repository *SQLiteWeeklyRecordRepository) ListWeeks(ctx context.Context, userID string) ([]models.WeekKey, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT week_start FROM user_boss_data WHERE user_id = ? ORDER BY week_start DESC", userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing weeks: %w", err)
	}
	defer rows.Close()

	weeks := []models.WeekKey{}
	for rows.Next() {
		var week models.WeekKey
		if err := rows.Scan(&week); err != nil {
			return nil, fmt.Errorf("scanning week: %w", err)
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

func (repository *SQLiteWeeklyRecordRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := repository.database.ExecContext(ctx, "DELETE FROM user_boss_data WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("deleting weekly records: %w", err)
	}
	return result.RowsAffected()
}

func encodeIDMap(values map[models.CharacterID]string) (any, error) {
	if values == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func decodeIDMap(raw string) (map[models.CharacterID]string, error) {
	values := map[models.CharacterID]string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
