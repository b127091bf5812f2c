package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nv0110/bosstracker/internal/database"
	"github.com/nv0110/bosstracker/internal/models"
)

type BossRegistryRepository interface {
	FindAll(ctx context.Context) ([]models.BossRegistryEntry, error)
	Upsert(ctx context.Context, entries []models.BossRegistryEntry) error
}

type SQLiteBossRegistryRepository struct {
	database *sql.DB
}

func NewBossRegistryRepository(database *sql.DB) *SQLiteBossRegistryRepository {
	return &SQLiteBossRegistryRepository{database: database}
}

func (repository *SQLiteBossRegistryRepository) FindAll(ctx context.Context) ([]models.BossRegistryEntry, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT boss_code, difficulty_code, boss_name, difficulty, crystal_value, max_party_size, enabled
		FROM boss_registry ORDER BY crystal_value DESC, boss_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("finding boss registry: %w", err)
	}
	defer rows.Close()

	var entries []models.BossRegistryEntry
	for rows.Next() {
		var entry models.BossRegistryEntry
		if err := rows.Scan(&entry.BossCode, &entry.DifficultyCode, &entry.BossName, &entry.Difficulty,
			&entry.CrystalValue, &entry.MaxPartySize, &entry.Enabled); err != nil {
			return nil, fmt.Errorf("scanning boss registry entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (repository *SQLiteBossRegistryRepository) Upsert(ctx context.Context, entries []models.BossRegistryEntry) error {
	return database.WithTx(ctx, repository.database, func(transaction *sql.Tx) error {
		for _, entry := range entries {
			_, err := transaction.ExecContext(ctx,
				`INSERT INTO boss_registry (boss_code, difficulty_code, boss_name, difficulty, crystal_value, max_party_size, enabled)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(boss_code, difficulty_code) DO UPDATE SET
					boss_name = excluded.boss_name,
					difficulty = excluded.difficulty,
					crystal_value = excluded.crystal_value,
					max_party_size = excluded.max_party_size,
					enabled = excluded.enabled`,
				entry.BossCode, entry.DifficultyCode, entry.BossName, entry.Difficulty,
				entry.CrystalValue, entry.MaxPartySize, entry.Enabled,
			)
			if err != nil {
				return fmt.Errorf("upserting boss %s-%s: %w", entry.BossCode, entry.DifficultyCode, err)
			}
		}
		return nil
	})
}
