package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/nv0110/bosstracker/internal/database"
	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
)

// NewTestDatabase returns a migrated in-memory database closed at test cleanup.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if _, err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// Bosses used across tests. GC is disabled.
var (
	LotusHard   = models.BossRegistryEntry{BossCode: "LH", DifficultyCode: "hard", BossName: "Lotus", Difficulty: "Hard", CrystalValue: 50000000, MaxPartySize: 3, Enabled: true}
	DamienHard  = models.BossRegistryEntry{BossCode: "DH", DifficultyCode: "hard", BossName: "Damien", Difficulty: "Hard", CrystalValue: 40000000, MaxPartySize: 3, Enabled: true}
	GolluxChaos = models.BossRegistryEntry{BossCode: "GC", DifficultyCode: "chaos", BossName: "Gollux", Difficulty: "Chaos", CrystalValue: 30000000, MaxPartySize: 6, Enabled: false}
)

// SeedRegistry stores entries in the boss registry, or LotusHard, DamienHard and
// GolluxChaos when none are given.
func SeedRegistry(t *testing.T, db *sql.DB, entries ...models.BossRegistryEntry) *repository.SQLiteBossRegistryRepository {
	t.Helper()
	if len(entries) == 0 {
		entries = []models.BossRegistryEntry{LotusHard, DamienHard, GolluxChaos}
	}
	registry := repository.NewBossRegistryRepository(db)
	if err := registry.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("seeding boss registry: %v", err)
	}
	return registry
}
