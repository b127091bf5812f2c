package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func openMigrated(t *testing.T) (*sql.DB, int) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	applied, err := Migrate(context.Background(), db)
	if err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db, applied
}

func TestMigrate_Success(t *testing.T) {
	db, applied := openMigrated(t)

	want, err := migrationFileCount()
	if err != nil {
		t.Fatalf("counting migration files: %v", err)
	}
	if applied != want {
		t.Errorf("expected %d applied migrations, got %d", want, applied)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("querying migrations: %v", err)
	}
	if count != want {
		t.Errorf("expected %d recorded migrations, got %d", want, count)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, _ := openMigrated(t)

	applied, err := Migrate(context.Background(), db)
	if err != nil {
		t.Fatalf("second migration should not fail: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no migrations on second run, got %d", applied)
	}
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db, _ := openMigrated(t)

	expectedTables := []string{"user_data", "user_boss_data", "boss_registry", "api_tokens"}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table '%s' not found: %v", table, err)
		}
	}
}

func TestMigrate_WeekStartMustBeThursday(t *testing.T) {
	db, _ := openMigrated(t)

	tests := []struct {
		weekStart string
		wantError bool
	}{
		{"2024-12-26", false},
		{"2024-12-25", true},
		{"26/12/2024", true},
	}

	for _, test := range tests {
		t.Run(test.weekStart, func(t *testing.T) {
			_, err := db.Exec("INSERT INTO user_boss_data (user_id, week_start) VALUES (?, ?)", "user-"+test.weekStart, test.weekStart)
			if test.wantError && err == nil {
				t.Errorf("expected check constraint to reject %s", test.weekStart)
			}
			if !test.wantError && err != nil {
				t.Errorf("expected %s to be accepted: %v", test.weekStart, err)
			}
		})
	}
}

func TestMigrate_UniqueUserWeek(t *testing.T) {
	db, _ := openMigrated(t)

	if _, err := db.Exec("INSERT INTO user_boss_data (user_id, week_start) VALUES ('u1', '2024-12-26')"); err != nil {
		t.Fatalf("inserting first row: %v", err)
	}
	if _, err := db.Exec("INSERT INTO user_boss_data (user_id, week_start) VALUES ('u1', '2024-12-26')"); err == nil {
		t.Error("expected duplicate (user_id, week_start) to be rejected")
	}
}

func TestRollback_RevertsLatestMigration(t *testing.T) {
	db, _ := openMigrated(t)
	ctx := context.Background()

	version, err := Rollback(ctx, db)
	if err != nil {
		t.Fatalf("rolling back: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 reverted, got %d", version)
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='user_boss_data'").Scan(&name)
	if err != sql.ErrNoRows {
		t.Errorf("expected user_boss_data to be dropped, got %q, %v", name, err)
	}

	version, err = Rollback(ctx, db)
	if err != nil {
		t.Fatalf("rolling back with nothing applied: %v", err)
	}
	if version != 0 {
		t.Errorf("expected nothing to revert, got %d", version)
	}

	applied, err := Migrate(ctx, db)
	if err != nil {
		t.Fatalf("re-applying migrations: %v", err)
	}
	if applied == 0 {
		t.Error("expected migrations to run again after rollback")
	}
}

func migrationFileCount() (int, error) {
	_, thisFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(thisFile), "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return 0, err
	}
	want := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), upSuffix) {
			want++
		}
	}
	return want, nil
}
