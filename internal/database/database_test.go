package database

import (
	"path/filepath"
	"testing"
)

func TestOpen_FileDatabaseAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("expected foreign keys enabled, got %d", foreignKeys)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal journal mode, got %q", journalMode)
	}
}
