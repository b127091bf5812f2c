package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

func Open(databasePath string) (*sql.DB, error) {
	if databasePath != memoryPath {
		directory := filepath.Dir(databasePath)
		if err := os.MkdirAll(directory, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite", dataSourceName(databasePath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if databasePath == memoryPath {
		database.SetMaxOpenConns(1)
		if _, err := database.Exec("PRAGMA foreign_keys=ON"); err != nil {
			database.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return database, nil
}

// dataSourceName sets pragmas in the DSN so every pooled connection gets them.
func dataSourceName(databasePath string) string {
	if databasePath == memoryPath {
		return databasePath
	}
	return databasePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
