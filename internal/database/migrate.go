package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// migration is a numbered pair of embedded files, e.g. 001_initial_schema.up.sql
// and 001_initial_schema.down.sql.
type migration struct {
	version int
	name    string
}

func (m migration) file(suffix string) string {
	return "migrations/" + m.name + suffix
}

// Migrate applies every embedded up migration that schema_migrations has not
// recorded yet, each in its own transaction. It returns how many ran.
func Migrate(ctx context.Context, database *sql.DB) (int, error) {
	if _, err := database.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return 0, fmt.Errorf("creating migrations table: %w", err)
	}

	migrations, err := embeddedMigrations()
	if err != nil {
		return 0, err
	}
	done, err := appliedVersions(ctx, database)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if done[m.version] {
			continue
		}
		err := runMigration(ctx, database, m.file(upSuffix), func(transaction *sql.Tx) error {
			_, err := transaction.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("applying migration %s: %w", m.name, err)
		}
		applied++
		slog.Info("applied migration", "version", m.version, "name", m.name)
	}
	return applied, nil
}

// Rollback reverts the most recently applied migration with its down file. It
// returns the reverted version, or 0 when nothing was applied.
func Rollback(ctx context.Context, database *sql.DB) (int, error) {
	var latest sql.NullInt64
	if err := database.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&latest); err != nil {
		return 0, fmt.Errorf("finding latest migration: %w", err)
	}
	if !latest.Valid {
		return 0, nil
	}
	version := int(latest.Int64)

	migrations, err := embeddedMigrations()
	if err != nil {
		return 0, err
	}
	for _, m := range migrations {
		if m.version != version {
			continue
		}
		err := runMigration(ctx, database, m.file(downSuffix), func(transaction *sql.Tx) error {
			_, err := transaction.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", version)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("reverting migration %s: %w", m.name, err)
		}
		slog.Info("reverted migration", "version", version, "name", m.name)
		return version, nil
	}
	return 0, fmt.Errorf("no embedded migration for applied version %d", version)
}

func runMigration(ctx context.Context, database *sql.DB, path string, record func(*sql.Tx) error) error {
	content, err := migrationsFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return WithTx(ctx, database, func(transaction *sql.Tx) error {
		if _, err := transaction.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing %s: %w", path, err)
		}
		if err := record(transaction); err != nil {
			return fmt.Errorf("recording %s: %w", path, err)
		}
		return nil
	})
}

func appliedVersions(ctx context.Context, database *sql.DB) (map[int]bool, error) {
	rows, err := database.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	versions := map[int]bool{}
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning applied migration: %w", err)
		}
		versions[version] = true
	}
	return versions, rows.Err()
}

// embeddedMigrations lists the up migrations in version order.
func embeddedMigrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), upSuffix)
		if !ok {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			return nil, fmt.Errorf("parsing version of %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration{version: version, name: name})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}
