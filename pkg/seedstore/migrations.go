package seedstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
)

const migrationsLogPrefix = "seedstore:migrations"

//go:embed migrations/*.sql
var migrationFS embed.FS

// LoadMigrations returns the embedded .sql files, sorted by name.
func LoadMigrations() ([]string, error) {
	return loadMigrationFiles(migrationFS, "migrations")
}

func loadMigrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		p := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, p, err)
		}
		out = append(out, string(data))
	}
	slog.Debug(fmt.Sprintf("%s - Loaded %d migration files", migrationsLogPrefix, len(out)))
	return out, nil
}

// RunMigrations applies the embedded migrations in order. They are idempotent.
func RunMigrations(ctx context.Context, db DBTX) error {
	files, err := LoadMigrations()
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Running %d migrations", migrationsLogPrefix, len(files)))
	for _, sql := range files {
		if _, err := db.Exec(ctx, sql); err != nil {
			return fmt.Errorf("%s - migration failed: %w", migrationsLogPrefix, err)
		}
	}
	slog.Info(fmt.Sprintf("%s - Migrations complete", migrationsLogPrefix))
	return nil
}

// MigrationStatus reports whether the seed table exists.
func MigrationStatus(ctx context.Context, db DBTX) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'bridge_id_seeds')`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s - failed to check schema: %w", migrationsLogPrefix, err)
	}
	return exists, nil
}
