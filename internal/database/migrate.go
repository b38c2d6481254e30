package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migrate applies the schema for the pool's dialect. Every statement is
// idempotent, so it runs on each startup.
func Migrate(ctx context.Context, pool *SQLPool, logger *slog.Logger) error {
	dir := path.Join("migrations", pool.Driver())
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("no migrations for driver %s: %w", pool.Driver(), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed reading migration %s: %w", name, err)
		}
		if _, err := pool.DB().ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("failed applying migration %s: %w", name, err)
		}
		logger.Debug("applied migration", slog.String("name", name))
	}

	return nil
}
