// Package fixtures provides a small procurement database for demos and
// tests. The schema and rows live in embedded goose migrations.
package fixtures

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dbsee/dbsee/pkg/adapters/sqlite"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending fixture migration to a SQLite database.
func Migrate(ctx context.Context, db *sql.DB) ([]*goose.MigrationResult, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return results, nil
}

// CreateDemo creates (or upgrades) the demo database at path.
func CreateDemo(ctx context.Context, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	adp := sqlite.New(logger)
	if err := adp.Connect(ctx, core.AdapterConfig{Type: "sqlite", Path: path}); err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	results, err := Migrate(ctx, adp.DB)
	if err != nil {
		return err
	}
	for _, r := range results {
		logger.Info("applied migration",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration))
	}
	return nil
}
