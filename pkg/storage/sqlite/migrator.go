package sqlite

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/lolski/common-sub000/assets"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/sqlcommon"
)

// MigrationProvider implements [storage.MigrationProvider] for SQLite.
type MigrationProvider struct{}

func NewMigrationProvider() *MigrationProvider {
	return &MigrationProvider{}
}

func (s *MigrationProvider) GetSupportedEngine() string {
	return Engine
}

// RunMigrations executes SQLite database migrations.
func (s *MigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	uri, err := PrepareDSN(config.URI)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("sqlite", uri)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	defer db.Close()

	if err := sqlcommon.WaitForConnection(ctx, db, config.Timeout); err != nil {
		return fmt.Errorf("failed to initialize sqlite connection: %w", err)
	}

	return sqlcommon.Migrate(ctx, db, goose.DialectSQLite3, assets.MigrationsFS(assets.SqliteMigrationDir), config)
}

// GetCurrentVersion returns the current migration version.
func (s *MigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	uri, err := PrepareDSN(config.URI)
	if err != nil {
		return 0, err
	}

	db, err := goose.OpenDBWithDriver("sqlite", uri)
	if err != nil {
		return 0, fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	defer db.Close()

	return sqlcommon.CurrentVersion(ctx, db, goose.DialectSQLite3, assets.MigrationsFS(assets.SqliteMigrationDir))
}
