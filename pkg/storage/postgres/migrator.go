package postgres

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/lolski/common-sub000/assets"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/sqlcommon"
)

// MigrationProvider implements [storage.MigrationProvider] for PostgreSQL.
type MigrationProvider struct{}

func NewMigrationProvider() *MigrationProvider {
	return &MigrationProvider{}
}

func (p *MigrationProvider) GetSupportedEngine() string {
	return Engine
}

// RunMigrations executes PostgreSQL database migrations.
func (p *MigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	uri, err := PrepareURI(config.URI)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", uri)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()

	if err := sqlcommon.WaitForConnection(ctx, db, config.Timeout); err != nil {
		return fmt.Errorf("failed to initialize postgres connection: %w", err)
	}

	return sqlcommon.Migrate(ctx, db, goose.DialectPostgres, assets.MigrationsFS(assets.PostgresMigrationDir), config)
}

// GetCurrentVersion returns the current migration version.
func (p *MigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	uri, err := PrepareURI(config.URI)
	if err != nil {
		return 0, err
	}

	db, err := goose.OpenDBWithDriver("pgx", uri)
	if err != nil {
		return 0, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()

	return sqlcommon.CurrentVersion(ctx, db, goose.DialectPostgres, assets.MigrationsFS(assets.PostgresMigrationDir))
}
