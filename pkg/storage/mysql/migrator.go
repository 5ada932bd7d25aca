package mysql

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/lolski/common-sub000/assets"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/sqlcommon"
)

// MigrationProvider implements [storage.MigrationProvider] for MySQL.
type MigrationProvider struct{}

func NewMigrationProvider() *MigrationProvider {
	return &MigrationProvider{}
}

func (m *MigrationProvider) GetSupportedEngine() string {
	return Engine
}

// RunMigrations executes MySQL database migrations.
func (m *MigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	uri, err := PrepareDSN(config.URI)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("mysql", uri)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}
	defer db.Close()

	if err := sqlcommon.WaitForConnection(ctx, db, config.Timeout); err != nil {
		return fmt.Errorf("failed to initialize mysql connection: %w", err)
	}

	return sqlcommon.Migrate(ctx, db, goose.DialectMySQL, assets.MigrationsFS(assets.MySQLMigrationDir), config)
}

// GetCurrentVersion returns the current migration version.
func (m *MigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	uri, err := PrepareDSN(config.URI)
	if err != nil {
		return 0, err
	}

	db, err := goose.OpenDBWithDriver("mysql", uri)
	if err != nil {
		return 0, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	defer db.Close()

	return sqlcommon.CurrentVersion(ctx, db, goose.DialectMySQL, assets.MigrationsFS(assets.MySQLMigrationDir))
}
