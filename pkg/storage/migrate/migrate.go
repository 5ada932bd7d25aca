// Package migrate runs the fact table migrations of the SQL datastores.
package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/mysql"
	"github.com/lolski/common-sub000/pkg/storage/postgres"
	"github.com/lolski/common-sub000/pkg/storage/sqlite"
)

// MigrationConfig contains the configuration needed for running migrations
type MigrationConfig = storage.MigrationConfig

// MemoryEngine has nothing to migrate.
const MemoryEngine = "memory"

var (
	defaultRegistry *storage.MigratorRegistry
	registryOnce    sync.Once
)

// GetDefaultRegistry returns the registry holding the built-in providers.
func GetDefaultRegistry() *storage.MigratorRegistry {
	registryOnce.Do(func() {
		defaultRegistry = storage.NewMigratorRegistry()
		defaultRegistry.RegisterProvider(postgres.NewMigrationProvider())
		defaultRegistry.RegisterProvider(mysql.NewMigrationProvider())
		defaultRegistry.RegisterProvider(sqlite.NewMigrationProvider())
	})
	return defaultRegistry
}

// RunMigrationsWithRegistry runs migrations using a specific migration registry
func RunMigrationsWithRegistry(ctx context.Context, registry *storage.MigratorRegistry, cfg MigrationConfig) error {
	if cfg.Engine == MemoryEngine {
		if cfg.Logger != nil {
			cfg.Logger.Info("no migrations to run for `memory` datastore")
		}
		return nil
	}

	provider, exists := registry.GetProvider(cfg.Engine)
	if !exists {
		return fmt.Errorf("%w: no migration provider registered for %q", storage.ErrUnknownEngine, cfg.Engine)
	}

	return provider.RunMigrations(ctx, cfg)
}

// RunMigrations runs the migrations for the given config using the default registry.
func RunMigrations(ctx context.Context, cfg MigrationConfig) error {
	return RunMigrationsWithRegistry(ctx, GetDefaultRegistry(), cfg)
}
