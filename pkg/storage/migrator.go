package storage

import (
	"context"
	"slices"
	"time"

	"github.com/lolski/common-sub000/pkg/logger"
)

// MigrationProvider runs the fact table migrations of one engine.
type MigrationProvider interface {
	RunMigrations(ctx context.Context, config MigrationConfig) error

	GetCurrentVersion(ctx context.Context, config MigrationConfig) (int64, error)

	GetSupportedEngine() string
}

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig struct {
	Engine string
	URI    string

	// TargetVersion of zero migrates to the latest revision.
	TargetVersion uint
	Timeout       time.Duration
	Verbose       bool
	Logger        logger.Logger
}

// MigratorRegistry manages migration providers for different database engines.
type MigratorRegistry struct {
	providers map[string]MigrationProvider
}

func NewMigratorRegistry() *MigratorRegistry {
	return &MigratorRegistry{
		providers: make(map[string]MigrationProvider),
	}
}

// RegisterProvider registers provider for its engine, replacing any provider
// already registered for it.
func (r *MigratorRegistry) RegisterProvider(provider MigrationProvider) {
	r.providers[provider.GetSupportedEngine()] = provider
}

func (r *MigratorRegistry) GetProvider(engine string) (MigrationProvider, bool) {
	provider, exists := r.providers[engine]
	return provider, exists
}

// GetSupportedEngines returns the registered engines, sorted.
func (r *MigratorRegistry) GetSupportedEngines() []string {
	engines := make([]string, 0, len(r.providers))
	for engine := range r.providers {
		engines = append(engines, engine)
	}
	slices.Sort(engines)
	return engines
}
