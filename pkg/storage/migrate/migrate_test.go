package migrate_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/migrate"
)

func TestDefaultRegistry(t *testing.T) {
	require.Equal(t, []string{"mysql", "postgres", "sqlite"}, migrate.GetDefaultRegistry().GetSupportedEngines())
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("memory_is_noop", func(t *testing.T) {
		require.NoError(t, migrate.RunMigrations(ctx, migrate.MigrationConfig{Engine: migrate.MemoryEngine}))
	})

	t.Run("unknown_engine", func(t *testing.T) {
		err := migrate.RunMigrations(ctx, migrate.MigrationConfig{Engine: "cassandra"})
		require.ErrorIs(t, err, storage.ErrUnknownEngine)
	})

	t.Run("sqlite", func(t *testing.T) {
		err := migrate.RunMigrations(ctx, migrate.MigrationConfig{
			Engine:  "sqlite",
			URI:     "file:" + filepath.Join(t.TempDir(), "facts.db"),
			Timeout: 5 * time.Second,
			Verbose: true,
		})
		require.NoError(t, err)
	})
}
