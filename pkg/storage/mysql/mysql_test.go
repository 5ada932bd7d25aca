package mysql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/storage"
)

func TestPrepareDSN(t *testing.T) {
	got, err := PrepareDSN("reasoner:secret@tcp(localhost:3306)/reasoner")
	require.NoError(t, err)

	dsn, err := mysql.ParseDSN(got)
	require.NoError(t, err)
	require.True(t, dsn.ParseTime)
	require.True(t, dsn.MultiStatements)
	require.Equal(t, "reasoner", dsn.User)
	require.Equal(t, "reasoner", dsn.DBName)

	_, err = PrepareDSN("not a dsn")
	require.Error(t, err)
}

func TestHandleSQLError(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: duplicateEntry, Message: "Duplicate entry"})
	require.ErrorIs(t, HandleSQLError(dup), storage.ErrCollision)

	other := errors.New("bad connection")
	require.ErrorIs(t, HandleSQLError(other), other)
}

func TestMigrationProviderRejectsInvalidDSN(t *testing.T) {
	err := NewMigrationProvider().RunMigrations(t.Context(), storage.MigrationConfig{
		Engine: Engine,
		URI:    "not a dsn",
	})
	require.Error(t, err)
}
