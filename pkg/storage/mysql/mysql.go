package mysql

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lolski/common-sub000/assets"
	"github.com/lolski/common-sub000/internal/build"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/sqlcommon"
)

const (
	Engine = "mysql"

	duplicateEntry = 1062
)

// Datastore provides a MySQL based implementation of [storage.Datastore].
type Datastore struct {
	*sqlcommon.Datastore

	dbStatsCollector prometheus.Collector
}

var _ storage.Datastore = (*Datastore)(nil)

// PrepareDSN validates a MySQL DSN and turns on the options the fact table
// relies on.
func PrepareDSN(uri string) (string, error) {
	dsn, err := mysql.ParseDSN(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mysql database uri: %w", err)
	}
	dsn.ParseTime = true
	dsn.MultiStatements = true
	return dsn.FormatDSN(), nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mysql connection: %w", err)
	}
	sqlcommon.ApplyConnectionConfig(db, cfg)

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, build.ProjectName)
		if err := prometheus.Register(collector); err != nil {
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	stbl := sq.StatementBuilder.RunWith(db)
	info := sqlcommon.NewDBInfo(db, stbl, HandleSQLError, goose.DialectMySQL, assets.MigrationsFS(assets.MySQLMigrationDir))

	return &Datastore{
		Datastore:        sqlcommon.NewDatastore(info, cfg),
		dbStatsCollector: collector,
	}, nil
}

// Close see [storage.Datastore].Close.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.Datastore.Close()
}

// HandleSQLError processes an SQL error and converts it into a more
// specific error type based on the nature of the SQL error.
func HandleSQLError(err error, _ ...interface{}) error {
	if common := sqlcommon.HandleCommonSQLError(err); common != nil {
		return common
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == duplicateEntry {
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}
