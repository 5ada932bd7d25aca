package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lolski/common-sub000/assets"
	"github.com/lolski/common-sub000/internal/build"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/sqlcommon"
)

const (
	Engine = "postgres"

	uniqueViolation = "23505"
)

// Datastore provides a PostgreSQL based implementation of [storage.Datastore].
type Datastore struct {
	*sqlcommon.Datastore

	dbStatsCollector prometheus.Collector
}

var _ storage.Datastore = (*Datastore)(nil)

// PrepareURI validates a postgres connection URI.
func PrepareURI(uri string) (string, error) {
	dbURI, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid postgres database uri: %w", err)
	}
	if dbURI.Scheme != "postgres" && dbURI.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid postgres database uri scheme %q", dbURI.Scheme)
	}
	return dbURI.String(), nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareURI(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres connection: %w", err)
	}
	sqlcommon.ApplyConnectionConfig(db, cfg)

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, build.ProjectName)
		if err := prometheus.Register(collector); err != nil {
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	stbl := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db)
	info := sqlcommon.NewDBInfo(db, stbl, HandleSQLError, goose.DialectPostgres, assets.MigrationsFS(assets.PostgresMigrationDir))

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

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}
