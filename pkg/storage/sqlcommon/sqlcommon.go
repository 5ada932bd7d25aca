// Package sqlcommon holds the fact datastore logic shared by the SQL engines.
package sqlcommon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lolski/common-sub000/internal/build"
	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/logger"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/telemetry"
)

var tracer = otel.Tracer("reasoner/pkg/storage/sqlcommon")

const factTable = "fact"

// Config defines the configuration parameters
// for setting up and managing a sql connection.
type Config struct {
	Logger       logger.Logger
	ReadPageSize int

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	ExportMetrics bool
}

// DatastoreOption defines a function type
// used for configuring a Config object.
type DatastoreOption func(*Config)

// WithLogger returns a DatastoreOption that sets the Logger in the Config.
func WithLogger(l logger.Logger) DatastoreOption {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// WithReadPageSize returns a DatastoreOption that sets how many rows a read
// fetches per round trip.
func WithReadPageSize(size int) DatastoreOption {
	return func(cfg *Config) {
		cfg.ReadPageSize = size
	}
}

func WithMaxOpenConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxOpenConns = c
	}
}

func WithMaxIdleConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxIdleConns = c
	}
}

func WithConnMaxIdleTime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxLifetime = d
	}
}

// WithMetrics returns a DatastoreOption that
// enables the export of connection pool metrics.
func WithMetrics() DatastoreOption {
	return func(cfg *Config) {
		cfg.ExportMetrics = true
	}
}

// NewConfig creates a new Config instance with default values
// and applies any provided DatastoreOption modifications.
func NewConfig(opts ...DatastoreOption) *Config {
	cfg := &Config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	if cfg.ReadPageSize <= 0 {
		cfg.ReadPageSize = storage.DefaultReadPageSize
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = storage.DefaultMaxOpenConns
	}

	return cfg
}

// ApplyConnectionConfig sets the pool limits of db from cfg.
func ApplyConnectionConfig(db *sql.DB, cfg *Config) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime != 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime != 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

type errorHandlerFn func(error, ...interface{}) error

// DBInfo bundles a connection with the engine specifics the shared logic
// needs: its statement builder, error translation and migration dialect.
type DBInfo struct {
	db             *sql.DB
	stbl           sq.StatementBuilderType
	HandleSQLError errorHandlerFn
	dialect        goose.Dialect
	migrations     fs.FS
}

// NewDBInfo constructs a [DBInfo] object.
func NewDBInfo(db *sql.DB, stbl sq.StatementBuilderType, errorHandler errorHandlerFn, dialect goose.Dialect, migrations fs.FS) *DBInfo {
	return &DBInfo{
		db:             db,
		stbl:           stbl,
		HandleSQLError: errorHandler,
		dialect:        dialect,
		migrations:     migrations,
	}
}

// Datastore implements [storage.Datastore] over a single fact table.
type Datastore struct {
	*DBInfo

	logger   logger.Logger
	pageSize int
}

func NewDatastore(info *DBInfo, cfg *Config) *Datastore {
	return &Datastore{
		DBInfo:   info,
		logger:   cfg.Logger,
		pageSize: cfg.ReadPageSize,
	}
}

type factRow struct {
	id     string
	output concept.Map
}

// Read see [storage.FactReader].Read. Rows are fetched a page at a time in
// insertion order and no query runs until the first value is pulled.
func (d *Datastore) Read(ctx context.Context, pattern string, partial concept.Map) iter.Seq2[concept.Map, error] {
	return func(yield func(concept.Map, error) bool) {
		ctx, span := tracer.Start(ctx, "sqlcommon.Read", trace.WithAttributes(
			attribute.String("pattern", pattern),
			attribute.String("partial", partial.String()),
		))
		defer span.End()

		input, err := marshalRow(partial)
		if err != nil {
			yield(nil, err)
			return
		}

		var after string
		for {
			page, err := d.readPage(ctx, pattern, input, after)
			if err != nil {
				telemetry.TraceError(span, err)
				yield(nil, err)
				return
			}

			for _, row := range page {
				if !yield(row.output, nil) {
					return
				}
				after = row.id
			}

			if len(page) < d.pageSize {
				return
			}
		}
	}
}

func (d *Datastore) readPage(ctx context.Context, pattern, input, after string) ([]factRow, error) {
	ctx, span := tracer.Start(ctx, "sqlcommon.readPage")
	defer span.End()

	sb := d.stbl.
		Select("id", "output").
		From(factTable).
		Where(sq.Eq{"pattern": pattern}).
		Where(sq.Or{sq.Eq{"input": nil}, sq.Eq{"input": input}}).
		OrderBy("id").
		Limit(uint64(d.pageSize))
	if after != "" {
		sb = sb.Where(sq.Gt{"id": after})
	}

	rows, err := sb.QueryContext(ctx)
	if err != nil {
		return nil, d.HandleSQLError(err)
	}
	defer rows.Close()

	page := make([]factRow, 0, d.pageSize)
	for rows.Next() {
		var (
			row    factRow
			output string
		)
		if err := rows.Scan(&row.id, &output); err != nil {
			return nil, d.HandleSQLError(err)
		}
		if row.output, err = unmarshalRow(output); err != nil {
			return nil, err
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, d.HandleSQLError(err)
	}
	return page, nil
}

// Write see [storage.FactWriter].Write. The facts are written in one
// transaction.
func (d *Datastore) Write(ctx context.Context, facts ...storage.Fact) error {
	ctx, span := tracer.Start(ctx, "sqlcommon.Write", trace.WithAttributes(
		attribute.Int("facts", len(facts)),
	))
	defer span.End()

	if len(facts) == 0 {
		return nil
	}

	ib := d.stbl.Insert(factTable).Columns("id", "pattern", "input", "output")
	for _, f := range facts {
		if err := f.Validate(); err != nil {
			return err
		}

		var input sql.NullString
		if f.Input != nil {
			encoded, err := marshalRow(f.Input)
			if err != nil {
				return err
			}
			input = sql.NullString{String: encoded, Valid: true}
		}
		output, err := marshalRow(f.Output)
		if err != nil {
			return err
		}

		ib = ib.Values(ulid.Make().String(), f.Pattern, input, output)
	}

	txn, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return d.HandleSQLError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	if _, err := ib.RunWith(txn).ExecContext(ctx); err != nil {
		telemetry.TraceError(span, err)
		return d.HandleSQLError(err)
	}

	if err := txn.Commit(); err != nil {
		return d.HandleSQLError(err)
	}

	d.logger.Debug("wrote facts", zap.Int("count", len(facts)))
	return nil
}

// IsReady see [storage.Datastore].IsReady.
func (d *Datastore) IsReady(ctx context.Context) (storage.ReadinessStatus, error) {
	return IsReady(ctx, false, d.DBInfo)
}

func (d *Datastore) Close() {
	d.db.Close()
}

// IsReady returns true if connection to datastore is successful AND
// (the datastore has the latest migration applied OR skipVersionCheck).
func IsReady(ctx context.Context, skipVersionCheck bool, info *DBInfo) (storage.ReadinessStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, storage.DefaultReadinessTimeout)
	defer cancel()

	// do ping first to ensure we have better error message
	// if error is due to connection issue.
	if pingErr := info.db.PingContext(ctx); pingErr != nil {
		return storage.ReadinessStatus{}, pingErr
	}

	if skipVersionCheck {
		return storage.ReadinessStatus{
			IsReady: true,
		}, nil
	}

	provider, err := goose.NewProvider(info.dialect, info.db, info.migrations)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	revision, err := provider.GetDBVersion(ctx)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	if revision < build.MinimumSupportedDatastoreSchemaRevision {
		return storage.ReadinessStatus{
			Message: "datastore requires migrations: at revision '" +
				strconv.FormatInt(revision, 10) +
				"', but requires '" +
				strconv.FormatInt(build.MinimumSupportedDatastoreSchemaRevision, 10) +
				"'. Run '" + build.ProjectName + " migrate'.",
			IsReady: false,
		}, nil
	}
	return storage.ReadinessStatus{
		IsReady: true,
	}, nil
}

// WaitForConnection pings db with exponential backoff until it answers or
// timeout elapses.
func WaitForConnection(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout
	return backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
}

// Migrate moves the schema of db to config.TargetVersion, or to the latest
// revision when it is zero.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, migrations fs.FS, config storage.MigrationConfig) error {
	log := config.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}
	log = log.With(zap.String("engine", config.Engine))

	provider, err := goose.NewProvider(dialect, db, migrations, goose.WithVerbose(config.Verbose))
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	currentVersion, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get %s db version: %w", config.Engine, err)
	}
	log.Info("current schema version", zap.Int64("version", currentVersion))

	if config.TargetVersion == 0 {
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", config.Engine, err)
		}
		log.Info("migration done")
		return nil
	}

	target := int64(config.TargetVersion)
	switch {
	case target < currentVersion:
		if _, err := provider.DownTo(ctx, target); err != nil {
			return fmt.Errorf("failed to run %s migrations down to %v: %w", config.Engine, target, err)
		}
	case target > currentVersion:
		if _, err := provider.UpTo(ctx, target); err != nil {
			return fmt.Errorf("failed to run %s migrations up to %v: %w", config.Engine, target, err)
		}
	default:
		log.Info("nothing to do")
		return nil
	}

	log.Info("migration done", zap.Int64("version", target))
	return nil
}

// CurrentVersion returns the applied schema revision of db.
func CurrentVersion(ctx context.Context, db *sql.DB, dialect goose.Dialect, migrations fs.FS) (int64, error) {
	provider, err := goose.NewProvider(dialect, db, migrations)
	if err != nil {
		return 0, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return provider.GetDBVersion(ctx)
}

// HandleCommonSQLError translates the errors every engine reports the same
// way. It returns nil when err needs engine specific handling.
func HandleCommonSQLError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return storage.ErrNotFound
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", storage.ErrCancelled, err)
	}
	return nil
}
