// Package run contains the command to run a reasoner program.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lolski/common-sub000/internal/build"
	"github.com/lolski/common-sub000/internal/config"
	"github.com/lolski/common-sub000/internal/constraint"
	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/internal/resolution"
	"github.com/lolski/common-sub000/pkg/logger"
	"github.com/lolski/common-sub000/pkg/program"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/memory"
	"github.com/lolski/common-sub000/pkg/storage/migrate"
	"github.com/lolski/common-sub000/pkg/storage/mysql"
	"github.com/lolski/common-sub000/pkg/storage/postgres"
	"github.com/lolski/common-sub000/pkg/storage/sqlcommon"
	"github.com/lolski/common-sub000/pkg/storage/sqlite"
	"github.com/lolski/common-sub000/pkg/telemetry"
)

const (
	programFlag          = "program"
	explainFlag          = "explain"
	limitFlag            = "limit"
	datastoreMigrateFlag = "datastore-migrate"

	migrationTimeout = 1 * time.Minute
)

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a reasoner program",
		Long: `Run a reasoner program.

The program's facts are written to the configured datastore, its rules are
registered, and the answers of its query are printed one per line as they are
pulled.`,
		RunE: run,
		Args: cobra.NoArgs,
	}

	bindRunFlags(cmd)

	return cmd
}

// ReadConfig returns the reasoner configuration based on the values provided in the server's 'config.yaml' file.
// The 'config.yaml' file is loaded from '/etc/reasoner', '$HOME/.reasoner', or the current working directory. If no configuration
// file is present, the default values are returned.
func ReadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load reasoner config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reasoner config: %w", err)
	}

	return cfg, nil
}

// Options are the per invocation settings of a run that are not part of the
// reasoner configuration.
type Options struct {
	Program string
	Explain bool

	// Limit stops the run after this many answers. Zero pulls until the query
	// is exhausted.
	Limit int

	Migrate bool
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := ReadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Verify(); err != nil {
		return err
	}

	opts := Options{
		Program: viper.GetString(programFlag),
		Explain: viper.GetBool(explainFlag),
		Limit:   viper.GetInt(limitFlag),
		Migrate: viper.GetBool(datastoreMigrateFlag),
	}

	runCtx := &RunContext{
		Logger: logger.MustNewLogger(cfg.Log.Format, cfg.Log.Level),
		Out:    cmd.OutOrStdout(),
	}
	return runCtx.Run(cmd.Context(), cfg, opts)
}

// RunContext carries what a run writes to: the logger and the answer output.
type RunContext struct {
	Logger logger.Logger
	Out    io.Writer
}

func (s *RunContext) telemetryConfig(cfg *config.Config) func() error {
	if cfg.Trace.Enabled {
		s.Logger.Info(fmt.Sprintf("🕵 tracing enabled: sampling ratio is %v and sending traces to '%s'", cfg.Trace.SampleRatio, cfg.Trace.OTLP.Endpoint))

		tp := telemetry.MustNewTracerProvider(
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithAttributes(attribute.String("reasoner.build.commit", build.Commit)),
			telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
		)
		return func() error {
			// the batch span processor can take up to 5 seconds to export
			ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
			defer cancel()
			return tp.Close(ctx)
		}
	}
	otel.SetTracerProvider(telemetry.Noop())
	return func() error {
		return nil
	}
}

func (s *RunContext) datastoreConfig(cfg *config.Config) (storage.Datastore, error) {
	datastoreOptions := []sqlcommon.DatastoreOption{
		sqlcommon.WithLogger(s.Logger),
		sqlcommon.WithReadPageSize(cfg.Datastore.ReadPageSize),
		sqlcommon.WithMaxOpenConns(cfg.Datastore.MaxOpenConns),
		sqlcommon.WithMaxIdleConns(cfg.Datastore.MaxIdleConns),
		sqlcommon.WithConnMaxIdleTime(cfg.Datastore.ConnMaxIdleTime),
		sqlcommon.WithConnMaxLifetime(cfg.Datastore.ConnMaxLifetime),
	}

	if cfg.Datastore.Metrics.Enabled {
		datastoreOptions = append(datastoreOptions, sqlcommon.WithMetrics())
	}

	dsCfg := sqlcommon.NewConfig(datastoreOptions...)

	var datastore storage.Datastore
	var err error
	switch cfg.Datastore.Engine {
	case config.MemoryEngine:
		datastore = memory.New()
	case config.MySQLEngine:
		datastore, err = mysql.New(cfg.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize mysql datastore: %w", err)
		}
	case config.PostgresEngine:
		datastore, err = postgres.New(cfg.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres datastore: %w", err)
		}
	case config.SqliteEngine:
		datastore, err = sqlite.New(cfg.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite datastore: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownEngine, cfg.Datastore.Engine)
	}

	s.Logger.Info(fmt.Sprintf("using '%v' storage engine", cfg.Datastore.Engine))

	return datastore, nil
}

// Run loads the program, answers its query and blocks until the answers are
// printed, the limit is reached or ctx is cancelled.
func (s *RunContext) Run(ctx context.Context, cfg *config.Config, opts Options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProviderCloser := s.telemetryConfig(cfg)
	defer func() {
		if err := tracerProviderCloser(); err != nil {
			s.Logger.Error("failed to shutdown tracing", zap.Error(err))
		}
	}()

	prog, err := program.Load(opts.Program)
	if err != nil {
		return err
	}

	if opts.Migrate {
		err := migrate.RunMigrations(ctx, migrate.MigrationConfig{
			Engine:  cfg.Datastore.Engine,
			URI:     cfg.Datastore.URI,
			Timeout: migrationTimeout,
			Logger:  s.Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	datastore, err := s.datastoreConfig(cfg)
	if err != nil {
		return err
	}
	defer datastore.Close()

	status, err := datastore.IsReady(ctx)
	if err != nil {
		return fmt.Errorf("datastore readiness check: %w", err)
	}
	if !status.IsReady {
		return fmt.Errorf("datastore is not ready: %s", status.Message)
	}

	pool := eventloop.NewPool(cfg.EventLoop.Workers,
		eventloop.WithAssignment(eventloop.Assignment(cfg.EventLoop.Assignment)),
		eventloop.WithDrainOnClose(cfg.EventLoop.DrainOnClose),
		eventloop.WithLogger(s.Logger),
	)
	defer pool.Close()

	cache, err := constraint.NewCache(cfg.Constraint.CacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()

	sys, err := resolution.NewSystem(datastore,
		resolution.WithPool(pool),
		resolution.WithLogger(s.Logger),
		resolution.WithConstraintCache(cache),
		resolution.WithEvictExhaustedProducers(cfg.Resolution.EvictExhaustedProducers),
		resolution.WithQueryTimeout(cfg.Resolution.QueryTimeout),
	)
	if err != nil {
		return err
	}
	defer sys.Close()

	if err := prog.Install(ctx, datastore, sys.Registry()); err != nil {
		return err
	}

	query, err := prog.Run(sys)
	if err != nil {
		return err
	}
	defer query.Close()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", otelhttp.NewHandler(promhttp.Handler(), "metrics"))

		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	g, gctx := errgroup.WithContext(ctx)
	if metricsServer != nil {
		g.Go(func() error {
			s.Logger.Info(fmt.Sprintf("📈 starting prometheus metrics server on '%s'", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start prometheus metrics server: %w", err)
			}
			s.Logger.Info("metrics server shut down.")
			return nil
		})
	}
	g.Go(func() error {
		defer func() {
			if metricsServer == nil {
				return
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				s.Logger.Info("failed to shutdown the prometheus metrics server", zap.Error(err))
			}
		}()
		return s.printAnswers(gctx, query, opts)
	})

	return g.Wait()
}

func (s *RunContext) printAnswers(ctx context.Context, query *resolution.Query, opts Options) error {
	count := 0
	for opts.Limit <= 0 || count < opts.Limit {
		answer, err := query.Next(ctx)
		if errors.Is(err, resolution.ErrExhausted) {
			break
		}
		if err != nil {
			return err
		}
		count++

		if _, err := fmt.Fprintln(s.Out, strings.Join(answer.Values.Strings(), "\t")); err != nil {
			return err
		}
		if opts.Explain && answer.Inferred() {
			explanation, err := query.Explain(ctx, answer)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(s.Out, explanation.String()); err != nil {
				return err
			}
		}
	}

	s.Logger.Info("query done", zap.Int("answers", count))
	return nil
}
