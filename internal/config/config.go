// Package config contains all knobs and defaults used to configure the
// reasoner.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/lolski/common-sub000/internal/constraint"
	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/internal/resolution"
	"github.com/lolski/common-sub000/pkg/storage"
)

const (
	DefaultQueryTimeout = 30 * time.Second

	MemoryEngine   = "memory"
	SqliteEngine   = "sqlite"
	PostgresEngine = "postgres"
	MySQLEngine    = "mysql"
)

var engines = []string{MemoryEngine, SqliteEngine, PostgresEngine, MySQLEngine}

type EventLoopConfig struct {
	// Workers is the number of event loops actors are spread over.
	Workers int

	// Assignment is how actors are assigned to event loops: 'round-robin' or
	// 'hash'.
	Assignment string

	// DrainOnClose runs already queued jobs when the loops are closed.
	DrainOnClose bool
}

type ResolutionConfig struct {
	EvictExhaustedProducers bool

	// QueryTimeout bounds the wait for each answer. Zero disables it.
	QueryTimeout time.Duration
}

type ConstraintConfig struct {
	// CacheSize is the number of compiled constraints kept.
	CacheSize int64
}

type DatastoreMetricsConfig struct {
	// Enabled enables export of the datastore connection pool metrics.
	Enabled bool
}

// DatastoreConfig defines the fact datastore.
type DatastoreConfig struct {
	// Engine is the datastore engine to use (e.g. 'memory', 'sqlite',
	// 'postgres', 'mysql').
	Engine string
	URI    string

	// ReadPageSize is the number of facts a SQL read fetches per query.
	ReadPageSize int

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections in the idle
	// connection pool.
	MaxIdleConns int

	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	Metrics DatastoreMetricsConfig
}

// LogConfig defines the logging configuration.
type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json').
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info').
	Level string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
}

// MetricConfig defines the prometheus metrics endpoint.
type MetricConfig struct {
	Enabled bool
	Addr    string
}

type Config struct {
	EventLoop  EventLoopConfig
	Resolution ResolutionConfig
	Constraint ConstraintConfig
	Datastore  DatastoreConfig
	Log        LogConfig
	Trace      TraceConfig
	Metrics    MetricConfig
}

func (cfg *Config) Verify() error {
	if cfg.EventLoop.Workers <= 0 {
		return fmt.Errorf("config 'eventLoop.workers' must be positive, got %d", cfg.EventLoop.Workers)
	}

	if !eventloop.Assignment(cfg.EventLoop.Assignment).Valid() {
		return fmt.Errorf("config 'eventLoop.assignment' must be one of ['%s', '%s']",
			eventloop.AssignRoundRobin, eventloop.AssignHash)
	}

	if cfg.Resolution.QueryTimeout < 0 {
		return errors.New("config 'resolution.queryTimeout' must not be negative")
	}

	if cfg.Constraint.CacheSize <= 0 {
		return errors.New("config 'constraint.cacheSize' must be positive")
	}

	if !slices.Contains(engines, cfg.Datastore.Engine) {
		return fmt.Errorf("config 'datastore.engine' must be one of %q", engines)
	}

	if cfg.Datastore.Engine != MemoryEngine && cfg.Datastore.URI == "" {
		return fmt.Errorf("config 'datastore.uri' must be set for engine '%s'", cfg.Datastore.Engine)
	}

	if cfg.Datastore.ReadPageSize <= 0 {
		return errors.New("config 'datastore.readPageSize' must be positive")
	}

	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json']")
	}

	if cfg.Log.Level != "none" &&
		cfg.Log.Level != "debug" &&
		cfg.Log.Level != "info" &&
		cfg.Log.Level != "warn" &&
		cfg.Log.Level != "error" &&
		cfg.Log.Level != "panic" &&
		cfg.Log.Level != "fatal" {
		return fmt.Errorf(
			"config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error', 'panic', 'fatal']",
		)
	}

	if cfg.Trace.Enabled {
		if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
			return errors.New("config 'trace.sampleRatio' must be between 0 and 1")
		}
		if cfg.Trace.OTLP.Endpoint == "" {
			return errors.New("config 'trace.otlp.endpoint' must be set when tracing is enabled")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("config 'metrics.addr' must be set when metrics are enabled")
	}

	return nil
}

// DefaultConfig is the reasoner default configuration.
func DefaultConfig() *Config {
	return &Config{
		EventLoop: EventLoopConfig{
			Workers:      runtime.GOMAXPROCS(0),
			Assignment:   string(eventloop.AssignRoundRobin),
			DrainOnClose: false,
		},
		Resolution: ResolutionConfig{
			EvictExhaustedProducers: resolution.DefaultEvictExhaustedProducers,
			QueryTimeout:            DefaultQueryTimeout,
		},
		Constraint: ConstraintConfig{
			CacheSize: constraint.DefaultCacheSize,
		},
		Datastore: DatastoreConfig{
			Engine:       MemoryEngine,
			ReadPageSize: storage.DefaultReadPageSize,
			MaxOpenConns: storage.DefaultMaxOpenConns,
			MaxIdleConns: 10,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
			},
			SampleRatio: 0.2,
			ServiceName: "reasoner",
		},
		Metrics: MetricConfig{
			Enabled: false,
			Addr:    "0.0.0.0:2112",
		},
	}
}
