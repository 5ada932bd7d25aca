package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Verify())
}

func TestVerifyConfig(t *testing.T) {
	tests := map[string]struct {
		modify  func(*Config)
		wantErr string
	}{
		"no_workers": {
			modify:  func(c *Config) { c.EventLoop.Workers = 0 },
			wantErr: "config 'eventLoop.workers' must be positive, got 0",
		},
		"unknown_assignment": {
			modify:  func(c *Config) { c.EventLoop.Assignment = "random" },
			wantErr: "config 'eventLoop.assignment' must be one of ['round-robin', 'hash']",
		},
		"negative_query_timeout": {
			modify:  func(c *Config) { c.Resolution.QueryTimeout = -1 },
			wantErr: "config 'resolution.queryTimeout' must not be negative",
		},
		"empty_constraint_cache": {
			modify:  func(c *Config) { c.Constraint.CacheSize = 0 },
			wantErr: "config 'constraint.cacheSize' must be positive",
		},
		"unknown_engine": {
			modify:  func(c *Config) { c.Datastore.Engine = "crdb" },
			wantErr: `config 'datastore.engine' must be one of ["memory" "sqlite" "postgres" "mysql"]`,
		},
		"sql_engine_without_uri": {
			modify:  func(c *Config) { c.Datastore.Engine = PostgresEngine },
			wantErr: "config 'datastore.uri' must be set for engine 'postgres'",
		},
		"empty_read_page": {
			modify:  func(c *Config) { c.Datastore.ReadPageSize = 0 },
			wantErr: "config 'datastore.readPageSize' must be positive",
		},
		"non_log_format": {
			modify:  func(c *Config) { c.Log.Format = "notaformat" },
			wantErr: "config 'log.format' must be one of ['text', 'json']",
		},
		"non_log_level": {
			modify:  func(c *Config) { c.Log.Level = "notalevel" },
			wantErr: "config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error', 'panic', 'fatal']",
		},
		"trace_sample_ratio": {
			modify: func(c *Config) {
				c.Trace.Enabled = true
				c.Trace.SampleRatio = 2
			},
			wantErr: "config 'trace.sampleRatio' must be between 0 and 1",
		},
		"trace_without_endpoint": {
			modify: func(c *Config) {
				c.Trace.Enabled = true
				c.Trace.OTLP.Endpoint = ""
			},
			wantErr: "config 'trace.otlp.endpoint' must be set when tracing is enabled",
		},
		"metrics_without_addr": {
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: "config 'metrics.addr' must be set when metrics are enabled",
		},
		"sqlite_with_uri": {
			modify: func(c *Config) {
				c.Datastore.Engine = SqliteEngine
				c.Datastore.URI = "file::memory:"
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.modify(cfg)

			err := cfg.Verify()
			if test.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, test.wantErr)
		})
	}
}
