package run

import (
	"github.com/spf13/cobra"

	"github.com/lolski/common-sub000/cmd/util"
	"github.com/lolski/common-sub000/internal/config"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.String(programFlag, "", "(required) the path of the YAML program holding the facts, rules and query to run")
	util.MustBindPFlag(programFlag, flags.Lookup(programFlag))
	util.MustBindEnv(programFlag, "REASONER_PROGRAM")

	flags.Bool(explainFlag, false, "print the derivation tree of every inferred answer")
	util.MustBindPFlag(explainFlag, flags.Lookup(explainFlag))
	util.MustBindEnv(explainFlag, "REASONER_EXPLAIN")

	flags.Int(limitFlag, 0, "the maximum number of answers to pull (0 pulls until the query is exhausted)")
	util.MustBindPFlag(limitFlag, flags.Lookup(limitFlag))
	util.MustBindEnv(limitFlag, "REASONER_LIMIT")

	flags.Bool(datastoreMigrateFlag, false, "run the datastore schema migrations before loading the program")
	util.MustBindPFlag(datastoreMigrateFlag, flags.Lookup(datastoreMigrateFlag))
	util.MustBindEnv(datastoreMigrateFlag, "REASONER_DATASTORE_MIGRATE")

	flags.Int("event-loop-workers", defaultConfig.EventLoop.Workers, "the number of event loops resolvers are spread over")
	util.MustBindPFlag("eventLoop.workers", flags.Lookup("event-loop-workers"))
	util.MustBindEnv("eventLoop.workers", "REASONER_EVENT_LOOP_WORKERS", "REASONER_EVENTLOOP_WORKERS")

	flags.String("event-loop-assignment", defaultConfig.EventLoop.Assignment, "how resolvers are assigned to event loops ('round-robin' or 'hash')")
	util.MustBindPFlag("eventLoop.assignment", flags.Lookup("event-loop-assignment"))
	util.MustBindEnv("eventLoop.assignment", "REASONER_EVENT_LOOP_ASSIGNMENT", "REASONER_EVENTLOOP_ASSIGNMENT")

	flags.Bool("event-loop-drain-on-close", defaultConfig.EventLoop.DrainOnClose, "run already queued jobs when the event loops are closed")
	util.MustBindPFlag("eventLoop.drainOnClose", flags.Lookup("event-loop-drain-on-close"))
	util.MustBindEnv("eventLoop.drainOnClose", "REASONER_EVENT_LOOP_DRAIN_ON_CLOSE", "REASONER_EVENTLOOP_DRAINONCLOSE")

	flags.Bool("resolution-evict-exhausted-producers", defaultConfig.Resolution.EvictExhaustedProducers, "release the state of exhausted producers and keep a tombstone")
	util.MustBindPFlag("resolution.evictExhaustedProducers", flags.Lookup("resolution-evict-exhausted-producers"))
	util.MustBindEnv("resolution.evictExhaustedProducers", "REASONER_RESOLUTION_EVICT_EXHAUSTED_PRODUCERS", "REASONER_RESOLUTION_EVICTEXHAUSTEDPRODUCERS")

	flags.Duration("resolution-query-timeout", defaultConfig.Resolution.QueryTimeout, "the maximum time to wait for each answer (0 disables the timeout)")
	util.MustBindPFlag("resolution.queryTimeout", flags.Lookup("resolution-query-timeout"))
	util.MustBindEnv("resolution.queryTimeout", "REASONER_RESOLUTION_QUERY_TIMEOUT", "REASONER_RESOLUTION_QUERYTIMEOUT")

	flags.Int64("constraint-cache-size", defaultConfig.Constraint.CacheSize, "the number of compiled constraints to keep")
	util.MustBindPFlag("constraint.cacheSize", flags.Lookup("constraint-cache-size"))
	util.MustBindEnv("constraint.cacheSize", "REASONER_CONSTRAINT_CACHE_SIZE", "REASONER_CONSTRAINT_CACHESIZE")

	flags.String("datastore-engine", defaultConfig.Datastore.Engine, "the datastore engine facts are read from ('memory', 'sqlite', 'postgres' or 'mysql')")
	util.MustBindPFlag("datastore.engine", flags.Lookup("datastore-engine"))
	util.MustBindEnv("datastore.engine", "REASONER_DATASTORE_ENGINE")

	flags.String("datastore-uri", defaultConfig.Datastore.URI, "the connection uri to use to connect to the datastore (for any engine other than 'memory')")
	util.MustBindPFlag("datastore.uri", flags.Lookup("datastore-uri"))
	util.MustBindEnv("datastore.uri", "REASONER_DATASTORE_URI")

	flags.Int("datastore-read-page-size", defaultConfig.Datastore.ReadPageSize, "the number of facts a SQL read fetches per query")
	util.MustBindPFlag("datastore.readPageSize", flags.Lookup("datastore-read-page-size"))
	util.MustBindEnv("datastore.readPageSize", "REASONER_DATASTORE_READ_PAGE_SIZE", "REASONER_DATASTORE_READPAGESIZE")

	flags.Int("datastore-max-open-conns", defaultConfig.Datastore.MaxOpenConns, "the maximum number of open connections to the datastore")
	util.MustBindPFlag("datastore.maxOpenConns", flags.Lookup("datastore-max-open-conns"))
	util.MustBindEnv("datastore.maxOpenConns", "REASONER_DATASTORE_MAX_OPEN_CONNS", "REASONER_DATASTORE_MAXOPENCONNS")

	flags.Int("datastore-max-idle-conns", defaultConfig.Datastore.MaxIdleConns, "the maximum number of connections to the datastore in the idle connection pool")
	util.MustBindPFlag("datastore.maxIdleConns", flags.Lookup("datastore-max-idle-conns"))
	util.MustBindEnv("datastore.maxIdleConns", "REASONER_DATASTORE_MAX_IDLE_CONNS", "REASONER_DATASTORE_MAXIDLECONNS")

	flags.Duration("datastore-conn-max-idle-time", defaultConfig.Datastore.ConnMaxIdleTime, "the maximum amount of time a connection to the datastore may be idle")
	util.MustBindPFlag("datastore.connMaxIdleTime", flags.Lookup("datastore-conn-max-idle-time"))
	util.MustBindEnv("datastore.connMaxIdleTime", "REASONER_DATASTORE_CONN_MAX_IDLE_TIME", "REASONER_DATASTORE_CONNMAXIDLETIME")

	flags.Duration("datastore-conn-max-lifetime", defaultConfig.Datastore.ConnMaxLifetime, "the maximum amount of time a connection to the datastore may be reused")
	util.MustBindPFlag("datastore.connMaxLifetime", flags.Lookup("datastore-conn-max-lifetime"))
	util.MustBindEnv("datastore.connMaxLifetime", "REASONER_DATASTORE_CONN_MAX_LIFETIME", "REASONER_DATASTORE_CONNMAXLIFETIME")

	flags.Bool("datastore-metrics-enabled", defaultConfig.Datastore.Metrics.Enabled, "enable/disable sql metrics")
	util.MustBindPFlag("datastore.metrics.enabled", flags.Lookup("datastore-metrics-enabled"))
	util.MustBindEnv("datastore.metrics.enabled", "REASONER_DATASTORE_METRICS_ENABLED")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in")
	util.MustBindPFlag("log.format", flags.Lookup("log-format"))
	util.MustBindEnv("log.format", "REASONER_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use")
	util.MustBindPFlag("log.level", flags.Lookup("log-level"))
	util.MustBindEnv("log.level", "REASONER_LOG_LEVEL")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")
	util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
	util.MustBindEnv("trace.enabled", "REASONER_TRACE_ENABLED")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")
	util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
	util.MustBindEnv("trace.otlp.endpoint", "REASONER_TRACE_OTLP_ENDPOINT")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none.")
	util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
	util.MustBindEnv("trace.sampleRatio", "REASONER_TRACE_SAMPLE_RATIO")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces.")
	util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
	util.MustBindEnv("trace.serviceName", "REASONER_TRACE_SERVICE_NAME")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics while the query runs")
	util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
	util.MustBindEnv("metrics.enabled", "REASONER_METRICS_ENABLED")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve the prometheus metrics server on")
	util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	util.MustBindEnv("metrics.addr", "REASONER_METRICS_ADDR")
}
