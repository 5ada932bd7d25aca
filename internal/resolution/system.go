package resolution

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lolski/common-sub000/internal/constraint"
	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/pkg/logger"
	"github.com/lolski/common-sub000/pkg/storage"
)

const DefaultEvictExhaustedProducers = true

// System owns the resolvers answering queries over one fact reader.
type System struct {
	env      *environment
	registry *Registry
	recorder *Recorder

	pool         *eventloop.Pool
	ownsPool     bool
	ownsCache    bool
	queryTimeout time.Duration
	cancel       context.CancelFunc

	mu      sync.Mutex
	queries map[string]*Query
	closed  bool
}

type SystemOption func(*System)

// WithPool runs the resolvers on pool. The pool is not closed with the
// System.
func WithPool(pool *eventloop.Pool) SystemOption {
	return func(s *System) {
		s.pool = pool
	}
}

func WithLogger(l logger.Logger) SystemOption {
	return func(s *System) {
		s.env.logger = l
	}
}

// WithConstraintCache evaluates constraints with cache. The cache is not
// closed with the System.
func WithConstraintCache(cache *constraint.Cache) SystemOption {
	return func(s *System) {
		s.env.constraints = cache
	}
}

// WithEvictExhaustedProducers releases the state of exhausted producers,
// keeping only a tombstone that keeps answering Exhausted.
func WithEvictExhaustedProducers(evict bool) SystemOption {
	return func(s *System) {
		s.env.evict = evict
	}
}

// WithQueryTimeout bounds how long a query waits for each response. Zero
// means no bound beyond the caller's context.
func WithQueryTimeout(timeout time.Duration) SystemOption {
	return func(s *System) {
		s.queryTimeout = timeout
	}
}

// NewSystem creates a System answering from reader.
func NewSystem(reader storage.FactReader, opts ...SystemOption) (*System, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &System{
		env: &environment{
			ctx:    ctx,
			reader: reader,
			logger: logger.NewNoopLogger(),
			evict:  DefaultEvictExhaustedProducers,
		},
		cancel:  cancel,
		queries: make(map[string]*Query),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.pool == nil {
		s.pool = eventloop.NewPool(runtime.GOMAXPROCS(0), eventloop.WithLogger(s.env.logger))
		s.ownsPool = true
	}
	if s.env.constraints == nil {
		cache, err := constraint.NewCache(constraint.DefaultCacheSize)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.env.constraints = cache
		s.ownsCache = true
	}

	s.env.pool = s.pool
	s.env.fail = s.fail
	s.registry = newRegistry(s.env)
	s.env.registry = s.registry

	recorder, err := newRecorder(s.pool, s.env.logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create recorder: %w", err)
	}
	s.recorder = recorder
	return s, nil
}

func (s *System) Registry() *Registry {
	return s.registry
}

func (s *System) Recorder() *Recorder {
	return s.recorder
}

// Query starts a query for the join of patterns. Every answer satisfies all
// constraints.
func (s *System) Query(patterns []string, constraints ...string) (*Query, error) {
	if len(patterns) == 0 {
		return nil, ErrEmptyQuery
	}
	if err := s.env.constraints.Check(constraints); err != nil {
		return nil, err
	}

	return s.newQuery(conjunctionKind, "query", NewConjunction(patterns), constraints)
}

// newQuery starts a query served by a root resolver running b.
func (s *System) newQuery(kind, name string, b Behavior, constraints []string) (*Query, error) {
	q := &Query{
		sys:    s,
		sink:   newSink(),
		failed: make(chan error, 1),
	}
	root, err := newResolver(s.env, kind, name, b, q.sink.push)
	if err != nil {
		return nil, fmt.Errorf("create query: %w", err)
	}
	q.root = root
	q.request = Request{
		Path:        NewPath(root),
		Constraints: constraints,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrQueryClosed
	}
	s.queries[root.ID()] = q
	return q, nil
}

// fail reports a resolver failure to the query rooted at root. A failure
// outside of any query reaches every open query.
func (s *System) fail(root string, err error) {
	s.env.logger.Error("resolver failed", zap.String("query", root), zap.Error(err))

	s.mu.Lock()
	defer s.mu.Unlock()
	if root != "" {
		if q, ok := s.queries[root]; ok {
			q.notify(err)
		}
		return
	}
	for _, q := range s.queries {
		q.notify(err)
	}
}

func (s *System) forget(q *Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queries, q.root.ID())
}

// Close stops every resolver. Open queries fail with ErrQueryClosed.
func (s *System) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, q := range s.queries {
		q.notify(ErrQueryClosed)
	}
	s.mu.Unlock()

	s.cancel()
	if s.ownsPool && s.pool != nil {
		s.pool.Close()
	}
	if s.ownsCache && s.env.constraints != nil {
		s.env.constraints.Close()
	}
}
