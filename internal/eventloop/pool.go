package eventloop

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/sourcegraph/conc"

	"github.com/lolski/common-sub000/pkg/logger"
)

// Assignment decides which loop a new actor is pinned to.
type Assignment string

const (
	AssignRoundRobin Assignment = "round-robin"
	AssignHash       Assignment = "hash"
)

func (a Assignment) Valid() bool {
	return a == AssignRoundRobin || a == AssignHash
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

func WithAssignment(a Assignment) PoolOption {
	return func(p *Pool) {
		p.assignment = a
	}
}

func WithLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = l
	}
}

// WithDrainOnClose makes Close run every queued job before stopping the loops.
func WithDrainOnClose(drain bool) PoolOption {
	return func(p *Pool) {
		p.drain = drain
	}
}

// Pool is a fixed set of event loops.
type Pool struct {
	assignment Assignment
	logger     logger.Logger
	drain      bool

	loops []*Loop
	next  atomic.Uint64
	wg    conc.WaitGroup

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewPool starts size event loops. It panics if size is not positive or the
// assignment is unknown.
func NewPool(size int, opts ...PoolOption) *Pool {
	if size <= 0 {
		panic(fmt.Sprintf("event loop pool size must be positive, got %d", size))
	}

	p := &Pool{
		assignment: AssignRoundRobin,
		logger:     logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !p.assignment.Valid() {
		panic(fmt.Sprintf("unknown event loop assignment %q", p.assignment))
	}

	p.loops = make([]*Loop, size)
	for i := range p.loops {
		l := newLoop(i, p.logger)
		p.loops[i] = l
		p.wg.Go(l.run)
	}
	return p
}

// Size is the number of loops in the pool.
func (p *Pool) Size() int {
	return len(p.loops)
}

// Loop returns the loop at index i.
func (p *Pool) Loop(i int) *Loop {
	return p.loops[i]
}

// Assign picks the loop for a new actor called name.
func (p *Pool) Assign(name string) (*Loop, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	var i uint64
	switch p.assignment {
	case AssignHash:
		i = xxhash.Sum64String(name)
	default:
		i = p.next.Add(1) - 1
	}
	return p.loops[i%uint64(len(p.loops))], nil
}

// Close stops every loop and waits for their goroutines to exit.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		for _, l := range p.loops {
			l.close(p.drain)
		}
		p.wg.Wait()
	})
}
