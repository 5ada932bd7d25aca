package resolution

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/pkg/telemetry"
)

var tracer = otel.Tracer("reasoner/internal/resolution")

// sink queues the responses of a root resolver until the query takes them.
// push runs on an event loop and never blocks.
type sink struct {
	mu     sync.Mutex
	queue  []Response
	signal chan struct{}
}

func newSink() *sink {
	return &sink{signal: make(chan struct{}, 1)}
}

func (s *sink) push(resp Response) {
	s.mu.Lock()
	s.queue = append(s.queue, resp)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *sink) pop() (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}
	resp := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return resp, true
}

// Query streams the answers of a conjunction. Each answer is only resolved
// when asked for. A Query is not safe for concurrent use.
type Query struct {
	sys     *System
	root    *actor.Actor[*Dispatcher]
	request Request
	sink    *sink
	failed  chan error

	// outstanding counts requests sent to the root whose response was not
	// taken yet.
	outstanding int
	exhausted   bool
	err         error
}

// Next returns the next answer, or ErrExhausted once there are none left.
func (q *Query) Next(ctx context.Context) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "resolution.Query.Next")
	defer span.End()

	answers, err := q.pull(ctx, 1)
	if err != nil {
		if !errors.Is(err, ErrExhausted) {
			telemetry.TraceError(span, err)
		}
		return nil, err
	}
	return answers[0], nil
}

// Pull asks for k answers at once. Fewer answers are returned together with
// ErrExhausted when the query runs out.
func (q *Query) Pull(ctx context.Context, k int) ([]*Answer, error) {
	ctx, span := tracer.Start(ctx, "resolution.Query.Pull", trace.WithAttributes(
		attribute.Int("k", k),
	))
	defer span.End()

	answers, err := q.pull(ctx, k)
	if err != nil && !errors.Is(err, ErrExhausted) {
		telemetry.TraceError(span, err)
	}
	return answers, err
}

// All pulls answers until the query is exhausted.
func (q *Query) All(ctx context.Context) ([]*Answer, error) {
	var all []*Answer
	for {
		answer, err := q.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			return all, nil
		}
		if err != nil {
			return all, err
		}
		all = append(all, answer)
	}
}

// Explain rebuilds the derivation of an answer returned by q.
func (q *Query) Explain(ctx context.Context, answer *Answer) (*Explanation, error) {
	return q.sys.recorder.Explain(ctx, answer.Producer, answer.Values)
}

// Close releases the query. The resolvers it used stay registered.
func (q *Query) Close() {
	if q.err == nil {
		q.err = ErrQueryClosed
	}
	q.sys.forget(q)
}

func (q *Query) pull(ctx context.Context, k int) ([]*Answer, error) {
	select {
	case err := <-q.failed:
		q.err = err
	default:
	}
	if q.err != nil {
		return nil, q.err
	}
	if q.exhausted {
		return nil, ErrExhausted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if q.sys.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.sys.queryTimeout)
		defer cancel()
	}

	q.send(k - q.outstanding)

	answers := make([]*Answer, 0, k)
	for range k {
		resp, err := q.take(ctx)
		if err != nil {
			return answers, err
		}
		switch resp := resp.(type) {
		case *Answer:
			if resp.Inferred() {
				q.sys.recorder.Record(resp)
			}
			answers = append(answers, resp)
		case *Exhausted:
			q.exhausted = true
		}
	}

	if q.exhausted {
		return answers, ErrExhausted
	}
	return answers, nil
}

// notify hands err to a waiting or future pull. Only the first error is kept.
func (q *Query) notify(err error) {
	select {
	case q.failed <- err:
	default:
	}
}

// send issues n requests to the root resolver.
func (q *Query) send(n int) {
	for range n {
		q.outstanding++
		req := q.request
		q.root.Tell(func(d *Dispatcher) {
			d.receiveRequest(req)
		})
	}
}

// take waits for one response from the root resolver.
func (q *Query) take(ctx context.Context) (Response, error) {
	start := time.Now()
	defer func() {
		queryPullDurationHistogram.Observe(float64(time.Since(start).Milliseconds()))
	}()

	for {
		if resp, ok := q.sink.pop(); ok {
			q.outstanding--
			return resp, nil
		}

		select {
		case <-q.sink.signal:
		case err := <-q.failed:
			q.err = err
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
