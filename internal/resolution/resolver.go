package resolution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/internal/constraint"
	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/pkg/logger"
	"github.com/lolski/common-sub000/pkg/storage"
)

// Behavior is what sets a kind of resolver apart. The Dispatcher drives every
// Behavior through the same protocol and calls it only from the resolver's
// own event loop.
type Behavior interface {
	// InitDownstream resolves the resolvers this one sends requests to. It
	// runs once, before the first request is handled.
	InitDownstream(d *Dispatcher) error

	// CreateProducer creates the producer for the first request with a given
	// key.
	CreateProducer(d *Dispatcher, req Request) *Producer

	ReceiveRequest(d *Dispatcher, req Request, p *Producer) Either

	// ReceiveAnswer handles an answer to the downstream request of rt, sent on
	// behalf of p.
	ReceiveAnswer(d *Dispatcher, rt *Route, answer *Answer, p *Producer) Either

	// ReceiveExhausted handles the exhaustion of the downstream request of rt.
	ReceiveExhausted(d *Dispatcher, rt *Route, p *Producer) Either
}

// Route correlates a downstream request with the upstream request it was sent
// for.
type Route struct {
	Request  Request
	Upstream Request
	Tag      int

	inflight int
}

// environment is shared by every resolver of a System.
type environment struct {
	ctx         context.Context
	pool        *eventloop.Pool
	registry    *Registry
	reader      storage.FactReader
	constraints *constraint.Cache
	logger      logger.Logger
	evict       bool

	// fail reports err to the query rooted at root, or to every open query
	// when root is empty.
	fail func(root string, err error)
}

// Dispatcher is the state of every resolver actor. It owns the producers,
// routes and rule triggers of the resolver and runs its Behavior.
type Dispatcher struct {
	self     *actor.Actor[*Dispatcher]
	kind     string
	behavior Behavior
	env      *environment

	// sink receives the responses to root requests. Only root conjunctions
	// have one.
	sink func(Response)

	// current is the root ID of the query whose message is being handled.
	current string

	initialized bool
	producers   map[string]*Producer
	routes      map[string]*Route
	triggers    map[string]struct{}
}

var _ actor.State = (*Dispatcher)(nil)

func newResolver(env *environment, kind, name string, b Behavior, sink func(Response)) (*actor.Actor[*Dispatcher], error) {
	return actor.New(env.pool, kind+":"+name, func(self *actor.Actor[*Dispatcher]) *Dispatcher {
		return &Dispatcher{
			self:      self,
			kind:      kind,
			behavior:  b,
			env:       env,
			sink:      sink,
			producers: make(map[string]*Producer),
			routes:    make(map[string]*Route),
			triggers:  make(map[string]struct{}),
		}
	}, actor.WithLogger(env.logger))
}

// Self is the handle of the resolver.
func (d *Dispatcher) Self() *actor.Actor[*Dispatcher] {
	return d.self
}

func (d *Dispatcher) OnException(err error) {
	d.env.fail(d.current, &ResolverError{Resolver: d.self.String(), Err: err})
}

func (d *Dispatcher) init() {
	if d.initialized {
		return
	}
	if err := d.behavior.InitDownstream(d); err != nil {
		panic(fmt.Errorf("initialize downstream of %s: %w", d.self.Name(), err))
	}
	d.initialized = true
}

func (d *Dispatcher) receiveRequest(req Request) {
	d.current = ""
	d.current = req.Path.Root().ID()
	requestsCounter.WithLabelValues(d.kind).Inc()
	if req.Path.Target() != d.self {
		protocolViolation("%s received a request addressed to %s", d.self, req.Path.Target())
	}
	d.init()

	key := req.Key()
	p, ok := d.producers[key]
	if !ok {
		p = d.behavior.CreateProducer(d, req)
		d.producers[key] = p
	}
	if p.Exhausted() {
		d.respond(req, &Exhausted{Source: req})
		return
	}
	d.act(p, d.behavior.ReceiveRequest(d, req, p))
}

func (d *Dispatcher) receiveResponse(resp Response) {
	d.current = ""
	d.current = resp.SourceRequest().Path.Root().ID()
	if !d.initialized {
		protocolViolation("%s received a response before any request", d.self)
	}

	key := resp.SourceRequest().Key()
	rt, ok := d.routes[key]
	if !ok || rt.inflight == 0 {
		protocolViolation("%s received a response to unknown request %s", d.self, resp.SourceRequest().Path)
	}
	rt.inflight--

	p, ok := d.producers[rt.Upstream.Key()]
	if !ok {
		protocolViolation("%s has no producer for %s", d.self, rt.Upstream.Path)
	}

	switch resp := resp.(type) {
	case *Answer:
		if p.Exhausted() {
			protocolViolation("%s received an answer for exhausted request %s", d.self, rt.Upstream.Path)
		}
		d.act(p, d.behavior.ReceiveAnswer(d, rt, resp, p))
	case *Exhausted:
		if rt.inflight == 0 {
			delete(d.routes, key)
		}
		if p.Exhausted() {
			d.respond(rt.Upstream, &Exhausted{Source: rt.Upstream})
			return
		}
		d.act(p, d.behavior.ReceiveExhausted(d, rt, p))
	default:
		protocolViolation("%s received an unknown response %T", d.self, resp)
	}
}

// act carries out the outcome of a behavior operation on behalf of p.
func (d *Dispatcher) act(p *Producer, e Either) {
	if e.IsDownstream() {
		req := *e.downstream
		d.register(req, e.tag, p.Request())
		req.Path.Target().Tell(func(target *Dispatcher) {
			target.receiveRequest(req)
		})
		return
	}

	switch e.response.(type) {
	case *Answer:
		answersCounter.WithLabelValues(d.kind).Inc()
	case *Exhausted:
		exhaustedCounter.WithLabelValues(d.kind).Inc()
		p.exhaust(d.env.evict)
	}
	d.respond(p.Request(), e.response)
}

func (d *Dispatcher) register(req Request, tag int, upstream Request) {
	if req.Path.Upstream() != d.self {
		protocolViolation("%s sent a request on behalf of %s", d.self, req.Path.Upstream())
	}

	key := req.Key()
	if rt, ok := d.routes[key]; ok {
		if rt.Tag != tag || rt.Upstream.Key() != upstream.Key() {
			protocolViolation("%s registered downstream request %s twice", d.self, req.Path)
		}
		rt.inflight++
		return
	}
	d.routes[key] = &Route{Request: req, Upstream: upstream, Tag: tag, inflight: 1}
}

func (d *Dispatcher) respond(upstream Request, resp Response) {
	if upstream.Path.IsRoot() {
		if d.sink == nil {
			protocolViolation("%s has no sink for root request", d.self)
		}
		d.sink(resp)
		return
	}
	upstream.Path.Upstream().Tell(func(u *Dispatcher) {
		u.receiveResponse(resp)
	})
}

// trigger records that req expanded the rules of this resolver. It returns
// false if a request with the same partial answer and constraints already did
// within the same query.
func (d *Dispatcher) trigger(req Request) bool {
	key := req.Path.Root().ID() + "|" + req.triggerKey()
	if _, ok := d.triggers[key]; ok {
		return false
	}
	d.triggers[key] = struct{}{}
	return true
}

// Pull runs the production loop of p: the next new local answer, else the
// next live downstream request, else Exhausted.
func (d *Dispatcher) Pull(p *Producer) Either {
	for {
		candidate, ok, err := p.NextLocal()
		if err != nil {
			panic(fmt.Errorf("read local answers of %s: %w", d.self.Name(), err))
		}
		if !ok {
			break
		}
		if d.accept(p, candidate) {
			return Respond(candidate)
		}
	}

	if req, tag, ok := p.NextDownstream(); ok {
		return Downstream(req, tag)
	}
	return Respond(&Exhausted{Source: p.Request()})
}

// Offer responds with candidate if p accepts it and otherwise keeps pulling.
func (d *Dispatcher) Offer(p *Producer, candidate *Answer) Either {
	if d.accept(p, candidate) {
		return Respond(candidate)
	}
	return d.Pull(p)
}

// accept reports whether candidate satisfies the constraints of the request
// p serves and was not produced for it before.
func (d *Dispatcher) accept(p *Producer, candidate *Answer) bool {
	if cons := p.Request().Constraints; len(cons) > 0 {
		ok, err := d.env.constraints.Satisfies(candidate.Values, cons)
		if err != nil {
			d.env.logger.Debug("constraint evaluation failed",
				zap.String("resolver", d.self.String()),
				zap.Stringer("values", candidate.Values),
				zap.Error(err))
		}
		if !ok {
			rejectedAnswersCounter.WithLabelValues(d.kind).Inc()
			return false
		}
	}

	if !p.Record(candidate.Values) {
		duplicateAnswersCounter.WithLabelValues(d.kind).Inc()
		return false
	}
	return true
}
