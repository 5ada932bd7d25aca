package resolution

import (
	"fmt"
	"strings"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/pkg/concept"
)

// join sends requests through an ordered list of concludables, each request
// carrying the answers of the previous ones as its partial answer.
type join struct {
	patterns  []string
	resolvers []*actor.Actor[*Dispatcher]

	// derivesAll makes every consumed answer part of the derivation instead
	// of only the inferred ones.
	derivesAll bool
}

func (j *join) init(d *Dispatcher) error {
	resolvers := make([]*actor.Actor[*Dispatcher], 0, len(j.patterns))
	for _, pattern := range j.patterns {
		r, err := d.env.registry.Concludable(pattern)
		if err != nil {
			return fmt.Errorf("concludable %s: %w", pattern, err)
		}
		resolvers = append(resolvers, r)
	}
	j.resolvers = resolvers
	return nil
}

func (j *join) createProducer(req Request) *Producer {
	p := NewProducer(req, nil, nil)
	p.AddDownstream(j.request(req, 0, req.Partial, nil), 0)
	return p
}

func (j *join) request(upstream Request, at int, partial concept.Map, derivation Derivation) Request {
	return Request{
		Path:       upstream.Path.Append(j.resolvers[at]),
		Partial:    partial,
		Derivation: derivation,
	}
}

// advance consumes an answer from the pattern at rt.Tag. Unless that was the
// last pattern it returns the request to the next one; otherwise complete is
// true and derivation holds everything the full row was derived from.
func (j *join) advance(p *Producer, rt *Route, answer *Answer) (next Either, derivation Derivation, complete bool) {
	derivation = rt.Request.Derivation
	if j.derivesAll || answer.Inferred() {
		derivation = derivation.With(answer)
	}

	at := rt.Tag + 1
	if at == len(j.resolvers) {
		return Either{}, derivation, true
	}
	req := j.request(p.Request(), at, answer.Values, derivation)
	p.AddDownstream(req, at)
	return Downstream(req, at), nil, false
}

// Conjunction resolves the join of an ordered list of patterns.
type Conjunction struct {
	join
	label string
}

func NewConjunction(patterns []string) *Conjunction {
	return &Conjunction{
		join:  join{patterns: patterns},
		label: strings.Join(patterns, ", "),
	}
}

func (c *Conjunction) InitDownstream(d *Dispatcher) error {
	return c.init(d)
}

func (c *Conjunction) CreateProducer(_ *Dispatcher, req Request) *Producer {
	return c.createProducer(req)
}

func (c *Conjunction) ReceiveRequest(d *Dispatcher, _ Request, p *Producer) Either {
	return d.Pull(p)
}

func (c *Conjunction) ReceiveAnswer(d *Dispatcher, rt *Route, answer *Answer, p *Producer) Either {
	next, derivation, complete := c.advance(p, rt, answer)
	if !complete {
		return next
	}

	src := p.Request()
	return d.Offer(p, &Answer{
		Source:      src,
		Values:      answer.Values,
		Constraints: src.Constraints,
		Label:       c.label,
		Producer:    d.self.ID(),
		Derivation:  derivation,
	})
}

func (c *Conjunction) ReceiveExhausted(d *Dispatcher, rt *Route, p *Producer) Either {
	p.RemoveDownstream(rt.Request)
	return d.Pull(p)
}
