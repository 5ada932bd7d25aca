package resolution

import (
	"fmt"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/pkg/concept"
)

// Concludable resolves a single pattern, from its facts and from every rule
// concluding it.
type Concludable struct {
	pattern string
	rules   []*actor.Actor[*Dispatcher]
}

func NewConcludable(pattern string) *Concludable {
	return &Concludable{pattern: pattern}
}

func (c *Concludable) InitDownstream(d *Dispatcher) error {
	for _, rule := range d.env.registry.RulesFor(c.pattern) {
		r, err := d.env.registry.Rule(rule)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		c.rules = append(c.rules, r)
	}
	return nil
}

// CreateProducer opens the facts of the pattern for req. The rules are only
// added as downstream requests the first time a query asks for this partial
// answer and constraints, which keeps recursive rules finite.
func (c *Concludable) CreateProducer(d *Dispatcher, req Request) *Producer {
	local := d.env.reader.Read(d.env.ctx, c.pattern, req.Partial)
	p := NewProducer(req, local, func(row concept.Map) *Answer {
		return &Answer{
			Source:      req,
			Values:      req.Partial.Concat(row),
			Constraints: req.Constraints,
			Label:       c.pattern,
			Producer:    d.self.ID(),
		}
	})

	if len(c.rules) > 0 && d.trigger(req) {
		for i, rule := range c.rules {
			p.AddDownstream(Request{
				Path:        req.Path.Append(rule),
				Partial:     req.Partial,
				Constraints: req.Constraints,
			}, i)
		}
	}
	return p
}

func (c *Concludable) ReceiveRequest(d *Dispatcher, _ Request, p *Producer) Either {
	return d.Pull(p)
}

// ReceiveAnswer surfaces a rule answer as an answer of the pattern.
func (c *Concludable) ReceiveAnswer(d *Dispatcher, _ *Route, answer *Answer, p *Producer) Either {
	src := p.Request()
	return d.Offer(p, &Answer{
		Source:      src,
		Values:      answer.Values,
		Constraints: src.Constraints,
		Label:       c.pattern,
		Producer:    d.self.ID(),
		Derivation:  Derivation{}.With(answer),
	})
}

func (c *Concludable) ReceiveExhausted(d *Dispatcher, rt *Route, p *Producer) Either {
	p.RemoveDownstream(rt.Request)
	return d.Pull(p)
}
