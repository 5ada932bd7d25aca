package resolution

import (
	"fmt"

	"github.com/lolski/common-sub000/pkg/concept"
)

// Rule concludes answers of the Conclusion pattern from the join of its When
// patterns.
type Rule struct {
	Name       string   `json:"name"`
	Conclusion string   `json:"conclusion"`
	When       []string `json:"when"`

	// Then picks, by position, the values the body contributed on top of the
	// partial answer that make up the concluded values. Empty means all of
	// them.
	Then []int `json:"then,omitempty"`
}

func (r Rule) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	case r.Conclusion == "":
		return fmt.Errorf("%w: rule %s has no conclusion", ErrInvalidRule, r.Name)
	case len(r.When) == 0:
		return fmt.Errorf("%w: rule %s has an empty body", ErrInvalidRule, r.Name)
	}
	for _, i := range r.Then {
		if i < 0 {
			return fmt.Errorf("%w: rule %s has negative position %d", ErrInvalidRule, r.Name, i)
		}
	}
	return nil
}

// conclude returns the values concluded from the body values extending the
// partial answer.
func (r Rule) conclude(body concept.Map) (concept.Map, error) {
	if len(r.Then) == 0 {
		return body, nil
	}
	out := make(concept.Map, 0, len(r.Then))
	for _, i := range r.Then {
		if i >= len(body) {
			return nil, fmt.Errorf("rule %s: position %d out of range for %s", r.Name, i, body)
		}
		out = append(out, body[i])
	}
	return out, nil
}

// RuleResolver resolves the body of a rule as a join and answers with its
// conclusion. Every body answer is part of the derivation.
type RuleResolver struct {
	join
	rule Rule
}

func NewRuleResolver(rule Rule) *RuleResolver {
	return &RuleResolver{
		join: join{patterns: rule.When, derivesAll: true},
		rule: rule,
	}
}

func (r *RuleResolver) InitDownstream(d *Dispatcher) error {
	return r.init(d)
}

func (r *RuleResolver) CreateProducer(_ *Dispatcher, req Request) *Producer {
	return r.createProducer(req)
}

func (r *RuleResolver) ReceiveRequest(d *Dispatcher, _ Request, p *Producer) Either {
	return d.Pull(p)
}

func (r *RuleResolver) ReceiveAnswer(d *Dispatcher, rt *Route, answer *Answer, p *Producer) Either {
	next, derivation, complete := r.advance(p, rt, answer)
	if !complete {
		return next
	}

	src := p.Request()
	concluded, err := r.rule.conclude(answer.Values.Suffix(len(src.Partial)))
	if err != nil {
		panic(err)
	}
	return d.Offer(p, &Answer{
		Source:      src,
		Values:      src.Partial.Concat(concluded),
		Constraints: src.Constraints,
		Label:       r.rule.Name,
		Producer:    d.self.ID(),
		Derivation:  derivation,
	})
}

func (r *RuleResolver) ReceiveExhausted(d *Dispatcher, rt *Route, p *Producer) Either {
	p.RemoveDownstream(rt.Request)
	return d.Pull(p)
}
