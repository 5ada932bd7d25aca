package resolution

import (
	"fmt"
	"sync"

	"github.com/lolski/common-sub000/internal/actor"
)

const (
	concludableKind = "concludable"
	ruleKind        = "rule"
	conjunctionKind = "conjunction"
)

// Registry holds at most one resolver per pattern key. Sharing resolvers is
// what shares work between queries and bounds recursive rules.
type Registry struct {
	env *environment

	mu        sync.Mutex
	resolvers map[string]*actor.Actor[*Dispatcher]
	rules     map[string][]Rule
	ruleNames map[string]struct{}
}

func newRegistry(env *environment) *Registry {
	return &Registry{
		env:       env,
		resolvers: make(map[string]*actor.Actor[*Dispatcher]),
		rules:     make(map[string][]Rule),
		ruleNames: make(map[string]struct{}),
	}
}

// RegisterPattern returns the resolver registered under key, creating it with
// factory if there is none.
func (r *Registry) RegisterPattern(key string, factory func() (*actor.Actor[*Dispatcher], error)) (*actor.Actor[*Dispatcher], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.resolvers[key]; ok {
		return res, nil
	}
	res, err := factory()
	if err != nil {
		return nil, err
	}
	r.resolvers[key] = res
	return res, nil
}

// Concludable returns the resolver of pattern.
func (r *Registry) Concludable(pattern string) (*actor.Actor[*Dispatcher], error) {
	return r.RegisterPattern(concludableKey(pattern), func() (*actor.Actor[*Dispatcher], error) {
		return newResolver(r.env, concludableKind, pattern, NewConcludable(pattern), nil)
	})
}

// Rule returns the resolver of rule.
func (r *Registry) Rule(rule Rule) (*actor.Actor[*Dispatcher], error) {
	return r.RegisterPattern(ruleKind+":"+rule.Name, func() (*actor.Actor[*Dispatcher], error) {
		return newResolver(r.env, ruleKind, rule.Name, NewRuleResolver(rule), nil)
	})
}

// AddRule makes rule applicable to its conclusion. Rules must be added before
// the resolver of their conclusion is created.
func (r *Registry) AddRule(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ruleNames[rule.Name]; ok {
		return fmt.Errorf("%w: duplicate rule %s", ErrInvalidRule, rule.Name)
	}
	if _, ok := r.resolvers[concludableKey(rule.Conclusion)]; ok {
		return fmt.Errorf("%w: %s", ErrRulesSealed, rule.Conclusion)
	}
	r.ruleNames[rule.Name] = struct{}{}
	r.rules[rule.Conclusion] = append(r.rules[rule.Conclusion], rule)
	return nil
}

// RulesFor returns the rules concluding pattern, in the order they were
// added.
func (r *Registry) RulesFor(pattern string) []Rule {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Rule(nil), r.rules[pattern]...)
}

// Len is the number of registered resolvers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.resolvers)
}

func concludableKey(pattern string) string {
	return concludableKind + ":" + pattern
}
