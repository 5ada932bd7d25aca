// Package program reads programs: the facts, rules and query of a resolution
// run, written as YAML.
//
//	facts:
//	  - pattern: parent
//	    input: [alice]
//	    output: [bob]
//	rules:
//	  - name: grandparent
//	    conclusion: grandparent
//	    when: [parent, parent]
//	    then: [1]
//	query:
//	  patterns: [person, grandparent]
//	  constraints: ['row[1] != "alice"']
package program

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/lolski/common-sub000/internal/resolution"
	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/storage"
)

var ErrInvalidProgram = errors.New("invalid program")

// Fact is a fact as written in a program. An empty input matches any partial
// answer.
type Fact struct {
	Pattern string   `json:"pattern"`
	Input   []string `json:"input,omitempty"`
	Output  []string `json:"output"`
}

type Query struct {
	Patterns    []string `json:"patterns"`
	Constraints []string `json:"constraints,omitempty"`
}

type Program struct {
	Facts []Fact            `json:"facts,omitempty"`
	Rules []resolution.Rule `json:"rules,omitempty"`
	Query *Query            `json:"query,omitempty"`
}

// Parse reads a program from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Program, error) {
	var p Program
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProgram, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads the program stored at path.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", path, err)
	}
	return p, nil
}

func (p *Program) Validate() error {
	for i, f := range p.StorageFacts() {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%w: fact %d: %w", ErrInvalidProgram, i, err)
		}
	}
	for _, r := range p.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProgram, err)
		}
	}
	if p.Query != nil && len(p.Query.Patterns) == 0 {
		return fmt.Errorf("%w: query has no patterns", ErrInvalidProgram)
	}
	return nil
}

// StorageFacts converts the facts of p for a storage.FactWriter.
func (p *Program) StorageFacts() []storage.Fact {
	facts := make([]storage.Fact, 0, len(p.Facts))
	for _, f := range p.Facts {
		facts = append(facts, storage.Fact{
			Pattern: f.Pattern,
			Input:   concept.FromStrings(f.Input...),
			Output:  concept.FromStrings(f.Output...),
		})
	}
	return facts
}

// Install writes the facts of p with w and adds its rules to reg.
func (p *Program) Install(ctx context.Context, w storage.FactWriter, reg *resolution.Registry) error {
	if len(p.Facts) > 0 {
		if err := w.Write(ctx, p.StorageFacts()...); err != nil {
			return fmt.Errorf("write facts: %w", err)
		}
	}
	for _, r := range p.Rules {
		if err := reg.AddRule(r); err != nil {
			return fmt.Errorf("add rule %s: %w", r.Name, err)
		}
	}
	return nil
}

// Run starts the query of p on sys.
func (p *Program) Run(sys *resolution.System) (*resolution.Query, error) {
	if p.Query == nil {
		return nil, fmt.Errorf("%w: no query", ErrInvalidProgram)
	}
	return sys.Query(p.Query.Patterns, p.Query.Constraints...)
}
