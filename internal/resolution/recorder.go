package resolution

import (
	"context"
	"fmt"
	"strings"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/logger"
)

// Recorder indexes the derivations of inferred answers so they can be
// explained later. Answers are indexed by producer and values; merging only
// ever adds to the index.
type Recorder struct {
	actor *actor.Actor[*recorderState]
}

// recorded is an answer in the index. Its children are the index keys of the
// answers it was derived from.
type recorded struct {
	producer string
	label    string
	values   concept.Map
	children []string
	adopted  map[string]struct{}
}

type recorderState struct {
	index    map[string]*recorded
	visiting map[string]struct{}
}

func (s *recorderState) OnException(error) {}

func newRecorder(pool *eventloop.Pool, l logger.Logger) (*Recorder, error) {
	a, err := actor.New(pool, "recorder", func(*actor.Actor[*recorderState]) *recorderState {
		return &recorderState{
			index:    make(map[string]*recorded),
			visiting: make(map[string]struct{}),
		}
	}, actor.WithLogger(l))
	if err != nil {
		return nil, err
	}
	return &Recorder{actor: a}, nil
}

// Record merges the derivation of answer into the index.
func (r *Recorder) Record(answer *Answer) {
	r.actor.Tell(func(s *recorderState) {
		recorderMergesCounter.Inc()
		s.merge(answer)
	})
}

// Explain rebuilds the derivation of the answer producer produced with
// values.
func (r *Recorder) Explain(ctx context.Context, producer string, values concept.Map) (*Explanation, error) {
	return actor.Ask(r.actor, func(s *recorderState) (*Explanation, error) {
		key := (&Answer{Producer: producer, Values: values}).Key()
		if _, ok := s.index[key]; !ok {
			return nil, fmt.Errorf("%w: %s%s", ErrNotRecorded, producer, values)
		}
		return s.explain(key, make(map[string]struct{})), nil
	}).Get(ctx)
}

// Size is the number of indexed answers.
func (r *Recorder) Size(ctx context.Context) (int, error) {
	return actor.Ask(r.actor, func(s *recorderState) (int, error) {
		return len(s.index), nil
	}).Get(ctx)
}

// merge adds answer and, recursively, its derivation to the index. The first
// answer indexed under a key is kept; later ones only contribute children.
func (s *recorderState) merge(answer *Answer) {
	key := answer.Key()
	if _, ok := s.visiting[key]; ok {
		return
	}
	s.visiting[key] = struct{}{}
	defer delete(s.visiting, key)

	node, ok := s.index[key]
	if !ok {
		node = &recorded{
			producer: answer.Producer,
			label:    answer.Label,
			values:   answer.Values,
			adopted:  make(map[string]struct{}),
		}
		s.index[key] = node
	}

	for _, childKey := range answer.Derivation.Keys() {
		if _, ok := node.adopted[childKey]; !ok {
			node.adopted[childKey] = struct{}{}
			node.children = append(node.children, childKey)
		}
		s.merge(answer.Derivation[childKey])
	}
}

func (s *recorderState) explain(key string, onPath map[string]struct{}) *Explanation {
	node := s.index[key]
	e := &Explanation{
		Producer: node.producer,
		Label:    node.label,
		Values:   node.values,
	}
	if _, ok := onPath[key]; ok {
		e.Cyclic = true
		return e
	}

	onPath[key] = struct{}{}
	defer delete(onPath, key)
	for _, child := range node.children {
		e.Children = append(e.Children, s.explain(child, onPath))
	}
	return e
}

// Explanation is the derivation tree of an answer. A node already on the path
// from the root is not expanded again and is marked Cyclic.
type Explanation struct {
	Producer string
	Label    string
	Values   concept.Map
	Cyclic   bool
	Children []*Explanation
}

// String renders the tree one node per line, children indented.
func (e *Explanation) String() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e *Explanation) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(e.Label)
	sb.WriteString(e.Values.String())
	if e.Cyclic {
		sb.WriteString(" (cyclic)")
	}
	sb.WriteByte('\n')
	for _, c := range e.Children {
		c.write(sb, depth+1)
	}
}
