package resolution

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/internal/constraint"
	"github.com/lolski/common-sub000/internal/mocks"
	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/storage"
)

func TestConcludableAnswersThenExhausts(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{
		fact("P", nil, "1"),
		fact("P", nil, "2"),
	})

	q, err := sys.newQuery(concludableKind, "P", NewConcludable("P"), nil)
	require.NoError(t, err)

	q.send(3)
	responses := takeAll(t, q, 3)

	var answers []*Answer
	for _, resp := range responses[:2] {
		answer, ok := resp.(*Answer)
		require.True(t, ok, "expected an answer, got %T", resp)
		require.NotEmpty(t, answer.Values)
		require.False(t, answer.Inferred())
		answers = append(answers, answer)
	}
	require.Equal(t, []string{"1", "2"}, rows(answers))
	require.IsType(t, &Exhausted{}, responses[2])

	q.send(1)
	require.IsType(t, &Exhausted{}, takeAll(t, q, 1)[0])
}

func TestPullExactness(t *testing.T) {
	facts := []storage.Fact{
		fact("P", nil, "1"),
		fact("P", nil, "2"),
		fact("P", nil, "3"),
	}

	t.Run("k_requests", func(t *testing.T) {
		sys := newFactSystem(t, facts)
		q, err := sys.Query([]string{"P"})
		require.NoError(t, err)

		answers, err := q.Pull(testContext(t), 3)
		require.NoError(t, err)
		require.Equal(t, []string{"1", "2", "3"}, rows(answers))
	})

	t.Run("k_plus_one_requests", func(t *testing.T) {
		sys := newFactSystem(t, facts)
		q, err := sys.Query([]string{"P"})
		require.NoError(t, err)

		answers, err := q.Pull(testContext(t), 4)
		require.ErrorIs(t, err, ErrExhausted)
		require.Equal(t, []string{"1", "2", "3"}, rows(answers))

		_, err = q.Next(testContext(t))
		require.ErrorIs(t, err, ErrExhausted)
	})
}

// countingRows yields rows and counts how many were pulled.
func countingRows(pulled *int, values ...string) iter.Seq2[concept.Map, error] {
	return func(yield func(concept.Map, error) bool) {
		for _, v := range values {
			*pulled++
			if !yield(concept.FromStrings(v), nil) {
				return
			}
		}
	}
}

func TestNoReadAhead(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockFactReader(ctrl)

	var pulled int
	reader.EXPECT().
		Read(gomock.Any(), "P", gomock.Any()).
		Return(countingRows(&pulled, "1", "2", "3")).
		Times(1)

	sys := newTestSystem(t, reader)
	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	_, err = q.Next(testContext(t))
	require.NoError(t, err)

	got, err := actor.Ask(q.root, func(*Dispatcher) (int, error) { return pulled, nil }).Get(testContext(t))
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestJoin(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{
		fact("A", nil, "a1"),
		fact("A", nil, "a2"),
		fact("B", []string{"a1"}, "b1"),
		fact("B", []string{"a2"}, "b1"),
		fact("B", []string{"a3"}, "b2"),
	})

	q, err := sys.Query([]string{"A", "B"})
	require.NoError(t, err)

	answers, err := q.All(testContext(t))
	require.NoError(t, err)
	require.Equal(t, []string{"a1 b1", "a2 b1"}, rows(answers))
	for _, a := range answers {
		require.False(t, a.Inferred())
		require.Equal(t, "A, B", a.Label)
	}
}

func TestDeduplication(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{
		fact("P", nil, "1"),
		fact("P", nil, "1"),
		fact("P", nil, "2"),
		fact("Q", nil, "2"),
		fact("Q", nil, "3"),
	})
	require.NoError(t, sys.Registry().AddRule(Rule{Name: "q-is-p", Conclusion: "P", When: []string{"Q"}}))

	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	answers, err := q.All(testContext(t))
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, rows(answers))
}

func TestRecursiveRulesTerminate(t *testing.T) {
	tests := map[string]struct {
		facts []storage.Fact
		rules []Rule
		want  []string
	}{
		"self_reference": {
			facts: []storage.Fact{fact("P", nil, "1"), fact("P", nil, "2")},
			rules: []Rule{{Name: "loop", Conclusion: "P", When: []string{"P"}}},
			want:  []string{"1", "2"},
		},
		"mutual_recursion": {
			facts: []storage.Fact{fact("P", nil, "1"), fact("Q", nil, "2")},
			rules: []Rule{
				{Name: "q-is-p", Conclusion: "P", When: []string{"Q"}},
				{Name: "p-is-q", Conclusion: "Q", When: []string{"P"}},
			},
			want: []string{"1", "2"},
		},
		"no_facts": {
			rules: []Rule{{Name: "loop", Conclusion: "P", When: []string{"P"}}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			sys := newFactSystem(t, test.facts)
			for _, r := range test.rules {
				require.NoError(t, sys.Registry().AddRule(r))
			}

			q, err := sys.Query([]string{"P"})
			require.NoError(t, err)

			answers, err := q.All(testContext(t))
			require.NoError(t, err)
			require.ElementsMatch(t, test.want, rows(answers))
		})
	}
}

func grandparents(t *testing.T) *System {
	t.Helper()

	sys := newFactSystem(t, []storage.Fact{
		fact("person", nil, "alice"),
		fact("parent", []string{"alice"}, "bob"),
		fact("parent", []string{"alice", "bob"}, "carol"),
	})
	require.NoError(t, sys.Registry().AddRule(Rule{
		Name:       "grandparent",
		Conclusion: "grandparent",
		When:       []string{"parent", "parent"},
		Then:       []int{1},
	}))
	return sys
}

func TestRuleConclusion(t *testing.T) {
	sys := grandparents(t)

	q, err := sys.Query([]string{"person", "grandparent"})
	require.NoError(t, err)

	answers, err := q.All(testContext(t))
	require.NoError(t, err)
	require.Equal(t, []string{"alice carol"}, rows(answers))
	require.True(t, answers[0].Inferred())
}

func TestRuleConclusionOutOfRange(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{fact("Q", nil, "1")})
	require.NoError(t, sys.Registry().AddRule(Rule{
		Name:       "broken",
		Conclusion: "P",
		When:       []string{"Q"},
		Then:       []int{3},
	}))

	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	_, err = q.All(testContext(t))

	var resolverErr *ResolverError
	require.ErrorAs(t, err, &resolverErr)
	require.Contains(t, resolverErr.Resolver, "rule:broken")
}

func TestConstraints(t *testing.T) {
	facts := []storage.Fact{
		fact("P", nil, "1"),
		fact("P", nil, "2"),
		fact("P", nil, "3"),
		fact("Q", nil, "4"),
	}

	t.Run("filter_root_answers", func(t *testing.T) {
		sys := newFactSystem(t, facts)
		q, err := sys.Query([]string{"P"}, `row[0] != "1"`, `size(row) == 1`)
		require.NoError(t, err)

		answers, err := q.All(testContext(t))
		require.NoError(t, err)
		require.Equal(t, []string{"2", "3"}, rows(answers))
	})

	t.Run("filter_rule_answers", func(t *testing.T) {
		sys := newFactSystem(t, facts)
		require.NoError(t, sys.Registry().AddRule(Rule{Name: "q-is-p", Conclusion: "P", When: []string{"Q"}}))

		q, err := sys.Query([]string{"P"}, `row[0] == "4"`)
		require.NoError(t, err)

		answers, err := q.All(testContext(t))
		require.NoError(t, err)
		require.Equal(t, []string{"4"}, rows(answers))
	})

	t.Run("failed_evaluation_rejects", func(t *testing.T) {
		sys := newFactSystem(t, facts)
		q, err := sys.Query([]string{"P"}, `row[1] == "1"`)
		require.NoError(t, err)

		answers, err := q.All(testContext(t))
		require.NoError(t, err)
		require.Empty(t, answers)
	})

	t.Run("invalid", func(t *testing.T) {
		sys := newFactSystem(t, facts)
		_, err := sys.Query([]string{"P"}, `row[0] ==`)

		var compileErr *constraint.CompilationError
		require.ErrorAs(t, err, &compileErr)
	})
}

func TestFailureIsAttributed(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockFactReader(ctrl)

	readErr := errors.New("disk on fire")
	reader.EXPECT().
		Read(gomock.Any(), "P", gomock.Any()).
		Return(iter.Seq2[concept.Map, error](func(yield func(concept.Map, error) bool) {
			yield(nil, readErr)
		}))

	sys := newTestSystem(t, reader)
	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	_, err = q.Next(testContext(t))
	require.ErrorIs(t, err, readErr)

	var resolverErr *ResolverError
	require.ErrorAs(t, err, &resolverErr)
	require.Contains(t, resolverErr.Resolver, "concludable:P#")

	_, err = q.Next(testContext(t))
	require.ErrorIs(t, err, readErr)
}

func TestFailureStaysWithItsQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockFactReader(ctrl)

	readErr := errors.New("bad read")
	reader.EXPECT().
		Read(gomock.Any(), "Bad", gomock.Any()).
		Return(iter.Seq2[concept.Map, error](func(yield func(concept.Map, error) bool) {
			yield(nil, readErr)
		})).
		AnyTimes()
	reader.EXPECT().
		Read(gomock.Any(), "Good", gomock.Any()).
		Return(iter.Seq2[concept.Map, error](func(yield func(concept.Map, error) bool) {
			yield(concept.FromStrings("1"), nil)
		})).
		AnyTimes()

	sys := newTestSystem(t, reader)
	ctx := testContext(t)

	qGood, err := sys.Query([]string{"Good"})
	require.NoError(t, err)
	qBad, err := sys.Query([]string{"Bad"})
	require.NoError(t, err)

	_, err = qBad.Next(ctx)
	require.ErrorIs(t, err, readErr)

	answer, err := qGood.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, concept.FromStrings("1"), answer.Values)

	_, err = qGood.Next(ctx)
	require.ErrorIs(t, err, ErrExhausted)

	_, err = qBad.Next(ctx)
	require.ErrorIs(t, err, readErr)
}

func TestQueryContext(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{fact("P", nil, "1")})
	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = q.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)

	answer, err := q.Next(testContext(t))
	require.NoError(t, err)
	require.Equal(t, concept.FromStrings("1"), answer.Values)

	_, err = q.Next(testContext(t))
	require.ErrorIs(t, err, ErrExhausted)
}

func TestQueryEmptyPatterns(t *testing.T) {
	sys := newFactSystem(t, nil)
	_, err := sys.Query(nil)
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClosedQuery(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{fact("P", nil, "1")})
	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	q.Close()
	_, err = q.Next(testContext(t))
	require.ErrorIs(t, err, ErrQueryClosed)
}

func TestSystemClose(t *testing.T) {
	sys := newFactSystem(t, []storage.Fact{fact("P", nil, "1")})
	q, err := sys.Query([]string{"P"})
	require.NoError(t, err)

	sys.Close()
	_, err = q.Next(testContext(t))
	require.ErrorIs(t, err, ErrQueryClosed)

	_, err = sys.Query([]string{"P"})
	require.ErrorIs(t, err, ErrQueryClosed)
}

func TestProducerEviction(t *testing.T) {
	facts := []storage.Fact{fact("P", nil, "1"), fact("P", nil, "2")}

	tests := map[string]struct {
		evict        bool
		wantProduced int
	}{
		"evict":    {evict: true, wantProduced: 0},
		"no_evict": {evict: false, wantProduced: 2},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			sys := newFactSystem(t, facts, WithEvictExhaustedProducers(test.evict))
			q, err := sys.newQuery(concludableKind, "P", NewConcludable("P"), nil)
			require.NoError(t, err)

			q.send(3)
			takeAll(t, q, 3)

			p, err := actor.Ask(q.root, func(d *Dispatcher) (*Producer, error) {
				return d.producers[q.request.Key()], nil
			}).Get(testContext(t))
			require.NoError(t, err)
			require.True(t, p.Exhausted())
			require.Len(t, p.produced, test.wantProduced)

			q.send(1)
			require.IsType(t, &Exhausted{}, takeAll(t, q, 1)[0])
		})
	}
}
