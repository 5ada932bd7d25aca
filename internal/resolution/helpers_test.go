package resolution

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/memory"
)

const testTimeout = 5 * time.Second

func fact(pattern string, input []string, output ...string) storage.Fact {
	return storage.Fact{
		Pattern: pattern,
		Input:   concept.FromStrings(input...),
		Output:  concept.FromStrings(output...),
	}
}

func newTestSystem(t *testing.T, reader storage.FactReader, opts ...SystemOption) *System {
	t.Helper()

	pool := eventloop.NewPool(4)
	sys, err := NewSystem(reader, append([]SystemOption{WithPool(pool)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		sys.Close()
		pool.Close()
	})
	return sys
}

func newFactSystem(t *testing.T, facts []storage.Fact, opts ...SystemOption) *System {
	t.Helper()

	ds := memory.New()
	require.NoError(t, ds.Write(context.Background(), facts...))
	return newTestSystem(t, ds, opts...)
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// rows renders answers as sorted space separated values.
func rows(answers []*Answer) []string {
	out := make([]string, 0, len(answers))
	for _, a := range answers {
		out = append(out, strings.Join(a.Values.Strings(), " "))
	}
	sort.Strings(out)
	return out
}

// takeAll takes n responses from the root of q.
func takeAll(t *testing.T, q *Query, n int) []Response {
	t.Helper()

	ctx := testContext(t)
	out := make([]Response, 0, n)
	for range n {
		resp, err := q.take(ctx)
		require.NoError(t, err)
		out = append(out, resp)
	}
	return out
}
