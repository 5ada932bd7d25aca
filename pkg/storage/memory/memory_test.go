package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/storage"
	"github.com/lolski/common-sub000/pkg/storage/test"
)

func TestMemdbStorage(t *testing.T) {
	ds := New()
	test.RunAllTests(t, ds)
}

func TestReadCancelled(t *testing.T) {
	ds := New()
	require.NoError(t, ds.Write(context.Background(),
		storage.Fact{Pattern: "p", Output: concept.FromStrings("a")},
	))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range ds.Read(ctx, "p", nil) {
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestWriteCopiesRows(t *testing.T) {
	ds := New()
	out := concept.FromStrings("a")
	require.NoError(t, ds.Write(context.Background(), storage.Fact{Pattern: "p", Output: out}))
	out[0] = "mutated"

	require.Equal(t, []concept.Map{concept.FromStrings("a")}, test.ReadAll(t, ds, "p", nil))
	require.Equal(t, 1, ds.Len("p"))
}
