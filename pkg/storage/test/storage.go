// Package test holds the behavior every fact datastore must share. Engine
// packages run it against a live datastore with RunAllTests.
package test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/storage"
)

func RunAllTests(t *testing.T, ds storage.Datastore) {
	t.Run("TestDatastoreIsReady", func(t *testing.T) {
		status, err := ds.IsReady(context.Background())
		require.NoError(t, err)
		require.True(t, status.IsReady)
	})
	t.Run("TestWriteAndRead", func(t *testing.T) { WriteAndReadTest(t, ds) })
	t.Run("TestReadMatchesInput", func(t *testing.T) { ReadMatchesInputTest(t, ds) })
	t.Run("TestReadKeepsDuplicates", func(t *testing.T) { ReadKeepsDuplicatesTest(t, ds) })
	t.Run("TestReadIsLazy", func(t *testing.T) { ReadIsLazyTest(t, ds) })
	t.Run("TestReadPastPage", func(t *testing.T) { ReadPastPageTest(t, ds) })
	t.Run("TestWriteInvalidFact", func(t *testing.T) { WriteInvalidFactTest(t, ds) })
}

// uniquePattern keeps tests sharing one datastore from seeing each other's facts.
func uniquePattern(name string) string {
	return name + "_" + ulid.Make().String()
}

// ReadAll drains a read, failing the test on error.
func ReadAll(t *testing.T, ds storage.FactReader, pattern string, partial concept.Map) []concept.Map {
	t.Helper()

	var rows []concept.Map
	for row, err := range ds.Read(context.Background(), pattern, partial) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func WriteAndReadTest(t *testing.T, ds storage.Datastore) {
	ctx := context.Background()
	pattern := uniquePattern("person")

	err := ds.Write(ctx,
		storage.Fact{Pattern: pattern, Output: concept.FromStrings("alice")},
		storage.Fact{Pattern: pattern, Output: concept.FromStrings("bob")},
	)
	require.NoError(t, err)

	rows := ReadAll(t, ds, pattern, nil)
	require.Equal(t, []concept.Map{
		concept.FromStrings("alice"),
		concept.FromStrings("bob"),
	}, rows)

	require.Empty(t, ReadAll(t, ds, uniquePattern("missing"), nil))
}

func ReadMatchesInputTest(t *testing.T, ds storage.Datastore) {
	ctx := context.Background()
	pattern := uniquePattern("parent")

	err := ds.Write(ctx,
		storage.Fact{Pattern: pattern, Input: concept.FromStrings("alice"), Output: concept.FromStrings("bob")},
		storage.Fact{Pattern: pattern, Input: concept.FromStrings("carol"), Output: concept.FromStrings("dave")},
		storage.Fact{Pattern: pattern, Output: concept.FromStrings("eve")},
	)
	require.NoError(t, err)

	require.Equal(t, []concept.Map{
		concept.FromStrings("bob"),
		concept.FromStrings("eve"),
	}, ReadAll(t, ds, pattern, concept.FromStrings("alice")))

	require.Equal(t, []concept.Map{
		concept.FromStrings("eve"),
	}, ReadAll(t, ds, pattern, concept.FromStrings("zed")))
}

func ReadKeepsDuplicatesTest(t *testing.T, ds storage.Datastore) {
	ctx := context.Background()
	pattern := uniquePattern("dup")

	fact := storage.Fact{Pattern: pattern, Output: concept.FromStrings("x", "y")}
	require.NoError(t, ds.Write(ctx, fact, fact))
	require.NoError(t, ds.Write(ctx, fact))

	require.Len(t, ReadAll(t, ds, pattern, nil), 3)
}

func ReadIsLazyTest(t *testing.T, ds storage.Datastore) {
	ctx := context.Background()
	pattern := uniquePattern("lazy")

	seq := ds.Read(ctx, pattern, nil)

	require.NoError(t, ds.Write(ctx, storage.Fact{Pattern: pattern, Output: concept.FromStrings("late")}))

	var rows []concept.Map
	for row, err := range seq {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.Equal(t, []concept.Map{concept.FromStrings("late")}, rows)
}

func ReadPastPageTest(t *testing.T, ds storage.Datastore) {
	ctx := context.Background()
	pattern := uniquePattern("paged")

	const count = storage.DefaultReadPageSize + 7
	facts := make([]storage.Fact, 0, count)
	for i := 0; i < count; i++ {
		facts = append(facts, storage.Fact{Pattern: pattern, Output: concept.FromStrings(ulid.Make().String())})
	}
	require.NoError(t, ds.Write(ctx, facts...))

	rows := ReadAll(t, ds, pattern, nil)
	require.Len(t, rows, count)
	for i, f := range facts {
		require.Equal(t, f.Output, rows[i])
	}

	// stopping early is allowed
	for _, err := range ds.Read(ctx, pattern, nil) {
		require.NoError(t, err)
		break
	}
}

func WriteInvalidFactTest(t *testing.T, ds storage.Datastore) {
	ctx := context.Background()
	pattern := uniquePattern("invalid")

	err := ds.Write(ctx,
		storage.Fact{Pattern: pattern, Output: concept.FromStrings("ok")},
		storage.Fact{Pattern: pattern},
	)
	require.ErrorIs(t, err, storage.ErrInvalidFact)
	require.Empty(t, ReadAll(t, ds, pattern, nil))
}
