package resolution

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/concept"
)

func conceptRow(values ...string) concept.Map {
	return concept.FromStrings(values...)
}

func localRows(values ...string) iter.Seq2[concept.Map, error] {
	return func(yield func(concept.Map, error) bool) {
		for _, v := range values {
			if !yield(conceptRow(v), nil) {
				return
			}
		}
	}
}

func asAnswer(row concept.Map) *Answer {
	return &Answer{Values: row}
}

func TestProducerLocal(t *testing.T) {
	p := NewProducer(Request{}, localRows("1", "2"), asAnswer)

	var got []string
	for {
		a, ok, err := p.NextLocal()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, a.Values.String())
	}
	require.Equal(t, []string{"[1]", "[2]"}, got)

	_, ok, err := NewProducer(Request{}, nil, nil).NextLocal()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProducerLocalError(t *testing.T) {
	boom := errors.New("boom")
	p := NewProducer(Request{}, func(yield func(concept.Map, error) bool) {
		yield(nil, boom)
	}, asAnswer)

	_, _, err := p.NextLocal()
	require.ErrorIs(t, err, boom)
}

func TestProducerRecord(t *testing.T) {
	p := NewProducer(Request{}, nil, nil)

	require.True(t, p.Record(conceptRow("1")))
	require.False(t, p.Record(conceptRow("1")))
	require.True(t, p.Record(conceptRow("1", "2")))
	require.True(t, p.Record(conceptRow("12")))
}

func TestProducerRoundRobin(t *testing.T) {
	sys := newFactSystem(t, nil)
	var downstreams []Request
	for _, pattern := range []string{"A", "B", "C"} {
		r, err := sys.Registry().Concludable(pattern)
		require.NoError(t, err)
		downstreams = append(downstreams, Request{Path: NewPath(r)})
	}

	p := NewProducer(Request{}, nil, nil)
	for i, d := range downstreams {
		p.AddDownstream(d, i)
	}
	p.AddDownstream(downstreams[0], 0)
	require.Equal(t, 3, p.Downstreams())

	next := func() int {
		_, tag, ok := p.NextDownstream()
		require.True(t, ok)
		return tag
	}

	var order []int
	for range 4 {
		order = append(order, next())
	}
	require.Equal(t, []int{0, 1, 2, 0}, order)

	// Removing an already visited request keeps the rotation going.
	p.RemoveDownstream(downstreams[0])
	order = order[:0]
	for range 3 {
		order = append(order, next())
	}
	require.Equal(t, []int{1, 2, 1}, order)

	p.RemoveDownstream(downstreams[1])
	p.RemoveDownstream(downstreams[2])
	_, _, ok := p.NextDownstream()
	require.False(t, ok)
}

func TestProducerExhaust(t *testing.T) {
	p := NewProducer(Request{}, localRows("1", "2"), asAnswer)
	require.True(t, p.Record(conceptRow("1")))

	p.exhaust(false)
	require.True(t, p.Exhausted())
	require.Len(t, p.produced, 1)

	p.exhaust(true)
	require.True(t, p.Exhausted())
	require.Nil(t, p.produced)

	_, ok, err := p.NextLocal()
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, p.local)
}
