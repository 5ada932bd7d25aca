package resolution

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requireProtocolViolation(t *testing.T, f func()) {
	t.Helper()

	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a protocol violation")
		require.IsType(t, &ProtocolError{}, r)
	}()
	f()
}

func TestPath(t *testing.T) {
	sys := newFactSystem(t, nil)
	a, err := sys.Registry().Concludable("A")
	require.NoError(t, err)
	b, err := sys.Registry().Concludable("B")
	require.NoError(t, err)

	root := NewPath(a)
	require.True(t, root.IsRoot())
	require.Same(t, a, root.Target())
	require.Same(t, a, root.Root())
	requireProtocolViolation(t, func() { root.Upstream() })

	child := root.Append(b)
	require.False(t, child.IsRoot())
	require.Equal(t, 2, child.Len())
	require.Same(t, b, child.Target())
	require.Same(t, a, child.Upstream())
	require.Same(t, a, child.Root())
	require.Equal(t, "concludable:A -> concludable:B", child.String())

	// Appending never changes the original path.
	require.Equal(t, 1, root.Len())
	require.NotEqual(t, root.Key(), child.Key())
	require.Equal(t, child.Key(), root.Append(b).Key())

	require.Equal(t, a.ID()+"/"+b.ID(), child.Key())
	require.Equal(t, a.ID(), root.Key())

	requireProtocolViolation(t, func() { Path{}.Target() })
	requireProtocolViolation(t, func() { Path{}.Root() })
}

func TestRequestKey(t *testing.T) {
	sys := newFactSystem(t, nil)
	a, err := sys.Registry().Concludable("A")
	require.NoError(t, err)
	path := NewPath(a)

	base := Request{Path: path, Partial: conceptRow("x"), Constraints: []string{`size(row) == 1`}}
	withDerivation := base
	withDerivation.Derivation = Derivation{}.With(&Answer{Producer: "p", Values: conceptRow("y")})

	tests := map[string]struct {
		other Request
		equal bool
	}{
		"derivation_ignored": {other: withDerivation, equal: true},
		"partial":            {other: Request{Path: path, Partial: conceptRow("y"), Constraints: base.Constraints}},
		"constraints":        {other: Request{Path: path, Partial: base.Partial}},
		"path":               {other: Request{Path: path.Append(a), Partial: base.Partial, Constraints: base.Constraints}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if test.equal {
				require.Equal(t, base.Key(), test.other.Key())
				return
			}
			require.NotEqual(t, base.Key(), test.other.Key())
		})
	}
}

func TestDerivationWith(t *testing.T) {
	first := &Answer{Producer: "p", Label: "first", Values: conceptRow("1")}
	same := &Answer{Producer: "p", Label: "second", Values: conceptRow("1")}
	other := &Answer{Producer: "q", Values: conceptRow("1")}

	d := Derivation{}.With(first)
	merged := d.With(same, other)

	require.Len(t, d, 1)
	require.Len(t, merged, 2)
	require.Equal(t, "first", merged[first.Key()].Label)
	require.Equal(t, []string{first.Key(), other.Key()}, merged.Keys())
}
