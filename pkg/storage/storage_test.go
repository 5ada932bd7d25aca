package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/concept"
)

func TestFactMatches(t *testing.T) {
	tests := map[string]struct {
		fact    Fact
		pattern string
		partial concept.Map
		want    bool
	}{
		"wildcard_input": {
			fact:    Fact{Pattern: "parent", Output: concept.FromStrings("bob")},
			pattern: "parent",
			partial: concept.FromStrings("alice"),
			want:    true,
		},
		"exact_input": {
			fact:    Fact{Pattern: "parent", Input: concept.FromStrings("alice"), Output: concept.FromStrings("bob")},
			pattern: "parent",
			partial: concept.FromStrings("alice"),
			want:    true,
		},
		"other_input": {
			fact:    Fact{Pattern: "parent", Input: concept.FromStrings("carol"), Output: concept.FromStrings("bob")},
			pattern: "parent",
			partial: concept.FromStrings("alice"),
		},
		"empty_input_is_not_wildcard": {
			fact:    Fact{Pattern: "parent", Input: concept.Map{}, Output: concept.FromStrings("bob")},
			pattern: "parent",
			partial: concept.FromStrings("alice"),
		},
		"other_pattern": {
			fact:    Fact{Pattern: "child", Output: concept.FromStrings("bob")},
			pattern: "parent",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.want, test.fact.Matches(test.pattern, test.partial))
		})
	}
}

func TestFactValidate(t *testing.T) {
	require.NoError(t, Fact{Pattern: "p", Output: concept.FromStrings("a")}.Validate())
	require.ErrorIs(t, Fact{Output: concept.FromStrings("a")}.Validate(), ErrInvalidFact)
	require.ErrorIs(t, Fact{Pattern: "p"}.Validate(), ErrInvalidFact)
}
