package sqlcommon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolski/common-sub000/pkg/concept"
)

func TestRowEncoding(t *testing.T) {
	t.Run("empty_and_nil_encode_alike", func(t *testing.T) {
		a, err := marshalRow(nil)
		require.NoError(t, err)
		b, err := marshalRow(concept.Map{})
		require.NoError(t, err)
		require.Equal(t, "[]", a)
		require.Equal(t, a, b)
	})

	t.Run("separators_do_not_collide", func(t *testing.T) {
		a, err := marshalRow(concept.FromStrings("a,b"))
		require.NoError(t, err)
		b, err := marshalRow(concept.FromStrings("a", "b"))
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("decode", func(t *testing.T) {
		row, err := unmarshalRow(`["x","y"]`)
		require.NoError(t, err)
		require.Equal(t, concept.FromStrings("x", "y"), row)

		_, err = unmarshalRow(`not json`)
		require.Error(t, err)
	})
}
