// Package concept holds the opaque values that answers are made of.
//
// The runtime never looks inside a Concept: it only compares them, hashes them
// into keys and concatenates them into rows.
package concept

import (
	"strconv"
	"strings"
)

// Concept is an opaque, comparable value produced by a fact source.
type Concept string

// Map is an ordered answer row. Rows are treated as immutable values: every
// operation that extends a row returns a fresh one.
type Map []Concept

// FromStrings builds a row from plain strings.
func FromStrings(values ...string) Map {
	if len(values) == 0 {
		return nil
	}
	m := make(Map, len(values))
	for i, v := range values {
		m[i] = Concept(v)
	}
	return m
}

// Concat returns a new row holding m followed by other.
func (m Map) Concat(other Map) Map {
	out := make(Map, 0, len(m)+len(other))
	out = append(out, m...)
	return append(out, other...)
}

// Suffix returns the values of m after the first n positions.
func (m Map) Suffix(n int) Map {
	if n >= len(m) {
		return nil
	}
	return m[n:]
}

func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Strings returns the row as plain strings.
func (m Map) Strings() []string {
	out := make([]string, len(m))
	for i, c := range m {
		out[i] = string(c)
	}
	return out
}

// Key returns a canonical encoding of the row. Every value is length
// prefixed so that distinct rows never share a key.
func (m Map) Key() string {
	var sb strings.Builder
	for _, c := range m {
		sb.WriteString(strconv.Itoa(len(c)))
		sb.WriteByte(':')
		sb.WriteString(string(c))
	}
	return sb.String()
}

func (m Map) String() string {
	return "[" + strings.Join(m.Strings(), " ") + "]"
}
