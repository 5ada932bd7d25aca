package sqlcommon

import (
	"encoding/json"
	"fmt"

	"github.com/lolski/common-sub000/pkg/concept"
)

// Rows are stored as JSON arrays of strings so that the stored input of a
// fact compares equal to the encoded partial answer it matches.
func marshalRow(row concept.Map) (string, error) {
	strs := row.Strings()
	b, err := json.Marshal(strs)
	if err != nil {
		return "", fmt.Errorf("encode row %s: %w", row, err)
	}
	return string(b), nil
}

func unmarshalRow(encoded string) (concept.Map, error) {
	var strs []string
	if err := json.Unmarshal([]byte(encoded), &strs); err != nil {
		return nil, fmt.Errorf("decode row %q: %w", encoded, err)
	}
	return concept.FromStrings(strs...), nil
}
