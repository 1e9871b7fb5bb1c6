package sno

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMalformedInput marks input that cannot be decoded into node/edge
// records. Callers can test for it with errors.Is to distinguish parse
// failures from I/O failures.
var ErrMalformedInput = errors.New("malformed input")

// LoadBundle reads a single JSON document containing the full node and
// edge record collections.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, path, err)
	}

	return &b, nil
}
