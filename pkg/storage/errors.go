package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrCollision if an item already exists within the store.
	ErrCollision = errors.New("item already exists")

	// ErrInvalidFact if a fact cannot be written.
	ErrInvalidFact = errors.New("invalid fact")

	ErrCancelled = errors.New("request has been cancelled")
	ErrNotFound  = errors.New("not found")

	// ErrUnknownEngine if no datastore or migration provider exists for an engine.
	ErrUnknownEngine = errors.New("unknown datastore engine")
)

func InvalidFactError(f Fact, reason string) error {
	return fmt.Errorf("cannot write fact: pattern: '%s', input: '%s', output: '%s': %s: %w",
		f.Pattern, f.Input, f.Output, reason, ErrInvalidFact)
}
