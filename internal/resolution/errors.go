package resolution

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned by a Query once every answer was delivered.
	ErrExhausted = errors.New("query exhausted")

	ErrQueryClosed = errors.New("query closed")

	ErrEmptyQuery = errors.New("query has no patterns")

	// ErrRulesSealed is returned when a rule is added after a resolver for its
	// conclusion was created.
	ErrRulesSealed = errors.New("rules for pattern are already in use")

	ErrInvalidRule = errors.New("invalid rule")

	ErrNotRecorded = errors.New("answer not recorded")
)

// ProtocolError is raised, as a panic, when the resolution protocol reaches a
// state it must never reach. It aborts the current job of the resolver that
// detected it.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "resolution protocol violation: " + e.Msg
}

func protocolViolation(format string, args ...any) {
	panic(&ProtocolError{Msg: fmt.Sprintf(format, args...)})
}

// ResolverError attributes a failure to the resolver that raised it.
type ResolverError struct {
	Resolver string
	Err      error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolver %s failed: %v", e.Resolver, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}
