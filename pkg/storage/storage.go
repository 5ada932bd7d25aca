//go:generate mockgen -source storage.go -destination ../../internal/mocks/mock_storage.go -package mocks

// Package storage defines the fact datastores that feed resolution with base
// answers.
//
// A fact says that a pattern contributes Output to a partial answer equal to
// Input. A fact without Input contributes its Output to every partial answer,
// which is how the first conjunct of a query and unconditional patterns are
// stored.
package storage

import (
	"context"
	"iter"
	"time"

	"github.com/lolski/common-sub000/pkg/concept"
)

// Fact is a single stored base answer.
type Fact struct {
	Pattern string
	Input   concept.Map
	Output  concept.Map
}

// Matches reports whether the fact contributes to the partial answer.
func (f Fact) Matches(pattern string, partial concept.Map) bool {
	if f.Pattern != pattern {
		return false
	}
	return f.Input == nil || f.Input.Equal(partial)
}

func (f Fact) Validate() error {
	if f.Pattern == "" {
		return InvalidFactError(f, "pattern is empty")
	}
	if len(f.Output) == 0 {
		return InvalidFactError(f, "output is empty")
	}
	return nil
}

// FactReader is the local producer of a resolver. Read returns the outputs of
// every fact matching pattern and partial. The sequence is lazy: nothing is
// read from the backing store until the first value is pulled, and a caller
// that stops pulling early releases the read.
type FactReader interface {
	Read(ctx context.Context, pattern string, partial concept.Map) iter.Seq2[concept.Map, error]
}

type FactWriter interface {
	Write(ctx context.Context, facts ...Fact) error
}

// ReadinessStatus represents the readiness status of the datastore.
type ReadinessStatus struct {
	// Message is a human-friendly status message for the current datastore status.
	Message string

	IsReady bool
}

// Datastore is a FactReader and FactWriter backed by a concrete engine.
type Datastore interface {
	FactReader
	FactWriter

	// IsReady reports whether the datastore is reachable and at a supported
	// schema revision.
	IsReady(ctx context.Context) (ReadinessStatus, error)

	Close()
}

const (
	DefaultReadPageSize     = 100
	DefaultMaxOpenConns     = 30
	DefaultReadinessTimeout = 2 * time.Second
)
