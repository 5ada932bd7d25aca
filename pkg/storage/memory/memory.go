// Package memory provides an in-process fact datastore, used by tests and by
// programs that load their facts from a file.
package memory

import (
	"context"
	"iter"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lolski/common-sub000/pkg/concept"
	"github.com/lolski/common-sub000/pkg/storage"
)

var tracer = otel.Tracer("reasoner/pkg/storage/memory")

// MemoryBackend keeps facts in insertion order, grouped by pattern. Facts are
// a multiset: writing the same fact twice makes it readable twice.
type MemoryBackend struct {
	mu    sync.RWMutex
	facts map[string][]storage.Fact
}

var _ storage.Datastore = (*MemoryBackend)(nil)

func New() *MemoryBackend {
	return &MemoryBackend{
		facts: make(map[string][]storage.Fact),
	}
}

// Read see [storage.FactReader].Read. The facts visible to a read are those
// written before its first value was pulled.
func (s *MemoryBackend) Read(ctx context.Context, pattern string, partial concept.Map) iter.Seq2[concept.Map, error] {
	return func(yield func(concept.Map, error) bool) {
		_, span := tracer.Start(ctx, "memory.Read", trace.WithAttributes(
			attribute.String("pattern", pattern),
			attribute.String("partial", partial.String()),
		))
		defer span.End()

		s.mu.RLock()
		snapshot := s.facts[pattern]
		s.mu.RUnlock()

		for _, f := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !f.Matches(pattern, partial) {
				continue
			}
			if !yield(slices.Clone(f.Output), nil) {
				return
			}
		}
	}
}

// Write see [storage.FactWriter].Write. Either every fact is written or none.
func (s *MemoryBackend) Write(ctx context.Context, facts ...storage.Fact) error {
	_, span := tracer.Start(ctx, "memory.Write")
	defer span.End()

	for _, f := range facts {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range facts {
		s.facts[f.Pattern] = append(s.facts[f.Pattern], storage.Fact{
			Pattern: f.Pattern,
			Input:   slices.Clone(f.Input),
			Output:  slices.Clone(f.Output),
		})
	}
	return nil
}

// Len returns the number of stored facts for pattern.
func (s *MemoryBackend) Len(pattern string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts[pattern])
}

// IsReady see [storage.Datastore].IsReady.
func (s *MemoryBackend) IsReady(context.Context) (storage.ReadinessStatus, error) {
	return storage.ReadinessStatus{IsReady: true}, nil
}

func (s *MemoryBackend) Close() {}
