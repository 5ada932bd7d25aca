package constraint

import (
	"fmt"

	"github.com/Yiling-J/theine-go"

	"github.com/lolski/common-sub000/pkg/concept"
)

const DefaultCacheSize = 1024

// Cache holds compiled constraints keyed by expression so each distinct
// expression is compiled once per process rather than once per request.
type Cache struct {
	programs *theine.Cache[string, *Constraint]
}

func NewCache(size int64) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	programs, err := theine.NewBuilder[string, *Constraint](size).Build()
	if err != nil {
		return nil, fmt.Errorf("build constraint cache: %w", err)
	}
	return &Cache{programs: programs}, nil
}

// Get returns the compiled constraint for expr, compiling it on a miss.
func (c *Cache) Get(expr string) (*Constraint, error) {
	if compiled, ok := c.programs.Get(expr); ok {
		cacheHitCounter.Inc()
		return compiled, nil
	}

	compiled, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	c.programs.Set(expr, compiled, 1)
	return compiled, nil
}

// Check compiles every expression, failing on the first invalid one.
func (c *Cache) Check(exprs []string) error {
	for _, expr := range exprs {
		if _, err := c.Get(expr); err != nil {
			return err
		}
	}
	return nil
}

// Satisfies reports whether row satisfies all of exprs.
func (c *Cache) Satisfies(row concept.Map, exprs []string) (bool, error) {
	for _, expr := range exprs {
		compiled, err := c.Get(expr)
		if err != nil {
			return false, err
		}

		met, err := compiled.Evaluate(row)
		if err != nil || !met {
			return false, err
		}
	}
	return true, nil
}

func (c *Cache) Close() {
	c.programs.Close()
}
