package actor

import (
	"context"
	"sync"
)

// Future is the result of an Ask. It is completed exactly once.
type Future[R any] struct {
	once  sync.Once
	done  chan struct{}
	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) complete(value R, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is completed.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the result. It must not be called from inside an actor job:
// waiting on a job of the same loop never returns.
func (f *Future[R]) Get(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
