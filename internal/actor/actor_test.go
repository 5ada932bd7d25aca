package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/pkg/logger"
)

type recorder struct {
	self   *Actor[*recorder]
	seen   []int
	errors chan error
}

func (r *recorder) OnException(err error) {
	r.errors <- err
}

func newRecorder(t *testing.T, pool *eventloop.Pool) *Actor[*recorder] {
	t.Helper()

	a, err := New(pool, "recorder", func(self *Actor[*recorder]) *recorder {
		return &recorder{self: self, errors: make(chan error, 8)}
	})
	require.NoError(t, err)
	return a
}

func newPool(t *testing.T, size int) *eventloop.Pool {
	t.Helper()

	pool := eventloop.NewPool(size)
	t.Cleanup(func() {
		pool.Close()
		goleak.VerifyNone(t)
	})
	return pool
}

func TestTellIsFIFO(t *testing.T) {
	pool := newPool(t, 4)
	a := newRecorder(t, pool)

	for i := 0; i < 1000; i++ {
		a.Tell(func(r *recorder) {
			r.seen = append(r.seen, i)
		})
	}

	seen, err := Ask(a, func(r *recorder) ([]int, error) {
		return append([]int(nil), r.seen...), nil
	}).Get(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 1000)
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}

func TestAsk(t *testing.T) {
	pool := newPool(t, 2)
	ctx := context.Background()

	t.Run("returns_value", func(t *testing.T) {
		a := newRecorder(t, pool)
		got, err := Ask(a, func(r *recorder) (string, error) {
			return "pong", nil
		}).Get(ctx)
		require.NoError(t, err)
		require.Equal(t, "pong", got)
	})

	t.Run("returned_error_fails_future_and_reaches_hook", func(t *testing.T) {
		a := newRecorder(t, pool)
		errBoom := errors.New("boom")
		_, err := Ask(a, func(r *recorder) (int, error) {
			return 0, errBoom
		}).Get(ctx)
		require.ErrorIs(t, err, errBoom)

		hooked, err := Ask(a, func(r *recorder) ([]error, error) {
			var errs []error
			for len(r.errors) > 0 {
				errs = append(errs, <-r.errors)
			}
			return errs, nil
		}).Get(ctx)
		require.NoError(t, err)
		require.Len(t, hooked, 1)
		require.ErrorIs(t, hooked[0], errBoom)
	})

	t.Run("panic_fails_future_and_reaches_hook", func(t *testing.T) {
		a := newRecorder(t, pool)
		errBoom := errors.New("boom")
		_, err := Ask(a, func(r *recorder) (int, error) {
			panic(errBoom)
		}).Get(ctx)

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		require.ErrorIs(t, err, errBoom)
		require.Contains(t, panicErr.Actor, "recorder")
		require.NotEmpty(t, panicErr.Stack)

		hooked, err := Ask(a, func(r *recorder) (error, error) {
			return <-r.errors, nil
		}).Get(ctx)
		require.NoError(t, err)
		require.ErrorIs(t, hooked, errBoom)
	})

	t.Run("context_cancelled", func(t *testing.T) {
		a := newRecorder(t, pool)
		release := make(chan struct{})
		a.Tell(func(r *recorder) {
			<-release
		})
		defer close(release)

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := Ask(a, func(r *recorder) (int, error) {
			return 1, nil
		}).Get(cctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTellPanicReachesHook(t *testing.T) {
	pool := newPool(t, 1)
	a := newRecorder(t, pool)

	a.Tell(func(r *recorder) {
		panic("not an error")
	})
	a.Tell(func(r *recorder) {
		r.seen = append(r.seen, 1)
	})

	got, err := Ask(a, func(r *recorder) (error, error) {
		return <-r.errors, nil
	}).Get(context.Background())
	require.NoError(t, err)

	var panicErr *PanicError
	require.ErrorAs(t, got, &panicErr)
	require.Equal(t, "not an error", panicErr.Value)

	seen, err := Ask(a, func(r *recorder) (int, error) {
		return len(r.seen), nil
	}).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, seen)
}

func TestSchedule(t *testing.T) {
	pool := newPool(t, 1)
	a := newRecorder(t, pool)

	fired := make(chan struct{})
	_, err := a.Schedule(5*time.Millisecond, func(r *recorder) {
		close(fired)
	})
	require.NoError(t, err)

	timer, err := a.Schedule(5*time.Millisecond, func(r *recorder) {
		r.seen = append(r.seen, 1)
	})
	require.NoError(t, err)
	require.True(t, timer.Cancel())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}

	fence := make(chan struct{})
	_, err = a.Schedule(20*time.Millisecond, func(r *recorder) {
		close(fence)
	})
	require.NoError(t, err)
	<-fence

	seen, err := Ask(a, func(r *recorder) (int, error) {
		return len(r.seen), nil
	}).Get(context.Background())
	require.NoError(t, err)
	require.Zero(t, seen)
}

func TestUseBeforeReadyPanics(t *testing.T) {
	pool := newPool(t, 1)

	_, err := New(pool, "eager", func(self *Actor[*recorder]) *recorder {
		require.PanicsWithError(t, "actor used before its state was constructed: eager", func() {
			self.Tell(func(*recorder) {})
		})
		return &recorder{self: self, errors: make(chan error, 1)}
	})
	require.NoError(t, err)
}

func TestClosedPool(t *testing.T) {
	pool := newPool(t, 1)
	log, logs := logger.NewObserverLogger("debug")

	a, err := New(pool, "late", func(self *Actor[*recorder]) *recorder {
		return &recorder{self: self, errors: make(chan error, 1)}
	}, WithLogger(log))
	require.NoError(t, err)
	pool.Close()

	a.Tell(func(*recorder) {})
	require.Equal(t, 1, logs.FilterMessage("dropping message").Len())

	_, err = Ask(a, func(*recorder) (int, error) { return 1, nil }).Get(context.Background())
	require.ErrorIs(t, err, eventloop.ErrLoopClosed)

	_, err = New(pool, "later", func(self *Actor[*recorder]) *recorder {
		return &recorder{}
	})
	require.ErrorIs(t, err, eventloop.ErrPoolClosed)
}
