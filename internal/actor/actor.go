// Package actor provides single-threaded actors multiplexed over an
// eventloop.Pool.
//
// An Actor owns exactly one State value. Every job touching that state runs
// on the event loop the actor was pinned to at creation, so jobs of one actor
// never overlap and jobs sent from the same goroutine or actor are observed in
// send order.
package actor

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/lolski/common-sub000/internal/eventloop"
	"github.com/lolski/common-sub000/pkg/logger"
)

var ErrNotReady = errors.New("actor used before its state was constructed")

// State is implemented by the state owned by an actor. OnException receives
// every error raised by a job of that actor and runs on the actor's loop.
type State interface {
	OnException(err error)
}

// PanicError is a panic recovered from an actor job.
type PanicError struct {
	Actor string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("actor %s panicked: %v", e.Actor, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type options struct {
	logger logger.Logger
}

type Option func(*options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Actor is a handle to a state of type S pinned to one event loop.
type Actor[S State] struct {
	id     string
	name   string
	loop   *eventloop.Loop
	logger logger.Logger

	state S
	ready atomic.Bool
}

// New creates an actor and runs factory synchronously to build its state. The
// factory receives the handle so the state can close over it, but the handle
// cannot send messages until New returns.
func New[S State](pool *eventloop.Pool, name string, factory func(*Actor[S]) S, opts ...Option) (*Actor[S], error) {
	o := options{logger: logger.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	loop, err := pool.Assign(name)
	if err != nil {
		return nil, fmt.Errorf("assign actor %s: %w", name, err)
	}

	a := &Actor[S]{
		id:     ulid.Make().String(),
		name:   name,
		loop:   loop,
		logger: o.logger,
	}
	a.state = factory(a)
	a.ready.Store(true)

	actorsCreatedCounter.Inc()
	return a, nil
}

func (a *Actor[S]) ID() string {
	return a.id
}

func (a *Actor[S]) Name() string {
	return a.name
}

func (a *Actor[S]) String() string {
	return a.name + "#" + a.id
}

// Loop is the event loop the actor is pinned to.
func (a *Actor[S]) Loop() *eventloop.Loop {
	return a.loop
}

func (a *Actor[S]) mustBeReady() {
	if !a.ready.Load() {
		panic(fmt.Errorf("%w: %s", ErrNotReady, a.name))
	}
}

// Tell enqueues job for asynchronous execution. Failures are reported to the
// state's exception hook only.
func (a *Actor[S]) Tell(job func(S)) {
	a.mustBeReady()
	if err := a.loop.Submit(func() { a.run(job) }); err != nil {
		droppedMessagesCounter.Inc()
		a.logger.Debug("dropping message", zap.String("actor", a.name), zap.Error(err))
	}
}

// Schedule enqueues job to run no earlier than delay from now. The returned
// timer cancels the job until it fires.
func (a *Actor[S]) Schedule(delay time.Duration, job func(S)) (*eventloop.Timer, error) {
	a.mustBeReady()
	return a.loop.Schedule(delay, func() { a.run(job) })
}

// run executes job against the state, recovering any panic into a
// *PanicError handed to the exception hook.
func (a *Actor[S]) run(job func(S)) error {
	var pc panics.Catcher
	pc.Try(func() { job(a.state) })

	r := pc.Recovered()
	if r == nil {
		return nil
	}
	err := &PanicError{Actor: a.String(), Value: r.Value, Stack: r.Stack}
	a.fail(err)
	return err
}

func (a *Actor[S]) fail(err error) {
	jobFailuresCounter.Inc()
	a.logger.Error("actor job failed", zap.String("actor", a.String()), zap.Error(err))
	a.state.OnException(err)
}

// Ask enqueues job and returns a future completed with its result. A job that
// panics or returns an error fails the future and reaches the exception hook.
func Ask[S State, R any](a *Actor[S], job func(S) (R, error)) *Future[R] {
	a.mustBeReady()

	f := newFuture[R]()
	err := a.loop.Submit(func() {
		var (
			res    R
			jobErr error
		)
		if err := a.run(func(s S) { res, jobErr = job(s) }); err != nil {
			var zero R
			f.complete(zero, err)
			return
		}
		if jobErr != nil {
			a.fail(jobErr)
		}
		f.complete(res, jobErr)
	})
	if err != nil {
		var zero R
		f.complete(zero, fmt.Errorf("ask %s: %w", a.name, err))
	}
	return f
}
