package eventloop

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/lolski/common-sub000/pkg/logger"
)

var (
	ErrLoopClosed = errors.New("event loop is closed")
	ErrPoolClosed = errors.New("event loop pool is closed")
)

// Job is a unit of work executed on a Loop.
type Job func()

const (
	timerPending int32 = iota
	timerFired
	timerCancelled
)

// Timer is a handle to a delayed job. It can be cancelled until it fires.
type Timer struct {
	job      Job
	deadline time.Time
	seq      uint64
	state    atomic.Int32
}

// Cancel prevents the delayed job from running. It returns false when the job
// already fired or was already cancelled.
func (t *Timer) Cancel() bool {
	return t.state.CompareAndSwap(timerPending, timerCancelled)
}

// Deadline is the earliest time the job may run.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

func byDeadline(a, b interface{}) int {
	ta, tb := a.(*Timer), b.(*Timer)
	switch {
	case ta.deadline.Before(tb.deadline):
		return -1
	case tb.deadline.Before(ta.deadline):
		return 1
	case ta.seq < tb.seq:
		return -1
	case ta.seq > tb.seq:
		return 1
	default:
		return 0
	}
}

// Loop is a single-threaded cooperative worker.
type Loop struct {
	id     int
	label  string
	logger logger.Logger

	mu      sync.Mutex
	ready   []Job
	delayed *binaryheap.Heap
	seq     uint64
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newLoop(id int, log logger.Logger) *Loop {
	return &Loop{
		id:      id,
		label:   strconv.Itoa(id),
		logger:  log.With(zap.Int("loop", id)),
		delayed: binaryheap.NewWith(byDeadline),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// ID is the index of the loop within its pool.
func (l *Loop) ID() int {
	return l.id
}

// Submit enqueues job behind every job already submitted to this loop.
func (l *Loop) Submit(job Job) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.ready = append(l.ready, job)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Schedule enqueues job to run no earlier than delay from now.
func (l *Loop) Schedule(delay time.Duration, job Job) (*Timer, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLoopClosed
	}
	l.seq++
	t := &Timer{
		job:      job,
		deadline: time.Now().Add(delay),
		seq:      l.seq,
	}
	l.delayed.Push(t)
	l.mu.Unlock()

	delayedJobsCounter.WithLabelValues(l.label).Inc()
	l.signal()
	return t, nil
}

// Pending returns the number of ready jobs waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ready)
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// close stops accepting jobs. With drain the ready queue and every delayed
// job already due still run before the loop exits. Otherwise all queued and
// delayed work is dropped. Delayed jobs that are not yet due never run after
// close.
func (l *Loop) close(drain bool) {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if drain {
			l.promoteDue(time.Now())
		} else {
			l.ready = nil
		}
		l.cancelTimers()
	}
	l.mu.Unlock()

	l.signal()
	<-l.done
}

// cancelTimers empties the delay heap, cancelling every timer still in it.
// Callers hold l.mu.
func (l *Loop) cancelTimers() {
	for {
		v, ok := l.delayed.Pop()
		if !ok {
			return
		}
		v.(*Timer).Cancel()
	}
}

// promoteDue moves every due timer to the ready queue and returns the time
// until the next pending timer, or -1 when there is none. Callers hold l.mu.
func (l *Loop) promoteDue(now time.Time) time.Duration {
	for {
		v, ok := l.delayed.Peek()
		if !ok {
			return -1
		}
		t := v.(*Timer)
		if t.state.Load() == timerCancelled {
			l.delayed.Pop()
			continue
		}
		if t.deadline.After(now) {
			return t.deadline.Sub(now)
		}
		l.delayed.Pop()
		if t.state.CompareAndSwap(timerPending, timerFired) {
			l.ready = append(l.ready, t.job)
		}
	}
}

func (l *Loop) run() {
	defer close(l.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		l.mu.Lock()
		wait := l.promoteDue(time.Now())
		if len(l.ready) > 0 {
			job := l.ready[0]
			l.ready[0] = nil
			l.ready = l.ready[1:]
			l.mu.Unlock()

			l.execute(job)
			continue
		}
		if l.closed {
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()

		if wait < 0 {
			<-l.wake
			continue
		}

		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-l.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
	}
}

// execute runs a job to completion. A panicking job never takes the worker
// down with it; jobs that need to observe their own failures recover them
// before they reach this point.
func (l *Loop) execute(job Job) {
	var pc panics.Catcher
	pc.Try(job)
	jobsExecutedCounter.WithLabelValues(l.label).Inc()

	if r := pc.Recovered(); r != nil {
		uncaughtPanicsCounter.WithLabelValues(l.label).Inc()
		l.logger.Error("event loop job panicked", zap.Error(r.AsError()))
	}
}
