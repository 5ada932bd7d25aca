// Package eventloop implements the cooperative workers that every actor is
// pinned to.
//
// A Loop is a single goroutine draining an unbounded FIFO of ready jobs and a
// min-heap of delayed jobs. Jobs run one at a time and to completion, so any
// state touched only by jobs of the same Loop needs no further
// synchronization. Jobs must never block: a job waiting on another job of the
// same Loop deadlocks the worker.
//
//	Submit ──► ready FIFO ─┐
//	                       ├──► run one job ──► promote due timers ──► ...
//	Schedule ─► delay heap ┘
//
// A Pool owns a fixed set of loops and assigns each newly created actor to
// one of them for the actor's lifetime, either round-robin or by hashing the
// actor name.
package eventloop
