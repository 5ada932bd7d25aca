// Package resolution answers rule-based queries lazily over a graph of
// resolver actors.
//
// Every resolver is an actor running the same request/response state machine.
// Demand flows down as Requests, one Request per answer wanted, and answers
// flow back up as Responses, each either an Answer or Exhausted:
//
//	Query ──Request──► root Conjunction ──► Concludable(parent) ──► local facts
//	  ▲                      │                    │
//	  │                      │                    └──► Rule(ancestor) ──► Concludable ...
//	  └───Answer/Exhausted───┘
//
// A resolver never reads ahead. Each Request is answered with exactly one
// Response: a new row from its local facts, an answer relayed from one of its
// downstream requests, or Exhausted once neither has anything left. Rows are
// deduplicated per Request, so an answer reaches a given requester at most
// once.
//
// The Registry keeps one resolver per pattern and per rule, which is what lets
// recursive rules share work and terminate: a Concludable expands its rules
// only once per (partial answer, constraints) pair, no matter how many paths
// reach it.
//
// Inferred answers reaching a Query are merged into the Recorder, from which
// Explain rebuilds the derivation of any recorded answer.
package resolution
