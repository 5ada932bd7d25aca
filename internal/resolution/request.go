package resolution

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lolski/common-sub000/pkg/concept"
)

// Request is a unit of demand: the resolver at the end of Path is asked for
// one more answer extending Partial that satisfies every constraint.
//
// Requests are compared by Key. Two requests with equal keys are the same
// demand stream, whoever sent them.
type Request struct {
	Path        Path
	Partial     concept.Map
	Constraints []string

	// Derivation accumulates the answers a join consumed so far. It is carried
	// along but takes no part in the request's identity.
	Derivation Derivation
}

// Key identifies the request by its path, partial answer and constraints.
func (r Request) Key() string {
	var sb strings.Builder
	sb.WriteString(r.Path.Key())
	sb.WriteByte('|')
	sb.WriteString(r.Partial.Key())
	for _, c := range r.Constraints {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(len(c)))
		sb.WriteByte(':')
		sb.WriteString(c)
	}
	return sb.String()
}

// triggerKey identifies the rule expansion a request would cause, which only
// depends on its partial answer and constraints.
func (r Request) triggerKey() string {
	var sb strings.Builder
	sb.WriteString(r.Partial.Key())
	for _, c := range r.Constraints {
		sb.WriteByte('|')
		sb.WriteString(c)
	}
	return sb.String()
}

// Response is either an *Answer or *Exhausted.
type Response interface {
	// SourceRequest is the request the response answers.
	SourceRequest() Request
}

// Answer is one answer produced for a request.
type Answer struct {
	Source      Request
	Values      concept.Map
	Constraints []string

	// Label names what produced the answer: a pattern or a rule.
	Label string

	// Producer is the ID of the resolver that produced the answer.
	Producer string

	Derivation Derivation
}

func (a *Answer) SourceRequest() Request {
	return a.Source
}

// Inferred reports whether the answer was derived from other answers rather
// than read from facts.
func (a *Answer) Inferred() bool {
	return len(a.Derivation) > 0
}

// Key identifies the answer by its producer and values.
func (a *Answer) Key() string {
	return a.Producer + "|" + a.Values.Key()
}

func (a *Answer) String() string {
	return a.Label + a.Values.String()
}

// Exhausted reports that a request has no answers left.
type Exhausted struct {
	Source Request
}

func (e *Exhausted) SourceRequest() Request {
	return e.Source
}

// Derivation records the answers an inferred answer was built from, keyed by
// Answer.Key.
type Derivation map[string]*Answer

// With returns a derivation holding d and a. An answer whose key is already
// present is not replaced. The receiver is never modified.
func (d Derivation) With(answers ...*Answer) Derivation {
	out := make(Derivation, len(d)+len(answers))
	for k, v := range d {
		out[k] = v
	}
	for _, a := range answers {
		if _, ok := out[a.Key()]; !ok {
			out[a.Key()] = a
		}
	}
	return out
}

// Keys returns the keys of d in sorted order.
func (d Derivation) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Either is the outcome of a resolver operation: a request to send
// downstream, or a response for the upstream request being served.
type Either struct {
	downstream *Request
	tag        int
	response   Response
}

// Downstream asks the dispatcher to send req on. tag is handed back with
// every response to req.
func Downstream(req Request, tag int) Either {
	return Either{downstream: &req, tag: tag}
}

// Respond hands resp to the upstream requester.
func Respond(resp Response) Either {
	return Either{response: resp}
}

// IsDownstream reports whether e carries a downstream request.
func (e Either) IsDownstream() bool {
	return e.downstream != nil
}
