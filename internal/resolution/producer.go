package resolution

import (
	"iter"

	"github.com/lolski/common-sub000/internal/seq"
	"github.com/lolski/common-sub000/pkg/concept"
)

type downstream struct {
	request Request
	tag     int
}

// Producer is the production state of one request at the resolver that
// received it: a lazily read local source, the live downstream requests and
// the values already sent upstream.
type Producer struct {
	request  Request
	local    *seq.SeqReader[concept.Map]
	toAnswer func(concept.Map) *Answer

	produced   map[string]struct{}
	downstream []downstream
	cursor     int
	exhausted  bool
}

// NewProducer creates the producer of req. local may be nil for resolvers
// without local answers, otherwise toAnswer turns each local row into a
// candidate answer.
func NewProducer(req Request, local iter.Seq2[concept.Map, error], toAnswer func(concept.Map) *Answer) *Producer {
	p := &Producer{
		request:  req,
		toAnswer: toAnswer,
		produced: make(map[string]struct{}),
	}
	if local != nil {
		p.local = seq.NewSeqReader(local)
	}
	return p
}

// Request is the upstream request p serves.
func (p *Producer) Request() Request {
	return p.request
}

// NextLocal reads the next local row as a candidate answer.
func (p *Producer) NextLocal() (*Answer, bool, error) {
	if p.local == nil {
		return nil, false, nil
	}
	row, ok, err := p.local.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	return p.toAnswer(row), true, nil
}

// Record marks values as produced. It returns false if they were produced
// before.
func (p *Producer) Record(values concept.Map) bool {
	key := values.Key()
	if _, ok := p.produced[key]; ok {
		return false
	}
	p.produced[key] = struct{}{}
	return true
}

// AddDownstream adds req to the live downstream requests unless a request
// with the same key is already live.
func (p *Producer) AddDownstream(req Request, tag int) {
	key := req.Key()
	for _, d := range p.downstream {
		if d.request.Key() == key {
			return
		}
	}
	p.downstream = append(p.downstream, downstream{request: req, tag: tag})
}

// RemoveDownstream drops req from the live downstream requests.
func (p *Producer) RemoveDownstream(req Request) {
	key := req.Key()
	for i, d := range p.downstream {
		if d.request.Key() != key {
			continue
		}
		p.downstream = append(p.downstream[:i], p.downstream[i+1:]...)
		if i < p.cursor {
			p.cursor--
		}
		return
	}
}

// NextDownstream picks the next live downstream request, round robin.
func (p *Producer) NextDownstream() (Request, int, bool) {
	if len(p.downstream) == 0 {
		return Request{}, 0, false
	}
	if p.cursor >= len(p.downstream) {
		p.cursor = 0
	}
	d := p.downstream[p.cursor]
	p.cursor++
	return d.request, d.tag, true
}

// Downstreams is the number of live downstream requests.
func (p *Producer) Downstreams() int {
	return len(p.downstream)
}

func (p *Producer) Exhausted() bool {
	return p.exhausted
}

// exhaust marks p as exhausted. With evict, everything but the request is
// released and p only remains as a tombstone.
func (p *Producer) exhaust(evict bool) {
	p.exhausted = true
	if !evict {
		return
	}
	if p.local != nil {
		_ = p.local.Close()
		p.local = nil
	}
	p.toAnswer = nil
	p.produced = nil
	p.downstream = nil
	p.cursor = 0
}
