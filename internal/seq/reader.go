package seq

import "iter"

// SeqReader reads values one at a time from an iter.Seq2 whose second element
// is an error, as produced by storage iterators.
//
// Nothing is pulled from the underlying sequence until a read asks for it, so
// a SeqReader performs exactly the amount of work its caller demands.
type SeqReader[T any] struct {
	// next is the function returned by iter.Pull2 that provides the next
	// available element from the sequence.
	next func() (T, error, bool)

	// stop is the function returned by iter.Pull2 that signals that the
	// sequence will no longer be iterated.
	stop func()

	done bool
}

// Next returns the next value. ok is false once the sequence is complete; a
// non-nil error also completes the reader.
func (r *SeqReader[T]) Next() (value T, ok bool, err error) {
	if r.done {
		return value, false, nil
	}

	value, err, ok = r.next()
	if !ok || err != nil {
		r.done = true
		r.stop()
		return value, false, err
	}
	return value, true, nil
}

// Read fills buf with values from the sequence and returns the count read. A
// count smaller than len(buf) means the sequence is complete or failed.
func (r *SeqReader[T]) Read(buf []T) (int, error) {
	var head int

	for head < len(buf) {
		value, ok, err := r.Next()
		if err != nil {
			return head, err
		}
		if !ok {
			break
		}

		buf[head] = value
		head++
	}
	return head, nil
}

// Done reports whether the sequence is complete.
func (r *SeqReader[T]) Done() bool {
	return r.done
}

// Close indicates that the caller will not continue to read from the
// sequence. Reading after Close reports a complete sequence.
func (r *SeqReader[T]) Close() error {
	r.done = true
	r.stop()
	return nil
}

// NewSeqReader constructs a SeqReader that wraps the given sequence.
func NewSeqReader[T any](seq iter.Seq2[T, error]) *SeqReader[T] {
	next, stop := iter.Pull2(seq)
	return &SeqReader[T]{
		next: next,
		stop: stop,
	}
}
