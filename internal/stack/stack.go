package stack

// Stack is a persistent stack based on a linked list. The zero *Stack is the
// empty stack.
//
// *Important*: Push and Pop never modify the receiver, they return a new stack
// sharing the unchanged tail, so a Stack can be handed between goroutines
// without copying.
type Stack[T any] struct {
	Value T
	next  *Stack[T]
	depth int
}

func Push[T any](stack *Stack[T], value T) *Stack[T] {
	return &Stack[T]{Value: value, next: stack, depth: stack.Len() + 1}
}

// Pop panics on the empty stack.
func Pop[T any](stack *Stack[T]) (T, *Stack[T]) {
	return stack.Value, stack.next
}

// Of builds a stack whose top is the last value.
func Of[T any](values ...T) *Stack[T] {
	var s *Stack[T]
	for _, v := range values {
		s = Push(s, v)
	}
	return s
}

func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Values returns the elements bottom first.
func (s *Stack[T]) Values() []T {
	out := make([]T, s.Len())
	for i, cur := len(out)-1, s; cur != nil; i, cur = i-1, cur.next {
		out[i] = cur.Value
	}
	return out
}
