package resolution

import (
	"strings"

	"github.com/lolski/common-sub000/internal/actor"
	"github.com/lolski/common-sub000/internal/stack"
)

// Path is the chain of resolvers from the root of a query down to the
// resolver a Request is addressed to. Paths are values: Append returns a new
// Path and never changes the receiver, so the root and key are computed once
// when the path is built.
type Path struct {
	resolvers *stack.Stack[*actor.Actor[*Dispatcher]]
	root      *actor.Actor[*Dispatcher]
	key       string
}

func NewPath(root *actor.Actor[*Dispatcher]) Path {
	return Path{
		resolvers: stack.Of(root),
		root:      root,
		key:       root.ID(),
	}
}

// Append returns the path extended with next.
func (p Path) Append(next *actor.Actor[*Dispatcher]) Path {
	if p.resolvers == nil {
		protocolViolation("append to an empty path")
	}
	return Path{
		resolvers: stack.Push(p.resolvers, next),
		root:      p.root,
		key:       p.key + "/" + next.ID(),
	}
}

// Target is the resolver the path leads to.
func (p Path) Target() *actor.Actor[*Dispatcher] {
	if p.resolvers == nil {
		protocolViolation("target of an empty path")
	}
	return p.resolvers.Value
}

// Upstream is the resolver that sent a request along this path.
func (p Path) Upstream() *actor.Actor[*Dispatcher] {
	if p.resolvers.Len() < 2 {
		protocolViolation("no resolver upstream of %s", p)
	}
	_, rest := stack.Pop(p.resolvers)
	return rest.Value
}

// Root is the resolver the path starts from.
func (p Path) Root() *actor.Actor[*Dispatcher] {
	if p.root == nil {
		protocolViolation("root of an empty path")
	}
	return p.root
}

// IsRoot reports whether the path has no upstream resolver.
func (p Path) IsRoot() bool {
	return p.resolvers.Len() == 1
}

func (p Path) Len() int {
	return p.resolvers.Len()
}

// Key identifies the path by the IDs of its resolvers.
func (p Path) Key() string {
	return p.key
}

func (p Path) String() string {
	names := make([]string, 0, p.Len())
	for _, r := range p.resolvers.Values() {
		names = append(names, r.Name())
	}
	return strings.Join(names, " -> ")
}
