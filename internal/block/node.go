// Package block implements the compound primitives of the message model:
// Block (an ordered, optionally group-gated and encoded container), Size
// and Checksum (named forward references to a target block's rendered
// bytes), and Repeat (renders a wrapped block k times).
//
// Every compound primitive composes over the same small set of
// interfaces so that Request's mutation cursor (package request) can walk
// an arbitrary tree of primitives and blocks uniformly.
package block

import (
	"github.com/windyware/boofuzz/internal/render"
)

// Node is anything in the message tree that renders to bytes and reports
// the total number of mutations reachable in its own subtree (itself plus
// every descendant). Primitive, Block, Size, Checksum and Repeat all
// implement Node.
type Node interface {
	Name() string
	Render(ctx *render.Context) []byte
	NumMutations() int
}

// Mutant is a Node that is itself a single mutation-cursor stop: calling
// Mutate repeatedly walks through its own library (if fuzzable) and
// leaves it at default otherwise. Primitive, Size, Checksum and Repeat
// implement Mutant; Block does not (only its Mutant descendants are
// cursor stops — see collectMutants in package request).
type Mutant interface {
	Node
	IsFuzzable() bool
	Mutate() bool
	Reset()
	MutantIndex() int
}

// Container is a Node that owns child Nodes a tree walk must recurse
// into. Block and Repeat implement Container.
type Container interface {
	Node
	Children() []Node
}

// selfRef is implemented by Size and Checksum so that Block.Render can
// detect and specially handle a reference back to the very block doing
// the rendering via a two-phase placeholder pass.
type selfRef interface {
	Node
	TargetName() string
	PlaceholderLen() int
	ValueGiven(ctx *render.Context, assembled []byte) []byte
}
