// Package request implements the Request type: a root message — an
// ordered tree of primitives and blocks with a symbolic name — and its
// mutation cursor, which walks through every mutation of every fuzzable
// descendant in a deterministic order.
package request

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/windyware/boofuzz/internal/block"
	"github.com/windyware/boofuzz/internal/render"
)

// targetNamer is implemented by Size/Checksum so Resolve can find and
// bind their forward references without package request needing to know
// their concrete types.
type targetNamer interface {
	TargetName() string
	SetTarget(*block.Block)
}

// Request is a root Block serving as a graph node's payload. It owns the
// ordered list of fuzzable descendants collected at construction and a
// cursor into that list identifying the current mutant.
type Request struct {
	name string
	root *block.Block

	mutants []block.Mutant // fuzzable descendants, tree order
	cursor  int            // index into mutants of the current mutant; len(mutants) means "exhausted / all-default"

	id int // assigned when inserted into the graph; 0 until then
}

// New builds a Request named name wrapping root. It resolves every
// Size/Checksum forward reference within the tree to a direct block
// pointer once, at construction time, failing fast if a reference
// cannot be resolved.
func New(name string, root *block.Block) (*Request, error) {
	blocksByName := collectBlocks(root)
	if err := resolveReferences(root, blocksByName); err != nil {
		return nil, errors.Wrapf(err, "request %q", name)
	}

	r := &Request{
		name:    name,
		root:    root,
		mutants: collectMutants(root),
	}
	return r, nil
}

// Name returns the request's symbolic name.
func (r *Request) Name() string { return r.name }

// ID returns the request's graph-assigned id (0 until inserted).
func (r *Request) ID() int { return r.id }

// SetID is called once by the graph on insertion.
func (r *Request) SetID(id int) { r.id = id }

// NumMutations is the sum over every fuzzable descendant of its library
// size.
func (r *Request) NumMutations() int { return r.root.NumMutations() }

// CurrentMutant returns the descendant currently being mutated, or nil if
// the request is in its all-default state.
func (r *Request) CurrentMutant() block.Mutant {
	if r.cursor < 0 || r.cursor >= len(r.mutants) {
		return nil
	}
	return r.mutants[r.cursor]
}

// Mutate advances the current mutant; if it's exhausted (and has been
// reset to default), advance the cursor to the next fuzzable descendant
// and retry; return false (cursor rewound) once every descendant has
// been exhausted.
func (r *Request) Mutate() bool {
	for r.cursor < len(r.mutants) {
		m := r.mutants[r.cursor]
		if m.Mutate() {
			return true
		}
		r.cursor++
	}
	r.cursor = 0
	return false
}

// Reset returns every descendant to its default value and rewinds the
// cursor.
func (r *Request) Reset() {
	for _, m := range r.mutants {
		m.Reset()
	}
	r.cursor = 0
}

// Render walks the tree applying the block package's compound rendering
// rules, resolving self-referencing Size/Checksum fields in a second pass.
func (r *Request) Render(ctx *render.Context) []byte {
	return r.root.Render(ctx)
}

// Root exposes the underlying block tree, e.g. for response-callback
// dispatch across every CallBack primitive in the tree.
func (r *Request) Root() *block.Block { return r.root }

// onResponder is implemented by primitives carrying a response hook
// (primitive.Capability.OnResponse, the "callback primitive" extension),
// detected structurally so package request never imports package
// primitive.
type onResponder interface {
	OnResponse(ctx *render.Context, received []byte)
}

// DispatchResponse invokes every descendant's response hook (if any)
// with the bytes just received after transmitting this request, so a
// callback primitive can seed the render.Context's keyed store for a
// later pre-element lookup.
func (r *Request) DispatchResponse(ctx *render.Context, received []byte) {
	var walk func(n block.Node)
	walk = func(n block.Node) {
		if or, ok := n.(onResponder); ok {
			or.OnResponse(ctx, received)
		}
		if c, ok := n.(block.Container); ok {
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	walk(r.root)
}

func collectBlocks(n block.Node) map[string]*block.Block {
	out := map[string]*block.Block{}
	var walk func(n block.Node)
	walk = func(n block.Node) {
		if b, ok := n.(*block.Block); ok {
			out[b.Name()] = b
		}
		if c, ok := n.(block.Container); ok {
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	walk(n)
	return out
}

func resolveReferences(n block.Node, byName map[string]*block.Block) error {
	var firstErr error
	var walk func(n block.Node)
	walk = func(n block.Node) {
		if tn, ok := n.(targetNamer); ok {
			target, found := byName[tn.TargetName()]
			if !found && firstErr == nil {
				firstErr = fmt.Errorf("unresolved block reference %q from %q", tn.TargetName(), nodeName(n))
			}
			if found {
				tn.SetTarget(target)
			}
		}
		if c, ok := n.(block.Container); ok {
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	walk(n)
	return firstErr
}

func nodeName(n block.Node) string { return n.Name() }

// collectMutants performs a pre-order walk collecting fuzzable Mutants: a
// Container's own Mutant entry (if it is one, e.g. Repeat) is collected before recursing into
// its children, matching construction-time tree order.
func collectMutants(n block.Node) []block.Mutant {
	var out []block.Mutant
	var walk func(n block.Node)
	walk = func(n block.Node) {
		if m, ok := n.(block.Mutant); ok && m.IsFuzzable() {
			out = append(out, m)
		}
		if c, ok := n.(block.Container); ok {
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	walk(n)
	return out
}
