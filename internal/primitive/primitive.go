package primitive

import (
	"github.com/windyware/boofuzz/internal/render"
)

// Kind tags the finite set of primitive variants.
type Kind int

const (
	KindStatic Kind = iota
	KindString
	KindBytes
	KindUint
	KindGroup
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindUint:
		return "uint"
	case KindGroup:
		return "group"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Capability is a record of function values that let a Custom primitive
// override rendering, mutation and reset without a new concrete Go
// type. Any nil function falls back to the default library-driven
// behavior.
type Capability struct {
	// Fuzzable mirrors the fuzzable flag; when false NumMutations is 0 and
	// Render still runs (used by CallBack/PreElement, which render but are
	// never mutated).
	Fuzzable bool

	RenderFunc       func(ctx *render.Context, p *Primitive) []byte
	MutateFunc       func() bool
	ResetFunc        func()
	NumMutationsFunc func() int
	// ForceExhaustFunc, if set, overrides ForceExhaust's default
	// mutantIndex bookkeeping, needed for any Custom primitive whose
	// MutateFunc/ResetFunc track state outside mutantIndex.
	ForceExhaustFunc func() int

	// OnResponse, if set, is invoked by the session after the containing
	// node's response has been received, with the raw response bytes. This
	// is the "callback primitive" hook, seeding the keyed store from
	// incoming responses, distinct from a Block/Request-level response
	// callback, which is attached to the node, not a primitive.
	OnResponse func(ctx *render.Context, received []byte)
}

// Primitive is the atomic fuzzable value: a tagged variant over Kind plus
// whatever kind-specific state it needs (integer width/endianness, the
// set of permitted group values, or a Capability record for Custom).
type Primitive struct {
	kind     Kind
	name     string
	fuzzable bool

	defaultValue []byte
	library      Library
	mutantIndex  int // 0 == default; 1..N == library[mutantIndex-1]

	// KindUint
	width     int
	bigEndian bool

	custom *Capability
}

// Name returns the primitive's symbolic name, if any.
func (p *Primitive) Name() string { return p.name }

// Kind reports which variant this primitive is.
func (p *Primitive) Kind() Kind { return p.kind }

// IsFuzzable reports whether this primitive contributes mutations. A
// primitive whose fuzzable flag is false contributes zero mutations even
// if a library was attached.
func (p *Primitive) IsFuzzable() bool { return p.fuzzable }

// OriginalValue returns the pristine default rendering, regardless of
// current mutation state.
func (p *Primitive) OriginalValue() []byte { return p.defaultValue }

// MutantIndex returns the current position in the library: 0 means the
// primitive is at its default value.
func (p *Primitive) MutantIndex() int { return p.mutantIndex }

// NumMutations returns the size of the fuzz library when fuzzable, else 0.
func (p *Primitive) NumMutations() int {
	if p.custom != nil && p.custom.NumMutationsFunc != nil {
		return p.custom.NumMutationsFunc()
	}
	if !p.fuzzable || p.library == nil {
		return 0
	}
	return p.library.Len()
}

// Mutate advances to the next mutation. It returns true if a new mutation
// state was produced; when the library is exhausted it resets to the
// default (index 0) and returns false.
func (p *Primitive) Mutate() bool {
	if p.custom != nil && p.custom.MutateFunc != nil {
		return p.custom.MutateFunc()
	}
	n := p.NumMutations()
	if n == 0 {
		return false
	}
	if p.mutantIndex >= n {
		p.Reset()
		return false
	}
	p.mutantIndex++
	return true
}

// Reset restores the primitive to its default value (mutant index 0).
func (p *Primitive) Reset() {
	if p.custom != nil && p.custom.ResetFunc != nil {
		p.custom.ResetFunc()
		return
	}
	p.mutantIndex = 0
}

// CurrentValue returns the bytes of the current mutation state (default if
// mutantIndex == 0). Group primitives use this directly to decide which
// sibling blocks are enabled; it is also the default Render implementation.
func (p *Primitive) CurrentValue() []byte {
	if p.mutantIndex == 0 || p.library == nil {
		return p.defaultValue
	}
	return p.library.At(p.mutantIndex - 1)
}

// Render returns the current rendered form. Custom primitives with a
// RenderFunc delegate entirely; everything else renders its current
// library value as-is (compound rendering — consulting siblings — is the
// job of the block package, which composes Primitives).
func (p *Primitive) Render(ctx *render.Context) []byte {
	if p.custom != nil && p.custom.RenderFunc != nil {
		return p.custom.RenderFunc(ctx, p)
	}
	return p.CurrentValue()
}

// ForceExhaust jumps the mutation index straight to exhausted, so the
// next Mutate() call resets to default and returns false. It reports how
// many remaining mutations were skipped, letting a crash-threshold
// exhaustion policy fast-forward past a confirmed-crashing mutant.
func (p *Primitive) ForceExhaust() int {
	if p.custom != nil && p.custom.ForceExhaustFunc != nil {
		return p.custom.ForceExhaustFunc()
	}
	n := p.NumMutations()
	skipped := n - p.mutantIndex
	p.mutantIndex = n
	return skipped
}

// OnResponse invokes the primitive's response hook, if any (CallBack
// primitives; see Capability.OnResponse).
func (p *Primitive) OnResponse(ctx *render.Context, received []byte) {
	if p.custom != nil && p.custom.OnResponse != nil {
		p.custom.OnResponse(ctx, received)
	}
}

// NewStatic builds a non-fuzzable constant primitive: it always renders
// value and contributes zero mutations.
func NewStatic(name string, value []byte) *Primitive {
	return &Primitive{
		kind:         KindStatic,
		name:         name,
		fuzzable:     false,
		defaultValue: value,
	}
}

// NewCustom builds a Custom primitive driven entirely by cap.
func NewCustom(name string, cap Capability) *Primitive {
	return &Primitive{
		kind:     KindCustom,
		name:     name,
		fuzzable: cap.Fuzzable,
		custom:   &cap,
	}
}
