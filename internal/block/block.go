package block

import "github.com/windyware/boofuzz/internal/render"

// Encoder wraps a block's concatenated child bytes, e.g. compression or
// escape-encoding.
type Encoder func([]byte) []byte

// GroupDependency gates a Block on a sibling Group primitive's current
// value: the block renders only when the group's current value is one of
// Permitted.
type GroupDependency struct {
	Group     groupPrimitive
	Permitted [][]byte
}

// groupPrimitive is the minimal surface Block needs from a Group
// primitive, avoiding an import of package primitive (which never needs
// to know about blocks).
type groupPrimitive interface {
	CurrentValue() []byte
}

// Block is a named, ordered container of child primitives/blocks.
type Block struct {
	name     string
	children []Node
	group    *GroupDependency
	encoder  Encoder
}

// NewBlock builds a Block named name with the given ordered children.
func NewBlock(name string, children ...Node) *Block {
	return &Block{name: name, children: children}
}

// WithGroup attaches a group dependency, returning the receiver for
// chaining at construction time.
func (b *Block) WithGroup(dep GroupDependency) *Block {
	b.group = &dep
	return b
}

// WithEncoder attaches an encoder applied to the concatenated child
// bytes.
func (b *Block) WithEncoder(enc Encoder) *Block {
	b.encoder = enc
	return b
}

func (b *Block) Name() string     { return b.name }
func (b *Block) Children() []Node { return b.children }

// enabled reports whether this block's group gate (if any) currently
// permits rendering.
func (b *Block) enabled() bool {
	if b.group == nil {
		return true
	}
	cur := b.group.Group.CurrentValue()
	for _, v := range b.group.Permitted {
		if bytesEqual(cur, v) {
			return true
		}
	}
	return false
}

// NumMutations is the sum of all descendants' mutation counts. A Block
// never contributes mutations of its own.
func (b *Block) NumMutations() int {
	total := 0
	for _, c := range b.children {
		total += c.NumMutations()
	}
	return total
}

type pendingSelfRef struct {
	offset, length int
	ref            selfRef
}

// Render concatenates the enabled children's rendered bytes left to
// right, resolving any self-referencing Size/Checksum child via a
// two-phase placeholder pass, then applies the encoder if one is set.
// A block whose group condition is unsatisfied renders to
// nil, contributing zero bytes (and therefore zero to any length or
// checksum computed over it).
func (b *Block) Render(ctx *render.Context) []byte {
	if !b.enabled() {
		return nil
	}

	var buf []byte
	var pendings []pendingSelfRef

	for _, child := range b.children {
		if sr, ok := child.(selfRef); ok && sr.TargetName() == b.name {
			off := len(buf)
			n := sr.PlaceholderLen()
			buf = append(buf, make([]byte, n)...)
			pendings = append(pendings, pendingSelfRef{offset: off, length: n, ref: sr})
			continue
		}
		buf = append(buf, child.Render(ctx)...)
	}

	for _, p := range pendings {
		val := p.ref.ValueGiven(ctx, buf)
		copy(buf[p.offset:p.offset+p.length], val)
	}

	if b.encoder != nil {
		buf = b.encoder(buf)
	}
	return buf
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
