// Package primitive implements the atomic fuzzable unit of the message
// model: a value that renders to bytes and enumerates a finite ordered
// sequence of mutated alternatives (its fuzz library) plus a single
// default (valid) value.
//
// Rather than a deep type hierarchy, Primitive is a tagged variant over a
// fixed set of kinds (Static, String, Bytes, Uint, Group) plus one
// extension kind, Custom, which carries a capability record of
// render/mutate/reset function values for user-defined primitives.
package primitive

// Library is the ordered sequence of candidate byte values a fuzzable
// Primitive cycles through. Index 0 is the first mutation (mutant index 1
// overall, since mutant index 0 always means "default").
type Library interface {
	Len() int
	At(i int) []byte
}

// SliceLibrary is a Library backed by a precomputed slice, used for the
// static heuristic fuzz lists (boundary integers, known-bad strings, ...).
type SliceLibrary [][]byte

func (s SliceLibrary) Len() int      { return len(s) }
func (s SliceLibrary) At(i int) []byte { return s[i] }

// GeneratorLibrary is a Library whose entries are computed lazily by gen,
// used for the randomized tail appended to variable-length primitives'
// static heuristics (see RandomTail).
type GeneratorLibrary struct {
	Size int
	Gen  func(i int) []byte
}

func (g GeneratorLibrary) Len() int        { return g.Size }
func (g GeneratorLibrary) At(i int) []byte { return g.Gen(i) }

// ChainLibrary concatenates several libraries into one, in order.
type ChainLibrary []Library

func (c ChainLibrary) Len() int {
	n := 0
	for _, l := range c {
		n += l.Len()
	}
	return n
}

func (c ChainLibrary) At(i int) []byte {
	for _, l := range c {
		if i < l.Len() {
			return l.At(i)
		}
		i -= l.Len()
	}
	panic("primitive: library index out of range")
}
