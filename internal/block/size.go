package block

import (
	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/render"
)

// Size references a target Block by name and renders the length of that
// block's rendered bytes in a configured width and endianness. It may be
// inert (always the true length) or fuzzed (cycling through a
// boundary-integer library: zero, one, half of max, max-1, max and
// max+1; unlike a Uint primitive's library it has no wider-width value).
type Size struct {
	name       string
	targetName string
	target     *Block
	width      int
	bigEndian  bool
	inclusive  bool // whether the size field counts its own width

	lib         primitive.Library
	mutantIndex int
	fuzzable    bool
}

// NewSize builds a Size primitive named name, referencing the block
// targetName, emitting its length as a width-byte (1/2/4/8) integer in
// the given endianness. When fuzzable, it cycles through its integer
// boundary library instead of the true length.
func NewSize(name, targetName string, width int, bigEndian, fuzzable bool) *Size {
	s := &Size{
		name:       name,
		targetName: targetName,
		width:      width,
		bigEndian:  bigEndian,
		fuzzable:   fuzzable,
	}
	if fuzzable {
		bounds := boundaryLibraryFor(width, bigEndian)
		s.lib = bounds
	}
	return s
}

// Inclusive marks the size as counting its own encoded width as part of
// the length it reports (exclusive/default counts only the referenced
// block's other bytes).
func (s *Size) Inclusive(v bool) *Size {
	s.inclusive = v
	return s
}

// SetTarget binds the resolved target block. Called once by the request
// package's name-resolution pass at construction time.
func (s *Size) SetTarget(b *Block) { s.target = b }

func (s *Size) Name() string         { return s.name }
func (s *Size) TargetName() string   { return s.targetName }
func (s *Size) PlaceholderLen() int  { return s.width }
func (s *Size) IsFuzzable() bool     { return s.fuzzable }
func (s *Size) MutantIndex() int     { return s.mutantIndex }

func (s *Size) NumMutations() int {
	if !s.fuzzable || s.lib == nil {
		return 0
	}
	return s.lib.Len()
}

func (s *Size) Mutate() bool {
	n := s.NumMutations()
	if n == 0 {
		return false
	}
	if s.mutantIndex >= n {
		s.Reset()
		return false
	}
	s.mutantIndex++
	return true
}

func (s *Size) Reset() { s.mutantIndex = 0 }

// ForceExhaust jumps straight to exhausted (see primitive.Primitive's
// method of the same name).
func (s *Size) ForceExhaust() int {
	n := s.NumMutations()
	skipped := n - s.mutantIndex
	s.mutantIndex = n
	return skipped
}

func (s *Size) isInert() bool { return s.mutantIndex == 0 }

// ValueGiven computes the size's rendered bytes given the already-
// assembled bytes of its own enclosing block (used only on the
// self-referencing path; see Block.Render).
func (s *Size) ValueGiven(ctx *render.Context, assembled []byte) []byte {
	if !s.isInert() {
		return s.lib.At(s.mutantIndex - 1)
	}
	n := len(assembled)
	if !s.inclusive {
		// assembled already includes this Size's own placeholder slot;
		// exclusive mode reports only the rest of the block.
		n -= s.width
	}
	return primitive.EncodeUint(s.width, s.bigEndian, uint64(n))
}

// Render renders this Size where the target is a different block than
// the one containing it (the common sibling-reference case).
func (s *Size) Render(ctx *render.Context) []byte {
	if !s.isInert() {
		return s.lib.At(s.mutantIndex - 1)
	}
	if s.target == nil {
		return make([]byte, s.width)
	}
	n := len(s.target.Render(ctx))
	if s.inclusive {
		n += s.width
	}
	return primitive.EncodeUint(s.width, s.bigEndian, uint64(n))
}

func boundaryLibraryFor(width int, bigEndian bool) primitive.SliceLibrary {
	max := uint64(1)<<uint(width*8) - 1
	vals := []uint64{0, 1, max / 2, max - 1, max, max + 1}
	lib := make(primitive.SliceLibrary, len(vals))
	for i, v := range vals {
		lib[i] = primitive.EncodeUint(width, bigEndian, v)
	}
	return lib
}
