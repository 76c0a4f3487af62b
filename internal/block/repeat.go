package block

import "github.com/windyware/boofuzz/internal/render"

// Repeat wraps a child Block and renders it k times, concatenated. k
// defaults to 1 (rendered once) and, when fuzzable, cycles through a
// configured set of alternate repeat counts.
type Repeat struct {
	name     string
	child    *Block
	kDefault int
	kValues  []int

	mutantIndex int
	fuzzable    bool
}

// NewRepeat builds a Repeat named name wrapping child, defaulting to
// kDefault repetitions (1 if kDefault <= 0). kValues, if non-empty, is
// the set of alternate repeat counts exercised during mutation.
func NewRepeat(name string, child *Block, kDefault int, kValues []int) *Repeat {
	if kDefault <= 0 {
		kDefault = 1
	}
	return &Repeat{
		name:     name,
		child:    child,
		kDefault: kDefault,
		kValues:  kValues,
		fuzzable: len(kValues) > 0,
	}
}

func (r *Repeat) Name() string     { return r.name }
func (r *Repeat) Children() []Node { return []Node{r.child} }

func (r *Repeat) currentK() int {
	if r.mutantIndex == 0 {
		return r.kDefault
	}
	return r.kValues[r.mutantIndex-1]
}

// NumMutations is this Repeat's own k-variation count plus every mutation
// reachable within the wrapped child.
func (r *Repeat) NumMutations() int {
	own := 0
	if r.fuzzable {
		own = len(r.kValues)
	}
	return own + r.child.NumMutations()
}

func (r *Repeat) IsFuzzable() bool { return r.fuzzable }
func (r *Repeat) MutantIndex() int { return r.mutantIndex }

func (r *Repeat) Mutate() bool {
	if !r.fuzzable {
		return false
	}
	n := len(r.kValues)
	if r.mutantIndex >= n {
		r.Reset()
		return false
	}
	r.mutantIndex++
	return true
}

func (r *Repeat) Reset() { r.mutantIndex = 0 }

// Render renders the wrapped block once and concatenates it currentK()
// times.
func (r *Repeat) Render(ctx *render.Context) []byte {
	unit := r.child.Render(ctx)
	k := r.currentK()
	if k <= 0 {
		return nil
	}
	out := make([]byte, 0, len(unit)*k)
	for i := 0; i < k; i++ {
		out = append(out, unit...)
	}
	return out
}
