package request_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windyware/boofuzz/internal/block"
	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/render"
	"github.com/windyware/boofuzz/internal/request"
)

// TestTrivialSingleNodeTwoMutations checks that a one-primitive request
// with a two-entry library yields exactly two mutation states, rendering
// the library's 0x00 then 0xFF, then rewinds to the default render.
func TestTrivialSingleNodeTwoMutations(t *testing.T) {
	lib := primitive.SliceLibrary{{0x00}, {0xFF}}

	// The public Uint constructor pulls in the full boundary-value set, so
	// build this scenario with a Custom primitive carrying an explicit
	// two-entry library instead, matching the scenario's literal
	// [0x00, 0xFF].
	idx := 0
	custom := primitive.NewCustom("flag", primitive.Capability{
		Fuzzable:         true,
		NumMutationsFunc: func() int { return lib.Len() },
		RenderFunc: func(ctx *render.Context, pr *primitive.Primitive) []byte {
			if idx == 0 {
				return []byte{0x00}
			}
			return lib.At(idx - 1)
		},
		MutateFunc: func() bool {
			if idx >= lib.Len() {
				idx = 0
				return false
			}
			idx++
			return true
		},
		ResetFunc: func() { idx = 0 },
	})

	root := block.NewBlock("root", custom)
	req, err := request.New("req", root)
	require.NoError(t, err)

	ctx := render.NewContext()
	var renders [][]byte
	count := 0
	for req.Mutate() {
		count++
		renders = append(renders, append([]byte(nil), req.Render(ctx)...))
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, []byte{0x00}, renders[0])
	assert.Equal(t, []byte{0xFF}, renders[1])
	assert.Equal(t, []byte{0x00}, req.Render(ctx), "cursor must rewind to the default render")
}

func TestUnresolvedSizeReferenceFailsConstruction(t *testing.T) {
	size := block.NewSize("size", "missing", 2, false, false)
	root := block.NewBlock("root", size)
	_, err := request.New("req", root)
	require.Error(t, err)
}

func TestNumMutationsSumsDescendants(t *testing.T) {
	a := primitive.NewUint("a", 1, true, 0)
	b := primitive.NewUint("b", 2, true, 0)
	root := block.NewBlock("root", a, b)
	req, err := request.New("req", root)
	require.NoError(t, err)
	assert.Equal(t, a.NumMutations()+b.NumMutations(), req.NumMutations())
}
