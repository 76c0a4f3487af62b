package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windyware/boofuzz/internal/block"
	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/render"
)

func TestSizeBackReferenceInclusive(t *testing.T) {
	payload := primitive.NewStatic("payload", []byte("HELLO"))
	size := block.NewSize("size", "b", 2, false, false).Inclusive(true)
	b := block.NewBlock("b", size, payload)
	size.SetTarget(b)

	ctx := render.NewContext()
	out := b.Render(ctx)
	assert.Equal(t, append([]byte{0x07, 0x00}, []byte("HELLO")...), out)
}

func TestSizeBackReferenceShorterPayloadInclusive(t *testing.T) {
	payload := primitive.NewStatic("payload", []byte("HI"))
	size := block.NewSize("size", "b", 2, false, false).Inclusive(true)
	b := block.NewBlock("b", size, payload)
	size.SetTarget(b)

	ctx := render.NewContext()
	out := b.Render(ctx)
	assert.Equal(t, append([]byte{0x04, 0x00}, []byte("HI")...), out)
}

func TestSizeBackReferenceExclusive(t *testing.T) {
	payload := primitive.NewStatic("payload", []byte("HELLO"))
	size := block.NewSize("size", "b", 2, false, false)
	b := block.NewBlock("b", size, payload)
	size.SetTarget(b)

	ctx := render.NewContext()
	out := b.Render(ctx)
	assert.Equal(t, append([]byte{0x05, 0x00}, []byte("HELLO")...), out, "exclusive (default) mode counts only the payload, not the size field's own width")
}

func TestBlockGroupGating(t *testing.T) {
	tag := primitive.NewGroup("tag", []byte("A"), [][]byte{[]byte("B")})
	gated := block.NewBlock("onlyB", primitive.NewStatic("x", []byte("X"))).WithGroup(block.GroupDependency{
		Group:     tag,
		Permitted: [][]byte{[]byte("B")},
	})

	ctx := render.NewContext()
	assert.Empty(t, gated.Render(ctx), "block should contribute zero bytes while its group condition is unsatisfied")

	require.True(t, tag.Mutate())
	assert.Equal(t, []byte("X"), gated.Render(ctx))
}

func TestRepeatConcatenatesChild(t *testing.T) {
	child := block.NewBlock("unit", primitive.NewStatic("u", []byte("ab")))
	r := block.NewRepeat("rep", child, 1, []int{3})

	ctx := render.NewContext()
	assert.Equal(t, []byte("ab"), r.Render(ctx))

	require.True(t, r.Mutate())
	assert.Equal(t, []byte("ababab"), r.Render(ctx))
	assert.False(t, r.Mutate())
	assert.Equal(t, []byte("ab"), r.Render(ctx))
}

func TestChecksumSelfReference(t *testing.T) {
	payload := primitive.NewStatic("payload", []byte("data"))
	sum := block.NewChecksum("sum", "frame", block.AlgoCRC32, false)
	frame := block.NewBlock("frame", sum, payload)
	sum.SetTarget(frame)

	ctx := render.NewContext()
	out := frame.Render(ctx)
	require.Len(t, out, 8)
	assert.Equal(t, []byte("data"), out[4:])
}
