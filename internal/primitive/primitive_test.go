package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windyware/boofuzz/internal/render"
)

func TestStaticNeverMutates(t *testing.T) {
	p := NewStatic("magic", []byte("ABCD"))
	assert.False(t, p.IsFuzzable())
	assert.Equal(t, 0, p.NumMutations())
	assert.False(t, p.Mutate())
	assert.Equal(t, []byte("ABCD"), p.Render(nil))
}

func TestUintMutationCycleReturnsToDefault(t *testing.T) {
	p := NewUint("len", 2, true, 7)
	defaultRender := append([]byte(nil), p.Render(nil)...)
	n := p.NumMutations()
	require.Greater(t, n, 0)

	seen := 0
	for p.Mutate() {
		seen++
		require.NotEqual(t, defaultRender, p.Render(nil), "mutation %d should differ from default", seen)
	}
	assert.Equal(t, n, seen, "mutate() should yield exactly NumMutations() true results")
	assert.Equal(t, 0, p.MutantIndex())
	assert.Equal(t, defaultRender, p.Render(nil), "exhausting the library must restore the default render")
}

func TestGroupCurrentValueDrivesGating(t *testing.T) {
	g := NewGroup("tag", []byte("A"), [][]byte{[]byte("B"), []byte("C")})
	assert.Equal(t, []byte("A"), g.CurrentValue())
	require.True(t, g.Mutate())
	assert.Equal(t, []byte("B"), g.CurrentValue())
}

func TestCustomCapabilityOverridesRender(t *testing.T) {
	var rendered int
	p := NewCustom("cb", Capability{
		Fuzzable: false,
		RenderFunc: func(ctx *render.Context, p *Primitive) []byte {
			rendered++
			return []byte("x")
		},
	})
	assert.Equal(t, []byte("x"), p.Render(nil))
	assert.Equal(t, 1, rendered)
	assert.Equal(t, 0, p.NumMutations())
}

func TestPreElementRendersFromContext(t *testing.T) {
	ctx := render.NewContext()
	ctx.Set("session_id", "42")
	p := NewPreElement("sid", "session_id", nil)
	assert.Equal(t, []byte("session_id:42\n"), p.Render(ctx))
}

func TestCallBackInvokesOnResponse(t *testing.T) {
	var got []byte
	p := NewCallBack("seed", func(ctx *render.Context, received []byte) {
		got = received
	})
	assert.Empty(t, p.Render(nil))
	p.OnResponse(nil, []byte("hello"))
	assert.Equal(t, []byte("hello"), got)
}
