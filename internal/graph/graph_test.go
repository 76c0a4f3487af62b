package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windyware/boofuzz/internal/block"
	"github.com/windyware/boofuzz/internal/graph"
	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/request"
)

func newReq(t *testing.T, name string) *request.Request {
	t.Helper()
	r, err := request.New(name, block.NewBlock(name, primitive.NewStatic("x", []byte("x"))))
	require.NoError(t, err)
	return r
}

func TestAddNodeAssignsDenseIDs(t *testing.T) {
	g := graph.New()
	a := g.AddNode(newReq(t, "a"))
	b := g.AddNode(newReq(t, "b"))
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestConnectRejectsCycles(t *testing.T) {
	g := graph.New()
	a := g.AddNode(newReq(t, "a"))
	b := g.AddNode(newReq(t, "b"))

	_, err := g.Connect(graph.RootID, a, nil)
	require.NoError(t, err)
	_, err = g.Connect(a, b, nil)
	require.NoError(t, err)

	_, err = g.Connect(b, a, nil)
	assert.Error(t, err, "b->a would close a cycle through a->b")
}

func TestConnectRejectsSelfLoop(t *testing.T) {
	g := graph.New()
	a := g.AddNode(newReq(t, "a"))
	_, err := g.Connect(a, a, nil)
	assert.Error(t, err)
}

func TestEdgesFromPreservesInsertionOrder(t *testing.T) {
	g := graph.New()
	a := g.AddNode(newReq(t, "a"))
	b := g.AddNode(newReq(t, "b"))
	c := g.AddNode(newReq(t, "c"))

	_, _ = g.Connect(graph.RootID, b, nil)
	_, _ = g.Connect(graph.RootID, a, nil)
	_, _ = g.Connect(graph.RootID, c, nil)

	edges := g.EdgesFrom(graph.RootID)
	require.Len(t, edges, 3)
	assert.Equal(t, []int{b, a, c}, []int{edges[0].Dst, edges[1].Dst, edges[2].Dst})
}
