package session

import (
	"iter"

	"github.com/windyware/boofuzz/internal/graph"
)

// Case is one yield of the traversal: the path of edges from the root to
// the fuzz node (the last edge's destination, currently mid-mutation),
// with every earlier edge a prep node still at its default rendering.
type Case struct {
	Path []*graph.Connection
}

// traverse implements the depth-first walk as a pull-based iter.Seq: for
// each outbound edge in insertion order, push it onto the path, exhaust
// every mutation of its destination (yielding once per mutation), then
// recurse into that destination before popping. Because range-over-func
// iteration runs the loop body synchronously inside the call to yield,
// the walk never advances past a yielded Case — and never calls
// dst.Mutate() again — until the consumer's loop body (executeCase, by
// way of Session.step) has returned. That makes the mutation cursor
// single-threaded end to end: there is no producer goroutine racing the
// consumer over the shared *request.Request/*block.Block tree.
func traverse(g *graph.Graph) iter.Seq[Case] {
	return func(yield func(Case) bool) {
		var path []*graph.Connection

		var walk func(nodeID int) bool
		walk = func(nodeID int) bool {
			for _, edge := range g.EdgesFrom(nodeID) {
				path = append(path, edge)

				if dst := g.Node(edge.Dst); dst != nil {
					for dst.Mutate() {
						snapshot := make([]*graph.Connection, len(path))
						copy(snapshot, path)
						if !yield(Case{Path: snapshot}) {
							path = path[:len(path)-1]
							return false
						}
					}
				}

				if !walk(edge.Dst) {
					path = path[:len(path)-1]
					return false
				}
				path = path[:len(path)-1]
			}
			return true
		}

		walk(graph.RootID)
	}
}
