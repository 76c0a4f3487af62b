// Package graph implements the directed multigraph of Requests that
// describes protocol dialogs: a distinguished root node (id 0, never
// itself fuzzed) and edges (Connections) carrying only ids, never
// owning references, so the traversal stack can carry edges instead of
// nodes without creating ownership cycles across the multigraph.
package graph

import (
	"fmt"

	"github.com/windyware/boofuzz/internal/request"
)

// RootID is the sentinel id of the graph's root node. It is never itself
// fuzzed.
const RootID = 0

// Connection is a directed edge from a predecessor request to a
// successor, optionally carrying a transition callback that may
// substitute the rendered bytes of the destination before it is
// transmitted.
type Connection struct {
	Src, Dst int
	Callback TransitionFunc
}

// TransitionFunc is invoked before transmitting the destination request
// of an edge. It may return substitute bytes (e.g. incorporating data
// received from the previous response); a nil return means "render the
// node normally."
type TransitionFunc func(lastRecv []byte) []byte

// Graph is a mapping from id to Request, with edges stored as an
// adjacency list keyed by source id, in insertion order.
type Graph struct {
	nodes       map[int]*request.Request
	edgesFrom   map[int][]*Connection
	nextID      int
}

// New builds an empty Graph containing only the root sentinel.
func New() *Graph {
	return &Graph{
		nodes:     map[int]*request.Request{RootID: nil},
		edgesFrom: map[int][]*Connection{},
		nextID:    1,
	}
}

// AddNode inserts req into the graph, assigning it a dense id, and
// returns that id.
func (g *Graph) AddNode(req *request.Request) int {
	id := g.nextID
	g.nextID++
	req.SetID(id)
	g.nodes[id] = req
	return id
}

// Node returns the request with the given id, or nil if none (including
// for RootID, which has no payload).
func (g *Graph) Node(id int) *request.Request { return g.nodes[id] }

// Connect adds an edge from src to dst (both ids), optionally carrying a
// transition callback, and returns the new Connection.
func (g *Graph) Connect(src, dst int, cb TransitionFunc) (*Connection, error) {
	if src != RootID {
		if _, ok := g.nodes[src]; !ok {
			return nil, fmt.Errorf("graph: unknown source node %d", src)
		}
	}
	if _, ok := g.nodes[dst]; !ok {
		return nil, fmt.Errorf("graph: unknown destination node %d", dst)
	}
	conn := &Connection{Src: src, Dst: dst, Callback: cb}
	if wouldCreateCycle(g, src, dst) {
		return nil, fmt.Errorf("graph: edge %d->%d would create a cycle reachable from root", src, dst)
	}
	g.edgesFrom[src] = append(g.edgesFrom[src], conn)
	return conn, nil
}

// EdgesFrom returns the outbound edges of id, in insertion order.
func (g *Graph) EdgesFrom(id int) []*Connection { return g.edgesFrom[id] }

// wouldCreateCycle reports whether adding src->dst would make dst (or any
// node reachable from dst) reachable from itself, which the graph
// rejects outright at connection time.
func wouldCreateCycle(g *Graph, src, dst int) bool {
	if src == dst {
		return true
	}
	visited := map[int]bool{}
	var reaches func(from, target int) bool
	reaches = func(from, target int) bool {
		if from == target {
			return true
		}
		if visited[from] {
			return false
		}
		visited[from] = true
		for _, e := range g.edgesFrom[from] {
			if reaches(e.Dst, target) {
				return true
			}
		}
		return false
	}
	// A new edge src->dst creates a cycle iff dst can already reach src.
	return reaches(dst, src)
}
