package session

import (
	"strconv"
	"strings"

	"github.com/windyware/boofuzz/internal/graph"
)

// caseName composes the human-readable name of a test case:
// edge1.dst->edge2.dst->...->fuzz_node.mutant_name.mutant_index.
func caseName(g *graph.Graph, path []*graph.Connection) string {
	parts := make([]string, 0, len(path))
	for _, e := range path {
		if n := g.Node(e.Dst); n != nil {
			parts = append(parts, n.Name())
		}
	}

	mutantName, mutantIndex := "default", 0
	if len(path) > 0 {
		if fuzzNode := g.Node(path[len(path)-1].Dst); fuzzNode != nil {
			if m := fuzzNode.CurrentMutant(); m != nil {
				mutantName, mutantIndex = m.Name(), m.MutantIndex()
			}
		}
	}

	return strings.Join(parts, "->") + "." + mutantName + "." + strconv.Itoa(mutantIndex)
}
