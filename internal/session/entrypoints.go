package session

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/windyware/boofuzz/internal/graph"
)

// FuzzByName is a thin delegate to FuzzSingleNodeByPath: name is split on
// "->" into the same root-relative path FuzzSingleNodeByPath resolves.
func (s *Session) FuzzByName(ctx context.Context, name string) error {
	return s.FuzzSingleNodeByPath(ctx, name)
}

// FuzzSingleCase fast-forwards the full traversal to the index-th case
// and executes only that one. O(total mutations): there is no indexed
// shortcut into the traversal.
func (s *Session) FuzzSingleCase(ctx context.Context, index int) error {
	if len(s.targets) == 0 {
		return ErrNoTargets
	}
	if len(s.graph.EdgesFrom(graph.RootID)) == 0 {
		return ErrNoRequests
	}
	if err := s.bindTargets(ctx); err != nil {
		return err
	}

	s.totalMutations = s.NumMutations()

	n := 0
	for c := range traverse(s.graph) {
		n++
		if n == index {
			s.mu.Lock()
			s.globalIndex = index - 1
			s.mu.Unlock()
			return s.step(ctx, c)
		}
	}
	return errors.Errorf("session: case index %d exceeds total mutations %d", index, n)
}

// FuzzSingleNodeByPath resolves nodeNames (root-relative request names,
// "->"-separated) to a unique edge sequence and fuzzes every mutation of
// its final destination along exactly that path. The mutate/step pair
// below runs synchronously in the caller's goroutine: dst.Mutate() is
// never called again until the previous case's step has returned.
func (s *Session) FuzzSingleNodeByPath(ctx context.Context, path string) error {
	if len(s.targets) == 0 {
		return ErrNoTargets
	}

	names := strings.Split(path, "->")
	edges, err := s.resolvePath(names)
	if err != nil {
		return err
	}
	if err := s.bindTargets(ctx); err != nil {
		return err
	}

	s.totalMutations = s.NumMutations()
	s.Import(ctx)

	dst := s.graph.Node(edges[len(edges)-1].Dst)
	if dst == nil {
		return errors.Errorf("session: path %q resolves to no node", path)
	}

	for dst.Mutate() {
		if ctx.Err() != nil {
			_ = s.Export()
			return ctx.Err()
		}
		if err := s.step(ctx, Case{Path: edges}); err != nil {
			return err
		}
	}
	return nil
}

// resolvePath walks the graph from root matching each name in names to
// exactly one outbound edge's destination, failing if any step is
// ambiguous (more than one matching edge) or unresolved.
func (s *Session) resolvePath(names []string) ([]*graph.Connection, error) {
	var edges []*graph.Connection
	node := graph.RootID
	for _, name := range names {
		var match *graph.Connection
		for _, e := range s.graph.EdgesFrom(node) {
			dst := s.graph.Node(e.Dst)
			if dst == nil || dst.Name() != name {
				continue
			}
			if match != nil {
				return nil, ErrAmbiguousPath
			}
			match = e
		}
		if match == nil {
			return nil, errors.Wrapf(ErrAmbiguousPath, "no edge named %q", name)
		}
		edges = append(edges, match)
		node = match.Dst
	}
	if len(edges) == 0 {
		return nil, ErrAmbiguousPath
	}
	return edges, nil
}
