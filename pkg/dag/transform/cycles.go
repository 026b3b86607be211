package transform

import (
	"maps"
	"slices"

	"github.com/matzehuels/modmap/pkg/dag"
)

// FindBackEdges returns the edges that close a cycle when the graph is
// walked depth-first from its nodes in sorted order. The graph is not
// modified: prerequisite data is reported, never repaired.
//
// An acyclic graph yields no edges. A self-loop is reported as an edge from
// the node to itself.
func FindBackEdges(g *dag.DAG) []dag.Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var back []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, dag.Edge{From: node, To: child})
			}
		}
		color[node] = black
	}

	for _, id := range dag.NodeIDs(g.Nodes()) {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

// CycleMembers returns the sorted set of nodes lying on some cycle, found as
// the nodes of every back edge's closing path. It is meant for diagnostics.
func CycleMembers(g *dag.DAG) []string {
	members := make(map[string]struct{})
	for _, e := range FindBackEdges(g) {
		// e.To reaches e.From along tree edges; every node that both
		// descends from e.To and reaches e.From is on the cycle.
		down := descendants(g, e.To)
		for id := range g.Ancestors(e.From) {
			if _, ok := down[id]; ok {
				members[id] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(members))
}

func descendants(g *dag.DAG, root string) map[string]struct{} {
	seen := map[string]struct{}{root: {}}
	work := []string{root}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		for _, c := range g.Children(id) {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				work = append(work, c)
			}
		}
	}
	return seen
}
