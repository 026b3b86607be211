package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/modmap/pkg/dag"
)

// CycleError reports the nodes that could not be ordered because they sit
// on (or behind) a cycle. It wraps [dag.ErrGraphHasCycle].
type CycleError struct {
	Remaining []string // Unordered nodes, sorted
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v among %s", dag.ErrGraphHasCycle, strings.Join(e.Remaining, ", "))
}

func (e *CycleError) Unwrap() error { return dag.ErrGraphHasCycle }

// OrderSubset returns ids in a prerequisite-respecting order.
//
// Only edges with both endpoints in ids are considered; prerequisites
// outside the subset are ignored. The order is produced by a layered
// variant of Kahn's algorithm:
//  1. Compute in-level in-degrees and seed a frontier with the zero ones
//  2. Sort the frontier lexicographically and append it to the result
//  3. Decrement successors; newly zero nodes form the next frontier
//  4. Repeat until the frontier is empty
//
// The output is deterministic for a given input set. If some nodes never
// reach in-degree zero, OrderSubset returns a nil slice and a *CycleError;
// a partial order is never returned. Duplicate ids are counted once.
//
// Time complexity is O(V log V + E).
func OrderSubset(g *dag.DAG, ids []string) ([]string, error) {
	members := make(map[string]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}

	inDegree := make(map[string]int, len(members))
	for id := range members {
		inDegree[id] = 0
	}
	for id := range members {
		for _, p := range g.Parents(id) {
			if members[p] {
				inDegree[id]++
			}
		}
	}

	var frontier []string
	for id, deg := range inDegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}

	result := make([]string, 0, len(members))
	for len(frontier) > 0 {
		slices.Sort(frontier)
		result = append(result, frontier...)

		var next []string
		for _, id := range frontier {
			for _, child := range g.Children(id) {
				if !members[child] {
					continue
				}
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		frontier = next
	}

	if len(result) < len(members) {
		var remaining []string
		for id, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, id)
			}
		}
		slices.Sort(remaining)
		return nil, &CycleError{Remaining: remaining}
	}
	return result, nil
}
