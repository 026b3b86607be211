// Package transform provides orderings and diagnostics over a prerequisite
// graph.
//
// # Ordering
//
// [OrderSubset] linearises a subset of the graph (one level bucket of a
// catalogue) using a layered Kahn's algorithm. Each frontier of
// zero-in-degree nodes is sorted lexicographically before it is emitted, so
// the result is stable across runs:
//
//	X        (no prerequisites)
//	Y ← X
//	Z ← X    ⇒  [X Y Z]
//
// Edges leaving the subset are ignored. A cycle inside the subset is fatal:
// OrderSubset returns a [*CycleError] naming the unordered nodes and no
// partial order.
//
// # Diagnostics
//
// [FindBackEdges] and [CycleMembers] report cycles across the whole graph
// without modifying it. They back the catalogue's check command.
package transform
