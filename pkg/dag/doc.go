// Package dag provides the prerequisite graph behind a module catalogue.
//
// # Overview
//
// Every module code is a node. An edge P → M means "P is a prerequisite of
// M". The graph keeps both directions of adjacency in lock step, so
// [DAG.Parents] (prerequisites) and [DAG.Children] (required for) are exact
// transposes of each other at all times.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "MATH0005"})
//	g.AddNode(dag.Node{ID: "MATH0006"})
//	g.AddEdge(dag.Edge{From: "MATH0005", To: "MATH0006"})
//
// Codes referenced as prerequisites but absent from the catalogue are added
// as [NodeKindExternal] nodes. They keep textual prerequisite lists and the
// reverse index consistent, and renderers skip them.
//
// # Cycles
//
// Two different contracts apply. [DAG.Ancestors] walks prerequisites with a
// seen set and tolerates cycles. [DAG.Validate] and the ordering functions
// in the [transform] subpackage treat a cycle as a data error.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Build once, then share
// read-only.
//
// [transform]: github.com/matzehuels/modmap/pkg/dag/transform
package dag
