package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.Validate] and by the ordering
	// functions in the transform package when a directed cycle is found.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil after AddNode.
type Metadata map[string]any

// NodeKind distinguishes modules present in the catalogue from codes that
// are only referenced as prerequisites.
type NodeKind int

const (
	// NodeKindModule is a module present in the active dataset.
	NodeKindModule NodeKind = iota
	// NodeKindExternal is a code referenced as a prerequisite but absent
	// from the active dataset (an ancillary or external course). External
	// nodes keep the adjacency maps exact transposes of the textual
	// prerequisite lists but are never drawn.
	NodeKindExternal
)

// Node is a vertex of the prerequisite graph.
type Node struct {
	ID   string   // Module code
	Kind NodeKind // Module or external reference
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// IsExternal reports whether the node only exists as a prerequisite reference.
func (n Node) IsExternal() bool { return n.Kind == NodeKindExternal }

// Edge is a directed prerequisite edge: From must be taken before To.
type Edge struct {
	From string // Prerequisite code
	To   string // Dependent module code
}

// DAG is a directed prerequisite graph. Edges point from a prerequisite to
// the module that requires it, so [DAG.Parents] lists a module's
// prerequisites and [DAG.Children] lists the modules it is required for.
// Both adjacency maps are maintained together and are always exact
// transposes of each other.
//
// Despite the name, acyclicity is not enforced on insertion: catalogue data
// is user supplied and cycles are detected by [DAG.Validate] and reported by
// the ordering functions instead.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing map[string][]string // prereq -> dependents
	incoming map[string][]string // module -> prereqs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the ID is
// empty, or ErrDuplicateNodeID if it already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	return nil
}

// AddEdge adds the directed edge e.From → e.To between existing nodes.
// Repeated edges collapse: adding an edge that already exists is a no-op.
// Self-loops are accepted and surface later as cycles.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.From)
	}
	if _, ok := d.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.To)
	}
	if _, dup := d.edgeSet[e]; dup {
		return nil
	}
	d.edgeSet[e] = struct{}{}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// HasEdge reports whether the edge from → to exists.
func (d *DAG) HasEdge(from, to string) bool {
	_, ok := d.edgeSet[Edge{From: from, To: to}]
	return ok
}

// Nodes returns all nodes sorted by ID.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the modules that list id as a prerequisite, in insertion
// order. The returned slice must not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the prerequisites of id, in insertion order. The returned
// slice must not be modified.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of modules requiring id.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of prerequisites of id.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Ancestors returns the seeds together with every node reachable from them
// by repeatedly following prerequisite edges. Seeds that are not in the
// graph are kept in the result. The walk keeps a seen set, so cycles are
// tolerated and the function always terminates.
func (d *DAG) Ancestors(seeds ...string) map[string]struct{} {
	seen := make(map[string]struct{}, len(seeds))
	work := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		work = append(work, s)
	}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		for _, p := range d.incoming[id] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			work = append(work, p)
		}
	}
	return seen
}

// Validate returns nil if the graph is acyclic. Otherwise it returns an
// error wrapping ErrGraphHasCycle that names one node on a cycle.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var culprit string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				culprit = child
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		if color[id] == white && dfs(id) {
			return fmt.Errorf("%w: involving %s", ErrGraphHasCycle, culprit)
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
