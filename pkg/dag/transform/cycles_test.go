package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/modmap/pkg/dag"
)

func build(t *testing.T, ids []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestFindBackEdges_NoCycles(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	if got := FindBackEdges(g); len(got) != 0 {
		t.Errorf("FindBackEdges() = %v, want none", got)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestFindBackEdges_SimpleCycle(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	got := FindBackEdges(g)
	want := []dag.Edge{{From: "b", To: "a"}}
	if !slices.Equal(got, want) {
		t.Errorf("FindBackEdges() = %v, want %v", got, want)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("graph modified: EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestFindBackEdges_MultipleCycles(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "a"}, {"c", "d"}, {"d", "c"}})

	if got := FindBackEdges(g); len(got) != 2 {
		t.Errorf("FindBackEdges() = %v, want 2 edges", got)
	}
}

func TestFindBackEdges_SelfLoop(t *testing.T) {
	g := build(t, []string{"a"}, [][2]string{{"a", "a"}})

	got := FindBackEdges(g)
	want := []dag.Edge{{From: "a", To: "a"}}
	if !slices.Equal(got, want) {
		t.Errorf("FindBackEdges() = %v, want %v", got, want)
	}
}

func TestFindBackEdges_DiamondNoCycle(t *testing.T) {
	//   a
	//  / \
	// b   c
	//  \ /
	//   d
	g := build(t, []string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}})

	if got := FindBackEdges(g); len(got) != 0 {
		t.Errorf("FindBackEdges() = %v, want none", got)
	}
}

func TestCycleMembers(t *testing.T) {
	// a → b → c → d → b, plus an unrelated tail e.
	g := build(t, []string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "b"}, {"d", "e"}})

	got := CycleMembers(g)
	want := []string{"b", "c", "d"}
	if !slices.Equal(got, want) {
		t.Errorf("CycleMembers() = %v, want %v", got, want)
	}
}

func TestCycleMembers_EmptyGraph(t *testing.T) {
	if got := CycleMembers(dag.New(nil)); len(got) != 0 {
		t.Errorf("CycleMembers() = %v, want none", got)
	}
}
