package dag

import (
	"slices"
	"testing"
)

func TestAddNodeAndEdge(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{ID: ""}); err != ErrInvalidNodeID {
		t.Errorf("AddNode(empty) = %v", err)
	}
	for _, n := range []Node{{ID: "app", Row: 0}, {ID: "parent", Row: 1}, {ID: "lib", Row: 1}} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddNode(Node{ID: "lib"}); err != ErrDuplicateNodeID {
		t.Errorf("AddNode(duplicate) = %v", err)
	}

	if err := g.AddEdge(Edge{From: "nope", To: "lib"}); err != ErrUnknownSourceNode {
		t.Errorf("AddEdge(unknown source) = %v", err)
	}
	if err := g.AddEdge(Edge{From: "app", To: "nope"}); err != ErrUnknownTargetNode {
		t.Errorf("AddEdge(unknown target) = %v", err)
	}

	_ = g.AddEdge(Edge{From: "app", To: "parent", Kind: EdgeParent})
	_ = g.AddEdge(Edge{From: "app", To: "lib", Kind: EdgeDependency})
	_ = g.AddEdge(Edge{From: "app", To: "lib", Kind: EdgeDependency})
	_ = g.AddEdge(Edge{From: "app", To: "parent", Kind: EdgeDependency})

	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3 (duplicate edge dropped)", g.EdgeCount())
	}
	if got := NodeIDs(g.Nodes()); !slices.Equal(got, []string{"app", "parent", "lib"}) {
		t.Errorf("Nodes() order = %v", got)
	}
	if got := NodeIDs(g.Sources()); !slices.Equal(got, []string{"app"}) {
		t.Errorf("Sources() = %v", got)
	}
	if got := NodeIDs(g.Sinks()); !slices.Equal(got, []string{"parent", "lib"}) {
		t.Errorf("Sinks() = %v", got)
	}
	if !g.HasEdge("app", "parent", EdgeParent) || g.HasEdge("lib", "app", EdgeParent) {
		t.Error("HasEdge() wrong")
	}
	for _, e := range g.Edges() {
		if e.Meta == nil {
			t.Errorf("edge %s->%s has nil Meta", e.From, e.To)
		}
	}
}

func TestLift(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a", Row: 0})
	_ = g.AddNode(Node{ID: "b", Row: 3})

	if g.Lift("b", 5) {
		t.Error("Lift() moved a node away from the root")
	}
	if !g.Lift("b", 1) {
		t.Fatal("Lift() did not move the node")
	}
	if n, _ := g.Node("b"); n.Row != 1 {
		t.Errorf("Row = %d, want 1", n.Row)
	}
	if got := g.RowIDs(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("RowIDs() = %v", got)
	}
	if g.MaxRow() != 1 || len(g.NodesInRow(3)) != 0 {
		t.Errorf("row index stale: max=%d row3=%v", g.MaxRow(), g.NodesInRow(3))
	}
	if g.Lift("missing", 0) {
		t.Error("Lift() of an unknown node")
	}
}

func TestValidate(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "b", To: "c"})
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	_ = g.AddEdge(Edge{From: "c", To: "a", Kind: EdgeParent})
	if err := g.Validate(); err != ErrGraphHasCycle {
		t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
	}
}

func TestNodeFailed(t *testing.T) {
	if (Node{Meta: Metadata{}}).Failed() {
		t.Error("plain node reported failed")
	}
	if !(Node{Meta: Metadata{"error": "boom"}}).Failed() {
		t.Error("node with error not reported failed")
	}
}
