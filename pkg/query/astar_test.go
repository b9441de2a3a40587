package query

import (
	"testing"

	"tdcch/pkg/cch"
	"tdcch/pkg/customize"
	"tdcch/pkg/graph"
)

func TestAStarMatchesElimination(t *testing.T) {
	c := buildDiamond(t)
	// AStarQuery.NewAStarQuery wants the original graph back, so rebuild
	// it the same way buildDiamond's underlying fixture does.
	tails := []uint32{0, 0, 1, 2}
	heads := []uint32{1, 2, 3, 3}
	weights := []graph.Weight{1, 5, 1, 1}
	g := graph.New(4, tails, heads, weights)

	p := NewCCHPotential(c)
	a := NewAStarQuery(g, p)

	dist, ok := a.Query(0, 3)
	if !ok || dist != 2 {
		t.Fatalf("AStar(0,3) = (%d,%v), want (2,true)", dist, ok)
	}

	path := a.Path(0, 3)
	want := []uint32{0, 1, 3}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
}

func TestAStarUnreachableWithZeroPotential(t *testing.T) {
	tails := []uint32{0, 0, 1, 2}
	heads := []uint32{1, 2, 3, 3}
	weights := []graph.Weight{1, 5, 1, 1}
	g := graph.New(4, tails, heads, weights)

	a := NewAStarQuery(g, ZeroPotential{})
	if _, ok := a.Query(3, 0); ok {
		t.Fatal("expected 3->0 unreachable in a DAG with no back edges")
	}
}

func TestAStarReusableAcrossQueries(t *testing.T) {
	c := buildDiamond(t)
	tails := []uint32{0, 0, 1, 2}
	heads := []uint32{1, 2, 3, 3}
	weights := []graph.Weight{1, 5, 1, 1}
	g := graph.New(4, tails, heads, weights)

	a := NewAStarQuery(g, NewCCHPotential(c))
	if dist, _ := a.Query(0, 3); dist != 2 {
		t.Fatalf("first query dist = %d, want 2", dist)
	}
	if dist, _ := a.Query(0, 2); dist != 5 {
		t.Fatalf("second query dist = %d, want 5", dist)
	}
}

// buildSquare is a genuinely branching graph so A* has more than one
// candidate route to pick the cheapest of: 0->1->3 costs 2+1=3, 0->2->3
// costs 1+1=2, so the shortest route is via node 2.
func buildSquare(t *testing.T) (*graph.Graph, *cch.CCH) {
	t.Helper()
	tails := []uint32{0, 0, 1, 2}
	heads := []uint32{1, 2, 3, 3}
	weights := []graph.Weight{2, 1, 1, 1}
	g := graph.New(4, tails, heads, weights)
	order := graph.NewNodeOrder([]uint32{0, 1, 2, 3})
	h := cch.Contract(g, order)
	return g, h
}

func TestAStarPicksCheaperBranch(t *testing.T) {
	g, h := buildSquare(t)
	c := customize.Customize(g, h)
	a := NewAStarQuery(g, NewCCHPotential(c))

	dist, ok := a.Query(0, 3)
	if !ok || dist != 2 {
		t.Fatalf("AStar(0,3) = (%d,%v), want (2,true)", dist, ok)
	}
	path := a.Path(0, 3)
	want := []uint32{0, 2, 3}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
}
