package query

import (
	"testing"

	"tdcch/pkg/cch"
	"tdcch/pkg/customize"
	"tdcch/pkg/graph"
)

// buildDiamond mirrors pkg/customize's fixture: 0->1 (w1), 0->2 (w5),
// 1->3 (w1), 2->3 (w1). Shortest 0->3 is via 1, weight 2.
func buildDiamond(t *testing.T) *customize.Customized {
	t.Helper()
	tails := []uint32{0, 0, 1, 2}
	heads := []uint32{1, 2, 3, 3}
	weights := []graph.Weight{1, 5, 1, 1}
	g := graph.New(4, tails, heads, weights)
	order := graph.NewNodeOrder([]uint32{0, 1, 2, 3})
	h := cch.Contract(g, order)
	return customize.Customize(g, h)
}

func TestEliminationTreeQueryFindsShortestPath(t *testing.T) {
	c := buildDiamond(t)
	q := NewEliminationTreeQuery(c)

	dist, found := q.Query(0, 3)
	if !found {
		t.Fatal("expected 0->3 to be reachable")
	}
	if dist != 2 {
		t.Fatalf("dist(0,3) = %d, want 2", dist)
	}
}

func TestEliminationTreeQueryUnreachable(t *testing.T) {
	c := buildDiamond(t)
	q := NewEliminationTreeQuery(c)

	if _, found := q.Query(3, 0); found {
		t.Fatal("expected 3->0 to be unreachable in a DAG with no back edges")
	}
}

func TestEliminationTreeQueryReusableAcrossCalls(t *testing.T) {
	c := buildDiamond(t)
	q := NewEliminationTreeQuery(c)

	if dist, _ := q.Query(0, 3); dist != 2 {
		t.Fatalf("first query: dist = %d, want 2", dist)
	}
	if dist, _ := q.Query(0, 2); dist != 5 {
		t.Fatalf("second query: dist = %d, want 5", dist)
	}
	if dist, _ := q.Query(0, 1); dist != 1 {
		t.Fatalf("third query: dist = %d, want 1", dist)
	}
}

func TestEliminationTreeQuerySameNode(t *testing.T) {
	c := buildDiamond(t)
	q := NewEliminationTreeQuery(c)

	if dist, found := q.Query(2, 2); !found || dist != 0 {
		t.Fatalf("Query(2,2) = (%d,%v), want (0,true)", dist, found)
	}
}
