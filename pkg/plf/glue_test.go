package plf

import "testing"

func TestGlueSingleSegmentReturnsFnDirectly(t *testing.T) {
	f := Constant(24, 7)
	got := Glue(24, []Segment{{Start: 0, End: 24, Fn: f}})
	if got != f {
		t.Fatal("Glue of one full-period segment should return the function itself")
	}
}

func TestGlueConcatenatesValues(t *testing.T) {
	morning := Constant(24, 2)
	evening := Constant(24, 5)
	g := Glue(24, []Segment{
		{Start: 0, End: 12, Fn: morning},
		{Start: 12, End: 24, Fn: evening},
	})
	if got := g.Evaluate(3); got != 2 {
		t.Fatalf("Evaluate(3) = %v, want 2", got)
	}
	if got := g.Evaluate(18); got != 5 {
		t.Fatalf("Evaluate(18) = %v, want 5", got)
	}
}
