package plf

import "testing"

func TestLinkConstants(t *testing.T) {
	f := Constant(86400, 10)
	g := Constant(86400, 20)
	h := Link(f, g)
	if !h.IsConstant() || h.Values[0] != 30 {
		t.Fatalf("Link(10,20) = %+v, want constant 30", h)
	}
}

// Scenario grounded in spec §8 scenario 6: a->b takes a flat 1 unit, b->c
// has PLF [(2,2),(6,6)] over period 8. Linking should produce h(tau) =
// 1 + g(tau+1).
func TestLinkFlatThenPLF(t *testing.T) {
	ab := Constant(8, 1)
	bc := mustNew(t, 8, []float64{0, 2, 6, 8}, []float64{4, 2, 6, 4})
	h := Link(ab, bc)

	for _, tau := range []float64{0, 1, 2, 3, 5, 7} {
		want := 1 + bc.Evaluate(tau+1)
		got := h.Evaluate(tau)
		if abs(got-want) > 1e-6 {
			t.Fatalf("Link.Evaluate(%v) = %v, want %v", tau, got, want)
		}
	}
}

func TestLinkPreservesPeriod(t *testing.T) {
	f := mustNew(t, 10, []float64{0, 5, 10}, []float64{2, 4, 2})
	g := mustNew(t, 10, []float64{0, 5, 10}, []float64{1, 3, 1})
	h := Link(f, g)
	if h.Period != 10 {
		t.Fatalf("Period = %v, want 10", h.Period)
	}
	if abs(h.Times[len(h.Times)-1]-10) > 1e-9 {
		t.Fatalf("last breakpoint = %v, want 10", h.Times[len(h.Times)-1])
	}
	if h.Values[len(h.Values)-1] != h.Values[0] {
		t.Fatalf("h not periodic: %v != %v", h.Values[len(h.Values)-1], h.Values[0])
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
