package plf

import "testing"

func TestMergeConstants(t *testing.T) {
	f := Constant(86400, 5)
	g := Constant(86400, 9)
	m := Merge(f, g)
	if m.Values[0] != 5 || !m.Selves[0] {
		t.Fatalf("Merge(5,9) = %+v, want self=5", m)
	}
}

func TestMergeConstantTieFavorsSelf(t *testing.T) {
	f := Constant(86400, 7)
	g := Constant(86400, 7)
	m := Merge(f, g)
	if !m.Selves[0] {
		t.Fatal("tie should favor self")
	}
}

// Grounded in spec §8 scenario 6: two competing paths whose relative
// speed ordering flips partway through the period, so the merged
// shortcut must switch its symbolic source mid-day. f dips in the
// middle of the period, g is flat; they cross twice, once on the way
// down and once on the way back up.
func TestMergeFindsCrossing(t *testing.T) {
	f := mustNew(t, 8, []float64{0, 4, 8}, []float64{5, 1, 5})
	g := Constant(8, 3)
	m := Merge(f, g)

	for i, tau := range m.Times {
		want := min(f.Evaluate(tau), g.Evaluate(tau))
		if abs(m.Values[i]-want) > 1e-6 {
			t.Fatalf("Merge value at %v = %v, want %v", tau, m.Values[i], want)
		}
	}

	sawSelf, sawOther := false, false
	for _, s := range m.Selves {
		if s {
			sawSelf = true
		} else {
			sawOther = true
		}
	}
	if !sawSelf || !sawOther {
		t.Fatalf("expected both self and other to win somewhere, selves=%v", m.Selves)
	}

	// A breakpoint must have been inserted strictly between 0 and 8 beyond
	// the two functions' own breakpoints (0, 4, 8) to record the crossing.
	foundInterior := false
	for _, tau := range m.Times {
		if tau > Epsilon && tau < 4-Epsilon || tau > 4+Epsilon && tau < 8-Epsilon {
			foundInterior = true
		}
	}
	if !foundInterior {
		t.Fatalf("expected an interpolated crossing breakpoint, got times=%v", m.Times)
	}
}

func TestMergeEverywhereIsPointwiseMin(t *testing.T) {
	f := mustNew(t, 24, []float64{0, 6, 9, 14, 17, 20, 24}, []float64{2, 1, 3, 2, 4, 1, 2})
	g := mustNew(t, 24, []float64{0, 12, 24}, []float64{3, 3, 3})
	m := Merge(f, g)

	samples := []float64{0, 1, 5, 6, 8, 9, 12, 13, 17, 20, 23}
	for _, tau := range samples {
		got := m.Evaluate(tau)
		want := min(f.Evaluate(tau), g.Evaluate(tau))
		if abs(got-want) > 1e-6 {
			t.Fatalf("Merge.Evaluate(%v) = %v, want min = %v", tau, got, want)
		}
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
