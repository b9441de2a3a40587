package plf

import (
	"math"
	"sort"
)

// Merge computes the pointwise minimum of f and g (spec §4.1). The result
// carries, per output breakpoint, whether f ("self") or g ("other") is the
// minimizer on the segment starting at that breakpoint — Selves[i] is the
// minimizer for [Times[i], Times[i+1]). Crossing points between two
// breakpoints that bracket a sign change are located by linear
// interpolation and inserted as new breakpoints; ties (|f-g| <= Epsilon)
// are resolved in favor of self, deterministically, so merge never
// data-structurally diverges on noise.
type Merged struct {
	*PLF
	Selves []bool // true = self (f) is the minimizer of the segment starting at Times[i]
}

func Merge(f, g *PLF) *Merged {
	if f.IsConstant() && g.IsConstant() {
		if f.Values[0] <= g.Values[0]+Epsilon {
			return &Merged{PLF: Constant(f.Period, f.Values[0]), Selves: []bool{true, true}}
		}
		return &Merged{PLF: Constant(f.Period, g.Values[0]), Selves: []bool{false, false}}
	}

	period := f.Period
	combined := make([]float64, 0, len(f.Times)+len(g.Times))
	combined = append(combined, f.Times[:len(f.Times)-1]...)
	combined = append(combined, g.Times[:len(g.Times)-1]...)
	sort.Float64s(combined)
	combined = dedupe(combined, period)

	n := len(combined)
	fv := make([]float64, n)
	gv := make([]float64, n)
	for i, t := range combined {
		fv[i] = f.Evaluate(t)
		gv[i] = g.Evaluate(t)
	}

	selfBetter := func(i int) bool { return fv[i] <= gv[i]+Epsilon }

	times := make([]float64, 0, 2*n)
	values := make([]float64, 0, 2*n)
	selves := make([]bool, 0, 2*n)

	diff := func(i int) float64 { return fv[i] - gv[i] }

	for i := 0; i < n; i++ {
		times = append(times, combined[i])
		if selfBetter(i) {
			values = append(values, fv[i])
		} else {
			values = append(values, gv[i])
		}
		// A tie at the left end does not decide the segment when other is
		// strictly better at its right end.
		segSelf := selfBetter(i)
		if math.Abs(diff(i)) <= Epsilon && diff((i+1)%n) > Epsilon {
			segSelf = false
		}
		selves = append(selves, segSelf)

		j := (i + 1) % n
		tj := combined[j]
		if j == 0 {
			tj += period
		}
		di, dj := diff(i), diff(j)
		if signChanges(di, dj) {
			dx := tj - combined[i]
			if dx > Epsilon {
				frac := math.Abs(di) / (math.Abs(di) + math.Abs(dj))
				crossAt := combined[i] + frac*dx
				if crossAt >= period {
					crossAt -= period
				}
				crossVal := f.Evaluate(crossAt)
				if crossAt > combined[i]+Epsilon && (crossAt < tj-Epsilon || tj > period) {
					times = append(times, crossAt)
					values = append(values, crossVal)
					selves = append(selves, dj <= Epsilon) // segment after crossing: whichever wins at j
				}
			}
		}
	}

	// Close the period.
	times = append(times, period)
	values = append(values, values[0])
	selves = append(selves, selves[0])

	return &Merged{PLF: &PLF{Period: period, Times: times, Values: values}, Selves: selves}
}

// signChanges reports whether d1 and d2 straddle zero, i.e. self and
// other swap which one is the pointwise minimum between these two points.
func signChanges(d1, d2 float64) bool {
	s1, s2 := sign(d1), sign(d2)
	return s1 != 0 && s2 != 0 && s1 != s2
}

func sign(x float64) int {
	switch {
	case x > Epsilon:
		return 1
	case x < -Epsilon:
		return -1
	default:
		return 0
	}
}
