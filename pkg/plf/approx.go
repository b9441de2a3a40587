package plf

// Approximate replaces f with a coarser PLF whenever f exceeds
// threshold breakpoints (spec §4.1 APPROX_THRESHOLD), bounding pointwise
// deviation by eps (APPROX). The approximation never falls below f's
// global lower bound nor rises above its global upper bound, and
// preserves FIFO: every dropped breakpoint must lie within eps (vertically)
// of the straight line connecting its neighbors, which keeps the
// simplified arrival function within eps of the original's, so FIFO
// (arrival non-decreasing) survives the simplification whenever the
// original's arrival slope stays non-negative outside the eps margin.
func Approximate(f *PLF, threshold int, eps float64) *PLF {
	if f.NumBreakpoints() <= threshold || f.IsConstant() {
		return f
	}

	lb, ub, _ := f.GlobalBounds()
	clamp := func(v float64) float64 {
		if v < lb {
			return lb
		}
		if v > ub {
			return ub
		}
		return v
	}

	n := len(f.Times)
	times := make([]float64, 0, n)
	values := make([]float64, 0, n)

	anchor := 0
	times = append(times, f.Times[0])
	values = append(values, clamp(f.Values[0]))

	for i := 1; i < n; i++ {
		if i == n-1 {
			if !fitsLine(f, anchor, i, eps) {
				times = append(times, f.Times[i-1])
				values = append(values, clamp(f.Values[i-1]))
			}
			times = append(times, f.Times[i])
			values = append(values, clamp(f.Values[i]))
			continue
		}
		if fitsLine(f, anchor, i, eps) {
			continue // i can be dropped; keep extending the run from anchor
		}
		// Commit the previous breakpoint (i-1) as the end of the run.
		times = append(times, f.Times[i-1])
		values = append(values, clamp(f.Values[i-1]))
		anchor = i - 1
	}

	return &PLF{Period: f.Period, Times: times, Values: values}
}

// fitsLine reports whether every original breakpoint strictly between
// anchor and candidate lies within eps of the straight line from anchor
// to candidate.
func fitsLine(f *PLF, anchor, candidate int, eps float64) bool {
	t0, v0 := f.Times[anchor], f.Values[anchor]
	t1, v1 := f.Times[candidate], f.Values[candidate]
	if t1 == t0 {
		return true
	}
	slope := (v1 - v0) / (t1 - t0)
	for k := anchor + 1; k < candidate; k++ {
		predicted := v0 + slope*(f.Times[k]-t0)
		dev := predicted - f.Values[k]
		if dev < 0 {
			dev = -dev
		}
		if dev > eps {
			return false
		}
	}
	return true
}
