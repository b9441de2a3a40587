package plf

import "sort"

// Link composes f (on the first arc) with g (on the second arc) into
// h(tau) = f(tau) + g(tau + f(tau)) (spec §4.1). The result is periodic,
// FIFO, and piecewise linear. Breakpoints are produced by walking f's own
// breakpoints together with the breakpoints of g "pulled back" through
// f's arrival-time function — wherever a traveler departing at tau along
// f arrives exactly at one of g's breakpoints, that tau becomes a new
// breakpoint of h.
func Link(f, g *PLF) *PLF {
	if f.IsConstant() && g.IsConstant() {
		return Constant(f.Period, f.Values[0]+g.Values[0])
	}

	k := len(f.Times) - 1 // f has k segments: indices 0..k-1
	// arrival[i] = f.Times[i] + f.Values[i], unwrapped (non-decreasing,
	// since FIFO holds across the whole period and arrival[k] ==
	// arrival[0] + Period).
	arrival := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		arrival[i] = f.Times[i] + f.Values[i]
	}
	base := arrival[0]

	// Candidate taus: f's own breakpoints (0..k-1) plus, for every g
	// breakpoint pulled back through the f segment whose arrival interval
	// contains it, the inverted tau.
	candidates := make([]float64, 0, k+len(g.Times))
	candidates = append(candidates, f.Times[:k]...)

	for j := 0; j < len(g.Times)-1; j++ {
		s := g.Times[j]
		// Unwrap s into [base, base+Period).
		target := base + wrap(s-base, f.Period)
		// Locate the f segment whose arrival interval contains target.
		idx := sort.Search(k, func(i int) bool { return arrival[i+1] >= target-Epsilon })
		if idx >= k {
			continue
		}
		t0, t1 := f.Times[idx], f.Times[idx+1]
		a0, a1 := arrival[idx], arrival[idx+1]
		if target < a0-Epsilon || target > a1+Epsilon {
			continue
		}
		var tau float64
		if a1-a0 <= Epsilon {
			tau = t0
		} else {
			tau = t0 + (target-a0)/(a1-a0)*(t1-t0)
		}
		if tau < 0 {
			tau = 0
		}
		if tau > f.Period {
			tau = f.Period
		}
		candidates = append(candidates, tau)
	}

	sort.Float64s(candidates)
	candidates = dedupe(candidates, f.Period)

	times := make([]float64, 0, len(candidates)+1)
	values := make([]float64, 0, len(candidates)+1)
	for _, tau := range candidates {
		fv := f.Evaluate(tau)
		gv := g.Evaluate(tau + fv)
		times = append(times, tau)
		values = append(values, fv+gv)
	}
	// Close the period.
	times = append(times, f.Period)
	values = append(values, values[0])

	return &PLF{Period: f.Period, Times: times, Values: values}
}

// dedupe removes near-duplicate consecutive values (within Epsilon) from a
// sorted slice of breakpoints in [0, period), always keeping 0 itself.
func dedupe(sorted []float64, period float64) []float64 {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, t := range sorted[1:] {
		if t-out[len(out)-1] > Epsilon && period-t > Epsilon {
			out = append(out, t)
		}
	}
	if out[0] > Epsilon {
		out = append([]float64{0}, out...)
	}
	return out
}
