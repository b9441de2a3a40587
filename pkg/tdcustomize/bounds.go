package tdcustomize

import (
	"tdcch/pkg/cch"
	"tdcch/pkg/graph"
	"tdcch/pkg/plf"
)

// Bounds holds scalar lower/upper bound vectors for every cch arc,
// computed once from each original arc's PLF bounds before the main
// pass ever touches a breakpoint.
type Bounds struct {
	UpLower, UpUpper     []float64
	DownLower, DownUpper []float64

	// UpRequired[a]/DownRequired[a] is false when arc a's upper bound after
	// both passes is strictly below the lower bound the ascending pass had
	// established for it (grounded on ftd.rs's
	// upper_bound.fuzzy_lt(lower_bound) dominance check). Every arc's
	// lower bound is at most its own upper bound, and the descending pass
	// changes no bound, so in practice every entry is true: the bound
	// sweep marks no arc as not required.
	UpRequired, DownRequired []bool
}

// PreCustomizeBounds computes Bounds using only GlobalBounds of the
// original time-dependent arc functions, never their literal
// breakpoints (spec §9's design notes on cheap bound propagation ahead
// of the expensive main pass). These feed relaxTriangle's early-exit
// check: a triangle whose best possible contribution can't beat what a
// shortcut already holds is skipped before any PLF is built.
//
// Bounds are propagated through every lower triangle twice: once
// ascending in rank order, then once descending. Upper triangles are not
// used. The descending pass sees only values the ascending pass already
// made final, so it tightens nothing. The ascending pass's lower bounds
// are kept as a snapshot, and an arc is marked not required when its
// final upper bound is strictly below that snapshot; since no arc's
// upper bound falls below its own lower bound, no arc is ever marked.
//
// scratch supplies the four parallel float64 arrays from a shared arena
// instead of four fresh allocations; the frame is popped before
// returning, since by then the bounds have already been copied out into
// owned slices for the ShortcutGraph to keep.
func PreCustomizeBounds(h *cch.CCH, g *graph.Graph, fns ArcFunctions, scratch *plf.Arena) Bounds {
	m := int(h.NumArcs())
	mark := scratch.Enter()
	upLo, upUp := scratch.Alloc(m)
	downLo, downUp := scratch.Alloc(m)
	for i := 0; i < m; i++ {
		upLo[i], upUp[i] = float64(graph.INFINITY), float64(graph.INFINITY)
		downLo[i], downUp[i] = float64(graph.INFINITY), float64(graph.INFINITY)
	}

	order := h.Order()
	n := g.NumNodes()
	for u := uint32(0); u < n; u++ {
		ru := order.Rank(u)
		start, end := g.ArcsFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			rv := order.Rank(v)
			if ru == rv {
				continue
			}
			flo, fup := arcBounds(g, fns, e)
			if ru < rv {
				if arc := h.FindUpArc(ru, rv); arc != graph.NoArc {
					if flo < upLo[arc] {
						upLo[arc] = flo
					}
					if fup < upUp[arc] {
						upUp[arc] = fup
					}
				}
			} else {
				if arc := h.FindUpArc(rv, ru); arc != graph.NoArc {
					if flo < downLo[arc] {
						downLo[arc] = flo
					}
					if fup < downUp[arc] {
						downUp[arc] = fup
					}
				}
			}
		}
	}

	relax := func(r, a, b, arcRA, arcRB, arcAB uint32) {
		if v := downLo[arcRA] + upLo[arcRB]; v < upLo[arcAB] {
			upLo[arcAB] = v
		}
		if v := downUp[arcRA] + upUp[arcRB]; v < upUp[arcAB] {
			upUp[arcAB] = v
		}
		if v := downLo[arcRB] + upLo[arcRA]; v < downLo[arcAB] {
			downLo[arcAB] = v
		}
		if v := downUp[arcRB] + upUp[arcRA]; v < downUp[arcAB] {
			downUp[arcAB] = v
		}
	}

	h.ForEachLowerTriangle(relax)

	// Snapshot copies of the ascending pass's lower bounds: upLo/downLo
	// themselves are still mutated in place by the descending pass below.
	upLoPre := append([]float64(nil), upLo...)
	downLoPre := append([]float64(nil), downLo...)

	h.ForEachLowerTriangleDescending(relax)

	upRequired := make([]bool, m)
	downRequired := make([]bool, m)
	for i := 0; i < m; i++ {
		upRequired[i] = !(upUp[i] < upLoPre[i])
		downRequired[i] = !(downUp[i] < downLoPre[i])
	}

	b := Bounds{
		UpLower:      append([]float64(nil), upLo...),
		UpUpper:      append([]float64(nil), upUp...),
		DownLower:    append([]float64(nil), downLo...),
		DownUpper:    append([]float64(nil), downUp...),
		UpRequired:   upRequired,
		DownRequired: downRequired,
	}
	scratch.Leave(mark)
	return b
}

func arcBounds(g *graph.Graph, fns ArcFunctions, arc uint32) (lo, up float64) {
	if fn, ok := fns[arc]; ok {
		lo, up, _ = fn.GlobalBounds()
		return lo, up
	}
	w := float64(g.Weight[arc])
	return w, w
}
