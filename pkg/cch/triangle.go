package cch

import "tdcch/pkg/graph"

// ForEachLowerTriangle visits every (r, a, b) with r < a < b, r->a and
// r->b both upward arcs, and a->b itself an upward arc — the unit of work
// in both scalar and time-dependent customization: the shortcut for (a,b)
// may be tightened by linking r->a with r->b and merging the result into
// whatever (a,b) already holds (spec §4.1/§4.2). fn receives the three
// arc ids (arcRA, arcRB, arcAB) so callers can index straight into their
// weight/shortcut arrays without a second lookup.
func (c *CCH) ForEachLowerTriangle(fn func(r, a, b, arcRA, arcRB, arcAB uint32)) {
	for r := uint32(0); r < c.NumNodes(); r++ {
		start, end := c.ArcsFrom(r)
		for i := start; i < end; i++ {
			a := c.Head[i]
			for j := i + 1; j < end; j++ {
				b := c.Head[j]
				if arcAB := c.FindUpArc(a, b); arcAB != graph.NoArc {
					fn(r, a, b, i, j, arcAB)
				}
			}
		}
	}
}

// ForEachLowerTriangleInRange is ForEachLowerTriangle restricted to
// r in [lo, hi), used by the separator-tree fork/join so each worker only
// touches the ranks belonging to its own cell.
func (c *CCH) ForEachLowerTriangleInRange(lo, hi uint32, fn func(r, a, b, arcRA, arcRB, arcAB uint32)) {
	for r := lo; r < hi; r++ {
		start, end := c.ArcsFrom(r)
		for i := start; i < end; i++ {
			a := c.Head[i]
			for j := i + 1; j < end; j++ {
				b := c.Head[j]
				if arcAB := c.FindUpArc(a, b); arcAB != graph.NoArc {
					fn(r, a, b, i, j, arcAB)
				}
			}
		}
	}
}

// ForEachLowerTriangleDescending visits the same (r, a, b) triples as
// ForEachLowerTriangle but with r running from the highest rank down to
// 0. It still visits lower triangles only: no upper or intermediate
// triangle (one where r is not the lowest corner) is ever passed to fn.
// When fn only lowers arcAB's value from those of arcRA and arcRB, a run
// of this after a full ForEachLowerTriangle pass changes nothing, because
// arcs (r, a) and (r, b) are already final by the time the ascending pass
// reaches r.
func (c *CCH) ForEachLowerTriangleDescending(fn func(r, a, b, arcRA, arcRB, arcAB uint32)) {
	for r := c.NumNodes(); r > 0; r-- {
		rr := r - 1
		start, end := c.ArcsFrom(rr)
		for i := start; i < end; i++ {
			a := c.Head[i]
			for j := i + 1; j < end; j++ {
				b := c.Head[j]
				if arcAB := c.FindUpArc(a, b); arcAB != graph.NoArc {
					fn(rr, a, b, i, j, arcAB)
				}
			}
		}
	}
}
