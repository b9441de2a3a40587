// Package query implements CCH query algorithms: the scalar bidirectional
// elimination-tree query and CH-potentials A* over the original graph
// (spec §4.3).
package query

import (
	"tdcch/pkg/customize"
	"tdcch/pkg/graph"
)

// EliminationTreeQuery answers scalar shortest-path queries against a
// Customized CCH. Both the forward search (from the source, via
// up-weights) and the backward search (from the target, via
// down-weights) are a single pass over ranks in ascending order — no
// priority queue is needed, since the upward arcs already form a DAG in
// topological order, so one linear relaxation pass per direction is
// exact. The two searches interleave rank by rank and the answer is the
// minimum combined distance at whichever rank they meet.
//
// Distance and predecessor state is cleared in O(1) between queries via
// a generation stamp instead of a full array reset, the same trick used
// for hot per-query scratch elsewhere in this module.
type EliminationTreeQuery struct {
	c *customize.Customized

	dist, distT   []graph.Weight
	stamp, stampT []uint32
	predArc       []uint32 // cch arc id used to relax into this rank forward
	predArcT      []uint32 // ... backward
	gen           uint32
}

// NewEliminationTreeQuery prepares query scratch state sized for c's CCH.
func NewEliminationTreeQuery(c *customize.Customized) *EliminationTreeQuery {
	n := c.CCH.NumNodes()
	q := &EliminationTreeQuery{
		c:        c,
		dist:     make([]graph.Weight, n),
		distT:    make([]graph.Weight, n),
		stamp:    make([]uint32, n),
		stampT:   make([]uint32, n),
		predArc:  make([]uint32, n),
		predArcT: make([]uint32, n),
	}
	for i := range q.predArc {
		q.predArc[i] = graph.NoArc
		q.predArcT[i] = graph.NoArc
	}
	return q
}

func (q *EliminationTreeQuery) at(r uint32) graph.Weight {
	if q.stamp[r] != q.gen {
		return graph.INFINITY
	}
	return q.dist[r]
}

func (q *EliminationTreeQuery) atT(r uint32) graph.Weight {
	if q.stampT[r] != q.gen {
		return graph.INFINITY
	}
	return q.distT[r]
}

// Query returns the shortest-path distance from s to t, or
// (graph.INFINITY, false) if t is unreachable from s.
func (q *EliminationTreeQuery) Query(s, t uint32) (graph.Weight, bool) {
	q.gen++
	order := q.c.CCH.Order()
	rs, rt := order.Rank(s), order.Rank(t)

	q.dist[rs], q.stamp[rs] = 0, q.gen
	q.distT[rt], q.stampT[rt] = 0, q.gen
	q.predArc[rs] = graph.NoArc
	q.predArcT[rt] = graph.NoArc

	n := q.c.CCH.NumNodes()
	best := graph.INFINITY
	start := rs
	if rt < start {
		start = rt
	}

	for r := start; r < n; r++ {
		if d := q.at(r); d != graph.INFINITY {
			from, to := q.c.CCH.ArcsFrom(r)
			for a := from; a < to; a++ {
				head := q.c.CCH.Head[a]
				if nd := graph.SaturatingAdd(d, q.c.UpWeight[a]); nd < q.at(head) {
					q.dist[head], q.stamp[head] = nd, q.gen
					q.predArc[head] = a
				}
			}
		}
		if d := q.atT(r); d != graph.INFINITY {
			from, to := q.c.CCH.ArcsFrom(r)
			for a := from; a < to; a++ {
				head := q.c.CCH.Head[a]
				if nd := graph.SaturatingAdd(d, q.c.DownWeight[a]); nd < q.atT(head) {
					q.distT[head], q.stampT[head] = nd, q.gen
					q.predArcT[head] = a
				}
			}
		}
		if sum := graph.SaturatingAdd(q.at(r), q.atT(r)); sum < best {
			best = sum
		}
	}
	return best, best != graph.INFINITY
}

// UnpackLastQuery expands the most recent successful Query call into the
// full sequence of ranks from s to t, by walking both directions'
// predecessor arcs back to their roots and unpacking each one's
// shortcuts with UnpackUp/UnpackDown.
func (q *EliminationTreeQuery) UnpackLastQuery(s, t uint32) []uint32 {
	order := q.c.CCH.Order()
	rs, rt := order.Rank(s), order.Rank(t)

	n := q.c.CCH.NumNodes()
	start := rs
	if rt < start {
		start = rt
	}
	meet, best := uint32(graph.NoNode), graph.INFINITY
	for r := start; r < n; r++ {
		if sum := graph.SaturatingAdd(q.at(r), q.atT(r)); sum < best {
			best, meet = sum, r
		}
	}
	if meet == graph.NoNode {
		return nil
	}

	var fwd []uint32
	for r := meet; r != rs; {
		a := q.predArc[r]
		if a == graph.NoArc {
			break
		}
		seg := UnpackUp(q.c, a)
		reverseRanks(seg)
		fwd = append(fwd, seg...)
		r = q.c.CCH.FromRank(a)
	}
	reverseRanks(fwd)

	var bwd []uint32
	for r := meet; r != rt; {
		a := q.predArcT[r]
		if a == graph.NoArc {
			break
		}
		bwd = append(bwd, UnpackDown(q.c, a)...)
		r = q.c.CCH.FromRank(a)
	}

	out := append([]uint32{rs}, fwd...)
	out = append(out, bwd...)
	return out
}

func reverseRanks(s []uint32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
