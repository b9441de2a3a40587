// Package cch builds the topology-only customizable contraction hierarchy:
// the chordal-completed DAG over the ranks fixed by an externally supplied
// node order. Construction here never looks at edge weights — only the
// metric-dependent customization passes in pkg/customize and
// pkg/tdcustomize do that, which is the whole point of separating topology
// from metric in CCH (symbolic factorization once, cheap re-customization
// many times).
package cch

import (
	"log"
	"sort"

	"tdcch/pkg/graph"
)

// CCH is the fixed shape shared by every customization of a given graph
// topology and node order: an upward CSR graph over ranks, where arc (r,
// head) exists whenever r and head end up adjacent after eliminating all
// lower-ranked nodes (the classic symbolic-Cholesky / chordal-completion
// construction).
type CCH struct {
	order *graph.NodeOrder

	FirstOut []uint32
	Head     []uint32

	// Parent[r] is the lowest-ranked upward neighbor of r, i.e. r's parent
	// in the elimination tree; graph.NoNode for a root.
	Parent []uint32
}

func (c *CCH) Order() *graph.NodeOrder { return c.order }
func (c *CCH) NumNodes() uint32        { return c.order.Len() }
func (c *CCH) NumArcs() uint32         { return uint32(len(c.Head)) }

// ArcsFrom returns the [start,end) range into Head for rank r's upward
// arcs, sorted ascending by head rank.
func (c *CCH) ArcsFrom(r uint32) (start, end uint32) {
	return c.FirstOut[r], c.FirstOut[r+1]
}

// FromRank returns the rank an upward arc originates from, found by
// binary search over FirstOut since arc ids are laid out contiguously
// per origin rank.
func (c *CCH) FromRank(arc uint32) uint32 {
	lo, hi := uint32(0), c.NumNodes()
	for lo < hi {
		mid := (lo + hi) / 2
		if c.FirstOut[mid+1] <= arc {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// FindUpArc returns the arc id of the upward arc (from, to), or
// graph.NoArc if from and to are not adjacent in the contracted topology.
// Requires from < to in rank; the topology has no other upward arcs.
func (c *CCH) FindUpArc(from, to uint32) uint32 {
	start, end := c.ArcsFrom(from)
	lo, hi := start, end
	for lo < hi {
		mid := (lo + hi) / 2
		if c.Head[mid] < to {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < end && c.Head[lo] == to {
		return lo
	}
	return graph.NoArc
}

// Contract performs the topology-only CCH preprocessing: for every rank r
// from lowest to highest, the set of r's still-live upward neighbors is
// turned into a clique (a triangle is added between every pair not
// already adjacent) before r is eliminated. This is symbolic Cholesky
// factorization driven by the externally supplied elimination order;
// finding a good order (nested dissection) is not this package's job.
func Contract(g *graph.Graph, order *graph.NodeOrder) *CCH {
	n := g.NumNodes()
	log.Printf("Starting topology-only contraction of %d nodes...", n)

	higher := make([]map[uint32]struct{}, n)
	for i := range higher {
		higher[i] = make(map[uint32]struct{})
	}

	for u := uint32(0); u < n; u++ {
		ru := order.Rank(u)
		start, end := g.ArcsFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			rv := order.Rank(v)
			if ru == rv {
				continue
			}
			lo, hi := ru, rv
			if lo > hi {
				lo, hi = hi, lo
			}
			higher[lo][hi] = struct{}{}
		}
	}

	parent := make([]uint32, n)
	for i := range parent {
		parent[i] = graph.NoNode
	}

	for r := uint32(0); r < n; r++ {
		neighbors := sortedKeys(higher[r])
		if len(neighbors) > 0 {
			parent[r] = neighbors[0]
		}
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				higher[neighbors[i]][neighbors[j]] = struct{}{}
			}
		}
	}

	firstOut := make([]uint32, n+1)
	for r := uint32(0); r < n; r++ {
		firstOut[r+1] = firstOut[r] + uint32(len(higher[r]))
	}
	head := make([]uint32, firstOut[n])
	cursor := append([]uint32(nil), firstOut[:n]...)
	for r := uint32(0); r < n; r++ {
		for _, h := range sortedKeys(higher[r]) {
			head[cursor[r]] = h
			cursor[r]++
		}
	}

	log.Printf("Contraction complete: %d fill-in arcs over %d ranks", firstOut[n], n)
	return &CCH{order: order, FirstOut: firstOut, Head: head, Parent: parent}
}

func sortedKeys(m map[uint32]struct{}) []uint32 {
	out := make([]uint32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
