package query

import (
	"tdcch/internal/config"
	"tdcch/pkg/graph"
)

// pqItem is an A* priority queue entry: node plus its current f-value
// (tentative distance from source plus potential to target).
type pqItem struct {
	node uint32
	f    graph.Weight
}

// minHeap is a concrete-typed min-heap keyed on f-value, avoiding the
// interface boxing overhead of container/heap.
type minHeap struct {
	items []pqItem
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(node uint32, f graph.Weight) {
	h.items = append(h.items, pqItem{node, f})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() pqItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) Reset() {
	h.items = h.items[:0]
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].f >= h.items[parent].f {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && h.items[left].f < h.items[smallest].f {
			smallest = left
		}
		if right < n && h.items[right].f < h.items[smallest].f {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// AStarQuery runs CH-potentials A* directly over the original graph
// (spec §4.3): Dijkstra with f(v) = dist(v) + potential(v), where
// potential is any admissible, consistent lower bound on the remaining
// distance to the target. Operating on the original graph rather than
// the CCH keeps path reconstruction trivial (predecessors are already
// original arcs) at the cost of not benefiting from CCH shortcuts during
// the search itself; the potential is what keeps the search focused.
type AStarQuery struct {
	g        *graph.Graph
	p        Potential
	reversed *graph.Graph
	dfsBound int

	dist    []graph.Weight
	pred    []uint32
	stamp   []uint32
	settled []uint32
	gen     uint32
	pq      minHeap

	dfsVisited []uint32
	dfsGen     uint32
	dfsStack   []uint32

	pops int
}

// NewAStarQuery prepares query scratch state for repeated queries
// against g, using p for potentials. A reversed adjacency view of g is
// built once up front (grounded on the original's
// `UnweightedOwnedGraph::reversed`) to drive the dead-end DFS guard every
// Query call runs before touching Dijkstra/A*.
func NewAStarQuery(g *graph.Graph, p Potential) *AStarQuery {
	n := g.NumNodes()
	return &AStarQuery{
		g:          g,
		p:          p,
		reversed:   reverse(g),
		dfsBound:   config.Default().Query.DeadEndDFSBound,
		dist:       make([]graph.Weight, n),
		pred:       make([]uint32, n),
		stamp:      make([]uint32, n),
		settled:    make([]uint32, n),
		dfsVisited: make([]uint32, n),
	}
}

// reverse builds g's reversed adjacency: every u->v arc becomes v->u,
// weights carried along unused by the dead-end guard but kept for
// symmetry with graph.Graph's shape.
func reverse(g *graph.Graph) *graph.Graph {
	n := g.NumNodes()
	m := g.NumArcs()
	tails := make([]uint32, m)
	heads := make([]uint32, m)
	weights := make([]graph.Weight, m)
	idx := 0
	for u := uint32(0); u < n; u++ {
		start, end := g.ArcsFrom(u)
		for e := start; e < end; e++ {
			tails[idx] = g.Head[e]
			heads[idx] = u
			weights[idx] = g.Weight[e]
			idx++
		}
	}
	return graph.New(n, tails, heads, weights)
}

// deadEndUnreachable runs a bounded backward DFS from t over the reversed
// original graph (spec §8.4's dead-end scenario, grounded on
// ch_potentials/query.rs's `counter < 100` check ahead of its main
// Dijkstra loop): if the DFS exhausts t's entire backward-reachable set
// before hitting dfsBound and never visits s along the way, no arc
// sequence can possibly connect s to t and the caller can skip running
// A* at all. Unlike the original (which treats any exploration smaller
// than the bound as conclusive on its own), this also requires that s
// itself was absent from the exhausted set, since without the
// biconnected-component partitioning backing the original's bound this is
// the only way to stay exact rather than merely probabilistic.
func (q *AStarQuery) deadEndUnreachable(s, t uint32) bool {
	bound := q.dfsBound
	if bound <= 0 {
		return false
	}

	q.dfsGen++
	q.dfsVisited[t] = q.dfsGen
	q.dfsStack = append(q.dfsStack[:0], t)
	visited := 1
	sawSource := s == t

	for len(q.dfsStack) > 0 {
		v := q.dfsStack[len(q.dfsStack)-1]
		q.dfsStack = q.dfsStack[:len(q.dfsStack)-1]

		start, end := q.reversed.ArcsFrom(v)
		for e := start; e < end; e++ {
			w := q.reversed.Head[e]
			if q.dfsVisited[w] == q.dfsGen {
				continue
			}
			q.dfsVisited[w] = q.dfsGen
			visited++
			if w == s {
				sawSource = true
			}
			if visited >= bound {
				// Exploration capped before exhausting the backward-reachable
				// set: too large to conclude anything, same as the original's
				// counter reaching its bound.
				return false
			}
			q.dfsStack = append(q.dfsStack, w)
		}
	}
	return !sawSource
}

func (q *AStarQuery) at(v uint32) graph.Weight {
	if q.stamp[v] != q.gen {
		return graph.INFINITY
	}
	return q.dist[v]
}

func (q *AStarQuery) touch(v uint32, d graph.Weight) {
	q.dist[v], q.stamp[v] = d, q.gen
}

// Query returns the shortest-path distance from s to t, or
// (graph.INFINITY, false) if t is unreachable.
func (q *AStarQuery) Query(s, t uint32) (graph.Weight, bool) {
	q.gen++
	q.pq.Reset()
	q.pops = 0

	q.p.Init(t)
	potS, ok := q.p.Get(s)
	if !ok {
		return graph.INFINITY, false
	}

	if q.deadEndUnreachable(s, t) {
		return graph.INFINITY, false
	}

	q.touch(s, 0)
	q.pred[s] = graph.NoNode
	q.pq.Push(s, potS)

	for q.pq.Len() > 0 {
		top := q.pq.Pop()
		q.pops++
		v := top.node
		if q.settled[v] == q.gen {
			continue // stale entry, a cheaper relaxation already settled v
		}
		q.settled[v] = q.gen
		if v == t {
			return q.at(v), true
		}
		dv := q.at(v)

		start, end := q.g.ArcsFrom(v)
		for e := start; e < end; e++ {
			w := q.g.Head[e]
			nd := graph.SaturatingAdd(dv, q.g.Weight[e])
			if nd < q.at(w) {
				potW, ok := q.p.Get(w)
				if !ok {
					continue
				}
				q.touch(w, nd)
				q.pred[w] = v
				q.pq.Push(w, graph.SaturatingAdd(nd, potW))
			}
		}
	}
	return graph.INFINITY, false
}

// NumPops reports how many priority-queue pops the most recent Query
// call performed, counting stale re-pops (spec §8 property 5: a
// CH-potentials query must never pop more than plain Dijkstra would).
func (q *AStarQuery) NumPops() int { return q.pops }

// Path reconstructs the node sequence of the most recent successful
// Query(s, t) call.
func (q *AStarQuery) Path(s, t uint32) []uint32 {
	if q.at(t) == graph.INFINITY {
		return nil
	}
	var rev []uint32
	for v := t; ; {
		rev = append(rev, v)
		if v == s {
			break
		}
		p := q.pred[v]
		if p == graph.NoNode {
			return nil
		}
		v = p
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
