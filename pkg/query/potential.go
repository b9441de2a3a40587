package query

import (
	"tdcch/pkg/customize"
	"tdcch/pkg/graph"
)

// Potential is a lower bound on the remaining distance to the A* target,
// used to focus Dijkstra's search (spec §4.3: CH-potentials A*).
type Potential interface {
	// Init fixes the target for subsequent Get calls.
	Init(target uint32)
	// Get returns a lower bound on dist(node, target), or false if node
	// cannot reach the target in the potential's underlying metric.
	Get(node uint32) (graph.Weight, bool)
	// NumEvals reports how many distinct nodes required a fresh
	// (uncached) potential computation since the last Init.
	NumEvals() int
}

// ZeroPotential is the trivial always-admissible potential, equivalent to
// running plain Dijkstra.
type ZeroPotential struct{}

func (ZeroPotential) Init(uint32)                     {}
func (ZeroPotential) Get(uint32) (graph.Weight, bool) { return 0, true }
func (ZeroPotential) NumEvals() int                   { return 0 }

// CCHPotential computes admissible potentials from a Customized CCH built
// over a feasible lower-bound metric (e.g. free-flow travel time): a
// valid lower bound in that metric is, by construction, also a lower
// bound in any real metric that never beats it (spec §4.3).
//
// Init does one ascending elimination-tree sweep from the target using
// DownWeight, exactly like the backward half of EliminationTreeQuery.
// Get then answers any source node in amortized O(1): a classical fact
// about elimination trees built by symbolic Cholesky factorization is
// that every upward CCH neighbor of a node is an ancestor of that node
// in the elimination tree, so walking the single parent chain from node
// to the root is guaranteed to visit every dependency potential(node)
// could possibly need before node itself. Potentials are memoized across
// calls until the next Init, so later queries against the same target
// reuse work done by earlier ones.
type CCHPotential struct {
	c *customize.Customized

	backwardDist []graph.Weight
	distStamp    []uint32

	potentials []graph.Weight
	potSet     []uint32

	stack    []uint32
	gen      uint32
	numEvals int
}

// NewCCHPotential prepares potential scratch state sized for c's CCH.
func NewCCHPotential(c *customize.Customized) *CCHPotential {
	n := c.CCH.NumNodes()
	return &CCHPotential{
		c:            c,
		backwardDist: make([]graph.Weight, n),
		distStamp:    make([]uint32, n),
		potentials:   make([]graph.Weight, n),
		potSet:       make([]uint32, n),
	}
}

func (p *CCHPotential) atDist(r uint32) graph.Weight {
	if p.distStamp[r] != p.gen {
		return graph.INFINITY
	}
	return p.backwardDist[r]
}

// Init computes dist(v, target) in the lower-bound metric for every rank
// v reachable by ascending from target via DownWeight arcs (the same
// sweep used for EliminationTreeQuery's backward half).
func (p *CCHPotential) Init(target uint32) {
	p.gen++
	p.numEvals = 0

	rt := p.c.CCH.Order().Rank(target)
	p.backwardDist[rt], p.distStamp[rt] = 0, p.gen

	n := p.c.CCH.NumNodes()
	for r := uint32(0); r < n; r++ {
		d := p.atDist(r)
		if d == graph.INFINITY {
			continue
		}
		from, to := p.c.CCH.ArcsFrom(r)
		for a := from; a < to; a++ {
			head := p.c.CCH.Head[a]
			if nd := graph.SaturatingAdd(d, p.c.DownWeight[a]); nd < p.atDist(head) {
				p.backwardDist[head], p.distStamp[head] = nd, p.gen
			}
		}
	}
}

// Get returns the potential for node: a lower bound on dist(node,
// target) in the real metric.
func (p *CCHPotential) Get(node uint32) (graph.Weight, bool) {
	r := p.c.CCH.Order().Rank(node)
	if p.potSet[r] != p.gen {
		p.numEvals++
	}

	p.stack = p.stack[:0]
	cur := r
	for p.potSet[cur] != p.gen {
		p.stack = append(p.stack, cur)
		parent := p.c.CCH.Parent[cur]
		if parent == graph.NoNode {
			break
		}
		cur = parent
	}

	for len(p.stack) > 0 {
		v := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		best := p.atDist(v)
		from, to := p.c.CCH.ArcsFrom(v)
		for a := from; a < to; a++ {
			head := p.c.CCH.Head[a]
			if cand := graph.SaturatingAdd(p.c.UpWeight[a], p.potentials[head]); cand < best {
				best = cand
			}
		}
		p.potentials[v], p.potSet[v] = best, p.gen
	}

	dist := p.potentials[r]
	return dist, dist != graph.INFINITY
}

func (p *CCHPotential) NumEvals() int { return p.numEvals }
