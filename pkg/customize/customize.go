// Package customize computes scalar (time-independent) shortest-path
// weights over a fixed CCH topology: the metric-dependent half of
// Customizable Contraction Hierarchies (spec §4.2). The topology from
// pkg/cch never changes between customizations; only the weight vectors
// built here do, which is what makes CCH cheap to re-customize when the
// input metric changes (traffic updates, a different cost function, ...).
package customize

import (
	"context"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"tdcch/internal/config"
	"tdcch/internal/reporter"
	"tdcch/pkg/cch"
	"tdcch/pkg/graph"
)

// Customized holds the scalar upward/downward weight vectors for a CCH,
// indexed by cch arc id. UpWeight[a] is the weight of the shortcut
// travelling from the arc's lower-ranked endpoint to its higher-ranked
// endpoint; DownWeight[a] is the weight travelling the other way.
type Customized struct {
	CCH        *cch.CCH
	UpWeight   []graph.Weight
	DownWeight []graph.Weight

	// UpMiddle[a]/DownMiddle[a] is the rank of the triangle pivot that
	// produced the current winning weight for arc a, or graph.NoNode if
	// the weight still comes straight from an original graph arc. Query
	// unpacking follows these to expand a shortcut into the two shorter
	// shortcuts it was built from, recursively, down to original arcs.
	UpMiddle   []uint32
	DownMiddle []uint32
}

// Customize runs the full sequential customization: seed every cch arc
// with the minimum original-graph arc weight that maps onto it, then
// relax every lower triangle in ascending rank order until all shortcut
// weights are tight.
func Customize(g *graph.Graph, h *cch.CCH) *Customized {
	c := newCustomized(h)
	c.seedOriginalWeights(g)
	h.ForEachLowerTriangle(c.relax)
	log.Printf("Customization complete: %d cch arcs over %d ranks", h.NumArcs(), h.NumNodes())
	return c
}

// CustomizeParallel runs the separator-tree-driven customization: cells
// with no cross-dependencies are customized concurrently via errgroup,
// and a cell's own separator is only processed once every child cell has
// finished (spec §5). Cells smaller than granularity ranks are processed
// inline without spawning further goroutines, matching the
// num_nodes/(32*num_threads) threshold used to bound fork/join overhead.
// A background reporter.Reporter samples the ranks-customized counter
// every few seconds for the duration of the run (spec §5: "may sample
// global counters at ~3s intervals"); it is purely advisory and stops
// the instant the separator tree finishes.
func CustomizeParallel(ctx context.Context, g *graph.Graph, h *cch.CCH, tree *cch.SeparatorTree, numThreads int) (*Customized, error) {
	c := newCustomized(h)
	c.seedOriginalWeights(g)

	divisor := config.Default().Customization.GranularityDivisor
	granularity := h.NumNodes() / uint32(divisor*max(numThreads, 1))
	if granularity < 1 {
		granularity = 1
	}

	var ranksDone atomic.Uint64
	progressCtx, stopProgress := context.WithCancel(ctx)
	rep := reporter.New(nil, uint64(h.NumNodes()), reporter.NewCounter("ranks_customized", &ranksDone))
	go rep.Run(progressCtx)
	defer stopProgress()

	if err := c.processTree(ctx, tree, granularity, &ranksDone); err != nil {
		return nil, err
	}
	log.Printf("Parallel customization complete: %d cch arcs, granularity %d, %d threads", h.NumArcs(), granularity, numThreads)
	return c, nil
}

func newCustomized(h *cch.CCH) *Customized {
	m := h.NumArcs()
	up := make([]graph.Weight, m)
	down := make([]graph.Weight, m)
	upMid := make([]uint32, m)
	downMid := make([]uint32, m)
	for i := range up {
		up[i] = graph.INFINITY
		down[i] = graph.INFINITY
		upMid[i] = graph.NoNode
		downMid[i] = graph.NoNode
	}
	return &Customized{CCH: h, UpWeight: up, DownWeight: down, UpMiddle: upMid, DownMiddle: downMid}
}

func (c *Customized) seedOriginalWeights(g *graph.Graph) {
	order := c.CCH.Order()
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
			w := g.Weight[e]
			if ru < rv {
				arc := c.CCH.FindUpArc(ru, rv)
				if arc != graph.NoArc && w < c.UpWeight[arc] {
					c.UpWeight[arc] = w
				}
			} else {
				arc := c.CCH.FindUpArc(rv, ru)
				if arc != graph.NoArc && w < c.DownWeight[arc] {
					c.DownWeight[arc] = w
				}
			}
		}
	}
}

// relax is the triangle-inequality update applied at every lower
// triangle (r,a,b): a shortcut from a dipping down through r and back up
// to b may beat what (a,b) already holds, and symmetrically for b to a.
func (c *Customized) relax(r, a, b, arcRA, arcRB, arcAB uint32) {
	if v := graph.SaturatingAdd(c.DownWeight[arcRA], c.UpWeight[arcRB]); v < c.UpWeight[arcAB] {
		c.UpWeight[arcAB] = v
		c.UpMiddle[arcAB] = r
	}
	if v := graph.SaturatingAdd(c.DownWeight[arcRB], c.UpWeight[arcRA]); v < c.DownWeight[arcAB] {
		c.DownWeight[arcAB] = v
		c.DownMiddle[arcAB] = r
	}
}

func (c *Customized) processTree(ctx context.Context, t *cch.SeparatorTree, granularity uint32, ranksDone *atomic.Uint64) error {
	if len(t.Children) > 0 && t.Hi-t.Lo > granularity {
		grp, ctx := errgroup.WithContext(ctx)
		for _, child := range t.Children {
			child := child
			grp.Go(func() error { return c.processTree(ctx, child, granularity, ranksDone) })
		}
		if err := grp.Wait(); err != nil {
			return err
		}
	} else {
		for _, child := range t.Children {
			if err := c.processTree(ctx, child, granularity, ranksDone); err != nil {
				return err
			}
		}
	}
	c.CCH.ForEachLowerTriangleInRange(t.SeparatorLo(), t.Hi, c.relax)
	ranksDone.Add(uint64(t.Hi - t.SeparatorLo()))
	return nil
}

// Swap replaces the weight vectors wholesale, used by long-running
// servers to publish a freshly customized metric without rebuilding any
// query structures built on top of it (spec §8 property 6: update
// interface). Like the CCH query structures themselves, Swap assumes a
// single owner; a caller sharing one Customized across goroutines must
// serialize Swap against in-flight queries itself.
func (c *Customized) Swap(other *Customized) {
	c.UpWeight, other.UpWeight = other.UpWeight, c.UpWeight
	c.DownWeight, other.DownWeight = other.DownWeight, c.DownWeight
	c.UpMiddle, other.UpMiddle = other.UpMiddle, c.UpMiddle
	c.DownMiddle, other.DownMiddle = other.DownMiddle, c.DownMiddle
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
