package tdcustomize

import (
	"context"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"tdcch/internal/config"
	"tdcch/internal/reporter"
	"tdcch/pkg/cch"
	"tdcch/pkg/graph"
	"tdcch/pkg/plf"
)

// ArcFunctions supplies a PLF for every original-graph arc whose travel
// time genuinely varies with departure time; arcs absent from the map
// keep a constant function derived from the graph's scalar weight.
type ArcFunctions map[uint32]*plf.PLF

// ShortcutGraph is a CCH whose every arc carries a time-dependent
// Shortcut instead of a scalar weight.
type ShortcutGraph struct {
	CCH    *cch.CCH
	Up     []Shortcut
	Down   []Shortcut
	Period float64

	fns    ArcFunctions
	weight []graph.Weight

	// upBoundRequired[a]/downBoundRequired[a] mirrors Bounds.UpRequired/
	// DownRequired: false where the pre-customization bound sweep
	// already proved arc a is dominated by some other triangle and can
	// never be the cheapest route. The post-customization pass consults
	// these alongside hasRealSource to decide what to compact.
	upBoundRequired, downBoundRequired []bool
}

// Options tunes the customization pass (spec §9 open questions).
type Options struct {
	Period          float64
	ApproxThreshold int
	ApproxEps       float64
	RunPostPass     bool
}

// DefaultOptions derives the customization tuning from internal/config's
// shared Tuning defaults, so this package's constants and a deployment's
// config file never diverge (spec §9: "both behaviors must be
// supported").
func DefaultOptions() Options {
	t := config.Default()
	return Options{
		Period:          t.Period,
		ApproxThreshold: t.Approximation.Threshold,
		ApproxEps:       t.Approximation.Epsilon,
		RunPostPass:     t.Customization.RunPostPass,
	}
}

// TDCustomize runs the full time-dependent customization sequentially:
// seed every cch arc from the base graph and its functions, compute
// cheap scalar bounds to prune obviously-dominated triangles, then relax
// every lower triangle in ascending rank order, building and discarding
// a concrete PLF per shortcut only as long as it takes to fold a
// triangle's contribution into the next one (spec §4.1, §4.2).
func TDCustomize(h *cch.CCH, g *graph.Graph, fns ArcFunctions, opts Options) *ShortcutGraph {
	sg := newShortcutGraph(h, fns, g.Weight, opts.Period)
	sg.seedOriginal(g)

	bounds := PreCustomizeBounds(h, g, fns, plf.NewArena(int(h.NumArcs())*4))
	sg.applyBoundFloor(bounds)

	h.ForEachLowerTriangle(func(r, a, b, arcRA, arcRB, arcAB uint32) {
		sg.relaxTriangle(arcRA, arcRB, arcAB, opts.ApproxThreshold, opts.ApproxEps)
	})

	sg.MarkRequired()
	if opts.RunPostPass {
		sg.PostCustomize()
	}
	log.Printf("Time-dependent customization complete: %d cch arcs, period %.0fs", h.NumArcs(), opts.Period)
	return sg
}

// TDCustomizeParallel is TDCustomize driven by a separator tree: cells
// with no rank overlap are customized concurrently, a cell's own
// separator only runs once every child has finished (spec §5, grounded
// on the same fork/join shape as pkg/customize). Workers use no scratch
// arena: every Link and Merge they run allocates its own slices.
func TDCustomizeParallel(ctx context.Context, h *cch.CCH, g *graph.Graph, fns ArcFunctions, tree *cch.SeparatorTree, numThreads int, opts Options) (*ShortcutGraph, error) {
	sg := newShortcutGraph(h, fns, g.Weight, opts.Period)
	sg.seedOriginal(g)

	bounds := PreCustomizeBounds(h, g, fns, plf.NewArena(int(h.NumArcs())*4))
	sg.applyBoundFloor(bounds)

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

	if err := sg.processTree(ctx, tree, granularity, opts, &ranksDone); err != nil {
		return nil, err
	}
	sg.MarkRequired()
	if opts.RunPostPass {
		sg.PostCustomize()
	}
	log.Printf("Parallel time-dependent customization complete: %d cch arcs, granularity %d, %d threads", h.NumArcs(), granularity, numThreads)
	return sg, nil
}

func (sg *ShortcutGraph) processTree(ctx context.Context, t *cch.SeparatorTree, granularity uint32, opts Options, ranksDone *atomic.Uint64) error {
	if len(t.Children) > 0 && t.Hi-t.Lo > granularity {
		grp, ctx := errgroup.WithContext(ctx)
		for _, child := range t.Children {
			child := child
			grp.Go(func() error { return sg.processTree(ctx, child, granularity, opts, ranksDone) })
		}
		if err := grp.Wait(); err != nil {
			return err
		}
	} else {
		for _, child := range t.Children {
			if err := sg.processTree(ctx, child, granularity, opts, ranksDone); err != nil {
				return err
			}
		}
	}
	sg.CCH.ForEachLowerTriangleInRange(t.SeparatorLo(), t.Hi, func(r, a, b, arcRA, arcRB, arcAB uint32) {
		sg.relaxTriangle(arcRA, arcRB, arcAB, opts.ApproxThreshold, opts.ApproxEps)
	})
	ranksDone.Add(uint64(t.Hi - t.SeparatorLo()))
	return nil
}

func newShortcutGraph(h *cch.CCH, fns ArcFunctions, weight []graph.Weight, period float64) *ShortcutGraph {
	m := int(h.NumArcs())
	sg := &ShortcutGraph{
		CCH:    h,
		Up:     make([]Shortcut, m),
		Down:   make([]Shortcut, m),
		Period: period,
		fns:    fns,
		weight: weight,
	}
	for i := 0; i < m; i++ {
		sg.Up[i] = Shortcut{Lower: graph.INFINITY, Upper: graph.INFINITY, Sources: []TimedSource{{Start: 0, Source: noPathSource}}}
		sg.Down[i] = Shortcut{Lower: graph.INFINITY, Upper: graph.INFINITY, Sources: []TimedSource{{Start: 0, Source: noPathSource}}}
	}
	return sg
}

func (sg *ShortcutGraph) seedOriginal(g *graph.Graph) {
	order := sg.CCH.Order()
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
			src := ShortcutSource{OriginalArc: e, Down: graph.NoArc, Up: graph.NoArc}
			lo, up := arcBounds(g, sg.fns, e)

			if ru < rv {
				arc := sg.CCH.FindUpArc(ru, rv)
				if arc != graph.NoArc && weightFromSeconds(up) < sg.Up[arc].Upper {
					sg.Up[arc] = Shortcut{
						Lower:   weightFromSeconds(lo),
						Upper:   weightFromSeconds(up),
						Sources: []TimedSource{{Start: 0, Source: src}},
					}
				}
			} else {
				arc := sg.CCH.FindUpArc(rv, ru)
				if arc != graph.NoArc && weightFromSeconds(up) < sg.Down[arc].Upper {
					sg.Down[arc] = Shortcut{
						Lower:   weightFromSeconds(lo),
						Upper:   weightFromSeconds(up),
						Sources: []TimedSource{{Start: 0, Source: src}},
					}
				}
			}
		}
	}
}

// applyBoundFloor tightens every shortcut's Lower bound up front from the
// cheap scalar pre-pass, so relaxTriangle's pruning check has something
// meaningful to compare against even before any triangle touching that
// arc has run. It also records which arcs the pre-customization
// dominance sweep already proved unnecessary, for PostCustomize to act
// on once the real per-arc sources are known.
func (sg *ShortcutGraph) applyBoundFloor(b Bounds) {
	for i := range sg.Up {
		if w := weightFromSeconds(b.UpLower[i]); w > sg.Up[i].Lower {
			sg.Up[i].Lower = w
		}
	}
	for i := range sg.Down {
		if w := weightFromSeconds(b.DownLower[i]); w > sg.Down[i].Lower {
			sg.Down[i].Lower = w
		}
	}
	sg.upBoundRequired = b.UpRequired
	sg.downBoundRequired = b.DownRequired
}

// relaxTriangle is the time-dependent analogue of pkg/customize's scalar
// relax: candidate functions are built via plf.Link from the two lower
// arcs, merged pointwise into the existing shortcut via plf.Merge, and
// the merge's per-segment minimizer flags are turned back into a
// rebuilt source list. Approximation applies only to the merged function
// the shortcut's Lower/Upper bounds are read from; the source list
// itself is not approximated.
func (sg *ShortcutGraph) relaxTriangle(arcRA, arcRB, arcAB uint32, threshold int, eps float64) {
	downRA, upRB := &sg.Down[arcRA], &sg.Up[arcRB]
	if graph.SaturatingAdd(downRA.Lower, upRB.Lower) <= sg.Up[arcAB].Upper {
		viaUp := plf.Link(sg.materialize(downRA), sg.materialize(upRB))
		sg.mergeInto(&sg.Up[arcAB], viaUp, ShortcutSource{OriginalArc: graph.NoArc, Down: arcRA, Up: arcRB}, threshold, eps)
	}

	downRB, upRA := &sg.Down[arcRB], &sg.Up[arcRA]
	if graph.SaturatingAdd(downRB.Lower, upRA.Lower) <= sg.Down[arcAB].Upper {
		viaDown := plf.Link(sg.materialize(downRB), sg.materialize(upRA))
		sg.mergeInto(&sg.Down[arcAB], viaDown, ShortcutSource{OriginalArc: graph.NoArc, Down: arcRB, Up: arcRA}, threshold, eps)
	}
}

func (sg *ShortcutGraph) mergeInto(s *Shortcut, candidate *plf.PLF, src ShortcutSource, threshold int, eps float64) {
	existing := sg.materialize(s)
	merged := plf.Merge(existing, candidate)
	approx := plf.Approximate(merged.PLF, threshold, eps)

	old := s.Sources
	rebuilt := make([]TimedSource, 0, len(merged.Selves))
	for i := 0; i < len(merged.Selves)-1; i++ {
		t := merged.Times[i]
		if merged.Selves[i] {
			rebuilt = append(rebuilt, TimedSource{Start: t, Source: segmentSourceAt(old, t, sg.Period)})
		} else {
			rebuilt = append(rebuilt, TimedSource{Start: t, Source: src})
		}
	}
	rebuilt = dedupeSources(rebuilt)

	lb, ub, _ := approx.GlobalBounds()
	s.Lower = weightFromSeconds(lb)
	s.Upper = weightFromSeconds(ub)
	s.Sources = rebuilt
}

// materialize reconstructs a shortcut's full PLF from its symbolic
// source list, recursing through composed sources; the result is never
// retained on the Shortcut itself once the caller is done with it.
func (sg *ShortcutGraph) materialize(s *Shortcut) *plf.PLF {
	segs := make([]plf.Segment, len(s.Sources))
	for i, ts := range s.Sources {
		end := sg.Period
		if i+1 < len(s.Sources) {
			end = s.Sources[i+1].Start
		}
		segs[i] = plf.Segment{Start: ts.Start, End: end, Fn: sg.fnOf(ts.Source)}
	}
	return plf.Glue(sg.Period, segs)
}

func (sg *ShortcutGraph) fnOf(src ShortcutSource) *plf.PLF {
	switch {
	case src.IsNoPath():
		return plf.Constant(sg.Period, float64(graph.INFINITY))
	case src.IsOriginal():
		if fn, ok := sg.fns[src.OriginalArc]; ok {
			return fn
		}
		return plf.Constant(sg.Period, float64(sg.weight[src.OriginalArc]))
	default:
		down := sg.materialize(&sg.Down[src.Down])
		up := sg.materialize(&sg.Up[src.Up])
		return plf.Link(down, up)
	}
}

// MarkRequired flags every shortcut that can ever actually answer a
// query with a finite value. A shortcut is required only if it both has
// a real (non-no-path) source somewhere in its day, and the
// pre-customization bound sweep never proved it's always beaten by some
// other triangle (applyBoundFloor's upBoundRequired/downBoundRequired).
// A shortcut failing either test never contributes anything and is safe
// for PostCustomize to drop or skip when serializing.
func (sg *ShortcutGraph) MarkRequired() {
	for i := range sg.Up {
		req := hasRealSource(sg.Up[i].Sources)
		if sg.upBoundRequired != nil && !sg.upBoundRequired[i] {
			req = false
		}
		sg.Up[i].Required = req
	}
	for i := range sg.Down {
		req := hasRealSource(sg.Down[i].Sources)
		if sg.downBoundRequired != nil && !sg.downBoundRequired[i] {
			req = false
		}
		sg.Down[i].Required = req
	}
}

func hasRealSource(sources []TimedSource) bool {
	for _, ts := range sources {
		if !ts.Source.IsNoPath() {
			return true
		}
	}
	return false
}

// PostCustomize re-examines every shortcut once customization has
// settled and compacts the ones MarkRequired proved are never needed:
// their symbolic source list is collapsed to a single no-path segment
// and their bounds reset to INFINITY, freeing the memory a longer,
// dead source list would otherwise hold (spec §4.4's post-customization
// pass, gated behind Options.RunPostPass / config.Tuning.Customization.
// RunPostPass since it only changes memory footprint, never a query
// result: a required shortcut is untouched, and a shortcut that fails
// MarkRequired was already unreachable, so collapsing its sources here
// cannot change what any query observes).
func (sg *ShortcutGraph) PostCustomize() {
	for i := range sg.Up {
		if !sg.Up[i].Required {
			sg.Up[i].Lower = graph.INFINITY
			sg.Up[i].Upper = graph.INFINITY
			sg.Up[i].Sources = []TimedSource{{Start: 0, Source: noPathSource}}
		}
	}
	for i := range sg.Down {
		if !sg.Down[i].Required {
			sg.Down[i].Lower = graph.INFINITY
			sg.Down[i].Upper = graph.INFINITY
			sg.Down[i].Sources = []TimedSource{{Start: 0, Source: noPathSource}}
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
