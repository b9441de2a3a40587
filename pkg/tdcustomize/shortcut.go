// Package tdcustomize builds time-dependent CCH shortcuts: the
// customization that attaches a travel-time function to every shortcut in
// a CCH topology instead of a single scalar weight (spec §4.1). Each
// shortcut stores only a scalar lower/upper bound plus a time-segmented
// list of symbolic sources — never the literal function — which is what
// keeps a continental-scale TD-CCH small enough to fit in memory.
package tdcustomize

import (
	"tdcch/pkg/graph"
	"tdcch/pkg/plf"
)

// ShortcutSource names what a shortcut departs along during one segment
// of its day: either a single original-graph arc, or a composed path
// that dips down to a lower-ranked node and back up through two other
// cch arcs. IsNoPath sources mark "no shortcut exists yet" and evaluate
// as an infinite constant; they are never serialized as real answers.
type ShortcutSource struct {
	OriginalArc uint32 // graph.NoArc unless this source is a direct original arc
	Down, Up    uint32 // cch arc ids; graph.NoArc unless this source is composed
}

func (s ShortcutSource) IsOriginal() bool {
	return s.OriginalArc != graph.NoArc
}

func (s ShortcutSource) IsNoPath() bool {
	return s.OriginalArc == graph.NoArc && s.Down == graph.NoArc && s.Up == graph.NoArc
}

var noPathSource = ShortcutSource{OriginalArc: graph.NoArc, Down: graph.NoArc, Up: graph.NoArc}

// TimedSource is one segment of a shortcut's symbolic source list: for
// every tau in [Start, the next segment's Start), the shortcut's value
// is whatever Source evaluates to at tau.
type TimedSource struct {
	Start  float64
	Source ShortcutSource
}

// Shortcut is a time-dependent CCH shortcut. Lower and Upper are always
// present and tight enough to drive CH-potentials and pruning even
// without ever reconstructing the full function; Sources reconstructs
// the function on demand. Required marks whether any query could ever
// actually depart along this shortcut — a shortcut whose every segment
// is IsNoPath is never required.
type Shortcut struct {
	Lower, Upper graph.Weight
	Required     bool
	Sources      []TimedSource
}

// IsConstant reports whether the shortcut has at most one source. A
// single source can itself be a time-dependent function, so a true
// result does not mean the value is the same at every time of day.
func (s *Shortcut) IsConstant() bool { return len(s.Sources) <= 1 }

func weightFromSeconds(v float64) graph.Weight {
	if v >= float64(graph.INFINITY) {
		return graph.INFINITY
	}
	if v < 0 {
		v = 0
	}
	return graph.Weight(v + 0.5)
}

// dedupeSources collapses consecutive segments that ended up naming the
// exact same source, which otherwise accumulate every time a merge
// revisits a boundary that didn't actually need splitting.
func dedupeSources(in []TimedSource) []TimedSource {
	if len(in) == 0 {
		return in
	}
	out := in[:1]
	for _, ts := range in[1:] {
		last := out[len(out)-1]
		if ts.Source == last.Source {
			continue
		}
		out = append(out, ts)
	}
	return out
}

func segmentSourceAt(sources []TimedSource, tau, period float64) ShortcutSource {
	tau = wrapTau(tau, period)
	if len(sources) == 0 {
		return noPathSource
	}
	chosen := sources[0].Source
	for _, ts := range sources {
		if ts.Start > tau+plf.Epsilon {
			break
		}
		chosen = ts.Source
	}
	return chosen
}

func wrapTau(tau, period float64) float64 {
	for tau < 0 {
		tau += period
	}
	for tau >= period {
		tau -= period
	}
	return tau
}
