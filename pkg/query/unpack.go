package query

import (
	"tdcch/pkg/customize"
	"tdcch/pkg/graph"
)

// maxUnpackDepth bounds shortcut unpacking recursion; a well-formed CCH
// from a sane elimination order never gets anywhere near it.
const maxUnpackDepth = 1000

type unpackItem struct {
	arc   uint32
	isUp  bool
	depth int
}

// UnpackUp expands an upward cch arc into the sequence of ranks it
// passes through, from just after its own origin rank up to and
// including its head, recursing through recorded triangle pivots
// (pkg/customize.Customized.UpMiddle) down to direct original arcs.
func UnpackUp(c *customize.Customized, arc uint32) []uint32 {
	return unpackArc(c, arc, true)
}

// UnpackDown is UnpackUp's mirror: it expands a downward traversal of
// arc (head to origin), returning ranks in travel order ending at the
// arc's origin rank.
func UnpackDown(c *customize.Customized, arc uint32) []uint32 {
	return unpackArc(c, arc, false)
}

func unpackArc(c *customize.Customized, arc uint32, isUp bool) []uint32 {
	var out []uint32
	stack := []unpackItem{{arc: arc, isUp: isUp}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if item.depth > maxUnpackDepth {
			continue
		}

		lo := c.CCH.FromRank(item.arc)
		hi := c.CCH.Head[item.arc]

		var mid uint32
		if item.isUp {
			mid = c.UpMiddle[item.arc]
		} else {
			mid = c.DownMiddle[item.arc]
		}

		if mid == graph.NoNode {
			if item.isUp {
				out = append(out, hi)
			} else {
				out = append(out, lo)
			}
			continue
		}

		// Triangle (mid, lo, hi): up(lo,hi) = down(mid,lo) + up(mid,hi);
		// down(hi,lo) = down(mid,hi) + up(mid,lo).
		downMidLo := c.CCH.FindUpArc(mid, lo)
		upMidHi := c.CCH.FindUpArc(mid, hi)

		if item.isUp {
			// lo -> mid -> hi: push in reverse so lo->mid pops first.
			stack = append(stack, unpackItem{arc: upMidHi, isUp: true, depth: item.depth + 1})
			stack = append(stack, unpackItem{arc: downMidLo, isUp: false, depth: item.depth + 1})
		} else {
			// hi -> mid -> lo: push in reverse so hi->mid pops first.
			stack = append(stack, unpackItem{arc: downMidLo, isUp: true, depth: item.depth + 1})
			stack = append(stack, unpackItem{arc: upMidHi, isUp: false, depth: item.depth + 1})
		}
	}
	return out
}
