package cch

// SeparatorTree is the nested-dissection decomposition backing a node
// order: ranks [0, NumNodes) are laid out so that every tree node's own
// ranks form a contiguous block, the tail of that block (of length
// SeparatorSize) is its separator, and the remaining prefix is split
// contiguously among its Children. Customization processes every child
// cell independently (they share no rank) before the separator itself,
// which is what makes fork/join customization correct: a separator can
// depend on its children's results, never the reverse (spec §5).
//
// Finding a good separator order is out of this package's scope; the
// decomposition is supplied alongside the node order. When none is
// supplied, Flat degrades to a single cell covering every rank, which
// makes customization fully sequential but still correct.
type SeparatorTree struct {
	Lo, Hi        uint32 // ranks [Lo, Hi) owned by this cell, including separator
	SeparatorSize uint32 // the trailing SeparatorSize ranks of [Lo, Hi) are the separator
	Children      []*SeparatorTree
}

// SeparatorLo is the first rank of this cell's own separator.
func (t *SeparatorTree) SeparatorLo() uint32 { return t.Hi - t.SeparatorSize }

// Flat builds a single-cell decomposition spanning all n ranks, i.e. "no
// decomposition available" — every rank is the separator of one cell.
func Flat(n uint32) *SeparatorTree {
	return &SeparatorTree{Lo: 0, Hi: n, SeparatorSize: n}
}

// Balanced splits [0, n) into a simple binary separator tree whose leaf
// cells hold at most minCellSize ranks, used in tests and whenever no externally
// computed nested-dissection decomposition is available but parallelism
// is still wanted. Each level's separator is a single rank (the highest
// rank in the cell), which is not a real vertex separator in general —
// only genuinely planar/road-like inputs with a real decomposition get
// the full benefit described in spec §5; this is a structurally-correct
// fallback, not a substitute for a real one.
func Balanced(n, minCellSize uint32) *SeparatorTree {
	return buildBalanced(0, n, minCellSize)
}

func buildBalanced(lo, hi, minCellSize uint32) *SeparatorTree {
	size := hi - lo
	if size <= minCellSize || size <= 1 {
		return &SeparatorTree{Lo: lo, Hi: hi, SeparatorSize: size}
	}
	mid := lo + (size-1)/2
	left := buildBalanced(lo, mid, minCellSize)
	right := buildBalanced(mid, hi-1, minCellSize)
	return &SeparatorTree{
		Lo:            lo,
		Hi:            hi,
		SeparatorSize: 1,
		Children:      []*SeparatorTree{left, right},
	}
}
