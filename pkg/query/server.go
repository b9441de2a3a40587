package query

import "tdcch/pkg/customize"

// Server bundles a Customized CCH with the query structures built on top
// of it, and lets a long-running process swap in a freshly customized
// metric without tearing down or rebuilding any of them (spec §8,
// testable property 6: re-customizing with a different metric and
// updating a live query server must not require a restart).
type Server struct {
	Customized *customize.Customized
	Elim       *EliminationTreeQuery
	Potential  *CCHPotential
}

// NewServer builds a Server over an already-customized CCH.
func NewServer(c *customize.Customized) *Server {
	return &Server{
		Customized: c,
		Elim:       NewEliminationTreeQuery(c),
		Potential:  NewCCHPotential(c),
	}
}

// Update replaces the live metric with other's in place via
// customize.Customized.Swap, reusing every array already allocated for
// the query structures built on top of it. Like the Rust server this is
// grounded on, Server is single-owner and not safe to Update
// concurrently with an in-flight Query; callers serialize the two
// themselves (e.g. pause query handling between batches).
func (s *Server) Update(other *customize.Customized) {
	s.Customized.Swap(other)
}
