package graph

import (
	"errors"
)

var (
	// ErrNoResults is returned when the filters remove everything from a
	// non-empty store. It is a user-facing notice, not a failure.
	ErrNoResults = errors.New("no results for the selected filters")

	// ErrStaleMetrics is returned when publication counts were not recomputed
	// for the requested filters since the last change to the store.
	ErrStaleMetrics = errors.New("publication counts are stale; recompute before filtering")
)

// ViewOptions select the visible subset of the store.
type ViewOptions struct {
	Filters Filters `json:"filters"`

	// FilterByLink applies rank filters to edges; otherwise they apply to
	// the nodes' own frequent ranks.
	FilterByLink bool `json:"filter_by_link"`

	// ShowAllLinks shows every tier in full; otherwise the weakest tier only
	// connects nodes in Selected.
	ShowAllLinks bool `json:"show_all_links"`

	// Selected is the currently selected root set.
	Selected []NodeID `json:"selected,omitempty"`
}

// DefaultViewOptions filters by link and shows all links, as on first load.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{FilterByLink: true, ShowAllLinks: true}
}

// View is the filtered graph handed to the renderer. Edges keep their
// resolved endpoints.
type View struct {
	Nodes []*Node          `json:"nodes"`
	Edges map[Tier][]*Edge `json:"edges"`

	// NoResults is set when the store had data but the filters hid all of
	// it. An empty view from an empty store leaves it false.
	NoResults bool `json:"no_results,omitempty"`
}

// EdgeCount returns the number of visible edges across tiers.
func (v *View) EdgeCount() int {
	n := 0
	for _, edges := range v.Edges {
		n += len(edges)
	}
	return n
}

// IsEmpty reports whether nothing would be drawn.
func (v *View) IsEmpty() bool {
	return len(v.Nodes) == 0 || v.EdgeCount() == 0
}

// Derive computes the visible nodes and edges for the options. Publication
// counts must have been recomputed for opts.Filters after the last merge.
//
// An empty store yields an empty view and no error; a non-empty store that
// filters down to nothing yields ErrNoResults.
func Derive(s *Store, opts ViewOptions) (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.metricsFresh || s.metricsFor != opts.Filters {
		if s.hasDataLocked() {
			return nil, ErrStaleMetrics
		}
	}

	f := opts.Filters
	conf, jour := f.conferenceRank(), f.journalRank()

	edges := make(map[Tier][]*Edge, len(Tiers))
	for _, t := range Tiers {
		for _, e := range s.edgesLocked(t) {
			if e.PubCount <= 0 {
				continue
			}
			if opts.FilterByLink {
				if conf != "" && !hasPositiveRank(e, conf) {
					continue
				}
				if jour != "" && !hasPositiveRank(e, jour) {
					continue
				}
			}
			edges[t] = append(edges[t], e)
		}
	}

	nodes := s.nodesLocked()
	if !opts.FilterByLink {
		nodes = filterNodes(nodes, func(n *Node) bool {
			if conf != "" && n.FreqConfRank != conf {
				return false
			}
			if jour != "" && n.FreqJournalRank != jour {
				return false
			}
			return true
		})
	}

	retained := idSet(nodes)
	for _, t := range Tiers {
		edges[t] = filterEdges(edges[t], func(e *Edge) bool {
			return retained[e.Source] && retained[e.Target]
		})
	}
	nodes = connectedNodes(nodes, edges)

	if !opts.ShowAllLinks {
		selected := make(map[NodeID]bool, len(opts.Selected))
		for _, id := range opts.Selected {
			selected[id] = true
		}
		edges[WeakestTier] = filterEdges(edges[WeakestTier], func(e *Edge) bool {
			return selected[e.Source] && selected[e.Target]
		})
		nodes = connectedNodes(nodes, edges)
	}

	v := &View{Nodes: nodes, Edges: edges}
	if v.IsEmpty() && s.hasDataLocked() {
		v.NoResults = true
		return v, ErrNoResults
	}
	return v, nil
}

func hasPositiveRank(e *Edge, rank string) bool {
	n, ok := e.RankCounts[rank]
	return ok && n > 0
}

func idSet(nodes []*Node) map[NodeID]bool {
	set := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		set[n.ID] = true
	}
	return set
}

// connectedNodes keeps the nodes referenced by at least one edge of any tier.
func connectedNodes(nodes []*Node, edges map[Tier][]*Edge) []*Node {
	linked := make(map[NodeID]bool)
	for _, t := range Tiers {
		for _, e := range edges[t] {
			linked[e.Source] = true
			linked[e.Target] = true
		}
	}
	return filterNodes(nodes, func(n *Node) bool { return linked[n.ID] })
}

func filterNodes(nodes []*Node, keep func(*Node) bool) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func filterEdges(edges []*Edge, keep func(*Edge) bool) []*Edge {
	var out []*Edge
	for _, e := range edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
