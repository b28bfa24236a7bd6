package viz

import (
	"github.com/gwngames/scholargraph/internal/graph"
)

// BuildOptions carries the view settings that affect styling.
type BuildOptions struct {
	Filters      graph.Filters
	FilterByLink bool
}

// OptionsFromView extracts the styling options from view options.
func OptionsFromView(opts graph.ViewOptions) BuildOptions {
	return BuildOptions{Filters: opts.Filters, FilterByLink: opts.FilterByLink}
}

// Build converts a filtered view into render data. Edges are emitted
// strongest tier first, keeping the view's order inside a tier.
func Build(v *graph.View, opts BuildOptions) *GraphData {
	g := &GraphData{Nodes: []Node{}, Edges: []Edge{}}
	if v == nil {
		return g
	}

	for _, n := range v.Nodes {
		g.Nodes = append(g.Nodes, newNode(n))
	}

	for _, tier := range graph.Tiers {
		for _, e := range v.Edges[tier] {
			g.Edges = append(g.Edges, newEdge(tier, e, opts))
		}
	}
	return g
}

func newNode(n *graph.Node) Node {
	radius := OtherRadius
	if n.IsRoot {
		radius = RootRadius
	}
	return Node{
		ID:          string(n.ID),
		Label:       n.Label,
		Image:       n.Image,
		IsRoot:      n.IsRoot,
		Radius:      radius,
		ConfRank:    n.FreqConfRank,
		JournalRank: n.FreqJournalRank,
	}
}

func newEdge(tier graph.Tier, e *graph.Edge, opts BuildOptions) Edge {
	layout := tier.Layout()
	strength := layout.Strength
	if layout.ByRootCount {
		strength = 1
		if e.RootCounts > 0 {
			strength = 1 / e.RootCounts
		}
	}
	return Edge{
		Source:   string(e.Source),
		Target:   string(e.Target),
		Tier:     tier,
		PubCount: e.PubCount,
		Width:    LinkWidth(e.PubCount),
		Color: LinkColor(e.AvgConfRank, e.AvgJournalRank,
			opts.Filters.ConferenceRank, opts.Filters.JournalRank, opts.FilterByLink),
		Distance: layout.Distance,
		Strength: strength,
	}
}
