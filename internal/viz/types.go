// Package viz turns a filtered co-authorship view into render-ready graph
// data and a self-contained Cytoscape.js page.
package viz

import "github.com/gwngames/scholargraph/internal/graph"

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents an author in the rendered graph.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Image  string `json:"image,omitempty"`
	IsRoot bool   `json:"isRoot"`

	// Radius in pixels; roots are drawn larger.
	Radius int `json:"radius"`

	// Tooltip fields
	ConfRank    string `json:"confRank,omitempty"`
	JournalRank string `json:"journalRank,omitempty"`
}

// Edge represents a collaboration link in the rendered graph.
type Edge struct {
	Source   string     `json:"source"`
	Target   string     `json:"target"`
	Tier     graph.Tier `json:"tier"`
	PubCount int        `json:"pubCount"`

	Width float64 `json:"width"`
	Color string  `json:"color"`

	// Layout hints read by the force layout.
	Distance float64 `json:"distance"`
	Strength float64 `json:"strength"`
}

// IsEmpty returns true if nothing would be drawn.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0 || len(g.Edges) == 0
}
