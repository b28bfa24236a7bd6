// Package graph defines the co-authorship graph model: the merged store of
// authors and tiered collaboration edges, the publication-count metric and
// the filtered view handed to the renderer.
package graph

import (
	"sort"
	"strings"
)

// NodeID identifies an author. Numeric ids from the backend are kept in
// their decimal string form.
type NodeID string

// Node represents an author in the graph.
type Node struct {
	ID              NodeID `json:"id"`
	Label           string `json:"label"`
	Image           string `json:"image,omitempty"`
	IsRoot          bool   `json:"is_root,omitempty"`
	FreqConfRank    string `json:"freq_conf_rank,omitempty"`
	FreqJournalRank string `json:"freq_journal_rank,omitempty"`
}

// Tier classifies how strongly two authors are related.
type Tier string

const (
	TierStrong   Tier = "strong"    // direct co-authorship
	TierSemiWeak Tier = "semi_weak" // shared co-authors
	TierWeak     Tier = "weak"      // connection between requested roots
)

// Tiers lists every tier from strongest to weakest.
var Tiers = []Tier{TierStrong, TierSemiWeak, TierWeak}

// WeakestTier is the tier restricted to selected roots when not all links
// are shown.
const WeakestTier = TierWeak

// LayoutParams are the per-tier force parameters read by the layout engine.
type LayoutParams struct {
	Distance    float64 `json:"distance"`
	Strength    float64 `json:"strength"`
	ByRootCount bool    `json:"by_root_count,omitempty"` // strength = 1/root_counts
}

// Layout returns the layout parameters for the tier.
func (t Tier) Layout() LayoutParams {
	switch t {
	case TierStrong:
		return LayoutParams{Distance: 100, Strength: 1}
	case TierSemiWeak:
		return LayoutParams{Distance: 200, Strength: 1, ByRootCount: true}
	default:
		return LayoutParams{Distance: 300, Strength: 0.1}
	}
}

// WireKey returns the response field that carries the tier's edges.
func (t Tier) WireKey() string {
	switch t {
	case TierStrong:
		return "links"
	case TierSemiWeak:
		return "semi_weak_links"
	default:
		return "weak_links"
	}
}

// PairKey is the order-insensitive identity of an edge within a tier.
type PairKey struct {
	A NodeID
	B NodeID
}

// NewPairKey builds the key so that (a,b) and (b,a) are equal.
func NewPairKey(a, b NodeID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// String formats the key as "a|b".
func (k PairKey) String() string {
	return string(k.A) + "|" + string(k.B)
}

// Edge represents a collaboration between two authors within a tier.
type Edge struct {
	Source         NodeID
	Target         NodeID
	AvgConfRank    string
	AvgJournalRank string
	RootCounts     float64 // 0 when absent

	// YearCounts holds publication counts keyed by publication year.
	YearCounts map[int]float64
	// RankCounts holds publication counts keyed by venue rank label ("A*", "Q1", "Unranked").
	RankCounts map[string]float64

	// PubCount is the weight from the last metric run.
	PubCount int

	sourceNode *Node
	targetNode *Node
}

// Key returns the edge's pair key.
func (e *Edge) Key() PairKey {
	return NewPairKey(e.Source, e.Target)
}

// SourceNode returns the merged node for the source endpoint, or nil before merge.
func (e *Edge) SourceNode() *Node { return e.sourceNode }

// TargetNode returns the merged node for the target endpoint, or nil before merge.
func (e *Edge) TargetNode() *Node { return e.targetNode }

// RankCount returns the count for a rank label and whether it was present.
func (e *Edge) RankCount(rank string) (float64, bool) {
	v, ok := e.RankCounts[rank]
	return v, ok
}

// clone copies the edge so the store never aliases caller-owned maps.
func (e *Edge) clone() *Edge {
	c := *e
	c.YearCounts = make(map[int]float64, len(e.YearCounts))
	for k, v := range e.YearCounts {
		c.YearCounts[k] = v
	}
	c.RankCounts = make(map[string]float64, len(e.RankCounts))
	for k, v := range e.RankCounts {
		c.RankCounts[k] = v
	}
	c.sourceNode, c.targetNode = nil, nil
	return &c
}

// FetchResult is one decoded response of the graph expansion endpoint.
type FetchResult struct {
	Nodes []Node
	Edges map[Tier][]Edge
}

// EdgeCount returns the number of edges across all tiers.
func (r *FetchResult) EdgeCount() int {
	n := 0
	for _, edges := range r.Edges {
		n += len(edges)
	}
	return n
}

// ParseIDList splits a comma-joined id list, trimming blanks and the
// parentheses some callers wrap tuples in.
func ParseIDList(s string) []NodeID {
	s = strings.NewReplacer("(", "", ")", "").Replace(s)
	var ids []NodeID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, NodeID(part))
		}
	}
	return ids
}

// JoinIDs joins ids with "," as expected by the expansion endpoint.
func JoinIDs(ids []NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

// IDSet returns the ids as a sorted, duplicate-free slice.
func IDSet(ids []NodeID) []NodeID {
	seen := make(map[NodeID]bool, len(ids))
	out := make([]NodeID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SameIDSet reports whether a and b contain the same ids regardless of
// order or repetition.
func SameIDSet(a, b []NodeID) bool {
	sa, sb := IDSet(a), IDSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
