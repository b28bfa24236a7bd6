package graph

import (
	"sync"
)

// DroppedEdge describes an incoming edge that could not be merged because an
// endpoint is not in the store.
type DroppedEdge struct {
	Tier   Tier   `json:"tier"`
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
	Reason string `json:"reason"` // "missing_source", "missing_target", or "missing_both"
}

// MergeReport summarises what a merge changed.
type MergeReport struct {
	NodesAdded  int           `json:"nodes_added"`
	EdgesAdded  map[Tier]int  `json:"edges_added"`
	Dropped     []DroppedEdge `json:"dropped,omitempty"`
	PrunedNodes int           `json:"pruned_nodes,omitempty"`
	PrunedEdges int           `json:"pruned_edges,omitempty"`
}

// TotalEdgesAdded sums EdgesAdded over all tiers.
func (r MergeReport) TotalEdgesAdded() int {
	n := 0
	for _, c := range r.EdgesAdded {
		n += c
	}
	return n
}

// Stats holds store sizes.
type Stats struct {
	Nodes int          `json:"nodes"`
	Edges map[Tier]int `json:"edges"`
}

// edgeSet is the per-tier dedup namespace, kept in insertion order.
type edgeSet struct {
	byKey map[PairKey]*Edge
	order []PairKey
}

func newEdgeSet() *edgeSet {
	return &edgeSet{byKey: make(map[PairKey]*Edge)}
}

// Store is the merged, session-wide graph. All mutation goes through Merge,
// Reset and the metric engine; every method is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	nodes map[NodeID]*Node
	order []NodeID
	tiers map[Tier]*edgeSet

	pruneToRoots bool
	scope        []NodeID

	// metric bookkeeping, see MetricEngine
	metricsFresh bool
	metricsFor   Filters
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRootPruning makes every merge discard nodes and edges that are not
// reachable from the scope roots set with SetScope.
func WithRootPruning() StoreOption {
	return func(s *Store) {
		s.pruneToRoots = true
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	s.resetLocked()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset clears the store back to its empty state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.nodes = make(map[NodeID]*Node)
	s.order = nil
	s.tiers = make(map[Tier]*edgeSet, len(Tiers))
	for _, t := range Tiers {
		s.tiers[t] = newEdgeSet()
	}
	s.metricsFresh = false
}

// SetScope sets the roots every following merge prunes to. A nil scope
// merges without pruning. It has no effect unless the store was created
// WithRootPruning.
func (s *Store) SetScope(roots []NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = append([]NodeID(nil), roots...)
}

// ApplyScope sets the scope and, when root pruning is on, prunes the store
// to it right away. It returns the number of nodes and edges removed.
func (s *Store) ApplyScope(roots []NodeID) (nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = append([]NodeID(nil), roots...)
	if !s.pruneToRoots || len(s.scope) == 0 {
		return 0, 0
	}
	return s.pruneLocked(s.scope)
}

// PrunesToRoots reports whether the store was created WithRootPruning.
func (s *Store) PrunesToRoots() bool {
	return s.pruneToRoots
}

// Merge adds the nodes and edges of r that are not yet present. Nodes are
// identified by id and edges by unordered endpoint pair within their tier;
// the first payload seen for an identity wins. Edges whose endpoints are not
// in the store after the node pass are dropped and listed in the report.
func (s *Store) Merge(r FetchResult) MergeReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := MergeReport{EdgesAdded: make(map[Tier]int, len(Tiers))}

	for i := range r.Nodes {
		n := r.Nodes[i]
		if n.ID == "" {
			continue
		}
		if _, ok := s.nodes[n.ID]; ok {
			continue
		}
		s.nodes[n.ID] = &n
		s.order = append(s.order, n.ID)
		report.NodesAdded++
	}

	for _, tier := range Tiers {
		set := s.tiers[tier]
		for i := range r.Edges[tier] {
			in := &r.Edges[tier][i]
			key := in.Key()
			if _, ok := set.byKey[key]; ok {
				continue
			}

			src, srcOK := s.nodes[in.Source]
			dst, dstOK := s.nodes[in.Target]
			if !srcOK || !dstOK {
				report.Dropped = append(report.Dropped, DroppedEdge{
					Tier:   tier,
					Source: in.Source,
					Target: in.Target,
					Reason: missingReason(srcOK, dstOK),
				})
				continue
			}

			e := in.clone()
			e.sourceNode, e.targetNode = src, dst
			set.byKey[key] = e
			set.order = append(set.order, key)
			report.EdgesAdded[tier]++
		}
	}

	if s.pruneToRoots && len(s.scope) > 0 {
		report.PrunedNodes, report.PrunedEdges = s.pruneLocked(s.scope)
	}

	if report.NodesAdded > 0 || report.TotalEdgesAdded() > 0 {
		s.metricsFresh = false
	}
	return report
}

func missingReason(sourceOK, targetOK bool) string {
	switch {
	case !sourceOK && !targetOK:
		return "missing_both"
	case !sourceOK:
		return "missing_source"
	default:
		return "missing_target"
	}
}

// Node returns the node with the given id.
func (s *Store) Node(id NodeID) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (s *Store) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodesLocked()
}

func (s *Store) nodesLocked() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Edges returns the edges of a tier in insertion order.
func (s *Store) Edges(tier Tier) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesLocked(tier)
}

func (s *Store) edgesLocked(tier Tier) []*Edge {
	set, ok := s.tiers[tier]
	if !ok {
		return nil
	}
	out := make([]*Edge, 0, len(set.order))
	for _, key := range set.order {
		out = append(out, set.byKey[key])
	}
	return out
}

// Stats returns node and per-tier edge counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Nodes: len(s.nodes), Edges: make(map[Tier]int, len(Tiers))}
	for _, t := range Tiers {
		st.Edges[t] = len(s.tiers[t].order)
	}
	return st
}

// HasData reports whether the store holds at least one node and one edge.
func (s *Store) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasDataLocked()
}

func (s *Store) hasDataLocked() bool {
	if len(s.nodes) == 0 {
		return false
	}
	for _, t := range Tiers {
		if len(s.tiers[t].order) > 0 {
			return true
		}
	}
	return false
}

// Snapshot returns a FetchResult holding the current store content. Merging
// it into an empty store reproduces this store.
func (s *Store) Snapshot() FetchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := FetchResult{Edges: make(map[Tier][]Edge, len(Tiers))}
	for _, n := range s.nodesLocked() {
		r.Nodes = append(r.Nodes, *n)
	}
	for _, t := range Tiers {
		for _, e := range s.edgesLocked(t) {
			r.Edges[t] = append(r.Edges[t], *e.clone())
		}
	}
	return r
}
