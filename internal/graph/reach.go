package graph

// adjacencyLocked builds the undirected, tier-agnostic adjacency list.
func (s *Store) adjacencyLocked() map[NodeID][]NodeID {
	adj := make(map[NodeID][]NodeID, len(s.nodes))
	for _, t := range Tiers {
		for _, key := range s.tiers[t].order {
			adj[key.A] = append(adj[key.A], key.B)
			adj[key.B] = append(adj[key.B], key.A)
		}
	}
	return adj
}

// Reachable returns the ids reachable from any of the roots, roots included
// when they are in the store.
func (s *Store) Reachable(roots []NodeID) map[NodeID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reachableLocked(roots)
}

func (s *Store) reachableLocked(roots []NodeID) map[NodeID]bool {
	adj := s.adjacencyLocked()
	seen := make(map[NodeID]bool)
	var queue []NodeID
	for _, r := range roots {
		if _, ok := s.nodes[r]; ok && !seen[r] {
			seen[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// pruneLocked drops every node and edge not reachable from the roots and
// returns how many of each were removed.
func (s *Store) pruneLocked(roots []NodeID) (nodes, edges int) {
	keep := s.reachableLocked(roots)

	order := s.order[:0]
	for _, id := range s.order {
		if keep[id] {
			order = append(order, id)
			continue
		}
		delete(s.nodes, id)
		nodes++
	}
	s.order = order

	for _, t := range Tiers {
		set := s.tiers[t]
		kept := set.order[:0]
		for _, key := range set.order {
			if keep[key.A] && keep[key.B] {
				kept = append(kept, key)
				continue
			}
			delete(set.byKey, key)
			edges++
		}
		set.order = kept
	}
	if nodes > 0 || edges > 0 {
		s.metricsFresh = false
	}
	return nodes, edges
}

// Prune removes everything not reachable from the roots.
func (s *Store) Prune(roots []NodeID) (nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(roots)
}
