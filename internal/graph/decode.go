package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Reserved edge properties that never count as year or rank fields.
const (
	fieldSource         = "source"
	fieldTarget         = "target"
	fieldAvgConfRank    = "avg_conf_rank"
	fieldAvgJournalRank = "avg_journal_rank"
	fieldRootCounts     = "root_counts"
	fieldPubCount       = "pub_count"
)

// UnmarshalJSON accepts ids encoded as JSON strings or numbers.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id must be a string or number: %w", err)
	}
	*id = NodeID(n.String())
	return nil
}

// UnmarshalJSON decodes the flat wire form of an edge, classifying every
// extra property once: integer names are year counts, other names are
// rank counts. Values that are not non-negative numbers are dropped.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Edge{
		YearCounts: make(map[int]float64),
		RankCounts: make(map[string]float64),
	}

	for key, val := range raw {
		switch key {
		case fieldSource:
			if err := e.Source.UnmarshalJSON(endpointID(val)); err != nil {
				return fmt.Errorf("edge source: %w", err)
			}
		case fieldTarget:
			if err := e.Target.UnmarshalJSON(endpointID(val)); err != nil {
				return fmt.Errorf("edge target: %w", err)
			}
		case fieldAvgConfRank:
			e.AvgConfRank = decodeOptionalString(val)
		case fieldAvgJournalRank:
			e.AvgJournalRank = decodeOptionalString(val)
		case fieldRootCounts:
			if n, ok := decodeCount(val); ok {
				e.RootCounts = n
			}
		case fieldPubCount:
			// Derived locally; an incoming value is ignored.
		default:
			n, ok := decodeCount(val)
			if !ok {
				continue
			}
			if year, err := strconv.Atoi(strings.TrimSpace(key)); err == nil {
				e.YearCounts[year] += n
			} else {
				e.RankCounts[key] += n
			}
		}
	}

	if e.Source == "" || e.Target == "" {
		return fmt.Errorf("edge is missing source or target")
	}
	return nil
}

// MarshalJSON writes the edge back in its flat wire form.
func (e Edge) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.YearCounts)+len(e.RankCounts)+6)
	for year, n := range e.YearCounts {
		flat[strconv.Itoa(year)] = n
	}
	for rank, n := range e.RankCounts {
		flat[rank] = n
	}
	flat[fieldSource] = e.Source
	flat[fieldTarget] = e.Target
	if e.AvgConfRank != "" {
		flat[fieldAvgConfRank] = e.AvgConfRank
	}
	if e.AvgJournalRank != "" {
		flat[fieldAvgJournalRank] = e.AvgJournalRank
	}
	if e.RootCounts != 0 {
		flat[fieldRootCounts] = e.RootCounts
	}
	flat[fieldPubCount] = e.PubCount
	return json.Marshal(flat)
}

// wireResult mirrors the expansion endpoint response.
type wireResult struct {
	Nodes         []Node `json:"nodes"`
	Links         []Edge `json:"links"`
	SemiWeakLinks []Edge `json:"semi_weak_links,omitempty"`
	WeakLinks     []Edge `json:"weak_links,omitempty"`
}

// UnmarshalJSON decodes an expansion response. Missing tiers decode as empty.
func (r *FetchResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Nodes = w.Nodes
	r.Edges = map[Tier][]Edge{
		TierStrong:   w.Links,
		TierSemiWeak: w.SemiWeakLinks,
		TierWeak:     w.WeakLinks,
	}
	return nil
}

// MarshalJSON encodes the result in the expansion endpoint's shape.
func (r FetchResult) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Nodes:         r.Nodes,
		Links:         r.Edges[TierStrong],
		SemiWeakLinks: r.Edges[TierSemiWeak],
		WeakLinks:     r.Edges[TierWeak],
	}
	if w.Nodes == nil {
		w.Nodes = []Node{}
	}
	if w.Links == nil {
		w.Links = []Edge{}
	}
	return json.Marshal(w)
}

// endpointID unwraps {"id": ...} objects, which appear when a payload was
// produced from already-resolved edges.
func endpointID(val json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(val)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj.ID == nil {
		return trimmed
	}
	return obj.ID
}

func decodeOptionalString(val json.RawMessage) string {
	var s *string
	if err := json.Unmarshal(val, &s); err != nil || s == nil {
		return ""
	}
	return *s
}

// decodeCount reads a count value. Malformed or negative values report false.
func decodeCount(val json.RawMessage) (float64, bool) {
	if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(val, &n); err != nil {
		return 0, false
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}
