package scholar

import (
	"encoding/json"

	"github.com/gwngames/scholargraph/internal/graph"
)

// ExpandRequest asks the backend for the neighbourhood of one or more roots.
type ExpandRequest struct {
	Roots   []graph.NodeID
	Depth   int
	Filters graph.Filters
}

// expandBody is the JSON body of /generate-graph.
type expandBody struct {
	StartAuthorID  string `json:"start_author_id"`
	Depth          int    `json:"depth"`
	ConferenceRank string `json:"conference_rank"`
	JournalRank    string `json:"journal_rank"`
	FromYear       string `json:"from_year"`
	ToYear         string `json:"to_year"`
}

// AuthorDetail is the payload of /fetch-author-detail. Values are shown as
// returned, so they stay raw.
type AuthorDetail struct {
	Organization      json.RawMessage `json:"Organization"`
	HIndex            json.RawMessage `json:"hIndex"`
	I10Index          json.RawMessage `json:"i10Index"`
	CitesTotal        json.RawMessage `json:"citesTotal"`
	PubTotal          json.RawMessage `json:"pubTotal"`
	AvgConferenceRank json.RawMessage `json:"avg_conference_rank"`
	AvgJournalRank    json.RawMessage `json:"avg_journal_rank"`
}

// Fields returns the detail as ordered label/value pairs for display.
func (d *AuthorDetail) Fields() []DetailField {
	return []DetailField{
		{"Organization", rawText(d.Organization)},
		{"H-Index", rawText(d.HIndex)},
		{"i10-Index", rawText(d.I10Index)},
		{"Total Citations", rawText(d.CitesTotal)},
		{"Publications", rawText(d.PubTotal)},
		{"Avg. Conference Rank", rawText(d.AvgConferenceRank)},
		{"Avg. Journal Rank", rawText(d.AvgJournalRank)},
	}
}

// DetailField is one labelled value of an author detail.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// rawText renders a JSON value without quotes around strings.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// RowPage is one page of a server-side table.
type RowPage struct {
	Rows       []map[string]any `json:"rows"`
	Offset     int              `json:"offset"`
	Limit      int              `json:"limit"`
	TotalCount int              `json:"total_count"`
}

// errorBody is the {"error": "..."} shape the backend uses for failures.
type errorBody struct {
	Error string `json:"error"`
}
