package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/gwngames/scholargraph/internal/graph"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_IndexNodes_Dedup(t *testing.T) {
	db := openTestDB(t)

	added, err := db.IndexNodes([]graph.Node{
		{ID: "1", Label: "Ada Lovelace", IsRoot: true, FreqConfRank: "A*"},
		{ID: "2", Label: "Grace Hopper"},
	})
	if err != nil {
		t.Fatalf("IndexNodes() error = %v", err)
	}
	if added != 2 {
		t.Errorf("IndexNodes() added = %d, want 2", added)
	}

	added, err = db.IndexNodes([]graph.Node{
		{ID: "1", Label: "Renamed"},
		{ID: "3", Label: "Alan Turing"},
		{ID: "3", Label: "Alan Turing again"},
	})
	if err != nil {
		t.Fatalf("IndexNodes() error = %v", err)
	}
	if added != 1 {
		t.Errorf("IndexNodes() added = %d, want 1", added)
	}

	n, err := db.CountNodes()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountNodes() = %d, want 3", n)
	}

	got, err := db.GetNode("1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Label != "Ada Lovelace" || !got.IsRoot || got.FreqConfRank != "A*" {
		t.Errorf("GetNode(1) = %+v, want first-seen payload", got)
	}
}

func TestDB_GetNode_Missing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetNode("nope")
	if err != nil {
		t.Fatalf("GetNode() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetNode() = %+v, want nil", got)
	}
}

func TestDB_SearchNodes(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.IndexNodes([]graph.Node{
		{ID: "1", Label: "Ada Lovelace"},
		{ID: "2", Label: "Grace Hopper"},
		{ID: "3", Label: "Adam Smith"},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		limit int
		want  []graph.NodeID
	}{
		{"", 0, []graph.NodeID{"1", "2", "3"}},
		{"", 2, []graph.NodeID{"1", "2"}},
		{"ada", 0, []graph.NodeID{"1", "3"}},
		{"hopper", 0, []graph.NodeID{"2"}},
		{`"quoted`, 0, nil},
	}
	for _, tt := range tests {
		nodes, err := db.SearchNodes(tt.query, tt.limit)
		if err != nil {
			t.Errorf("SearchNodes(%q) error = %v", tt.query, err)
			continue
		}
		var ids []graph.NodeID
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
		if len(ids) != len(tt.want) {
			t.Errorf("SearchNodes(%q, %d) = %v, want %v", tt.query, tt.limit, ids, tt.want)
			continue
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("SearchNodes(%q, %d) = %v, want %v", tt.query, tt.limit, ids, tt.want)
				break
			}
		}
	}
}

func TestDB_RebuildFromJournal(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, JournalFile)
	for _, r := range []*graph.FetchResult{sampleResult("1", "2"), sampleResult("2", "3")} {
		if err := AppendJournal(journal, Entry{BatchID: "b", Result: r}); err != nil {
			t.Fatal(err)
		}
	}

	db := openTestDB(t)
	if _, err := db.IndexNodes([]graph.Node{{ID: "stale", Label: "Gone"}}); err != nil {
		t.Fatal(err)
	}

	n, err := db.RebuildFromJournal(journal, graph.NewStore())
	if err != nil {
		t.Fatalf("RebuildFromJournal() error = %v", err)
	}
	if n != 3 {
		t.Errorf("RebuildFromJournal() = %d, want 3", n)
	}
	if got, _ := db.GetNode("stale"); got != nil {
		t.Errorf("stale node survived rebuild: %+v", got)
	}
}

func TestDB_RebuildFromJournal_DropsPrunedAuthors(t *testing.T) {
	journal := filepath.Join(t.TempDir(), JournalFile)
	entries := []Entry{
		{BatchID: "b1", Scope: []graph.NodeID{"1"}, Roots: []graph.NodeID{"1"}, Result: sampleResult("1", "2")},
		{BatchID: "b2", Scope: []graph.NodeID{"5"}, Roots: []graph.NodeID{"5"}, Result: sampleResult("5", "6")},
	}
	for _, e := range entries {
		if err := AppendJournal(journal, e); err != nil {
			t.Fatal(err)
		}
	}

	db := openTestDB(t)
	n, err := db.RebuildFromJournal(journal, graph.NewStore(graph.WithRootPruning()))
	if err != nil {
		t.Fatalf("RebuildFromJournal() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RebuildFromJournal() = %d, want 2", n)
	}
	if got, _ := db.GetNode("1"); got != nil {
		t.Errorf("pruned author 1 still indexed: %+v", got)
	}
}

func TestDB_ReplaceNodes(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.IndexNodes([]graph.Node{{ID: "1", Label: "Old"}, {ID: "2", Label: "Two"}}); err != nil {
		t.Fatal(err)
	}
	added, err := db.ReplaceNodes([]graph.Node{{ID: "3", Label: "Three"}, {ID: "1", Label: "New"}})
	if err != nil {
		t.Fatalf("ReplaceNodes() error = %v", err)
	}
	if added != 2 {
		t.Errorf("ReplaceNodes() = %d, want 2", added)
	}
	nodes, err := db.SearchNodes("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || nodes[0].ID != "3" || nodes[1].Label != "New" {
		t.Errorf("nodes = %+v, want [3 1(New)]", nodes)
	}
}

func TestDB_AuthorDetailCache(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	if _, ok, err := db.GetAuthorDetail("1", 0, now); err != nil || ok {
		t.Fatalf("GetAuthorDetail() on empty cache = ok %v, err %v", ok, err)
	}

	data := json.RawMessage(`{"hIndex": 12}`)
	if err := db.PutAuthorDetail("1", data, now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("PutAuthorDetail() error = %v", err)
	}

	got, ok, err := db.GetAuthorDetail("1", 0, now)
	if err != nil || !ok {
		t.Fatalf("GetAuthorDetail() = ok %v, err %v", ok, err)
	}
	if string(got) != string(data) {
		t.Errorf("GetAuthorDetail() = %s, want %s", got, data)
	}

	if _, ok, _ := db.GetAuthorDetail("1", time.Hour, now); ok {
		t.Error("GetAuthorDetail() returned an entry older than maxAge")
	}

	if err := db.PutAuthorDetail("1", json.RawMessage(`{"hIndex": 13}`), now); err != nil {
		t.Fatal(err)
	}
	got, ok, _ = db.GetAuthorDetail("1", time.Hour, now)
	if !ok || string(got) != `{"hIndex": 13}` {
		t.Errorf("after replace = %s (ok %v)", got, ok)
	}

	if err := db.PutAuthorDetail("2", json.RawMessage(`{broken`), now); err == nil {
		t.Error("PutAuthorDetail() accepted invalid JSON")
	}
}

func TestDB_State(t *testing.T) {
	db := openTestDB(t)

	type call struct {
		Roots []string `json:"roots"`
		Depth int      `json:"depth"`
	}

	var got call
	ok, err := db.GetState(StateLastExpand, &got)
	if err != nil || ok {
		t.Fatalf("GetState() on empty = ok %v, err %v", ok, err)
	}

	if err := db.SetState(StateLastExpand, call{Roots: []string{"1", "2"}, Depth: 3}); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := db.SetState(StateLastExpand, call{Roots: []string{"5"}, Depth: 1}); err != nil {
		t.Fatalf("SetState() overwrite error = %v", err)
	}

	ok, err = db.GetState(StateLastExpand, &got)
	if err != nil || !ok {
		t.Fatalf("GetState() = ok %v, err %v", ok, err)
	}
	if len(got.Roots) != 1 || got.Roots[0] != "5" || got.Depth != 1 {
		t.Errorf("GetState() = %+v", got)
	}

	if err := db.DeleteState(StateLastExpand); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.GetState(StateLastExpand, &got); ok {
		t.Error("state survived DeleteState")
	}
}

func TestDB_Clear(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	if _, err := db.IndexNodes([]graph.Node{{ID: "1", Label: "A"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.PutAuthorDetail("1", json.RawMessage(`{}`), now); err != nil {
		t.Fatal(err)
	}
	if err := db.SetState(StateViewOpts, map[string]bool{"x": true}); err != nil {
		t.Fatal(err)
	}

	if err := db.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := db.CountNodes(); n != 0 {
		t.Errorf("CountNodes() after Clear = %d", n)
	}
	if _, ok, _ := db.GetAuthorDetail("1", 0, now); ok {
		t.Error("author detail survived Clear")
	}
	var v map[string]bool
	if ok, _ := db.GetState(StateViewOpts, &v); ok {
		t.Error("state survived Clear")
	}
}
