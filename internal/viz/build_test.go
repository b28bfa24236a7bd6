package viz

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gwngames/scholargraph/internal/graph"
)

func testView(t *testing.T) (*graph.View, graph.ViewOptions) {
	t.Helper()
	s := graph.NewStore()
	s.Merge(graph.FetchResult{
		Nodes: []graph.Node{
			{ID: "1", Label: "Ada", IsRoot: true, Image: "ada.png"},
			{ID: "2", Label: "Grace"},
			{ID: "3", Label: "Alan"},
		},
		Edges: map[graph.Tier][]graph.Edge{
			graph.TierStrong: {{
				Source: "1", Target: "2", AvgConfRank: "A",
				YearCounts: map[int]float64{2020: 10},
				RankCounts: map[string]float64{"A": 10},
			}},
			graph.TierSemiWeak: {{
				Source: "1", Target: "3", RootCounts: 4,
				YearCounts: map[int]float64{2021: 2},
				RankCounts: map[string]float64{},
			}},
		},
	})
	engine := &graph.MetricEngine{Now: func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }}
	opts := graph.DefaultViewOptions()
	engine.Recompute(s, opts.Filters)
	v, err := graph.Derive(s, opts)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	return v, opts
}

func TestBuild(t *testing.T) {
	v, opts := testView(t)
	g := Build(v, OptionsFromView(opts))

	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Fatalf("Build() = %d nodes, %d edges; want 3, 2", len(g.Nodes), len(g.Edges))
	}
	if g.Nodes[0].Radius != RootRadius || g.Nodes[1].Radius != OtherRadius {
		t.Errorf("radii = %d, %d; want %d, %d", g.Nodes[0].Radius, g.Nodes[1].Radius, RootRadius, OtherRadius)
	}

	strong := g.Edges[0]
	if strong.Tier != graph.TierStrong || strong.PubCount != 10 {
		t.Errorf("strong edge = %+v", strong)
	}
	if strong.Width != 4.5 {
		t.Errorf("strong width = %v, want 4.5", strong.Width)
	}
	if strong.Color != "#228B22" {
		t.Errorf("strong color = %s, want A color", strong.Color)
	}
	if strong.Distance != 100 || strong.Strength != 1 {
		t.Errorf("strong layout = %v/%v, want 100/1", strong.Distance, strong.Strength)
	}

	semi := g.Edges[1]
	if semi.Distance != 200 || semi.Strength != 0.25 {
		t.Errorf("semi-weak layout = %v/%v, want 200/0.25", semi.Distance, semi.Strength)
	}
	if semi.Color != DefaultColor {
		t.Errorf("semi-weak color = %s, want default", semi.Color)
	}
}

func TestBuild_NilView(t *testing.T) {
	g := Build(nil, BuildOptions{})
	if !g.IsEmpty() {
		t.Errorf("Build(nil) = %+v, want empty", g)
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	v, opts := testView(t)
	out, err := Build(v, OptionsFromView(opts)).ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements struct {
		Nodes []struct {
			Data map[string]any `json:"data"`
		} `json:"nodes"`
		Edges []struct {
			Data map[string]any `json:"data"`
		} `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(elements.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(elements.Edges))
	}
	e := elements.Edges[0].Data
	if e["id"] != "strong:1-2" || e["source"] != "1" || e["color"] == nil || e["distance"] == nil {
		t.Errorf("edge data = %v", e)
	}
	if elements.Nodes[0].Data["isRoot"] != true {
		t.Errorf("node data = %v", elements.Nodes[0].Data)
	}
}

func TestGenerateHTML(t *testing.T) {
	v, opts := testView(t)
	page, err := GenerateHTML(Build(v, OptionsFromView(opts)), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "cytoscape", "strong:1-2", "Co-authorship Graph"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestGenerateHTML_Empty(t *testing.T) {
	page, err := GenerateHTML(&GraphData{}, HTMLOptions{EmptyMessage: "nothing <here>"})
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(page, "nothing &lt;here&gt;") {
		t.Errorf("empty page does not carry the escaped message:\n%s", page)
	}
	if strings.Contains(page, "cytoscape(") {
		t.Error("empty page should not start a layout")
	}
}

func TestGenerateHTML_Nil(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("GenerateHTML(nil) error = nil")
	}
}

func TestHTMLRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "graph.html")
	r := NewHTMLRenderer(path, DefaultOptions())

	v, opts := testView(t)
	if err := r.Render(v, opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "strong:1-2") {
		t.Error("rendered page is missing the strong edge")
	}
	if r.Last == nil || len(r.Last.Edges) != 2 {
		t.Errorf("Last = %+v", r.Last)
	}

	if err := r.Render(&graph.View{NoResults: true}, opts); err != nil {
		t.Fatalf("Render(no results) error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), NoResultsMessage) {
		t.Error("filtered-out render should show the no-results message")
	}

	if err := r.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "strong:1-2") || strings.Contains(string(data), NoResultsMessage) {
		t.Error("Clear() should write the plain empty page")
	}
}

func TestHTMLRenderer_EmptyStoreKeepsEmptyMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.html")
	r := NewHTMLRenderer(path, DefaultOptions())

	s := graph.NewStore()
	opts := graph.DefaultViewOptions()
	graph.NewMetricEngine().Recompute(s, opts.Filters)
	v, err := graph.Derive(s, opts)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if err := r.Render(v, opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), NoResultsMessage) {
		t.Error("empty store should not show the no-results message")
	}
	if !strings.Contains(string(data), "No graph data.") {
		t.Error("empty store should show the empty-graph message")
	}
}
