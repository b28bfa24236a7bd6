package main

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/config"
	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/scholar"
)

func parseViewFlags(t *testing.T, args ...string) (*cobra.Command, *viewFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := &viewFlags{}
	f.register(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return cmd, f
}

func TestViewFlags_Apply(t *testing.T) {
	base := graph.DefaultViewOptions()
	base.Filters.FromYear = "2010"
	base.Selected = []graph.NodeID{"1"}

	cmd, f := parseViewFlags(t, "--conf-rank", " A ", "--filter-by", "node", "--roots-only", "--selected", "2,3,2")
	got, err := f.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	want := graph.ViewOptions{
		Filters:      graph.Filters{ConferenceRank: "A", FromYear: "2010"},
		FilterByLink: false,
		ShowAllLinks: false,
		Selected:     []graph.NodeID{"2", "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("apply() = %+v, want %+v", got, want)
	}
}

func TestViewFlags_ApplyKeepsUnsetValues(t *testing.T) {
	base := graph.ViewOptions{Filters: graph.Filters{JournalRank: "Q2"}, FilterByLink: false}
	cmd, f := parseViewFlags(t)
	got, err := f.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if !reflect.DeepEqual(got, base) {
		t.Errorf("apply() = %+v, want %+v", got, base)
	}
}

func TestViewFlags_ApplyClearsFilter(t *testing.T) {
	base := graph.ViewOptions{Filters: graph.Filters{JournalRank: "Q2"}}
	cmd, f := parseViewFlags(t, "--journal-rank", "")
	got, err := f.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if got.Filters.JournalRank != "" {
		t.Errorf("JournalRank = %q, want cleared", got.Filters.JournalRank)
	}
}

func TestViewFlags_ApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad filter-by", []string{"--filter-by", "edge"}},
		{"conflicting link modes", []string{"--roots-only", "--all-links"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := parseViewFlags(t, tt.args...)
			if _, err := f.apply(cmd, graph.DefaultViewOptions()); err == nil {
				t.Error("apply() error = nil, want error")
			}
		})
	}
}

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*config.Config) bool
	}{
		{"base-url", "https://scholar.example.org/", false, func(c *config.Config) bool { return c.BaseURL == "https://scholar.example.org" }},
		{"base-url", "ftp://x", true, nil},
		{"default-depth", "3", false, func(c *config.Config) bool { return c.DefaultDepth == 3 }},
		{"default-depth", "9", true, nil},
		{"root-pruning", "true", false, func(c *config.Config) bool { return c.RootPruning }},
		{"rate-limit", "2.5", false, func(c *config.Config) bool { return c.RateLimit == 2.5 }},
		{"rate-limit", "-1", true, nil},
		{"max-concurrent", "0", true, nil},
		{"detail-cache-hours", "24", false, func(c *config.Config) bool { return c.DetailCacheHours == 24 }},
		{"colour", "red", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.Default()
			err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("config after set = %+v", cfg)
			}
		})
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := config.Default()
	if v, ok := getConfigValue(cfg, normalizeKey("DEFAULT_DEPTH")); !ok || v != "1" {
		t.Errorf("getConfigValue(default_depth) = %q, %v", v, ok)
	}
	if _, ok := getConfigValue(cfg, "nope"); ok {
		t.Error("unknown key should not resolve")
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&graph.FilterError{Field: "from_year", Value: "1900", Reason: "out of range"}, ExitDataError},
		{fmt.Errorf("wrapped: %w", scholar.ErrNotFound), ExitNotFound},
		{&scholar.APIError{StatusCode: 401, Endpoint: "/generate-graph"}, ExitAuthError},
		{&scholar.APIError{StatusCode: 429, Endpoint: "/generate-graph"}, ExitAPIError},
		{scholar.ErrNetworkError, ExitAPIError},
		{fmt.Errorf("boom"), ExitError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestColumns(t *testing.T) {
	rows := []map[string]any{{"name": "a", "id": 1}, {"id": 2, "year": 2020}}
	want := []string{"id", "name", "year"}
	if got := columns(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("columns() = %v, want %v", got, want)
	}
}
