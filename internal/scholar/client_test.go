package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gwngames/scholargraph/internal/graph"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
}

func TestExpand(t *testing.T) {
	var got expandBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate-graph" {
			t.Errorf("request = %s %s, want POST /generate-graph", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"nodes": [{"id": 1, "label": "A", "is_root": true}, {"id": 2, "label": "B"}],
			"links": [{"source": 1, "target": 2, "2020": 3, "A*": 1}]
		}`))
	})

	res, err := c.Expand(context.Background(), ExpandRequest{
		Roots:   []graph.NodeID{"1", "7"},
		Depth:   2,
		Filters: graph.Filters{ConferenceRank: "A*", FromYear: "2019"},
	})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	if got.StartAuthorID != "1,7" {
		t.Errorf("start_author_id = %q, want %q", got.StartAuthorID, "1,7")
	}
	if got.Depth != 2 || got.ConferenceRank != "A*" || got.FromYear != "2019" {
		t.Errorf("body = %+v", got)
	}
	if len(res.Nodes) != 2 {
		t.Errorf("len(Nodes) = %d, want 2", len(res.Nodes))
	}
	if len(res.Edges[graph.TierStrong]) != 1 {
		t.Errorf("len(strong) = %d, want 1", len(res.Edges[graph.TierStrong]))
	}
}

func TestExpand_InvalidRequest(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"))
	if _, err := c.Expand(context.Background(), ExpandRequest{Depth: 1}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expand(no roots) error = %v, want ErrInvalidRequest", err)
	}
	if _, err := c.Expand(context.Background(), ExpandRequest{Roots: []graph.NodeID{"1"}}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expand(depth 0) error = %v, want ErrInvalidRequest", err)
	}
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"server error body", http.StatusInternalServerError, `{"error": "boom"}`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Message == "boom"
		}},
		{"unauthorized", http.StatusUnauthorized, ``, IsAuthError},
		{"rate limited", http.StatusTooManyRequests, ``, IsRateLimited},
		{"malformed json", http.StatusOK, `{"nodes": [`, func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
		{"edge without source", http.StatusOK, `{"nodes": [], "links": [{"target": 2}]}`, func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
		{"error with 200", http.StatusOK, `{"error": "Author not found"}`, IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			res, err := c.Expand(context.Background(), ExpandRequest{Roots: []graph.NodeID{"1"}, Depth: 1})
			if err == nil {
				t.Fatalf("Expand() = %+v, want error", res)
			}
			if !tt.check(err) {
				t.Errorf("Expand() error = %v, unexpected kind", err)
			}
		})
	}
}

func TestExpand_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.Expand(context.Background(), ExpandRequest{Roots: []graph.NodeID{"1"}, Depth: 1})
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Expand() error = %v, want ErrNetworkError", err)
	}
}

func TestExpand_SendsAPIKey(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-api-key")
		w.Write([]byte(`{"nodes": [], "links": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/"), WithAPIKey("secret"), WithRateLimit(0))
	if _, err := c.Expand(context.Background(), ExpandRequest{Roots: []graph.NodeID{"1"}, Depth: 1}); err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if key != "secret" {
		t.Errorf("x-api-key = %q, want %q", key, "secret")
	}
}

func TestAuthorDetail(t *testing.T) {
	var authorID any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fetch-author-detail" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		authorID = body["author_id"]
		w.Write([]byte(`{"author_data": {
			"Organization": "Professor - Uni",
			"hIndex": 12,
			"i10Index": 20,
			"citesTotal": 900,
			"pubTotal": 45,
			"avg_conference_rank": "A",
			"avg_journal_rank": null
		}}`))
	})

	d, err := c.AuthorDetail(context.Background(), "42")
	if err != nil {
		t.Fatalf("AuthorDetail() error = %v", err)
	}
	if authorID != float64(42) {
		t.Errorf("author_id = %v (%T), want numeric 42", authorID, authorID)
	}

	fields := d.Fields()
	want := map[string]string{
		"Organization":         "Professor - Uni",
		"H-Index":              "12",
		"Avg. Conference Rank": "A",
		"Avg. Journal Rank":    "",
	}
	for _, f := range fields {
		if v, ok := want[f.Label]; ok && v != f.Value {
			t.Errorf("field %q = %q, want %q", f.Label, f.Value, v)
		}
	}
}

func TestAuthorDetail_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Error: Author ID is not found"}`))
	})
	_, err := c.AuthorDetail(context.Background(), "9")
	if !IsNotFound(err) {
		t.Errorf("AuthorDetail() error = %v, want not found", err)
	}
}

func TestAuthorDetail_EmptyID(t *testing.T) {
	c := NewClient()
	if _, err := c.AuthorDetail(context.Background(), " "); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("AuthorDetail() error = %v, want ErrInvalidRequest", err)
	}
}

func TestFetchRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("table_id") != "t-1" {
			t.Errorf("table_id = %q", r.URL.Query().Get("table_id"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if r.PostForm.Get("offset") != "10" || r.PostForm.Get("limit") != "100" {
			t.Errorf("form = %v", r.PostForm)
		}
		w.Write([]byte(`{"rows": [{"Name": "Ada"}], "offset": 10, "limit": 100, "total_count": 11}`))
	})

	page, err := c.FetchRows(context.Background(), "t-1", 10, 0)
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}
	if page.TotalCount != 11 || len(page.Rows) != 1 || page.Rows[0]["Name"] != "Ada" {
		t.Errorf("page = %+v", page)
	}
}

func TestFetchRows_ExpiredTable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Invalid or expired table_id"}`))
	})
	_, err := c.FetchRows(context.Background(), "gone", 0, 10)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchRows() error = %v, want ErrNotFound", err)
	}
}

func TestExpand_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes": [], "links": []}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Expand(ctx, ExpandRequest{Roots: []graph.NodeID{"1"}, Depth: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expand() error = %v, want context.Canceled", err)
	}
}
