// Package scholar is the HTTP client for the scholar backend that expands
// co-authorship neighbourhoods and serves author details and table pages.
package scholar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/logger"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout bounds a single request. Graph expansion runs a BFS
	// server side and can take a while.
	DefaultTimeout = 2 * time.Minute

	// DefaultRateLimit is the request rate in requests per second.
	DefaultRateLimit = 5.0

	// DefaultPageLimit is the table page size used by the backend.
	DefaultPageLimit = 100

	// maxResponseBytes caps how much of a body is read.
	maxResponseBytes = 64 << 20
)

// Endpoint paths.
const (
	pathGenerateGraph = "/generate-graph"
	pathAuthorDetail  = "/fetch-author-detail"
	pathFetchData     = "/fetch_data"
)

// Client is a rate-limited HTTP client for the scholar backend.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key sent as x-api-key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets the backend base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRateLimit sets the request rate. Non-positive values disable limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new scholar backend client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, endpoint string, body []byte) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Message: msg}
	}
	return nil
}

// do sends a request and returns the body of a successful response.
func (c *Client) do(ctx context.Context, req *http.Request, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	logger.Named("scholar").Debugw("request finished",
		logger.FieldURL, req.URL.String(),
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if err := checkHTTPErrors(resp, endpoint, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req, endpoint)
}

// bodyError extracts an {"error": "..."} body returned with a 2xx status.
func bodyError(body []byte, endpoint string) error {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil || eb.Error == "" {
		return nil
	}
	status := http.StatusOK
	if strings.Contains(strings.ToLower(eb.Error), "not found") {
		status = http.StatusNotFound
	}
	return &APIError{StatusCode: status, Endpoint: endpoint, Message: eb.Error}
}

// Expand fetches the co-authorship neighbourhood of the request's roots.
// The result is fully decoded before it is returned, so callers never see
// a partial graph.
func (c *Client) Expand(ctx context.Context, r ExpandRequest) (*graph.FetchResult, error) {
	if len(r.Roots) == 0 {
		return nil, fmt.Errorf("%w: no root authors", ErrInvalidRequest)
	}
	if r.Depth < 1 {
		return nil, fmt.Errorf("%w: depth must be at least 1, got %d", ErrInvalidRequest, r.Depth)
	}

	body, err := c.postJSON(ctx, pathGenerateGraph, expandBody{
		StartAuthorID:  graph.JoinIDs(r.Roots),
		Depth:          r.Depth,
		ConferenceRank: r.Filters.ConferenceRank,
		JournalRank:    r.Filters.JournalRank,
		FromYear:       r.Filters.FromYear,
		ToYear:         r.Filters.ToYear,
	})
	if err != nil {
		return nil, err
	}
	if err := bodyError(body, pathGenerateGraph); err != nil {
		return nil, err
	}

	var result graph.FetchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parsing graph: %v", ErrInvalidResponse, err)
	}
	return &result, nil
}

// AuthorDetail fetches the detail record of one author.
func (c *Client) AuthorDetail(ctx context.Context, id graph.NodeID) (*AuthorDetail, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("%w: author id is required", ErrInvalidRequest)
	}

	var payload struct {
		AuthorID any `json:"author_id"`
	}
	payload.AuthorID = string(id)
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		payload.AuthorID = n
	}

	body, err := c.postJSON(ctx, pathAuthorDetail, payload)
	if err != nil {
		return nil, err
	}
	if err := bodyError(body, pathAuthorDetail); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: author %s", ErrNotFound, id)
		}
		return nil, err
	}

	var wrapper struct {
		AuthorData *AuthorDetail `json:"author_data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: parsing author detail: %v", ErrInvalidResponse, err)
	}
	if wrapper.AuthorData == nil {
		return nil, fmt.Errorf("%w: missing author_data", ErrInvalidResponse)
	}
	return wrapper.AuthorData, nil
}

// FetchRows fetches one page of a server-side table. A non-positive limit
// uses DefaultPageLimit.
func (c *Client) FetchRows(ctx context.Context, tableID string, offset, limit int) (*RowPage, error) {
	if tableID == "" {
		return nil, fmt.Errorf("%w: table id is required", ErrInvalidRequest)
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	form := url.Values{}
	form.Set("offset", strconv.Itoa(offset))
	form.Set("limit", strconv.Itoa(limit))

	u := c.baseURL + pathFetchData + "?" + url.Values{"table_id": {tableID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(ctx, req, pathFetchData)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: table %s: %s", ErrNotFound, tableID, apiErr.Message)
		}
		return nil, err
	}

	var page RowPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: parsing rows: %v", ErrInvalidResponse, err)
	}
	return &page, nil
}
