// Package session orchestrates fetching, merging, metric recomputation,
// filtering and rendering of the co-authorship graph.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/logger"
	"github.com/gwngames/scholargraph/internal/scholar"
	"github.com/gwngames/scholargraph/internal/storage"
)

// DefaultMaxConcurrent bounds parallel fetches in ExpandBatch.
const DefaultMaxConcurrent = 4

// ErrNoRoots is returned when an expansion names no author.
var ErrNoRoots = errors.New("no root authors given")

// Fetcher is the backend the session expands from.
type Fetcher interface {
	Expand(ctx context.Context, r scholar.ExpandRequest) (*graph.FetchResult, error)
	AuthorDetail(ctx context.Context, id graph.NodeID) (*scholar.AuthorDetail, error)
}

// Renderer draws a derived view.
type Renderer interface {
	Render(v *graph.View, opts graph.ViewOptions) error
	Clear() error
}

// Recorder persists successful fetches.
type Recorder interface {
	Record(e storage.Entry) error
	Reset() error
}

// DetailCache stores author detail responses.
type DetailCache interface {
	GetAuthorDetail(id graph.NodeID, maxAge time.Duration, now time.Time) (json.RawMessage, bool, error)
	PutAuthorDetail(id graph.NodeID, data json.RawMessage, fetchedAt time.Time) error
}

// Call identifies an expansion for the re-fetch check.
type Call struct {
	Roots []graph.NodeID `json:"roots"`
	Depth int            `json:"depth"`
}

// Same reports whether c asks for the same root set and depth as o.
func (c Call) Same(o Call) bool {
	return c.Depth == o.Depth && graph.SameIDSet(c.Roots, o.Roots)
}

// Outcome describes what an expansion did.
type Outcome struct {
	View    *graph.View       `json:"view"`
	Fetched int               `json:"fetched"`
	Skipped bool              `json:"skipped,omitempty"`
	Report  graph.MergeReport `json:"report"`
}

// Session holds the merged store and the collaborators around it. It is safe
// for concurrent use.
type Session struct {
	fetcher  Fetcher
	store    *graph.Store
	engine   *graph.MetricEngine
	renderer Renderer
	recorder Recorder

	cache       DetailCache
	cacheMaxAge time.Duration

	maxConcurrent int
	log           *zap.SugaredLogger

	// storeMu keeps a merge from landing between recompute and derive.
	storeMu sync.Mutex

	mu   sync.Mutex
	prev *Call
}

// Option configures a Session.
type Option func(*Session)

// WithStore uses an existing store, for instance one rebuilt from the journal.
func WithStore(s *graph.Store) Option {
	return func(sess *Session) {
		sess.store = s
	}
}

// WithRenderer sets the renderer invoked after every view change.
func WithRenderer(r Renderer) Option {
	return func(sess *Session) {
		sess.renderer = r
	}
}

// WithRecorder sets where successful fetches are persisted.
func WithRecorder(r Recorder) Option {
	return func(sess *Session) {
		sess.recorder = r
	}
}

// WithMetricEngine overrides the metric engine, mostly to pin the clock.
func WithMetricEngine(m *graph.MetricEngine) Option {
	return func(sess *Session) {
		sess.engine = m
	}
}

// WithDetailCache caches author details for maxAge (0 = forever).
func WithDetailCache(c DetailCache, maxAge time.Duration) Option {
	return func(sess *Session) {
		sess.cache = c
		sess.cacheMaxAge = maxAge
	}
}

// WithMaxConcurrent bounds parallel fetches in ExpandBatch.
func WithMaxConcurrent(n int) Option {
	return func(sess *Session) {
		if n > 0 {
			sess.maxConcurrent = n
		}
	}
}

// WithPrevious seeds the last successful call, restored from persisted state.
func WithPrevious(c Call) Option {
	return func(sess *Session) {
		sess.prev = &c
	}
}

// New creates a session fetching from f.
func New(f Fetcher, opts ...Option) *Session {
	s := &Session{
		fetcher:       f,
		maxConcurrent: DefaultMaxConcurrent,
		log:           logger.Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = graph.NewStore()
	}
	if s.engine == nil {
		s.engine = graph.NewMetricEngine()
	}
	return s
}

// Store returns the session's store.
func (s *Session) Store() *graph.Store {
	return s.store
}

// Previous returns the last successful call, if any.
func (s *Session) Previous() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prev == nil {
		return Call{}, false
	}
	return *s.prev, true
}

// Expand fetches the neighbourhood of roots unless the same root set and
// depth were the last successful fetch, merges it, then recomputes metrics
// and renders. A failed fetch leaves the store and the previous call as they
// were. ErrNoResults is returned with the outcome when filters hide
// everything.
func (s *Session) Expand(ctx context.Context, roots []graph.NodeID, depth int, opts graph.ViewOptions) (*Outcome, error) {
	roots = graph.IDSet(roots)
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	if err := s.validateFilters(opts.Filters); err != nil {
		return nil, err
	}
	if len(opts.Selected) == 0 {
		opts.Selected = roots
	}

	call := Call{Roots: roots, Depth: depth}
	out := &Outcome{Report: graph.MergeReport{EdgesAdded: map[graph.Tier]int{}}}

	s.mu.Lock()
	skip := s.prev != nil && s.prev.Same(call)
	s.mu.Unlock()

	if skip {
		s.log.Debugw("same roots and depth as last fetch, skipping request",
			logger.FieldRoots, graph.JoinIDs(roots), logger.FieldDepth, depth)
		out.Skipped = true
	} else {
		b := batch{id: storage.NewBatchID(), scope: roots}
		report, err := s.fetchAndMerge(ctx, scholar.ExpandRequest{Roots: roots, Depth: depth, Filters: opts.Filters}, b)
		if err != nil {
			return nil, err
		}
		out.Fetched = 1
		out.Report = report

		s.mu.Lock()
		s.prev = &call
		s.mu.Unlock()
	}

	v, err := s.render(opts)
	out.View = v
	return out, err
}

// ExpandBatch fetches every request concurrently, merging each result as it
// arrives, and renders once after all of them have settled. A failing
// request does not cancel its siblings; failures are joined into the
// returned error and the successful ones stay merged. With root pruning the
// store is pruned once, after the last merge, to the union of all batch
// roots, so the result does not depend on completion order.
func (s *Session) ExpandBatch(ctx context.Context, reqs []scholar.ExpandRequest, opts graph.ViewOptions) (*Outcome, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRoots
	}
	if err := s.validateFilters(opts.Filters); err != nil {
		return nil, err
	}

	out := &Outcome{Report: graph.MergeReport{EdgesAdded: map[graph.Tier]int{}}}
	var (
		mu       sync.Mutex
		errs     []error
		selected []graph.NodeID
	)

	var all []graph.NodeID
	for _, req := range reqs {
		all = append(all, req.Roots...)
	}
	b := batch{id: storage.NewBatchID(), scope: graph.IDSet(all), deferPrune: true}

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)
	for _, req := range reqs {
		req := req
		req.Filters = opts.Filters
		g.Go(func() error {
			report, err := s.fetchAndMerge(ctx, req, b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("expanding %s: %w", graph.JoinIDs(req.Roots), err))
				return nil
			}
			out.Fetched++
			addReport(&out.Report, report)
			selected = append(selected, req.Roots...)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	if out.Fetched > 0 {
		s.storeMu.Lock()
		nodes, edges := s.store.ApplyScope(b.scope)
		s.storeMu.Unlock()
		out.Report.PrunedNodes += nodes
		out.Report.PrunedEdges += edges
	}

	if len(opts.Selected) == 0 {
		opts.Selected = graph.IDSet(selected)
	}

	v, renderErr := s.render(opts)
	out.View = v
	if renderErr != nil {
		errs = append(errs, renderErr)
	}
	return out, errors.Join(errs...)
}

// Refresh re-derives and renders the view for new options without fetching.
func (s *Session) Refresh(opts graph.ViewOptions) (*graph.View, error) {
	if err := s.validateFilters(opts.Filters); err != nil {
		return nil, err
	}
	return s.render(opts)
}

// Clear empties the store, forgets the previous call, resets the recorder
// and clears the renderer.
func (s *Session) Clear() error {
	s.storeMu.Lock()
	s.store.Reset()
	s.storeMu.Unlock()

	s.mu.Lock()
	s.prev = nil
	s.mu.Unlock()

	var errs []error
	if s.recorder != nil {
		if err := s.recorder.Reset(); err != nil {
			errs = append(errs, fmt.Errorf("resetting journal: %w", err))
		}
	}
	if s.renderer != nil {
		if err := s.renderer.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clearing renderer: %w", err))
		}
	}
	return errors.Join(errs...)
}

// AuthorDetail returns the detail record of an author, from the cache when
// a fresh entry exists.
func (s *Session) AuthorDetail(ctx context.Context, id graph.NodeID) (*scholar.AuthorDetail, error) {
	now := s.engine.Now
	if now == nil {
		now = time.Now
	}

	if s.cache != nil {
		data, ok, err := s.cache.GetAuthorDetail(id, s.cacheMaxAge, now())
		if err != nil {
			s.log.Warnw("reading author detail cache", logger.FieldAuthor, id, logger.FieldError, err)
		} else if ok {
			var d scholar.AuthorDetail
			if err := json.Unmarshal(data, &d); err == nil {
				return &d, nil
			}
		}
	}

	d, err := s.fetcher.AuthorDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, err := json.Marshal(d)
		if err == nil {
			err = s.cache.PutAuthorDetail(id, data, now())
		}
		if err != nil {
			s.log.Warnw("writing author detail cache", logger.FieldAuthor, id, logger.FieldError, err)
		}
	}
	return d, nil
}

// batch describes the expansion a fetch belongs to.
type batch struct {
	id    string
	scope []graph.NodeID

	// deferPrune merges without pruning; the caller prunes to scope once
	// every fetch of the batch has landed.
	deferPrune bool
}

// fetchAndMerge fetches one request and merges it only after a full decode.
func (s *Session) fetchAndMerge(ctx context.Context, req scholar.ExpandRequest, b batch) (graph.MergeReport, error) {
	res, err := s.fetcher.Expand(ctx, req)
	if err != nil {
		s.log.Warnw("fetch failed",
			logger.FieldRoots, graph.JoinIDs(req.Roots), logger.FieldDepth, req.Depth, logger.FieldError, err)
		return graph.MergeReport{}, err
	}

	s.storeMu.Lock()
	if b.deferPrune {
		s.store.SetScope(nil)
	} else {
		s.store.SetScope(b.scope)
	}
	report := s.store.Merge(*res)
	s.storeMu.Unlock()

	for _, d := range report.Dropped {
		s.log.Warnw("dropped edge with unknown endpoint",
			logger.FieldTier, d.Tier, logger.FieldSource, d.Source, logger.FieldTarget, d.Target, logger.FieldReason, d.Reason)
	}
	s.log.Infow("merged fetch result",
		logger.FieldRoots, graph.JoinIDs(req.Roots),
		logger.FieldNodes, report.NodesAdded,
		logger.FieldEdges, report.TotalEdgesAdded())

	if s.recorder != nil {
		err := s.recorder.Record(storage.Entry{
			BatchID: b.id,
			Scope:   b.scope,
			Roots:   req.Roots,
			Depth:   req.Depth,
			Filters: req.Filters,
			Result:  res,
		})
		if err != nil {
			s.log.Errorw("recording fetch result", logger.FieldError, err)
		}
	}
	return report, nil
}

// render recomputes metrics, derives the view and hands it to the renderer.
// The store lock is not held across rendering.
func (s *Session) render(opts graph.ViewOptions) (*graph.View, error) {
	s.storeMu.Lock()
	positive := s.engine.Recompute(s.store, opts.Filters)
	v, err := graph.Derive(s.store, opts)
	s.storeMu.Unlock()
	s.log.Debugw("recomputed publication counts", logger.FieldCount, positive)

	if err != nil && !errors.Is(err, graph.ErrNoResults) {
		return nil, err
	}
	if errors.Is(err, graph.ErrNoResults) {
		s.log.Infow("no results for the selected filters")
	}

	if s.renderer != nil {
		if rerr := s.renderer.Render(v, opts); rerr != nil {
			return v, fmt.Errorf("rendering: %w", rerr)
		}
	}
	return v, err
}

func (s *Session) validateFilters(f graph.Filters) error {
	year := s.engine.CurrentYear()
	if err := graph.ValidateYear(f.FromYear, year); err != nil {
		return err
	}
	return graph.ValidateYear(f.ToYear, year)
}

func addReport(dst *graph.MergeReport, src graph.MergeReport) {
	dst.NodesAdded += src.NodesAdded
	for t, n := range src.EdgesAdded {
		dst.EdgesAdded[t] += n
	}
	dst.Dropped = append(dst.Dropped, src.Dropped...)
	dst.PrunedNodes += src.PrunedNodes
	dst.PrunedEdges += src.PrunedEdges
}
