package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/config"
	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/logger"
	"github.com/gwngames/scholargraph/internal/scholar"
	"github.com/gwngames/scholargraph/internal/session"
	"github.com/gwngames/scholargraph/internal/storage"
	"github.com/gwngames/scholargraph/internal/viz"
)

// workspace bundles everything a graph command needs.
type workspace struct {
	Root     string
	Config   *config.Config
	DB       *storage.DB
	Journal  *storage.Journal
	Store    *graph.Store
	Renderer *viz.HTMLRenderer
	Client   *scholar.Client
}

// mustOpenWorkspace finds the workspace, opens its cache and rebuilds the
// store from the journal. The caller must call Close.
func mustOpenWorkspace() *workspace {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	db := mustOpenDatabase(root)

	store := newStore(cfg)

	journalPath := config.JournalPath(root)
	n, err := storage.Replay(journalPath, store)
	if err != nil {
		db.Close()
		exitWithError(ExitDataError, "replaying journal: %v", err)
	}
	logger.Logger.Debugw("replayed journal", logger.FieldPath, journalPath, logger.FieldCount, n)

	return &workspace{
		Root:     root,
		Config:   cfg,
		DB:       db,
		Journal:  storage.NewJournal(journalPath),
		Store:    store,
		Renderer: viz.NewHTMLRenderer(config.HTMLPath(root), viz.DefaultOptions()),
		Client:   newClient(cfg),
	}
}

// Close releases the cache database.
func (w *workspace) Close() error {
	return w.DB.Close()
}

// newStore creates an empty store honouring the root-pruning setting.
func newStore(cfg *config.Config) *graph.Store {
	if cfg.RootPruning {
		return graph.NewStore(graph.WithRootPruning())
	}
	return graph.NewStore()
}

func newClient(cfg *config.Config) *scholar.Client {
	opts := []scholar.ClientOption{
		scholar.WithBaseURL(config.ResolveBaseURL(cfg)),
	}
	if key := config.ResolveAPIKey(); key != "" {
		opts = append(opts, scholar.WithAPIKey(key))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, scholar.WithRateLimit(cfg.RateLimit))
	}
	return scholar.NewClient(opts...)
}

// newSession wires the workspace into a session, restoring the last call.
func (w *workspace) newSession() *session.Session {
	opts := []session.Option{
		session.WithStore(w.Store),
		session.WithRenderer(w.Renderer),
		session.WithRecorder(w.Journal),
		session.WithMaxConcurrent(w.Config.MaxConcurrent),
		session.WithDetailCache(w.DB, time.Duration(w.Config.DetailCacheHours)*time.Hour),
	}

	var prev session.Call
	ok, err := w.DB.GetState(storage.StateLastExpand, &prev)
	if err != nil {
		logger.Logger.Warnw("reading last expand state", logger.FieldError, err)
	} else if ok {
		opts = append(opts, session.WithPrevious(prev))
	}
	return session.New(w.Client, opts...)
}

// loadViewOptions returns the persisted view options, or the defaults.
func (w *workspace) loadViewOptions() graph.ViewOptions {
	opts := graph.DefaultViewOptions()
	if _, err := w.DB.GetState(storage.StateViewOpts, &opts); err != nil {
		logger.Logger.Warnw("reading view options", logger.FieldError, err)
		return graph.DefaultViewOptions()
	}
	return opts
}

// saveState persists the view options and the session's last call.
func (w *workspace) saveState(s *session.Session, opts graph.ViewOptions) error {
	if err := w.DB.SetState(storage.StateViewOpts, opts); err != nil {
		return err
	}
	if prev, ok := s.Previous(); ok {
		if err := w.DB.SetState(storage.StateLastExpand, prev); err != nil {
			return err
		}
	}
	return nil
}

// viewFlags holds the filter flags shared by expand, view and viz.
type viewFlags struct {
	confRank    string
	journalRank string
	fromYear    string
	toYear      string
	filterBy    string
	rootsOnly   bool
	allLinks    bool
	selected    string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.confRank, "conf-rank", "", "Conference rank filter (A*, A, B, C)")
	cmd.Flags().StringVar(&f.journalRank, "journal-rank", "", "Journal rank filter (Q1, Q2, Q3, Q4)")
	cmd.Flags().StringVar(&f.fromYear, "from", "", "First publication year to count")
	cmd.Flags().StringVar(&f.toYear, "to", "", "Last publication year to count")
	cmd.Flags().StringVar(&f.filterBy, "filter-by", "", "Apply rank filters to 'link' or 'node'")
	cmd.Flags().BoolVar(&f.rootsOnly, "roots-only", false, "Only show weak links between selected roots")
	cmd.Flags().BoolVar(&f.allLinks, "all-links", false, "Show weak links between all nodes")
	cmd.Flags().StringVar(&f.selected, "selected", "", "Comma-separated selected roots for --roots-only")
}

// apply overlays the flags the user set on base.
func (f *viewFlags) apply(cmd *cobra.Command, base graph.ViewOptions) (graph.ViewOptions, error) {
	opts := base
	flags := cmd.Flags()
	if flags.Changed("conf-rank") {
		opts.Filters.ConferenceRank = strings.TrimSpace(f.confRank)
	}
	if flags.Changed("journal-rank") {
		opts.Filters.JournalRank = strings.TrimSpace(f.journalRank)
	}
	if flags.Changed("from") {
		opts.Filters.FromYear = strings.TrimSpace(f.fromYear)
	}
	if flags.Changed("to") {
		opts.Filters.ToYear = strings.TrimSpace(f.toYear)
	}
	if flags.Changed("filter-by") {
		switch strings.ToLower(strings.TrimSpace(f.filterBy)) {
		case "link":
			opts.FilterByLink = true
		case "node":
			opts.FilterByLink = false
		default:
			return opts, fmt.Errorf("invalid --filter-by %q (valid: link, node)", f.filterBy)
		}
	}
	if f.rootsOnly && f.allLinks {
		return opts, fmt.Errorf("--roots-only and --all-links are mutually exclusive")
	}
	if f.rootsOnly {
		opts.ShowAllLinks = false
	}
	if f.allLinks {
		opts.ShowAllLinks = true
	}
	if flags.Changed("selected") {
		opts.Selected = graph.IDSet(graph.ParseIDList(f.selected))
	}
	return opts, nil
}

// ViewSummary describes a rendered view.
type ViewSummary struct {
	Nodes     int                `json:"nodes"`
	Edges     map[graph.Tier]int `json:"edges"`
	NoResults bool               `json:"no_results,omitempty"`
	Message   string             `json:"message,omitempty"`
	Output    string             `json:"output,omitempty"`
	Options   graph.ViewOptions  `json:"options"`
}

func summarizeView(v *graph.View, opts graph.ViewOptions, noResults bool, output string) ViewSummary {
	sum := ViewSummary{Edges: map[graph.Tier]int{}, NoResults: noResults, Output: output, Options: opts}
	if v != nil {
		sum.Nodes = len(v.Nodes)
		for _, t := range graph.Tiers {
			sum.Edges[t] = len(v.Edges[t])
		}
	}
	if noResults {
		sum.Message = viz.NoResultsMessage
	}
	return sum
}

func printViewSummaryHuman(sum ViewSummary) {
	if sum.NoResults {
		fmt.Println(sum.Message)
	} else {
		fmt.Printf("Visible: %d authors", sum.Nodes)
		for _, t := range graph.Tiers {
			fmt.Printf(", %d %s links", sum.Edges[t], t)
		}
		fmt.Println()
	}
	if sum.Output != "" {
		fmt.Printf("Graph written to %s\n", sum.Output)
	}
}

// findWorkspaceOrEmpty returns the workspace root above start, or "".
func findWorkspaceOrEmpty(start string) string {
	root, err := config.FindWorkspace(start)
	if err != nil {
		return ""
	}
	return root
}

// loadConfigOrDefault loads the workspace config, falling back to defaults
// outside a workspace.
func loadConfigOrDefault(root string) *config.Config {
	if root == "" {
		return config.Default()
	}
	cfg, err := config.Load(root)
	if err != nil {
		logger.Logger.Warnw("loading config, using defaults", logger.FieldPath, root, logger.FieldError, err)
		return config.Default()
	}
	return cfg
}
