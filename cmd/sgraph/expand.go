package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/config"
	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/logger"
	"github.com/gwngames/scholargraph/internal/scholar"
	"github.com/gwngames/scholargraph/internal/session"
)

var (
	expandDepth int
	expandBatch bool
	expandView  viewFlags
)

func init() {
	expandCmd.Flags().IntVarP(&expandDepth, "depth", "d", 0, "Expansion depth (default: workspace default_depth)")
	expandCmd.Flags().BoolVar(&expandBatch, "batch", false, "Fetch each author separately and in parallel")
	expandView.register(expandCmd)
	rootCmd.AddCommand(expandCmd)
}

var expandCmd = &cobra.Command{
	Use:   "expand <author-id>...",
	Short: "Fetch and merge the co-authorship graph around authors",
	Long: `Fetch the co-authorship neighbourhood of one or more authors and merge it
into the workspace graph, then render .sgraph/graph.html.

Ids may be given as separate arguments or comma-separated. Repeating the last
successful set of authors at the same depth re-renders without fetching.

Examples:
  sgraph expand 1234
  sgraph expand 1234,5678 --depth 2
  sgraph expand 1234 5678 --batch --conf-rank A* --from 2015`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExpand,
}

// ExpandResult is the response for the expand command.
type ExpandResult struct {
	Roots   []graph.NodeID    `json:"roots"`
	Depth   int               `json:"depth"`
	Fetched int               `json:"fetched"`
	Skipped bool              `json:"skipped,omitempty"`
	Report  graph.MergeReport `json:"report"`
	Indexed int               `json:"indexed"`
	View    ViewSummary       `json:"view"`
}

func runExpand(cmd *cobra.Command, args []string) error {
	var roots []graph.NodeID
	for _, a := range args {
		roots = append(roots, graph.ParseIDList(a)...)
	}
	roots = graph.IDSet(roots)
	if len(roots) == 0 {
		exitWithError(ExitError, "no author ids given")
	}

	ws := mustOpenWorkspace()
	defer ws.Close()

	depth := expandDepth
	if depth == 0 {
		depth = ws.Config.DefaultDepth
	}
	if err := config.ValidateDepth(depth); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	opts, err := expandView.apply(cmd, ws.loadViewOptions())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if !cmd.Flags().Changed("selected") {
		opts.Selected = roots
	}

	s := ws.newSession()
	ctx := context.Background()

	var out *session.Outcome
	if expandBatch && len(roots) > 1 {
		reqs := make([]scholar.ExpandRequest, len(roots))
		for i, id := range roots {
			reqs[i] = scholar.ExpandRequest{Roots: []graph.NodeID{id}, Depth: depth}
		}
		out, err = s.ExpandBatch(ctx, reqs, opts)
	} else {
		out, err = s.Expand(ctx, roots, depth, opts)
	}

	noResults := errors.Is(err, graph.ErrNoResults)
	if err != nil && !noResults {
		if out == nil || out.Fetched == 0 {
			exitWithError(exitCodeFor(err), "expanding %s: %v", graph.JoinIDs(roots), err)
		}
		// Partial batch: keep what landed and report the failures
		logger.Logger.Warnw("some expansions failed", logger.FieldError, err)
	}

	// A pruning store can lose authors, so the index is rebuilt to match it
	index := ws.DB.IndexNodes
	if ws.Store.PrunesToRoots() {
		index = ws.DB.ReplaceNodes
	}
	indexed, ierr := index(ws.Store.Snapshot().Nodes)
	if ierr != nil {
		logger.Logger.Warnw("indexing nodes", logger.FieldError, ierr)
	}
	if serr := ws.saveState(s, opts); serr != nil {
		logger.Logger.Warnw("saving session state", logger.FieldError, serr)
	}

	result := ExpandResult{
		Roots:   roots,
		Depth:   depth,
		Fetched: out.Fetched,
		Skipped: out.Skipped,
		Report:  out.Report,
		Indexed: indexed,
		View:    summarizeView(out.View, opts, noResults, ws.Renderer.Path),
	}

	if humanOutput {
		switch {
		case result.Skipped:
			fmt.Printf("Same authors and depth as last fetch; re-rendered without fetching\n")
		default:
			fmt.Printf("Fetched %d result(s): +%d authors, +%d links",
				result.Fetched, result.Report.NodesAdded, result.Report.TotalEdgesAdded())
			if n := len(result.Report.Dropped); n > 0 {
				fmt.Printf(", %d dropped", n)
			}
			fmt.Println()
		}
		printViewSummaryHuman(result.View)
		if err != nil && !noResults {
			fmt.Printf("Some expansions failed: %v\n", err)
		}
	} else {
		outputJSON(result)
	}
	return nil
}
