package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/logger"
)

var (
	viewFlagSet viewFlags
	viewReset   bool
)

func init() {
	viewFlagSet.register(viewCmd)
	viewCmd.Flags().BoolVar(&viewReset, "reset", false, "Start from the default view options")
	rootCmd.AddCommand(viewCmd)
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Change filters and re-render without fetching",
	Long: `Re-derive the visible graph from the merged store with new filters and
re-render .sgraph/graph.html. Options not given keep their last value.

Examples:
  sgraph view --conf-rank A --filter-by link
  sgraph view --journal-rank Q1 --filter-by node --from 2018 --to 2023
  sgraph view --roots-only
  sgraph view --reset`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	defer ws.Close()

	base := ws.loadViewOptions()
	if viewReset {
		base = graph.DefaultViewOptions()
		base.Selected = ws.loadViewOptions().Selected
	}
	opts, err := viewFlagSet.apply(cmd, base)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	s := ws.newSession()
	v, err := s.Refresh(opts)
	noResults := errors.Is(err, graph.ErrNoResults)
	if err != nil && !noResults {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if serr := ws.saveState(s, opts); serr != nil {
		logger.Logger.Warnw("saving view options", logger.FieldError, serr)
	}

	sum := summarizeView(v, opts, noResults, ws.Renderer.Path)
	if humanOutput {
		printViewSummaryHuman(sum)
	} else {
		outputJSON(sum)
	}
	return nil
}
