package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/session"
	"github.com/gwngames/scholargraph/internal/viz"
)

var (
	vizOutput string
	vizFormat string
	vizTitle  string
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizFormat, "format", "html", "Output format: html or cytoscape")
	vizCmd.Flags().StringVar(&vizTitle, "title", "", "Page title")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Export the current view",
	Long: `Export the current view of the merged graph, using the last view options.

Formats:
  html       Self-contained Cytoscape.js page
  cytoscape  Cytoscape.js elements JSON

Examples:
  sgraph viz > graph.html
  sgraph viz --output coauthors.html --title "My group"
  sgraph viz --format cytoscape -o elements.json`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	if vizFormat != "html" && vizFormat != "cytoscape" {
		exitWithError(ExitError, "invalid --format %q (valid: html, cytoscape)", vizFormat)
	}

	ws := mustOpenWorkspace()
	defer ws.Close()

	// No renderer: the page goes to --output instead of .sgraph/graph.html
	opts := ws.loadViewOptions()
	v, err := session.New(ws.Client, session.WithStore(ws.Store)).Refresh(opts)
	noResults := errors.Is(err, graph.ErrNoResults)
	if err != nil && !noResults {
		exitWithError(exitCodeFor(err), "deriving view: %v", err)
	}

	data := viz.Build(v, viz.OptionsFromView(opts))

	var out string
	switch vizFormat {
	case "cytoscape":
		out, err = data.ToCytoscapeJSON()
	default:
		htmlOpts := viz.DefaultOptions()
		if vizTitle != "" {
			htmlOpts.Title = vizTitle
		}
		if noResults {
			htmlOpts.EmptyMessage = viz.NoResultsMessage
		}
		out, err = viz.GenerateHTML(data, htmlOpts)
	}
	if err != nil {
		exitWithError(ExitError, "generating %s: %v", vizFormat, err)
	}

	if vizOutput == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s\n", vizOutput)
	} else {
		outputJSON(StatusResponse{Status: "written", Path: vizOutput})
	}
	return nil
}
