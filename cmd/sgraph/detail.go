package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/graph"
	"github.com/gwngames/scholargraph/internal/scholar"
)

func init() {
	rootCmd.AddCommand(detailCmd)
}

var detailCmd = &cobra.Command{
	Use:   "detail <author-id>",
	Short: "Show an author's detail record",
	Long: `Fetch the detail record of an author (organisation, h-index, i10-index,
citations, publications, average ranks). Responses are cached in the
workspace for detail_cache_hours.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetail,
}

// DetailResult is the response for the detail command.
type DetailResult struct {
	ID     graph.NodeID          `json:"id"`
	Label  string                `json:"label,omitempty"`
	Detail *scholar.AuthorDetail `json:"detail"`
}

func runDetail(cmd *cobra.Command, args []string) error {
	id := graph.NodeID(args[0])

	ws := mustOpenWorkspace()
	defer ws.Close()

	d, err := ws.newSession().AuthorDetail(context.Background(), id)
	if err != nil {
		exitWithError(exitCodeFor(err), "fetching author %s: %v", id, err)
	}

	result := DetailResult{ID: id, Detail: d}
	if n, err := ws.DB.GetNode(id); err == nil && n != nil {
		result.Label = n.Label
	}

	if humanOutput {
		if result.Label != "" {
			fmt.Printf("%s (%s)\n", result.Label, id)
		} else {
			fmt.Println(id)
		}
		for _, f := range d.Fields() {
			fmt.Printf("  %-22s %s\n", f.Label+":", f.Value)
		}
	} else {
		outputJSON(result)
	}
	return nil
}
