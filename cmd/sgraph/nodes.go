package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/graph"
)

var nodesLimit int

func init() {
	nodesCmd.Flags().IntVarP(&nodesLimit, "limit", "n", DefaultNodesLimit, "Maximum number of authors")
	rootCmd.AddCommand(nodesCmd)
}

var nodesCmd = &cobra.Command{
	Use:   "nodes [query]",
	Short: "List merged authors",
	Long: `List the authors merged so far, each once, in the order they first
appeared. An optional query matches author names or ids by prefix.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNodes,
}

// NodesResult is the response for the nodes command.
type NodesResult struct {
	Total int          `json:"total"`
	Nodes []graph.Node `json:"nodes"`
}

func runNodes(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	query := ""
	if len(args) == 1 {
		query = args[0]
	}

	nodes, err := db.SearchNodes(query, nodesLimit)
	if err != nil {
		exitWithError(ExitError, "searching nodes: %v", err)
	}
	total, err := db.CountNodes()
	if err != nil {
		exitWithError(ExitError, "counting nodes: %v", err)
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}

	if humanOutput {
		if len(nodes) == 0 {
			fmt.Println("No authors found")
			return nil
		}
		for _, n := range nodes {
			marker := " "
			if n.IsRoot {
				marker = "*"
			}
			fmt.Printf("%s %-12s %s\n", marker, n.ID, truncateString(n.Label, LabelMaxLen))
		}
		fmt.Printf("\n%d of %d authors\n", len(nodes), total)
	} else {
		outputJSON(NodesResult{Total: total, Nodes: nodes})
	}
	return nil
}
