package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/scholar"
)

var (
	tableOffset int
	tableLimit  int
)

func init() {
	tableCmd.Flags().IntVar(&tableOffset, "offset", 0, "Index of the first row")
	tableCmd.Flags().IntVar(&tableLimit, "limit", scholar.DefaultPageLimit, "Rows per page")
	rootCmd.AddCommand(tableCmd)
}

var tableCmd = &cobra.Command{
	Use:   "table <table-id>",
	Short: "Page through a backend table",
	Long: `Fetch one page of rows from a backend table, with the total row count.

Examples:
  sgraph table authors
  sgraph table publications --offset 200 --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runTable,
}

func runTable(cmd *cobra.Command, args []string) error {
	if tableOffset < 0 || tableLimit < 1 {
		exitWithError(ExitError, "invalid page: offset must be >= 0 and limit >= 1")
	}

	// The table pager does not need the graph, only the backend settings
	cfgRoot := ""
	start, exitCode := getStartingDirectory()
	if exitCode == 0 {
		cfgRoot = findWorkspaceOrEmpty(start)
	}
	client := newClient(loadConfigOrDefault(cfgRoot))

	page, err := client.FetchRows(context.Background(), args[0], tableOffset, tableLimit)
	if err != nil {
		exitWithError(exitCodeFor(err), "fetching table %s: %v", args[0], err)
	}

	if humanOutput {
		printRowsHuman(page)
	} else {
		outputJSON(page)
	}
	return nil
}

func printRowsHuman(page *scholar.RowPage) {
	if len(page.Rows) == 0 {
		fmt.Println("No rows")
		return
	}
	cols := columns(page.Rows)
	fmt.Println(strings.Join(cols, "\t"))
	for _, row := range page.Rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := row[c]; ok && v != nil {
				vals[i] = fmt.Sprint(v)
			}
		}
		fmt.Println(strings.Join(vals, "\t"))
	}
	last := page.Offset + len(page.Rows)
	fmt.Printf("\nRows %d-%d of %d\n", page.Offset+1, last, page.TotalCount)
}

// columns returns the sorted union of keys across rows.
func columns(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
