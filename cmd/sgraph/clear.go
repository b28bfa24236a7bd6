package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the merged graph",
	Long: `Empty the merged graph: truncates the journal, clears the SQLite cache
and writes an empty graph page. The next expand always fetches.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	defer ws.Close()

	if err := ws.newSession().Clear(); err != nil {
		exitWithError(ExitError, "clearing graph: %v", err)
	}
	if err := ws.DB.Clear(); err != nil {
		exitWithError(ExitError, "clearing cache: %v", err)
	}

	if humanOutput {
		fmt.Println("Graph cleared")
	} else {
		outputJSON(StatusResponse{Status: "cleared", Path: ws.Root})
	}
	return nil
}
