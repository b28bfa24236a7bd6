package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/config"
	"github.com/gwngames/scholargraph/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from the journal",
	Long: `Rebuild the SQLite author index from .sgraph/journal.jsonl. With
root-pruning on, only the authors the replayed graph still holds are indexed.

Use this if the cache is deleted or becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
	Nodes   int    `json:"nodes"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	db := mustOpenDatabase(root)
	defer db.Close()

	journalPath := config.JournalPath(root)
	entries, err := storage.ReadJournal(journalPath)
	if err != nil {
		exitWithError(ExitDataError, "reading journal: %v", err)
	}

	nodes, err := db.RebuildFromJournal(journalPath, newStore(cfg))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt author index with %d authors from %d journal entries\n", nodes, len(entries))
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Entries: len(entries), Nodes: nodes})
	}
	return nil
}
