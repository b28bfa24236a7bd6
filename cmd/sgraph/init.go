package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/config"
)

var initBaseURL string

func init() {
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "", "Scholar backend base URL")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new sgraph workspace",
	Long: `Initialize a new sgraph workspace in the current directory.

Creates:
  .sgraph/
  ├── journal.jsonl   # Empty file
  ├── config.json     # Default config
  └── cache/          # SQLite cache (safe to delete)`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsWorkspace(root) {
		exitWithError(ExitError, "directory already contains an sgraph workspace")
	}
	if err := config.ValidateBaseURL(initBaseURL); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating workspace directory: %v", err)
	}

	f, err := os.Create(config.JournalPath(root))
	if err != nil {
		exitWithError(ExitError, "creating journal: %v", err)
	}
	f.Close()

	cfg := config.Default()
	cfg.BaseURL = initBaseURL
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized sgraph workspace in %s\n", config.WorkspacePath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.WorkspacePath(root)})
	}
	return nil
}
