package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gwngames/scholargraph/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set workspace configuration values.

Usage:
  sgraph config                              # Show all config
  sgraph config base-url                     # Get specific value
  sgraph config base-url http://host:5000    # Set value

Keys:
  base-url            Scholar backend base URL
  default-depth       Depth used when expand gets no --depth (1-5)
  root-pruning        Drop authors unreachable from the current roots (true/false)
  rate-limit          Requests per second to the backend (0 = default)
  max-concurrent      Parallel fetches for expand --batch
  detail-cache-hours  Author detail cache lifetime (0 = forever)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	BaseURL          string  `json:"base_url"`
	ResolvedBaseURL  string  `json:"resolved_base_url"`
	DefaultDepth     int     `json:"default_depth"`
	RootPruning      bool    `json:"root_pruning"`
	RateLimit        float64 `json:"rate_limit"`
	MaxConcurrent    int     `json:"max_concurrent"`
	DetailCacheHours int     `json:"detail_cache_hours"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	if len(args) == 0 {
		resp := ConfigResponse{
			BaseURL:          cfg.BaseURL,
			ResolvedBaseURL:  config.ResolveBaseURL(cfg),
			DefaultDepth:     cfg.DefaultDepth,
			RootPruning:      cfg.RootPruning,
			RateLimit:        cfg.RateLimit,
			MaxConcurrent:    cfg.MaxConcurrent,
			DetailCacheHours: cfg.DetailCacheHours,
		}
		if humanOutput {
			fmt.Printf("base-url:           %s (resolved: %s)\n", resp.BaseURL, resp.ResolvedBaseURL)
			fmt.Printf("default-depth:      %d\n", resp.DefaultDepth)
			fmt.Printf("root-pruning:       %t\n", resp.RootPruning)
			fmt.Printf("rate-limit:         %g\n", resp.RateLimit)
			fmt.Printf("max-concurrent:     %d\n", resp.MaxConcurrent)
			fmt.Printf("detail-cache-hours: %d\n", resp.DetailCacheHours)
		} else {
			outputJSON(resp)
		}
		return nil
	}

	key := normalizeKey(args[0])

	if len(args) == 1 {
		value, ok := getConfigValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	if err := setConfigValue(cfg, key, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, args[1])
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: args[1]})
	}
	return nil
}

// normalizeKey accepts snake_case and kebab-case keys.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}

func getConfigValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "base-url":
		return cfg.BaseURL, true
	case "default-depth":
		return strconv.Itoa(cfg.DefaultDepth), true
	case "root-pruning":
		return strconv.FormatBool(cfg.RootPruning), true
	case "rate-limit":
		return strconv.FormatFloat(cfg.RateLimit, 'g', -1, 64), true
	case "max-concurrent":
		return strconv.Itoa(cfg.MaxConcurrent), true
	case "detail-cache-hours":
		return strconv.Itoa(cfg.DetailCacheHours), true
	}
	return "", false
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "base-url":
		value = strings.TrimRight(strings.TrimSpace(value), "/")
		if err := config.ValidateBaseURL(value); err != nil {
			return err
		}
		cfg.BaseURL = value
	case "default-depth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid default-depth %q: %w", value, err)
		}
		if err := config.ValidateDepth(n); err != nil {
			return err
		}
		cfg.DefaultDepth = n
	case "root-pruning":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid root-pruning %q: %w", value, err)
		}
		cfg.RootPruning = b
	case "rate-limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid rate-limit %q: must be a non-negative number", value)
		}
		cfg.RateLimit = f
	case "max-concurrent":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid max-concurrent %q: must be a positive integer", value)
		}
		cfg.MaxConcurrent = n
	case "detail-cache-hours":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid detail-cache-hours %q: must be a non-negative integer", value)
		}
		cfg.DetailCacheHours = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
