// Package config handles workspace and global configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Config represents workspace configuration stored in .sgraph/config.json.
type Config struct {
	BaseURL          string  `json:"base_url,omitempty"`           // Scholar backend base URL
	DefaultDepth     int     `json:"default_depth"`                // Depth used when expand gets none
	RootPruning      bool    `json:"root_pruning,omitempty"`       // Drop nodes unreachable from the current roots
	RateLimit        float64 `json:"rate_limit,omitempty"`         // Requests per second, 0 = client default
	MaxConcurrent    int     `json:"max_concurrent,omitempty"`     // Parallel fetches in a batch expand
	DetailCacheHours int     `json:"detail_cache_hours,omitempty"` // Author detail cache lifetime, 0 = forever
}

const (
	WorkspaceDir = ".sgraph"
	ConfigFile   = "config.json"
	JournalFile  = "journal.jsonl"
	CacheDir     = "cache"
	DBFile       = "graph.db"
	GraphHTML    = "graph.html"
)

// Defaults for a freshly initialised workspace.
const (
	DefaultDepth         = 1
	DefaultMaxConcurrent = 4
	MaxDepth             = 5
)

// Default returns the configuration written by init.
func Default() *Config {
	return &Config{
		DefaultDepth:  DefaultDepth,
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// WorkspacePath returns the path to the .sgraph directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// JournalPath returns the path to journal.jsonl from a root path.
func JournalPath(root string) string {
	return filepath.Join(root, WorkspaceDir, JournalFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir)
}

// DBPath returns the path to graph.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir, DBFile)
}

// HTMLPath returns the default path of the rendered graph page.
func HTMLPath(root string) string {
	return filepath.Join(root, WorkspaceDir, GraphHTML)
}

// IsWorkspace checks if the given path contains a workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a workspace.
// Returns the workspace root path or an error if not found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoWorkspace
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root. Zero fields
// are filled with defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DefaultDepth == 0 {
		cfg.DefaultDepth = DefaultDepth
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}

	return &cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ValidateBaseURL checks that the value is an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return nil // Empty falls back to the global config or the default
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: missing host", raw)
	}
	return nil
}

// ValidateDepth checks that the expansion depth is within [1, MaxDepth].
func ValidateDepth(depth int) error {
	if depth < 1 || depth > MaxDepth {
		return fmt.Errorf("invalid depth %d (valid: 1-%d)", depth, MaxDepth)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
