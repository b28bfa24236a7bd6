package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/sgraph/config.yml.
type GlobalConfig struct {
	BaseURL       string `yaml:"base_url,omitempty"`
	APIKey        string `yaml:"api_key,omitempty"`
	WorkspacePath string `yaml:"workspace_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "sgraph"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override file configuration.
const (
	EnvBaseURL = "SGRAPH_BASE_URL"
	EnvAPIKey  = "SGRAPH_API_KEY"
)

// DefaultBaseURL is used when nothing else is configured.
const DefaultBaseURL = "http://localhost:5000"

// ErrNoWorkspace is returned when no .sgraph directory can be found.
var ErrNoWorkspace = errors.New("not in a scholargraph workspace (no .sgraph directory found)")

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/sgraph/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.WorkspacePath != "" {
		cfg.WorkspacePath = ExpandPath(cfg.WorkspacePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ResolveBaseURL picks the backend URL: environment, then workspace config,
// then global config, then DefaultBaseURL.
func ResolveBaseURL(cfg *Config) string {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	if cfg != nil && cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if g, err := LoadGlobalConfig(); err == nil && g.BaseURL != "" {
		return g.BaseURL
	}
	return DefaultBaseURL
}

// ResolveAPIKey returns the API key from the environment or global config.
func ResolveAPIKey() string {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v
	}
	g, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return g.APIKey
}

// GetWorkspacePath returns the default workspace from global config.
func GetWorkspacePath() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.WorkspacePath
}

// HelpfulConfigMessage explains how to set up a workspace.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No scholargraph workspace found.

Run 'sgraph init' in a directory, or create %s to set a default:
  mkdir -p %s
  echo 'workspace_path: /path/to/workspace' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
