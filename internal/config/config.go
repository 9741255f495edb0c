// Package config loads Seekr's small configuration surface: the
// workspace override, search defaults, and tuning knobs for the
// watcher and semantic index. It layers hardcoded defaults, a YAML
// file at ~/.seekr/config.yaml, and SEEKR_* environment overrides, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SearchConfig holds the query engine's default parameters.
type SearchConfig struct {
	K            int     `yaml:"k"`
	ContextLines int     `yaml:"context_lines"`
	Alpha        float64 `yaml:"alpha"`
}

// WatcherConfig holds the watch loop's debounce tuning.
type WatcherConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// SemanticConfig holds HNSW construction tuning. These are not
// user-exposed through the CLI but may be overridden for testing.
type SemanticConfig struct {
	M              int `yaml:"m"`
	EfConstruction int `yaml:"ef_construction"`
	EfSearch       int `yaml:"ef_search"`
}

// Config is Seekr's full configuration.
type Config struct {
	// Workspace is the directory ResolveWorkspace uses when it is given
	// no explicit argument.
	Workspace string         `yaml:"workspace"`
	Search    SearchConfig   `yaml:"search"`
	Watcher   WatcherConfig  `yaml:"watcher"`
	Semantic  SemanticConfig `yaml:"semantic"`
}

// Default returns Seekr's hardcoded defaults, matching §4.7 and §4.4
// of the core specification.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			K:            10,
			ContextLines: 3,
			Alpha:        0.5,
		},
		Watcher: WatcherConfig{
			DebounceMS: 500,
		},
		Semantic: SemanticConfig{
			M:              16,
			EfConstruction: 128,
			EfSearch:       64,
		},
	}
}

// HomeDir returns ~/.seekr, falling back to a temp directory.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".seekr")
	}
	return filepath.Join(home, ".seekr")
}

// ConfigPath returns the path to the user configuration file.
func ConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Load reads the layered configuration: defaults, then
// ~/.seekr/config.yaml if present, then SEEKR_* environment
// variables.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEEKR_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv("SEEKR_SEARCH_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.K = n
		}
	}
	if v := os.Getenv("SEEKR_SEARCH_CONTEXT_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.ContextLines = n
		}
	}
	if v := os.Getenv("SEEKR_SEARCH_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.Alpha = f
		}
	}
	if v := os.Getenv("SEEKR_WATCHER_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Watcher.DebounceMS = n
		}
	}
}

// DebounceDuration returns the watcher's debounce interval as a
// time.Duration.
func (c *Config) DebounceDuration() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

// Save writes cfg to ~/.seekr/config.yaml, creating the directory if
// needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(HomeDir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o644)
}

// ResolveWorkspace applies the layering CLI args use to settle on a
// workspace path: an explicit argument wins, then the config
// override, then the current directory.
func ResolveWorkspace(arg string, cfg *Config) (string, error) {
	candidate := arg
	if candidate == "" {
		candidate = cfg.Workspace
	}
	if candidate == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve current directory: %w", err)
		}
		candidate = cwd
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve workspace path: %w", err)
	}
	return strings.TrimSuffix(abs, string(filepath.Separator)), nil
}
