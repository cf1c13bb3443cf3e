// Package config loads artifactindex configuration from YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/artifactindex/internal/logging"
)

// Project config file names, in lookup order.
const (
	ProjectConfigFile    = ".artifactindex.yaml"
	ProjectConfigFileAlt = ".artifactindex.yml"
)

// Defaults.
const (
	DefaultIndexDir       = "lucene_index"
	DefaultMaxResults     = 1000
	DefaultQueryCacheSize = 256
	DefaultLockTimeout    = "5s"
	DefaultSourceTable    = "artifacts"
)

// Config represents the complete artifactindex configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Source  SourceConfig  `yaml:"source" json:"source"`
}

// IndexConfig configures the on-disk index directory.
type IndexConfig struct {
	// Path is the index directory. Relative paths resolve against the
	// directory the config was loaded from.
	Path string `yaml:"path" json:"path"`

	// ForceUnlock clears a held writer lock and deletes write.lock on every
	// directory access. It keeps a web-request host available after aborted
	// writers, at the cost of breaking a live concurrent writer's lock.
	// Disable it when several processes write to the same index.
	ForceUnlock bool `yaml:"force_unlock" json:"force_unlock"`

	// LockTimeout bounds how long a writer waits for write.lock when
	// ForceUnlock is off (e.g., "5s").
	LockTimeout string `yaml:"lock_timeout" json:"lock_timeout"`
}

// SearchConfig configures query execution.
type SearchConfig struct {
	// MaxResults caps candidate matches per search. Excess hits are dropped.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// QueryCacheSize is the number of built queries kept in memory. 0 disables caching.
	QueryCacheSize int `yaml:"query_cache_size" json:"query_cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// SourceConfig points at the canonical artifact store used for rebuilds.
type SourceConfig struct {
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	Table      string `yaml:"table" json:"table"`
}

// NewConfig returns a configuration with every default applied.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Path:        DefaultIndexDir,
			ForceUnlock: true,
			LockTimeout: DefaultLockTimeout,
		},
		Search: SearchConfig{
			MaxResults:     DefaultMaxResults,
			QueryCacheSize: DefaultQueryCacheSize,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Source: SourceConfig{
			Table: DefaultSourceTable,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file:
//   - $XDG_CONFIG_HOME/artifactindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/artifactindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "artifactindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "artifactindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "artifactindex", "config.yaml")
}

// Load loads configuration for dir. Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User/global config
//  3. Project config (.artifactindex.yaml in dir)
//  4. Environment variables (ARTIFACTINDEX_*)
//
// A relative index path is resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config from %s: %w", userPath, err)
		}
	}

	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Index.Path != "" && !filepath.IsAbs(cfg.Index.Path) {
		abs, err := filepath.Abs(filepath.Join(dir, cfg.Index.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve index path: %w", err)
		}
		cfg.Index.Path = abs
	}

	return cfg, nil
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current values, so later files only override what they mention.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies ARTIFACTINDEX_* environment variables.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ARTIFACTINDEX_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("ARTIFACTINDEX_FORCE_UNLOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Index.ForceUnlock = b
		}
	}
	if v := os.Getenv("ARTIFACTINDEX_LOCK_TIMEOUT"); v != "" {
		c.Index.LockTimeout = v
	}
	if v := os.Getenv("ARTIFACTINDEX_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("ARTIFACTINDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ARTIFACTINDEX_SQLITE_PATH"); v != "" {
		c.Source.SQLitePath = v
	}
}

// LockTimeoutDuration parses Index.LockTimeout, falling back to the default.
func (c *Config) LockTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Index.LockTimeout); err == nil && d >= 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultLockTimeout)
	return d
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Index.Path) == "" {
		return fmt.Errorf("index.path must not be empty")
	}
	if c.Index.LockTimeout != "" {
		d, err := time.ParseDuration(c.Index.LockTimeout)
		if err != nil {
			return fmt.Errorf("index.lock_timeout is not a duration: %q", c.Index.LockTimeout)
		}
		if d < 0 {
			return fmt.Errorf("index.lock_timeout must be non-negative, got %s", d)
		}
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.QueryCacheSize < 0 {
		return fmt.Errorf("search.query_cache_size must be non-negative, got %d", c.Search.QueryCacheSize)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
