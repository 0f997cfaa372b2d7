package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pulseline/pulseline/internal/metrics"
)

type RenderConfig struct {
	Categories []string `toml:"categories" json:"categories"`
}

type RefreshConfig struct {
	MaxDurationSeconds int `toml:"max_duration_seconds" json:"max_duration_seconds"`
}

type PathsConfig struct {
	CacheDir    string `toml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	LockDir     string `toml:"lock_dir,omitempty" json:"lock_dir,omitempty"`
	HistoryFile string `toml:"history_file,omitempty" json:"history_file,omitempty"`
}

type CategoryConfig struct {
	TTLSeconds int      `toml:"ttl_seconds" json:"ttl_seconds"`
	Command    []string `toml:"command" json:"command"`
}

type Config struct {
	Render     RenderConfig              `toml:"render" json:"render"`
	Refresh    RefreshConfig             `toml:"refresh" json:"refresh"`
	Paths      PathsConfig               `toml:"paths" json:"paths"`
	Categories map[string]CategoryConfig `toml:"categories" json:"categories"`
}

// DefaultConfig returns the built-in defaults: every category rendered,
// 60s TTLs for cost and limits, 30s for context (context shifts within a
// session far faster than spend), and 30s lock reclamation. Provider
// commands default to empty, which leaves a category on its placeholder
// until one is configured.
func DefaultConfig() Config {
	categories := make(map[string]CategoryConfig)
	for _, cat := range metrics.All() {
		categories[string(cat)] = CategoryConfig{TTLSeconds: defaultTTLSeconds(cat)}
	}
	return Config{
		Render:     RenderConfig{Categories: categoryIDs()},
		Refresh:    RefreshConfig{MaxDurationSeconds: 30},
		Categories: categories,
	}
}

func defaultTTLSeconds(cat metrics.Category) int {
	if cat == metrics.CategoryContext {
		return 30
	}
	return 60
}

func categoryIDs() []string {
	ids := make([]string, 0, len(metrics.All()))
	for _, cat := range metrics.All() {
		ids = append(ids, string(cat))
	}
	return ids
}

func (c Config) clone() Config {
	out := c
	if c.Render.Categories != nil {
		out.Render.Categories = make([]string, len(c.Render.Categories))
		copy(out.Render.Categories, c.Render.Categories)
	}
	out.Categories = make(map[string]CategoryConfig, len(c.Categories))
	for k, v := range c.Categories {
		if v.Command != nil {
			cmd := make([]string, len(v.Command))
			copy(cmd, v.Command)
			v.Command = cmd
		}
		out.Categories[k] = v
	}
	return out
}

// CategoryTTL returns the cache TTL for cat, falling back to the
// built-in default when the category is not configured.
func (c Config) CategoryTTL(cat metrics.Category) time.Duration {
	if cc, ok := c.Categories[string(cat)]; ok && cc.TTLSeconds > 0 {
		return time.Duration(cc.TTLSeconds) * time.Second
	}
	return time.Duration(defaultTTLSeconds(cat)) * time.Second
}

// MaxDuration returns the lock reclamation window.
func (c Config) MaxDuration() time.Duration {
	if c.Refresh.MaxDurationSeconds > 0 {
		return time.Duration(c.Refresh.MaxDurationSeconds) * time.Second
	}
	return 30 * time.Second
}

// ProviderCommands returns the configured provider argv per category.
// Categories without a command are omitted.
func (c Config) ProviderCommands() map[metrics.Category][]string {
	commands := make(map[metrics.Category][]string)
	for id, cc := range c.Categories {
		if metrics.Known(id) && len(cc.Command) > 0 {
			commands[metrics.Category(id)] = cc.Command
		}
	}
	return commands
}

// RenderCategories returns the categories to render, in configured
// order, dropping unknown IDs. An empty list means all categories.
func (c Config) RenderCategories() []metrics.Category {
	if len(c.Render.Categories) == 0 {
		return metrics.All()
	}
	var cats []metrics.Category
	for _, id := range c.Render.Categories {
		if metrics.Known(id) {
			cats = append(cats, metrics.Category(id))
		}
	}
	if len(cats) == 0 {
		return metrics.All()
	}
	return cats
}

// Resolved filesystem locations, config file overriding the defaults.

func (c Config) ResolveMetricsDir() string {
	if c.Paths.CacheDir != "" {
		return c.Paths.CacheDir
	}
	return MetricsDir()
}

func (c Config) ResolveLocksDir() string {
	if c.Paths.LockDir != "" {
		return c.Paths.LockDir
	}
	return LocksDir()
}

func (c Config) ResolveHistoryFile() string {
	if c.Paths.HistoryFile != "" {
		return c.Paths.HistoryFile
	}
	return HistoryFile()
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

func Get() Config {
	configMu.RLock()
	if c := globalConfig; c != nil {
		configMu.RUnlock()
		return c.clone()
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig != nil {
		return globalConfig.clone()
	}
	c, _ := Load("")
	globalConfig = &c
	return c.clone()
}

// Init loads the config file into the global accessor, surfacing a
// parse error while still installing usable defaults.
func Init() (Config, error) {
	configMu.Lock()
	defer configMu.Unlock()
	c, err := Load("")
	globalConfig = &c
	return c.clone(), err
}

func Reload() (Config, error) {
	return Init()
}

// Load reads the config at path (default: ConfigFile()). A missing file
// yields the defaults; a malformed file yields defaults plus an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, nil
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Categories == nil {
		cfg.Categories = make(map[string]CategoryConfig)
	}
	// Categories absent from the file still get default TTLs.
	for _, cat := range metrics.All() {
		if _, ok := cfg.Categories[string(cat)]; !ok {
			cfg.Categories[string(cat)] = CategoryConfig{TTLSeconds: defaultTTLSeconds(cat)}
		}
	}
	return cfg, nil
}

func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
