package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulseline/pulseline/internal/metrics"
	"github.com/pulseline/pulseline/internal/testenv"
)

func setupTempDir(t *testing.T) testenv.Dirs {
	t.Helper()
	dirs := testenv.Apply(t.Setenv, t.TempDir())
	// Reset global config so tests don't leak state.
	configMu.Lock()
	globalConfig = nil
	configMu.Unlock()
	return dirs
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxDuration() != 30*time.Second {
		t.Errorf("MaxDuration = %v, want 30s", cfg.MaxDuration())
	}
	if got := cfg.CategoryTTL(metrics.CategoryCost); got != 60*time.Second {
		t.Errorf("cost TTL = %v, want 60s", got)
	}
	if got := cfg.CategoryTTL(metrics.CategoryContext); got != 30*time.Second {
		t.Errorf("context TTL = %v, want 30s", got)
	}
	if len(cfg.ProviderCommands()) != 0 {
		t.Error("default config should have no provider commands")
	}
	if got := cfg.RenderCategories(); len(got) != len(metrics.All()) {
		t.Errorf("RenderCategories = %v", got)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	setupTempDir(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load errored on missing file: %v", err)
	}
	if cfg.MaxDuration() != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dirs := setupTempDir(t)
	content := `
[render]
categories = ["cost", "limits"]

[refresh]
max_duration_seconds = 45

[categories.cost]
ttl_seconds = 120
command = ["session-cost", "--json"]
`
	if err := os.MkdirAll(dirs.Config, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dirs.Config, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxDuration() != 45*time.Second {
		t.Errorf("MaxDuration = %v, want 45s", cfg.MaxDuration())
	}
	if got := cfg.CategoryTTL(metrics.CategoryCost); got != 120*time.Second {
		t.Errorf("cost TTL = %v, want 120s", got)
	}
	// Unconfigured categories keep their default TTLs.
	if got := cfg.CategoryTTL(metrics.CategoryContext); got != 30*time.Second {
		t.Errorf("context TTL = %v, want default 30s", got)
	}

	commands := cfg.ProviderCommands()
	if len(commands) != 1 {
		t.Fatalf("ProviderCommands = %v", commands)
	}
	if got := commands[metrics.CategoryCost]; len(got) != 2 || got[0] != "session-cost" {
		t.Errorf("cost command = %v", got)
	}

	cats := cfg.RenderCategories()
	if len(cats) != 2 || cats[0] != metrics.CategoryCost || cats[1] != metrics.CategoryLimits {
		t.Errorf("RenderCategories = %v", cats)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dirs := setupTempDir(t)
	if err := os.MkdirAll(dirs.Config, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dirs.Config, "config.toml"), []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err == nil {
		t.Fatal("Load accepted malformed TOML")
	}
	// Defaults remain usable despite the error.
	if cfg.MaxDuration() != 30*time.Second {
		t.Errorf("malformed config did not fall back to defaults: %+v", cfg)
	}
}

func TestRenderCategories_DropsUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.Categories = []string{"cost", "bogus"}
	cats := cfg.RenderCategories()
	if len(cats) != 1 || cats[0] != metrics.CategoryCost {
		t.Errorf("RenderCategories = %v", cats)
	}

	cfg.Render.Categories = []string{"bogus"}
	if got := cfg.RenderCategories(); len(got) != len(metrics.All()) {
		t.Errorf("all-unknown list should fall back to all categories, got %v", got)
	}
}

func TestResolvePaths(t *testing.T) {
	dirs := setupTempDir(t)

	cfg := DefaultConfig()
	if got := cfg.ResolveMetricsDir(); got != filepath.Join(dirs.Cache, "metrics") {
		t.Errorf("ResolveMetricsDir = %q", got)
	}
	if got := cfg.ResolveLocksDir(); got != filepath.Join(dirs.Cache, "locks") {
		t.Errorf("ResolveLocksDir = %q", got)
	}
	if got := cfg.ResolveHistoryFile(); got != filepath.Join(dirs.State, "history.jsonl") {
		t.Errorf("ResolveHistoryFile = %q", got)
	}

	cfg.Paths = PathsConfig{
		CacheDir:    "/custom/cache",
		LockDir:     "/custom/locks",
		HistoryFile: "/custom/history.jsonl",
	}
	if cfg.ResolveMetricsDir() != "/custom/cache" ||
		cfg.ResolveLocksDir() != "/custom/locks" ||
		cfg.ResolveHistoryFile() != "/custom/history.jsonl" {
		t.Error("config file paths did not override defaults")
	}
}

func TestGet_ClonesState(t *testing.T) {
	setupTempDir(t)
	a := Get()
	a.Categories["cost"] = CategoryConfig{TTLSeconds: 999}
	a.Render.Categories[0] = "mutated"

	b := Get()
	if b.CategoryTTL(metrics.CategoryCost) == 999*time.Second {
		t.Error("mutation through one Get leaked into the global config")
	}
	if b.Render.Categories[0] == "mutated" {
		t.Error("slice mutation leaked into the global config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	setupTempDir(t)
	cfg := DefaultConfig()
	cfg.Refresh.MaxDurationSeconds = 77
	cfg.Categories["cost"] = CategoryConfig{TTLSeconds: 90, Command: []string{"cost-tool"}}

	if err := Save(cfg, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.MaxDuration() != 77*time.Second {
		t.Errorf("MaxDuration = %v", loaded.MaxDuration())
	}
	if got := loaded.Categories["cost"]; got.TTLSeconds != 90 || len(got.Command) != 1 {
		t.Errorf("cost category = %+v", got)
	}
}
