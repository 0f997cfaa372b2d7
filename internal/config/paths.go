package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "pulseline"

func ConfigDir() string {
	if v := os.Getenv("PULSELINE_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

func CacheDir() string {
	if v := os.Getenv("PULSELINE_CACHE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.CacheHome, appName)
}

func StateDir() string {
	if v := os.Getenv("PULSELINE_STATE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.StateHome, appName)
}

func ConfigFile() string  { return filepath.Join(ConfigDir(), "config.toml") }
func MetricsDir() string  { return filepath.Join(CacheDir(), "metrics") }
func LocksDir() string    { return filepath.Join(CacheDir(), "locks") }
func HistoryFile() string { return filepath.Join(StateDir(), "history.jsonl") }
