package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pulseline/pulseline/internal/testenv"
)

// setupTestEnv isolates config/cache/state directories and resets flag
// state so commands see a clean slate.
func setupTestEnv(t *testing.T) testenv.Dirs {
	t.Helper()
	dirs := testenv.Apply(t.Setenv, t.TempDir())
	resetFlags()
	return dirs
}

func resetFlags() {
	jsonOutput = false
	noColor = false
	verbose = false
	quiet = false
	refreshWorker = false
	refreshCategory = ""
	refreshLockToken = ""
	historyLimit = 0
	_ = rootCmd.Flags().Set("version", "false")
}

// runCommand executes the root command with args, capturing stdout-bound
// output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	oldWriter := outWriter
	outWriter = &buf
	defer func() { outWriter = oldWriter }()

	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeCacheEntry drops a raw entry file where the render command's
// cache store will read it.
func writeCacheEntry(t *testing.T, dirs testenv.Dirs, name, content string) {
	t.Helper()
	dir := filepath.Join(dirs.Cache, "metrics")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
