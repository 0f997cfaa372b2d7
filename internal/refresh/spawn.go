package refresh

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/pulseline/pulseline/internal/metrics"
)

// ProcessLauncher returns a LaunchFunc that re-invokes the current
// binary as a detached worker process. The renderer that triggered the
// refresh can exit while the worker is still running; the worker owns
// the lock token and releases the lock on completion.
func ProcessLauncher() LaunchFunc {
	return func(cat metrics.Category, token string) error {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}
		cmd := exec.Command(exe, "refresh",
			"--worker",
			"--category", string(cat),
			"--lock-token", token,
		)
		cmd.Stdin = nil
		cmd.Stdout = nil
		cmd.Stderr = nil
		detach(cmd)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("spawning refresh worker: %w", err)
		}
		// Release the handle so the worker is not reaped by us and can
		// outlive this process.
		return cmd.Process.Release()
	}
}
