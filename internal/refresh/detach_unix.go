//go:build !windows

package refresh

import (
	"os/exec"
	"syscall"
)

// detach puts the worker in its own session so terminal signals sent to
// the renderer (or its host) do not kill an in-flight refresh.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
