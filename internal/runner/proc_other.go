//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// The child gets its own process group so a terminal Ctrl-C reaches only
// the shell, which then cancels the run and terminates the tree itself.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
