package system

import (
	"context"
	"os/exec"
)

// CommandRunner defines an interface for running short, blocking commands
// whose combined output is needed at once (probes, version queries).
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecCommandRunner executes commands directly, without a shell.
type ExecCommandRunner struct{}

// NewCommandRunner returns a default command runner implementation.
func NewCommandRunner() CommandRunner {
	return &ExecCommandRunner{}
}

// Run executes a command and returns its combined output.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// CommandExists checks if a command is available on PATH (or is an existing
// executable path)
func CommandExists(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

// ResolveCommand returns the absolute path LookPath resolves command to
func ResolveCommand(command string) (string, error) {
	return exec.LookPath(command)
}
