package system

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// KillProcessTree terminates pid and all of its descendants, children first.
// A process that has already exited is not an error.
func KillProcessTree(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	return killTree(p)
}

func killTree(p *process.Process) error {
	children, err := p.Children()
	if err != nil && !errors.Is(err, process.ErrorNoChildren) {
		// Descendants cannot be enumerated; still terminate the root.
		children = nil
	}

	var errs []error
	for _, child := range children {
		if err := killTree(child); err != nil {
			errs = append(errs, err)
		}
	}

	if err := p.Kill(); err != nil {
		if running, rerr := p.IsRunning(); rerr == nil && !running {
			return errors.Join(errs...)
		}
		errs = append(errs, fmt.Errorf("failed to kill process %d: %w", p.Pid, err))
	}

	return errors.Join(errs...)
}
