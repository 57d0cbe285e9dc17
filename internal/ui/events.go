package ui

import (
	"fmt"

	"github.com/zoro11031/pshvtools-shell/internal/runner"
)

// Event renders one runner event. Output lines are printed verbatim:
// stdout lines to the UI's stdout, stderr lines in red to its output.
func (u *UI) Event(ev runner.Event) {
	if ev.IsTerminal() {
		u.Status(*ev.Status)
		return
	}

	if ev.Stream == runner.Stderr {
		u.colorError.Fprintln(u.output, ev.Text)
		return
	}
	fmt.Fprintln(u.stdout, ev.Text)
}

// Status prints the final outcome of a run
func (u *UI) Status(s runner.TerminalStatus) {
	fmt.Fprintln(u.output)
	switch {
	case s.Success():
		u.Success("Command completed successfully!")
	case s.Kind == runner.Completed:
		u.Errorf("Command failed with exit code %d", s.ExitCode)
	case s.Kind == runner.Cancelled:
		u.Warning("Command cancelled")
	case s.Kind == runner.LaunchFailed:
		u.Errorf("Could not start interpreter: %s", s.Reason)
	default:
		u.Errorf("Error running command: %s", s.Reason)
	}
}
