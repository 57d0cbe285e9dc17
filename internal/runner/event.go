package runner

import "fmt"

// Stream identifies which child output handle a line came from
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// StatusKind classifies how an invocation ended
type StatusKind int

const (
	// Completed means the child exited; ExitCode holds its status.
	Completed StatusKind = iota
	// LaunchFailed means the child could not be started.
	LaunchFailed
	// RunnerFailed means streaming or waiting failed after launch.
	RunnerFailed
	// Cancelled means the caller cancelled and the child was terminated.
	Cancelled
)

func (k StatusKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case LaunchFailed:
		return "launch-failed"
	case RunnerFailed:
		return "runner-failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// TerminalStatus is the single final outcome of an invocation
type TerminalStatus struct {
	Kind     StatusKind
	ExitCode int
	Reason   string
}

// Success reports whether the child exited with code zero
func (s TerminalStatus) Success() bool {
	return s.Kind == Completed && s.ExitCode == 0
}

func (s TerminalStatus) String() string {
	switch s.Kind {
	case Completed:
		return fmt.Sprintf("completed (exit code %d)", s.ExitCode)
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("%s: %s", s.Kind, s.Reason)
	}
}

// Event is either one output line or the terminal status
type Event struct {
	Stream Stream
	Text   string
	// Status is set only on the last event of an invocation.
	Status *TerminalStatus
}

// IsTerminal reports whether the event ends the sequence
func (e Event) IsTerminal() bool {
	return e.Status != nil
}

// Sink receives events on the dispatcher's goroutine
type Sink func(Event)
