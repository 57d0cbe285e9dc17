// Package runner executes interpreter command lines as child processes and
// streams their output line by line. Every invocation ends with exactly one
// TerminalStatus; failures never escape as errors or panics.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zoro11031/pshvtools-shell/internal/command"
	"github.com/zoro11031/pshvtools-shell/internal/system"
)

// DefaultMaxLineSize bounds a single output line
const DefaultMaxLineSize = 1024 * 1024

// Runner launches command lines through one interpreter
type Runner struct {
	interpreter Interpreter
	dispatcher  Dispatcher
	logger      *slog.Logger
	killTree    func(pid int) error
	maxLineSize int
}

// Option configures a Runner
type Option func(*Runner)

// WithDispatcher routes sink calls through d (default: Immediate)
func WithDispatcher(d Dispatcher) Option {
	return func(r *Runner) { r.dispatcher = d }
}

// WithLogger sets the logger used for launch and exit diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTreeKiller replaces the function used to terminate a cancelled child
func WithTreeKiller(fn func(pid int) error) Option {
	return func(r *Runner) { r.killTree = fn }
}

// WithMaxLineSize sets the longest line the readers accept
func WithMaxLineSize(n int) Option {
	return func(r *Runner) { r.maxLineSize = n }
}

// New creates a Runner for the interpreter
func New(interp Interpreter, opts ...Option) *Runner {
	r := &Runner{
		interpreter: interp,
		dispatcher:  &Immediate{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		killTree:    system.KillProcessTree,
		maxLineSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interpreter returns the configured interpreter
func (r *Runner) Interpreter() Interpreter {
	return r.interpreter
}

// Invocation is a handle on one asynchronous run
type Invocation struct {
	ID     string
	done   chan struct{}
	cancel context.CancelFunc
	status TerminalStatus
}

// Done is closed after the terminal event has been posted
func (i *Invocation) Done() <-chan struct{} {
	return i.done
}

// Wait blocks until the run ends and returns its terminal status
func (i *Invocation) Wait() TerminalStatus {
	<-i.done
	return i.status
}

// Cancel terminates the child process tree; the run ends as Cancelled
// unless it already finished.
func (i *Invocation) Cancel() {
	i.cancel()
}

// Run starts line on a worker goroutine and returns immediately. Output
// lines and then one terminal event are posted to sink via the runner's
// dispatcher. Lines from one stream keep their order; stdout and stderr
// interleave as they are read.
func (r *Runner) Run(ctx context.Context, line command.Line, sink Sink) *Invocation {
	return r.RunOn(ctx, r.dispatcher, line, sink)
}

// RunOn is Run with sink calls posted to d. Callers that pump their own
// Loop give each run its own Loop so events never cross between runs.
func (r *Runner) RunOn(ctx context.Context, d Dispatcher, line command.Line, sink Sink) *Invocation {
	ctx, cancel := context.WithCancel(ctx)
	inv := &Invocation{
		ID:     uuid.NewString(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	emit := deliver(d, sink)

	go func() {
		defer cancel()
		status := r.execute(ctx, inv.ID, string(line), emit)
		inv.status = status
		r.postTerminal(emit, inv.ID, status)
		close(inv.done)
	}()

	return inv
}

func (r *Runner) execute(ctx context.Context, id, line string, emit Sink) (status TerminalStatus) {
	logger := r.logger.With("invocation", id, "interpreter", r.interpreter.Path)
	started := time.Now()

	defer func() {
		if p := recover(); p != nil {
			logger.Error("runner panic", "panic", p)
			status = failed(RunnerFailed, fmt.Errorf("internal error: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		logger.Info("run cancelled before launch")
		return TerminalStatus{Kind: Cancelled, ExitCode: -1, Reason: err.Error()}
	}

	cmd := exec.Command(r.interpreter.Path, r.interpreter.argv(line)...)
	configureProcess(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failed(RunnerFailed, fmt.Errorf("failed to create stdout pipe: %w", err))
	}
	defer stdout.Close()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return failed(RunnerFailed, fmt.Errorf("failed to create stderr pipe: %w", err))
	}
	defer stderr.Close()

	if err := cmd.Start(); err != nil {
		logger.Warn("launch failed", "error", err)
		return failed(LaunchFailed, err)
	}

	pid := cmd.Process.Pid
	logger = logger.With("pid", pid)
	logger.Info("process started")

	exited := make(chan struct{})
	var exitOnce sync.Once
	markExited := func() { exitOnce.Do(func() { close(exited) }) }
	defer markExited()

	var cancelled atomic.Bool
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-exited:
				return
			default:
			}
			cancelled.Store(true)
			logger.Info("cancelling process tree")
			if err := r.safeKillTree(pid); err != nil {
				logger.Warn("process tree kill failed, killing root", "error", err)
				_ = cmd.Process.Kill()
			}
		case <-exited:
		}
	}()

	var wg sync.WaitGroup
	readErrs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		readErrs[0] = r.stream(stdout, Stdout, emit)
	}()
	go func() {
		defer wg.Done()
		readErrs[1] = r.stream(stderr, Stderr, emit)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	markExited()

	logger = logger.With("duration", time.Since(started))

	if cancelled.Load() {
		logger.Info("process cancelled")
		return TerminalStatus{Kind: Cancelled, ExitCode: -1, Reason: context.Cause(ctx).Error()}
	}

	if err := errors.Join(readErrs...); err != nil {
		logger.Error("output streaming failed", "error", err)
		return failed(RunnerFailed, err)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			logger.Info("process exited", "exit_code", exitErr.ExitCode())
			return TerminalStatus{Kind: Completed, ExitCode: exitErr.ExitCode()}
		}
		logger.Error("wait failed", "error", waitErr)
		return failed(RunnerFailed, fmt.Errorf("failed to wait for process: %w", waitErr))
	}

	logger.Info("process exited", "exit_code", 0)
	return TerminalStatus{Kind: Completed, ExitCode: 0}
}

// stream posts each line of rd as it is read. On a read error or a panic
// the rest of rd is discarded so the child never blocks on a full pipe.
func (r *Runner) stream(rd io.Reader, s Stream, emit Sink) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while streaming %s: %v", s, p)
		}
		if err != nil {
			_, _ = io.Copy(io.Discard, rd)
		}
	}()

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, min(64*1024, r.maxLineSize)), r.maxLineSize)

	for scanner.Scan() {
		emit(Event{Stream: s, Text: scanner.Text()})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", s, err)
	}
	return nil
}

func (r *Runner) safeKillTree(pid int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while killing process tree: %v", p)
		}
	}()
	return r.killTree(pid)
}

func (r *Runner) postTerminal(emit Sink, id string, status TerminalStatus) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("terminal event delivery panicked", "invocation", id, "panic", p)
		}
	}()
	emit(Event{Status: &status})
}

// deliver wraps sink so each event is posted to d
func deliver(d Dispatcher, sink Sink) Sink {
	if sink == nil {
		return func(Event) {}
	}
	return func(ev Event) {
		d.Post(func() { sink(ev) })
	}
}

func failed(kind StatusKind, err error) TerminalStatus {
	return TerminalStatus{Kind: kind, ExitCode: -1, Reason: err.Error()}
}
