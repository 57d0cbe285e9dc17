// Package cli provides the command-line interface layer for the shell:
// the shared context, the button menu, and the glue that turns a chosen
// operation into a built command line, a streamed run and a final status.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/zoro11031/pshvtools-shell/internal/command"
	"github.com/zoro11031/pshvtools-shell/internal/config"
	"github.com/zoro11031/pshvtools-shell/internal/runner"
	"github.com/zoro11031/pshvtools-shell/internal/system"
	"github.com/zoro11031/pshvtools-shell/internal/ui"
	"github.com/zoro11031/pshvtools-shell/pkg/logger"
)

// Options customizes NewShellContext
type Options struct {
	ConfigPath     string
	NonInteractive bool

	// LogLevel wins over the LOG_LEVEL environment variable, which wins
	// over the LOG_LEVEL setting.
	LogLevel  string
	LogOutput io.Writer // defaults to stderr
	LogFormat logger.Format

	// Logger overrides all of the above.
	Logger *slog.Logger

	// UI overrides the default terminal UI.
	UI *ui.UI

	// Commands overrides the runner used for short probes.
	Commands system.CommandRunner
}

// ShellContext holds all dependencies needed to run operations
type ShellContext struct {
	Config  *config.Config
	UI      *ui.UI
	Logger  *slog.Logger
	Builder command.Builder
	Runner  *runner.Runner
	Flight  *runner.Flight

	// Commands runs short blocking probes such as version queries
	Commands system.CommandRunner
}

// NewShellContext creates a ShellContext with all dependencies initialized
func NewShellContext(opts Options) (*ShellContext, error) {
	cfg := config.New(opts.ConfigPath)
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	uiInstance := opts.UI
	if uiInstance == nil {
		uiInstance = ui.New()
	}
	uiInstance.SetNonInteractive(opts.NonInteractive)

	log := opts.Logger
	if log == nil {
		level := opts.LogLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		if level == "" {
			level = cfg.GetOrDefault(config.KeyLogLevel, "")
		}
		w := opts.LogOutput
		if w == nil {
			w = os.Stderr
		}
		log = logger.New(w, level, opts.LogFormat)
	}

	concurrent, err := strconv.ParseBool(cfg.GetOrDefault(config.KeyConcurrentRuns, "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s setting: %w", config.KeyConcurrentRuns, err)
	}

	commands := opts.Commands
	if commands == nil {
		commands = system.NewCommandRunner()
	}

	interp := runner.PowerShell(cfg.GetOrDefault(config.KeyInterpreter, ""))

	return &ShellContext{
		Config:   cfg,
		UI:       uiInstance,
		Logger:   log,
		Builder:  command.Builder{Module: cfg.GetOrDefault(config.KeyModuleName, command.DefaultModule)},
		Runner:   runner.New(interp, runner.WithLogger(log)),
		Flight:   runner.NewFlight(!concurrent),
		Commands: commands,
	}, nil
}

// Execute builds req and runs it, rendering output as it arrives.
// Build failures and a busy operation are returned as errors; everything
// that happens after launch is reported in the returned status.
func (s *ShellContext) Execute(ctx context.Context, req command.Request) (runner.TerminalStatus, error) {
	line, err := s.Builder.Build(req)
	if err != nil {
		return runner.TerminalStatus{}, err
	}

	release, err := s.Flight.Acquire(req.Operation().String())
	if err != nil {
		return runner.TerminalStatus{}, err
	}
	defer release()

	s.Logger.Debug("running operation", "operation", req.Operation().String(), "line", line.String())
	return s.RunLine(ctx, line, s.UI.Event), nil
}

// RunLine runs line and pumps sink events on the calling goroutine until
// the run ends. Each call drives its own loop, so overlapping runs only
// see their own events. Ctrl-C cancels the run rather than the shell.
func (s *ShellContext) RunLine(ctx context.Context, line command.Line, sink runner.Sink) runner.TerminalStatus {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	loop := runner.NewLoop().WithLogger(s.Logger)
	inv := s.Runner.RunOn(runCtx, loop, line, sink)
	loop.RunUntil(inv.Done())
	return inv.Wait()
}
