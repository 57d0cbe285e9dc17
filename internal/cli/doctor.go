package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zoro11031/pshvtools-shell/internal/runner"
	"github.com/zoro11031/pshvtools-shell/internal/system"
)

// versionProbe prints the interpreter's PowerShell version
const versionProbe = "$PSVersionTable.PSVersion.ToString()"

// DoctorReport summarizes the environment checks
type DoctorReport struct {
	InterpreterPath    string
	InterpreterVersion string
	ModuleAvailable    bool
	Host               *system.HostFacts
	Problems           []string
}

// OK reports whether every check passed
func (r *DoctorReport) OK() bool {
	return len(r.Problems) == 0
}

// Doctor checks that the interpreter and module are usable and prints
// what it finds. Each check runs even when an earlier one failed.
func (s *ShellContext) Doctor(ctx context.Context) *DoctorReport {
	report := &DoctorReport{}

	s.UI.Header("Environment")
	s.checkHost(ctx, report)

	s.UI.Header("Interpreter")
	if !s.checkInterpreter(ctx, report) {
		s.UI.Warning("Skipping module check")
		return report
	}

	s.UI.Header("Module")
	s.checkModule(ctx, report)

	s.UI.Print("")
	if report.OK() {
		s.UI.Success("✓ All checks passed")
	} else {
		s.UI.Errorf("%d check(s) failed", len(report.Problems))
	}
	return report
}

func (s *ShellContext) checkHost(ctx context.Context, report *DoctorReport) {
	facts, err := system.CollectHostFacts(ctx)
	if err != nil {
		s.Logger.Debug("host facts unavailable", "error", err)
		s.UI.Warningf("Could not collect host information: %v", err)
		return
	}
	report.Host = facts

	s.UI.KeyValue("Hostname", facts.Hostname)
	s.UI.KeyValue("Platform", strings.TrimSpace(facts.Platform+" "+facts.PlatformVersion))
	s.UI.KeyValue("Kernel", facts.KernelVersion)
	if facts.Virtualization != "" {
		s.UI.KeyValue("Virtualization", facts.Virtualization)
	}
	s.UI.KeyValue("Uptime", (time.Duration(facts.UptimeSeconds) * time.Second).String())
	s.UI.KeyValue("Memory", fmt.Sprintf("%d MiB (%.0f%% used)", facts.MemTotal/(1024*1024), facts.MemUsedPercent))
}

func (s *ShellContext) checkInterpreter(ctx context.Context, report *DoctorReport) bool {
	interp := s.Runner.Interpreter()

	path, err := system.ResolveCommand(interp.Path)
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("interpreter %s not found", interp.Path))
		s.UI.Errorf("✗ %s not found: %v", interp.Path, err)
		s.UI.Info("  Set INTERPRETER with: pshvtools-shell settings set INTERPRETER <path>")
		return false
	}
	report.InterpreterPath = path
	s.UI.Successf("✓ Interpreter: %s", path)

	out, err := s.Commands.Run(ctx, path, "-NoProfile", "-Command", versionProbe)
	if err != nil {
		report.Problems = append(report.Problems, "interpreter did not report a version")
		s.UI.Errorf("✗ Could not query version: %v", err)
		return false
	}
	report.InterpreterVersion = strings.TrimSpace(out)
	s.UI.KeyValue("Version", report.InterpreterVersion)
	return true
}

func (s *ShellContext) checkModule(ctx context.Context, report *DoctorReport) {
	line, err := s.Builder.ModuleProbe()
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
		s.UI.Errorf("✗ %v", err)
		return
	}

	lines := 0
	status := s.RunLine(ctx, line, func(ev runner.Event) {
		if ev.Stream == runner.Stdout && !ev.IsTerminal() && strings.TrimSpace(ev.Text) != "" {
			lines++
		}
	})

	switch {
	case !status.Success():
		report.Problems = append(report.Problems, "module probe "+status.String())
		s.UI.Errorf("✗ Module probe %s", status)
	case lines == 0:
		report.Problems = append(report.Problems, fmt.Sprintf("module %s not installed", s.Builder.Module))
		s.UI.Warningf("✗ Module %s is not installed", s.Builder.Module)
	default:
		report.ModuleAvailable = true
		s.UI.Successf("✓ Module %s is available", s.Builder.Module)
	}
}
