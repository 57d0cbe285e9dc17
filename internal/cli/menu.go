package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/zoro11031/pshvtools-shell/internal/command"
	"github.com/zoro11031/pshvtools-shell/internal/runner"
)

// ErrExit is returned when the user chooses to exit the menu
var ErrExit = errors.New("exit")

// Menu presents one button per operation plus Exit
type Menu struct {
	ctx     *ShellContext
	options []string
}

// NewMenu creates a new Menu instance
func NewMenu(ctx *ShellContext) *Menu {
	var options []string
	for _, op := range command.Operations() {
		options = append(options, op.Title())
	}
	options = append(options, "Exit")
	return &Menu{ctx: ctx, options: options}
}

// Show displays the menu and handles choices until Exit or Ctrl-C
func (m *Menu) Show(ctx context.Context) error {
	for {
		m.ctx.UI.ClearScreen()
		m.displayHeader()

		choice, err := m.ctx.UI.PromptSelect("Choose an operation", m.options)
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		if err := m.handleChoice(ctx, choice); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			m.ctx.UI.Error(fmt.Sprintf("%v", err))
		}

		m.pause()
	}
}

func (m *Menu) displayHeader() {
	m.ctx.UI.Header("PSHVTools Shell")
	m.ctx.UI.Info("Hyper-V backup, compaction, health and restore via the pshvtools module")
	m.ctx.UI.Infof("Settings: %s", m.ctx.Config.FilePath())
	m.ctx.UI.Print("")
}

// handleChoice runs the operation behind the chosen button
func (m *Menu) handleChoice(ctx context.Context, choice int) error {
	ops := command.Operations()
	if choice == len(ops) {
		return ErrExit
	}
	if choice < 0 || choice > len(ops) {
		return fmt.Errorf("invalid choice: %d", choice)
	}

	op := ops[choice]
	m.ctx.UI.ClearScreen()
	m.ctx.UI.Header(op.Title())

	status, err := RunOperation(ctx, m.ctx, op, nil)
	if err != nil {
		return err
	}
	if !status.Success() {
		m.ctx.Logger.Debug("operation finished unsuccessfully", "operation", op.String(), "status", status.String())
	}
	return nil
}

func (m *Menu) pause() {
	m.ctx.UI.Print("")
	if _, err := m.ctx.UI.PromptInput("Press Enter to return to menu", ""); err != nil {
		m.ctx.Logger.Debug("pause prompt failed", "error", err)
	}
}

// RunOperation collects parameters for op, confirms if needed, and runs it.
// A declined confirmation returns a Cancelled status without launching.
func RunOperation(ctx context.Context, s *ShellContext, op command.Operation, overrides map[string]string) (runner.TerminalStatus, error) {
	req, err := s.CollectRequest(op, overrides)
	if err != nil {
		return runner.TerminalStatus{}, err
	}

	ok, err := s.ConfirmRequest(req)
	if err != nil {
		return runner.TerminalStatus{}, err
	}
	if !ok {
		s.UI.Info("Restore cancelled")
		return runner.TerminalStatus{Kind: runner.Cancelled, ExitCode: -1, Reason: "declined"}, nil
	}

	s.UI.Step(fmt.Sprintf("Running %s", op.Title()))
	return s.Execute(ctx, req)
}
