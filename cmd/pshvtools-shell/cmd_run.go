package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zoro11031/pshvtools-shell/internal/cli"
	"github.com/zoro11031/pshvtools-shell/internal/command"
	"github.com/zoro11031/pshvtools-shell/internal/runner"
)

// Exit codes for runs that did not produce a child exit code
const (
	exitFailure   = 1
	exitCancelled = 130
)

// exitError carries a process exit code out of a command without printing
// anything further; the run's own status line has already been shown.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// statusExit maps a terminal status to the shell's exit code
func statusExit(s runner.TerminalStatus) error {
	switch {
	case s.Success():
		return nil
	case s.Kind == runner.Completed:
		return &exitError{code: s.ExitCode}
	case s.Kind == runner.Cancelled:
		return &exitError{code: exitCancelled}
	default:
		return &exitError{code: exitFailure}
	}
}

// operationFlags holds the per-operation flag values
type operationFlags struct {
	pattern     string
	destination string
	keep        string
	compression string
	dryRun      bool
}

var flagNames = map[string]string{
	command.ParamPattern:     "pattern",
	command.ParamDestination: "destination",
	command.ParamKeep:        "keep",
	command.ParamCompression: "compression",
	command.ParamDryRun:      "dry-run",
}

func (f *operationFlags) register(cmd *cobra.Command, op command.Operation) {
	for _, param := range op.Params() {
		switch param {
		case command.ParamPattern:
			cmd.Flags().StringVarP(&f.pattern, flagNames[param], "p", "", "VM name pattern (wildcards allowed)")
		case command.ParamDestination:
			cmd.Flags().StringVarP(&f.destination, flagNames[param], "d", "", "Destination path")
		case command.ParamKeep:
			cmd.Flags().StringVarP(&f.keep, flagNames[param], "k", "", "Number of backups to keep")
		case command.ParamCompression:
			cmd.Flags().StringVarP(&f.compression, flagNames[param], "c", "", "Compression level")
		case command.ParamDryRun:
			cmd.Flags().BoolVarP(&f.dryRun, flagNames[param], "n", false, "Only show what would happen (-WhatIf)")
		}
	}
}

// overrides returns the parameters whose flags were given explicitly
func (f *operationFlags) overrides(cmd *cobra.Command, op command.Operation) map[string]string {
	values := map[string]string{
		command.ParamPattern:     f.pattern,
		command.ParamDestination: f.destination,
		command.ParamKeep:        f.keep,
		command.ParamCompression: f.compression,
		command.ParamDryRun:      strconv.FormatBool(f.dryRun),
	}

	result := make(map[string]string)
	for _, param := range op.Params() {
		if cmd.Flags().Changed(flagNames[param]) {
			result[param] = values[param]
		}
	}
	return result
}

func runOperation(cmd *cobra.Command, op command.Operation, flags *operationFlags) error {
	ctx, closer, err := newShell()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx.Logger.Debug("operation requested", "operation", op.String())
	status, err := cli.RunOperation(cmd.Context(), ctx, op, flags.overrides(cmd, op))
	if err != nil {
		return err
	}
	return statusExit(status)
}

// newOperationCommand creates the top-level command for one button
func newOperationCommand(op command.Operation, short string) *cobra.Command {
	flags := &operationFlags{}
	cmd := &cobra.Command{
		Use:   op.String(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, op, flags)
		},
	}
	flags.register(cmd, op)
	return cmd
}

var runFlags = &operationFlags{}

var runCmd = &cobra.Command{
	Use:   "run <operation>",
	Short: "Run an operation by name",
	Long: `Run one operation by name.

Operations:
  backup   - Back up VMs matching a pattern (hvbak)
  compact  - Compact virtual disks (hvcompact)
  health   - Report VM health (hvhealth)
  config   - Show the module configuration (Show-PSHVToolsConfig)
  restore  - Restore VMs from backup (hvrecover)

Flags an operation does not take are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := command.ParseOperation(args[0])
		if err != nil {
			return fmt.Errorf("%w (choose one of: %s)", err, operationNames())
		}
		for param, name := range flagNames {
			if cmd.Flags().Changed(name) && !op.Accepts(param) {
				return fmt.Errorf("%s does not take --%s", op, name)
			}
		}
		return runOperation(cmd, op, runFlags)
	},
}

func init() {
	// run accepts the union of every operation's flags
	runFlags.register(runCmd, command.Backup)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(
		newOperationCommand(command.Backup, "Back up virtual machines"),
		newOperationCommand(command.Compact, "Compact virtual disks"),
		newOperationCommand(command.Health, "Check virtual machine health"),
		newOperationCommand(command.Config, "Show module configuration"),
		newOperationCommand(command.Restore, "Restore virtual machines from backup"),
	)
}

func operationNames() string {
	var names []string
	for _, op := range command.Operations() {
		names = append(names, op.String())
	}
	return strings.Join(names, ", ")
}
