package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zoro11031/pshvtools-shell/internal/cli"
	"github.com/zoro11031/pshvtools-shell/pkg/logger"
	"github.com/zoro11031/pshvtools-shell/pkg/version"
)

var (
	configPath     string
	logLevel       string
	logFile        string
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "pshvtools-shell",
	Short: "Button shell for the pshvtools Hyper-V module",
	Long: `A small shell around the pshvtools PowerShell module.

Each operation (backup, compact, health, config, restore) is turned into a
single PowerShell command line, run in a child interpreter, and its output
is streamed line by line as it arrives.

Run without arguments to launch the interactive menu.`,
	SilenceUsage:  true, // We handle errors manually, but silence usage on error
	SilenceErrors: true, // We format errors ourselves for consistent output
	RunE:          runInteractiveMenu,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Launch interactive menu",
	Long:  `Launch the interactive menu with one button per operation.`,
	RunE:  runInteractiveMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default ~/.pshvtools-shell.conf)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; use flags and settings only")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(menuCmd)
}

// newShell builds the shell context from the persistent flags. The returned
// closer releases the log file, if any.
func newShell() (*cli.ShellContext, io.Closer, error) {
	opts := cli.Options{
		ConfigPath:     configPath,
		NonInteractive: nonInteractive,
		LogLevel:       logLevel,
		LogFormat:      logger.FormatText,
	}

	var closer io.Closer = nopCloser{}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		opts.LogOutput = f
		opts.LogFormat = logger.FormatJSON
		closer = f
	}

	ctx, err := cli.NewShellContext(opts)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("failed to initialize shell context: %w", err)
	}
	return ctx, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func runInteractiveMenu(cmd *cobra.Command, args []string) error {
	ctx, closer, err := newShell()
	if err != nil {
		return err
	}
	defer closer.Close()

	if ctx.UI.IsNonInteractive() {
		return errors.New("the menu needs a terminal; use 'run <operation>' with --non-interactive")
	}

	menu := cli.NewMenu(ctx)
	return menu.Show(cmd.Context())
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
