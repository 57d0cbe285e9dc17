package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zoro11031/pshvtools-shell/internal/config"
	"gopkg.in/yaml.v3"
)

var (
	settingsOutput string
	settingsForce  bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change shell settings",
	Long: `Show or change the settings stored in the settings file.

Keys:
  INTERPRETER          - PowerShell executable (empty: powershell.exe on Windows, pwsh elsewhere)
  MODULE_NAME          - Module imported before every operation
  DEFAULT_PATTERN      - Default VM name pattern for backup and compact
  DEFAULT_DESTINATION  - Default destination path
  DEFAULT_KEEP         - Default number of backups to keep
  DEFAULT_COMPRESSION  - Default compression level
  DEFAULT_DRY_RUN      - Default answer for dry runs
  CONCURRENT_RUNS      - Allow the same operation to run twice at once
  LOG_LEVEL            - debug, info, warn or error`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  showSettings,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  setSetting,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored setting so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  unsetSetting,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the settings file and return to defaults",
	Args:  cobra.NoArgs,
	RunE:  resetSettings,
}

func init() {
	settingsShowCmd.Flags().StringVarP(&settingsOutput, "output", "o", "text", "Output format: text or yaml")
	settingsResetCmd.Flags().BoolVarP(&settingsForce, "force", "f", false, "Skip confirmation prompt")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsUnsetCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func showSettings(cmd *cobra.Command, args []string) error {
	cfg := config.New(configPath)
	if err := cfg.Load(); err != nil {
		return err
	}
	return writeSettings(cmd.OutOrStdout(), cfg, settingsOutput)
}

func writeSettings(w io.Writer, cfg *config.Config, format string) error {
	effective := cfg.Effective()

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(effective); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		return enc.Close()
	case "text":
		fmt.Fprintf(w, "# %s\n", cfg.FilePath())
		for _, key := range config.Keys() {
			marker := " "
			if cfg.Exists(key) {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %-20s %s\n", marker, key, effective[key])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func setSetting(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := config.ValidateSetting(key, value); err != nil {
		return err
	}

	cfg := config.New(configPath)
	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
	return nil
}

func unsetSetting(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, ok := config.Defaults[key]; !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}

	cfg := config.New(configPath)
	if err := cfg.Delete(key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s (default)\n", key, cfg.GetOrDefault(key, ""))
	return nil
}

func resetSettings(cmd *cobra.Command, args []string) error {
	ctx, closer, err := newShell()
	if err != nil {
		return err
	}
	defer closer.Close()

	if !settingsForce {
		ctx.UI.Header("Reset Settings")
		ctx.UI.Warning("The settings file will be DELETED")
		ctx.UI.Warningf("  %s", ctx.Config.FilePath())

		confirm, err := ctx.UI.PromptYesNo("Are you sure you want to reset?", false)
		if err != nil {
			return err
		}
		if !confirm {
			ctx.UI.Info("Reset cancelled")
			return nil
		}
	}

	if err := ctx.Config.Reset(); err != nil {
		return err
	}
	ctx.UI.Success("✓ Settings reset to defaults")
	return nil
}
