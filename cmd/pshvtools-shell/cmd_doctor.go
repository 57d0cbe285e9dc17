package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the interpreter and module",
	Long: `Check that the configured PowerShell interpreter can be found and
started, and that the pshvtools module is installed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, closer, err := newShell()
	if err != nil {
		return err
	}
	defer closer.Close()

	report := ctx.Doctor(cmd.Context())
	if !report.OK() {
		return errors.New("environment checks failed")
	}
	return nil
}
