// Package cli implements the taxcalc command.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	schedulePath string
	jsonOutput   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "taxcalc",
		Short:         "Indonesian tax calculator",
		Long:          "taxcalc runs the PPN, PPh 21, PPh 23 and PPh 4(2) calculations offline and can show a user's approval inbox.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.schedulePath, "schedule", "", "PPh 21 schedule YAML (default: built-in)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of a table")

	cmd.AddCommand(newPPNCmd(opts))
	cmd.AddCommand(newPPh21Cmd(opts))
	cmd.AddCommand(newPPh23Cmd(opts))
	cmd.AddCommand(newPPh42Cmd(opts))
	cmd.AddCommand(newScheduleCmd(opts))
	cmd.AddCommand(newInboxCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
