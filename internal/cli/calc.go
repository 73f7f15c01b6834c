package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"taxflow/internal/tax"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (o *rootOptions) engine() (*tax.Engine, error) {
	if o.schedulePath == "" {
		return tax.NewDefaultEngine(), nil
	}
	sched, err := tax.LoadSchedule(o.schedulePath)
	if err != nil {
		return nil, err
	}
	return tax.NewEngine(sched)
}

func (o *rootOptions) run(w io.Writer, amount string, build func(decimal.Decimal) tax.Request) error {
	d, err := tax.ParseAmount(amount)
	if err != nil {
		return err
	}
	engine, err := o.engine()
	if err != nil {
		return err
	}

	result, err := engine.Calculate(build(d))
	if err != nil {
		return err
	}

	if o.jsonOutput {
		return writeJSON(w, result)
	}
	_, err = fmt.Fprint(w, RenderResult(result))
	return err
}

func newPPNCmd(opts *rootOptions) *cobra.Command {
	var includeTax bool
	cmd := &cobra.Command{
		Use:   "ppn AMOUNT",
		Short: "Value-added tax (11%)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout(), args[0], func(d decimal.Decimal) tax.Request {
				return tax.VATRequest{Amount: d, IncludeTax: includeTax}
			})
		},
	}
	cmd.Flags().BoolVar(&includeTax, "include-tax", false, "AMOUNT already includes PPN")
	return cmd
}

func newPPh21Cmd(opts *rootOptions) *cobra.Command {
	var (
		status string
		noNPWP bool
	)
	cmd := &cobra.Command{
		Use:   "pph21 ANNUAL_INCOME",
		Short: "Progressive employee income tax",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout(), args[0], func(d decimal.Decimal) tax.Request {
				return tax.IncomeTaxRequest{AnnualIncome: d, HasNPWP: !noNPWP, Status: status}
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", tax.StatusSingleNoDependents, "taxpayer status (PTKP key)")
	cmd.Flags().BoolVar(&noNPWP, "no-npwp", false, "taxpayer has no NPWP (20% surcharge)")
	return cmd
}

func newPPh23Cmd(opts *rootOptions) *cobra.Command {
	var noNPWP bool
	cmd := &cobra.Command{
		Use:   "pph23 AMOUNT",
		Short: "Withholding on services and rent (2%, 4% without NPWP)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout(), args[0], func(d decimal.Decimal) tax.Request {
				return tax.WithholdingRequest{GrossAmount: d, HasNPWP: !noNPWP}
			})
		},
	}
	cmd.Flags().BoolVar(&noNPWP, "no-npwp", false, "payee has no NPWP")
	return cmd
}

func newPPh42Cmd(opts *rootOptions) *cobra.Command {
	var serviceType string
	cmd := &cobra.Command{
		Use:   "pph42 AMOUNT",
		Short: "Final withholding by service type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout(), args[0], func(d decimal.Decimal) tax.Request {
				return tax.FinalWithholdingRequest{GrossAmount: d, ServiceType: serviceType}
			})
		},
	}
	cmd.Flags().StringVar(&serviceType, "service-type", tax.ServiceConstruction, "construction, rent or other")
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the PPh 21 brackets and PTKP table in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), RenderSchedule(engine.Schedule()))
			return err
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
