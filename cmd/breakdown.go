// =============================================================================
// Cost Profiler - Breakdown Command
// =============================================================================
//
// COMMAND USAGE:
//   costprofiler breakdown --company <id or name> [--month May-25] [--output file.xlsx]
//
// Lists the products billed to one company in one month: quantity summed
// per product, the first unit price seen, and their product as the total.
// The month defaults to the company's latest billed month.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taopa/costprofiler/internal/analytics"
	"github.com/taopa/costprofiler/internal/cleaning"
	"github.com/taopa/costprofiler/internal/pipeline"
	"github.com/taopa/costprofiler/internal/types"
	"github.com/taopa/costprofiler/internal/xlsxwriter"
)

var breakdownFlags runFlags

var (
	breakdownCompany string
	breakdownMonth   string
	breakdownOutput  string
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Show the per-product billing of one company in one month",
	Example: `  costprofiler breakdown --company 1234567-8
  costprofiler breakdown --company "Acme Oy" --month May-25 --output acme.xlsx`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runBreakdown(cmd)
	},
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
	addRunFlags(breakdownCmd, &breakdownFlags, false)

	breakdownCmd.Flags().StringVar(&breakdownCompany, "company", "", "Business id or company name")
	breakdownCmd.Flags().StringVar(&breakdownMonth, "month", "", "Month to break down, e.g. May-25 (default: latest)")
	breakdownCmd.Flags().StringVar(&breakdownOutput, "output", "", "Also write the breakdown to this .xlsx file")
	breakdownCmd.MarkFlagRequired("company")
}

func runBreakdown(cmd *cobra.Command) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	breakdownFlags.apply(cmd, cfg)

	p := pipeline.New(cfg, logger)
	files, err := p.InputFiles(breakdownFlags.files)
	if err != nil {
		return err
	}

	ds, err := p.Prepare(cmd.Context(), files)
	if err != nil {
		return err
	}

	company, err := pipeline.FindCompany(ds.Records, breakdownCompany)
	if err != nil {
		return err
	}

	month, err := breakdownMonthFor(ds.Records, company.ID)
	if err != nil {
		return err
	}

	lines := pipeline.Breakdown(ds.Records, company.ID, month)
	writer := xlsxwriter.New(cfg.Export.Language)
	printBreakdown(writer.Labels(), company, month, lines)

	if breakdownOutput != "" {
		if err := writer.WriteBreakdownFile(breakdownOutput, company.Name, month, lines); err != nil {
			return err
		}
		fmt.Printf("\nWritten to %s\n", breakdownOutput)
	}
	return nil
}

func breakdownMonthFor(records []types.TransactionRecord, companyID string) (time.Time, error) {
	if breakdownMonth != "" {
		month, err := cleaning.ParseMonth(breakdownMonth)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --month: %w", err)
		}
		return month, nil
	}

	month, ok := pipeline.CompanyLatestMonth(records, companyID)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s has no billed months", pipeline.ErrCompanyNotFound, companyID)
	}
	return month, nil
}

func printBreakdown(labels xlsxwriter.Labels, company pipeline.Company, month time.Time, lines []types.ProductLine) {
	fmt.Printf("%s (%s) - %s\n\n", company.Name, company.ID, month.Format(analytics.DateRangeLayout))

	if len(lines) == 0 {
		fmt.Println("No rows for this month.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", labels.Product, labels.Quantity, labels.UnitPrice, labels.Total)
	for _, line := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			line.Product,
			line.Quantity.String(),
			line.UnitPrice.StringFixed(2),
			line.Total.StringFixed(2))
	}
	tw.Flush()
}
