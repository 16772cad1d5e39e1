// =============================================================================
// Cost Profiler - Summarize Command
// =============================================================================
//
// COMMAND USAGE:
//   costprofiler summarize [flags]
//
// FLAGS:
//   --file        : Input file to read instead of the input directory (repeatable)
//   --use-vat     : Use gross amounts (VAT included) instead of net amounts
//   --show-ended  : Keep companies not billed in the latest month
//   --dry-run     : Compute everything without writing output files
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/pipeline"
	"github.com/taopa/costprofiler/pkg/utils"
)

// runFlags are the input and filter flags shared by summarize, price and
// breakdown.
type runFlags struct {
	files     []string
	useVAT    bool
	showEnded bool
	dryRun    bool
}

var summarizeFlags runFlags

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Build company and program profiles from billing exports",
	Long: `The summarize command reads every billing export in the input directory,
cleans the rows, drops internal, excluded, ended and credit-note customers,
and writes a workbook with one profile row per company and program plus the
monthly series behind it.

On success:
  - The workbook is placed in the output directory
  - Row problems are written to an error log next to it
  - A run summary is written to the output directory
  - Inputs are archived when archive_inputs is set`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "summarize", summarizeFlags, nil)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	addRunFlags(summarizeCmd, &summarizeFlags, true)
}

// addRunFlags registers the shared flags on cmd.
func addRunFlags(cmd *cobra.Command, f *runFlags, withDryRun bool) {
	cmd.Flags().StringSliceVar(&f.files, "file", nil, "Input file to read instead of the input directory (repeatable)")
	cmd.Flags().BoolVar(&f.useVAT, "use-vat", false, "Use gross amounts (VAT included) instead of net amounts")
	cmd.Flags().BoolVar(&f.showEnded, "show-ended", false, "Keep companies not billed in the latest month")
	if withDryRun {
		cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Compute everything without writing output files")
	}
}

// apply copies the flags the user set onto cfg.
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("use-vat") {
		cfg.Amounts.UseVAT = f.useVAT
	}
	if cmd.Flags().Changed("show-ended") {
		cfg.Filters.ShowEnded = f.showEnded
	}
}

// runPipeline runs summarize or price. adjust, when set, applies
// command-specific flags to the configuration before it is re-validated.
func runPipeline(cmd *cobra.Command, command string, f runFlags, adjust func(*config.Config)) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	f.apply(cmd, cfg)
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	result, err := pipeline.New(cfg, logger).Run(cmd.Context(), pipeline.Options{
		Command: command,
		Files:   f.files,
		Price:   command == "price",
		DryRun:  f.dryRun,
	})
	if err != nil {
		return err
	}

	utils.FormatSummary(os.Stdout, result.Summary)
	if f.dryRun {
		fmt.Println("Dry run: no files were written.")
	}
	return nil
}
