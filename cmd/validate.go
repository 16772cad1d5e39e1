// =============================================================================
// Cost Profiler - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   costprofiler validate [--config file]
//
// Loads and validates the configuration without reading any billing data,
// then lists the input files a run would pick up.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taopa/costprofiler/internal/pricing"
	"github.com/taopa/costprofiler/pkg/utils"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		engine, err := pricing.NewEngine(cfg.Pricing)
		if err != nil {
			return fmt.Errorf("invalid pricing configuration: %w", err)
		}

		source := configPath(cmd)
		if source == "" {
			source = "built-in defaults"
		}
		fmt.Printf("Configuration OK (%s)\n\n", source)
		fmt.Printf("  Input:       %s (%s)\n", cfg.InputDir, strings.Join(cfg.Input.Patterns, ", "))
		fmt.Printf("  Output:      %s\n", cfg.OutputDir)
		fmt.Printf("  Amounts:     %s\n", amountBasis(cfg.Amounts.UseVAT))
		fmt.Printf("  Show ended:  %t\n", cfg.Filters.ShowEnded)
		fmt.Printf("  Language:    %s\n", cfg.Export.Language)

		columns := make([]string, 0, len(engine.Columns()))
		for _, c := range engine.Columns() {
			columns = append(columns, c.Name())
		}
		fmt.Printf("  Prices:      %s\n", strings.Join(columns, ", "))
		fmt.Printf("  Flags:       %s\n\n", strings.Join(engine.VisibleFlags(), ", "))

		fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.ArchiveInputs, cfg.ArchiveTimestampSubdirs)
		files, err := fm.DiscoverInputFiles(cfg.Input.Patterns)
		if err != nil {
			return err
		}
		fmt.Printf("Input files found: %d\n", len(files))
		for _, f := range files {
			fmt.Printf("  %s\n", f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func amountBasis(useVAT bool) string {
	if useVAT {
		return "gross (VAT included)"
	}
	return "net (VAT excluded)"
}
