// =============================================================================
// Cost Profiler - Price Command
// =============================================================================
//
// COMMAND USAGE:
//   costprofiler price [flags]
//
// Runs the summarize pipeline and adds the fixed price sheet. The pricing
// flags override the pricing section of the configuration.
//
// =============================================================================

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/taopa/costprofiler/internal/config"
)

var priceFlags runFlags

var (
	priceMargin    float64
	priceBases     []string
	priceProgram   string
	priceCompanies []string
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Suggest fixed monthly prices from the profiles",
	Long: `The price command builds the profiles like summarize does and adds a
"Kiinteät hinnat" (fixed prices) sheet: one row per company and program with
the chosen base statistics, the margined prices and the risk flags.

Price = base * (1 + margin / 100). The highest price of a row is shaded
green and the lowest red. Flags mark high volatility (CV3Mo), strong growth
or decline (GrowthRatio) and high seasonality.`,

	Example: `  costprofiler price --margin 20
  costprofiler price --base Avg3Mo --base Avg12Mo --program Netvisor
  costprofiler price --company "Acme Oy" --dry-run`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "price", priceFlags, func(cfg *config.Config) {
			applyPriceFlags(cmd, &cfg.Pricing)
		})
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)
	addRunFlags(priceCmd, &priceFlags, true)

	priceCmd.Flags().Float64Var(&priceMargin, "margin", 15, "Margin percentage (0-100); replaces the configured per-base margins")
	priceCmd.Flags().StringSliceVar(&priceBases, "base", nil, "Base statistic to price from (repeatable): "+strings.Join(config.PricingBases, ", "))
	priceCmd.Flags().StringVar(&priceProgram, "program", "", `Only price this program ("all" for every program)`)
	priceCmd.Flags().StringSliceVar(&priceCompanies, "company", nil, "Only price these companies, by name (repeatable)")
}

// applyPriceFlags copies the pricing flags the user set onto p. An explicit
// --margin applies to every base.
func applyPriceFlags(cmd *cobra.Command, p *config.PricingConfig) {
	if cmd.Flags().Changed("margin") {
		p.MarginPct = priceMargin
		p.BaseMargins = nil
	}
	if cmd.Flags().Changed("base") {
		p.Bases = priceBases
	}
	if cmd.Flags().Changed("program") {
		p.Program = priceProgram
	}
	if cmd.Flags().Changed("company") {
		p.Companies = priceCompanies
	}
}
