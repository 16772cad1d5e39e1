// =============================================================================
// Cost Profiler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (costprofiler)
//   ├── summarizeCmd (costprofiler summarize)
//   ├── priceCmd     (costprofiler price)
//   ├── breakdownCmd (costprofiler breakdown)
//   ├── validateCmd  (costprofiler validate)
//   └── versionCmd   (costprofiler version)
//
// CONFIGURATION:
//   Every command that touches data goes through setup(), which:
//   1. Loads a .env file when present
//   2. Loads the YAML configuration (defaults when the file is absent)
//   3. Applies COSTPROFILER_* environment overrides and validates
//   4. Builds the structured logger
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// envFile holds the path to the .env file.
var envFile string

// verbose enables debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "costprofiler",
	Short: "Cost Profiler - billing profiles and fixed price suggestions",
	Long: `Cost Profiler reads monthly billing exports (Excel workbooks or CSV files),
builds a statistical profile for every company and program, and suggests
fixed monthly prices.

Key Features:
  - Monthly aggregation per company and program
  - All-time, 3 month and 12 month averages, volatility and growth
  - Seasonality from a centered 12 month moving average
  - Fixed price suggestions with margins and risk flags
  - Excel report with Finnish or English headers

Example Usage:
  costprofiler summarize                      # Profile every file in the input directory
  costprofiler price --margin 20 --base Avg3Mo
  costprofiler breakdown --company 1234567-8 --month May-25
  costprofiler validate --config ./my.yaml`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (defaults apply when it does not exist)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file with COSTPROFILER_* overrides",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setup loads the environment and configuration and builds the logger.
// The returned closer releases the log file.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, io.Closer, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, closer, nil
}

// configPath returns the file to load. The default file is optional; a
// path given on the command line must exist.
func configPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return cfgFile
	}
	if _, err := os.Stat(cfgFile); err != nil {
		return ""
	}
	return cfgFile
}
