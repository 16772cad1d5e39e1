// =============================================================================
// Cost Profiler - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings are resolved in
// three layers, later layers winning:
//   1. Built-in defaults (applyDefaults)
//   2. The YAML configuration file (config.yaml by default)
//   3. Environment variables named COSTPROFILER_<SECTION>_<FIELD>, e.g.
//      COSTPROFILER_PRICING_MARGIN_PCT (a .env file in the working directory
//      is loaded by the root command before this runs)
//
// The merged configuration is then validated with struct tags.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "COSTPROFILER"

// Profile statistics that can serve as a pricing base.
var PricingBases = []string{"AvgAll", "Avg3Mo", "Std3Mo", "CV3Mo", "Avg12Mo", "Std12Mo", "CV12Mo"}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for billing workbooks and CSV exports.
	// Default: "./input"
	InputDir string `yaml:"input_dir" split_words:"true" validate:"required"`

	// OutputDir receives the generated workbooks, error logs and run summaries.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" split_words:"true" validate:"required"`

	// InputArchiveDir receives processed inputs when ArchiveInputs is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" split_words:"true"`

	// ArchiveInputs moves input files to InputArchiveDir after a successful run.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs" split_words:"true"`

	// ArchiveTimestampSubdirs files archived inputs under year/month/day
	// subdirectories of InputArchiveDir.
	// Default: false
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs" split_words:"true"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	Logging LoggingConfig `yaml:"logging" split_words:"true"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat names the generated workbook.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {kind}      - "profiles" or "pricing"
	// Default: "{kind}_{timestamp}.xlsx"
	OutputNameFormat string `yaml:"output_name_format" split_words:"true"`

	// =========================================================================
	// PIPELINE SETTINGS
	// =========================================================================

	Input   InputConfig   `yaml:"input" split_words:"true"`
	Columns ColumnConfig  `yaml:"columns" split_words:"true"`
	Amounts AmountConfig  `yaml:"amounts" split_words:"true"`
	Filters FilterConfig  `yaml:"filters" split_words:"true"`
	Pricing PricingConfig `yaml:"pricing" split_words:"true"`
	Export  ExportConfig  `yaml:"export" split_words:"true"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`

	// Format is "text" or "json". Default: "text"
	Format string `yaml:"format" split_words:"true" validate:"oneof=text json"`

	// Output is "console", "file" or "both". Default: "console"
	Output string `yaml:"output" split_words:"true" validate:"oneof=console file both"`

	// FilePath is used when Output is "file" or "both".
	// Default: "./logs/costprofiler.log"
	FilePath string `yaml:"file_path" split_words:"true"`
}

// InputConfig describes where rows are read from.
type InputConfig struct {
	// Patterns are glob patterns matched against file names in InputDir.
	// Default: ["*.xlsx", "*.csv"]
	Patterns []string `yaml:"patterns" split_words:"true" validate:"min=1"`

	// Sheets lists the workbook sheets to read. Sheets that do not exist are
	// skipped; when none of them exist every sheet is read.
	// Default: ["Netvisor + Procountor 2024-2025", "Fennoa 2024-2025"]
	Sheets []string `yaml:"sheets" split_words:"true"`

	// HeaderRow is the 1-indexed row holding column headers. Data starts on
	// the next row. Default: 1
	HeaderRow int `yaml:"header_row" split_words:"true" validate:"gte=1"`

	// Delimiter separates fields in CSV inputs. Accepts ",", ";", "|", "tab".
	// Default: ","
	Delimiter string `yaml:"delimiter" split_words:"true"`

	// Encoding of CSV inputs: "utf-8", "windows-1252" or "iso-8859-1".
	// A UTF-8 byte order mark is always honoured. Default: "utf-8"
	Encoding string `yaml:"encoding" split_words:"true" validate:"oneof=utf-8 windows-1252 iso-8859-1"`
}

// ColumnConfig lists candidate header names per logical column. Matching
// ignores case, spacing, punctuation and diacritics.
type ColumnConfig struct {
	CompanyID   []string `yaml:"company_id" split_words:"true" validate:"min=1"`
	CompanyName []string `yaml:"company_name" split_words:"true" validate:"min=1"`
	Month       []string `yaml:"month" split_words:"true" validate:"min=1"`
	Program     []string `yaml:"program" split_words:"true"`

	// Amount is the gross sum, including VAT.
	Amount []string `yaml:"amount" split_words:"true" validate:"min=1"`

	// NetAmount is the sum without VAT.
	NetAmount []string `yaml:"net_amount" split_words:"true" validate:"min=1"`

	Product     []string `yaml:"product" split_words:"true"`
	ProductCode []string `yaml:"product_code" split_words:"true"`
	Quantity    []string `yaml:"quantity" split_words:"true"`
	UnitPrice   []string `yaml:"unit_price" split_words:"true"`
}

// AmountConfig selects the amount column.
type AmountConfig struct {
	// UseVAT reads the gross Amount column. When false the NetAmount column
	// is used instead. Default: false
	UseVAT bool `yaml:"use_vat" split_words:"true"`
}

// FilterConfig controls which companies reach the profiles.
type FilterConfig struct {
	// ShowEnded keeps companies without rows in the latest month of the data.
	// Default: false
	ShowEnded bool `yaml:"show_ended" split_words:"true"`

	// DropNamePrefix removes rows whose company name starts with it.
	// Default: ":"
	DropNamePrefix string `yaml:"drop_name_prefix" split_words:"true"`

	// KeepCreditCustomers keeps companies that have a profile with a negative
	// AvgAll. Default: false
	KeepCreditCustomers bool `yaml:"keep_credit_customers" split_words:"true"`

	// ExcludeBusinessIDs and ExcludeNames drop companies outright. IDs are
	// compared by digits only, names case- and whitespace-insensitively.
	ExcludeBusinessIDs []string `yaml:"exclude_business_ids" ignored:"true"`
	ExcludeNames       []string `yaml:"exclude_names" split_words:"true"`

	// ExclusionFile is an optional CSV with a business id and/or name column.
	ExclusionFile string `yaml:"exclusion_file" split_words:"true"`
}

// PricingConfig drives the fixed-price suggestions.
type PricingConfig struct {
	// MarginPct is applied to every base. Default: 15
	MarginPct float64 `yaml:"margin_pct" split_words:"true" validate:"gte=0,lte=100"`

	// BaseMargins overrides MarginPct for individual bases, e.g.
	// {Avg3Mo: 15, Avg12Mo: 10}.
	BaseMargins map[string]float64 `yaml:"base_margins" split_words:"true" validate:"dive,keys,oneof=AvgAll Avg3Mo Std3Mo CV3Mo Avg12Mo Std12Mo CV12Mo,endkeys,gte=0,lte=100"`

	// Program limits suggestions to one program. Empty or "all" means every
	// program.
	Program string `yaml:"program" split_words:"true"`

	// Companies limits suggestions to these company names.
	Companies []string `yaml:"companies" split_words:"true"`

	// Bases are the profile statistics the margin is applied to.
	// Default: ["Avg3Mo", "Avg12Mo"]
	Bases []string `yaml:"bases" split_words:"true" validate:"min=1,dive,oneof=AvgAll Avg3Mo Std3Mo CV3Mo Avg12Mo Std12Mo CV12Mo"`

	Thresholds ThresholdConfig `yaml:"thresholds" split_words:"true"`

	ExcludeHighVolatility  bool `yaml:"exclude_high_volatility" split_words:"true"`
	OnlyStrongGrowth       bool `yaml:"only_strong_growth" split_words:"true"`
	ExcludeHighSeasonality bool `yaml:"exclude_high_seasonality" split_words:"true"`

	// HideFlags removes flag columns from the pricing sheet.
	HideFlags []string `yaml:"hide_flags" split_words:"true" validate:"dive,oneof=volatility growth decline seasonality"`
}

// ThresholdConfig holds the flag thresholds.
type ThresholdConfig struct {
	// Growth flags GrowthRatio above it. Default: 1.20
	Growth float64 `yaml:"growth" split_words:"true" validate:"gte=1,lte=2"`

	// Decline flags GrowthRatio below it. Default: 0.80
	Decline float64 `yaml:"decline" split_words:"true" validate:"gte=0,lte=1"`

	// Volatility flags CV3Mo above it. Default: 0.25
	Volatility float64 `yaml:"volatility" split_words:"true" validate:"gte=0,lte=1"`

	// Seasonality flags Seasonality above it. Default: 2.0
	Seasonality float64 `yaml:"seasonality" split_words:"true" validate:"gte=0,lte=5"`
}

// ExportConfig controls the output workbook.
type ExportConfig struct {
	// Language of sheet and column names: "fi" or "en". Default: "fi"
	Language string `yaml:"language" split_words:"true" validate:"oneof=fi en"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the YAML file at configPath, applies defaults and environment
// overrides, and validates the result. An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	// Keys absent from the file keep their defaults, so an explicit zero
	// (a 0% margin, say) survives.
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "{kind}_{timestamp}.xlsx"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = "./logs/costprofiler.log"
	}

	if len(cfg.Input.Patterns) == 0 {
		cfg.Input.Patterns = []string{"*.xlsx", "*.csv"}
	}
	if cfg.Input.Sheets == nil {
		cfg.Input.Sheets = []string{"Netvisor + Procountor 2024-2025", "Fennoa 2024-2025"}
	}
	if cfg.Input.HeaderRow == 0 {
		cfg.Input.HeaderRow = 1
	}
	if cfg.Input.Delimiter == "" {
		cfg.Input.Delimiter = ","
	}
	if cfg.Input.Encoding == "" {
		cfg.Input.Encoding = "utf-8"
	}

	applyColumnDefaults(&cfg.Columns)

	if cfg.Filters.DropNamePrefix == "" {
		cfg.Filters.DropNamePrefix = ":"
	}

	if cfg.Pricing.MarginPct == 0 {
		cfg.Pricing.MarginPct = 15
	}
	if len(cfg.Pricing.Bases) == 0 {
		cfg.Pricing.Bases = []string{"Avg3Mo", "Avg12Mo"}
	}
	if cfg.Pricing.Thresholds.Growth == 0 {
		cfg.Pricing.Thresholds.Growth = 1.20
	}
	if cfg.Pricing.Thresholds.Decline == 0 {
		cfg.Pricing.Thresholds.Decline = 0.80
	}
	if cfg.Pricing.Thresholds.Volatility == 0 {
		cfg.Pricing.Thresholds.Volatility = 0.25
	}
	if cfg.Pricing.Thresholds.Seasonality == 0 {
		cfg.Pricing.Thresholds.Seasonality = 2.0
	}

	if cfg.Export.Language == "" {
		cfg.Export.Language = "fi"
	}
}

// applyColumnDefaults fills in the Finnish billing export headers, with
// English alternatives.
func applyColumnDefaults(c *ColumnConfig) {
	setIfEmpty := func(field *[]string, values ...string) {
		if len(*field) == 0 {
			*field = values
		}
	}

	setIfEmpty(&c.CompanyID, "Y-tunnus", "Business ID", "Company ID")
	setIfEmpty(&c.CompanyName, "Yrityksen nimi", "Company Name", "Company")
	setIfEmpty(&c.Month, "Kuukausi", "Month")
	setIfEmpty(&c.Program, "Ohjelmisto", "Program")
	setIfEmpty(&c.Amount, "Summa", "Amount", "Total")
	setIfEmpty(&c.NetAmount, "Ilman ALV", "Net Amount", "Amount excl VAT")
	setIfEmpty(&c.Product, "Tuote", "Product")
	setIfEmpty(&c.ProductCode, "Tuotekoodi", "Product Code")
	setIfEmpty(&c.Quantity, "Määrä", "Quantity")
	setIfEmpty(&c.UnitPrice, "Hinta", "Unit Price", "Price")
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the struct tags and returns every violation at once.
func (c *Config) Validate() error {
	v := validator.New()

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s: failed '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(messages, "; "))
}

// IsFlagHidden reports whether the named flag column is hidden.
func (p PricingConfig) IsFlagHidden(flag string) bool {
	for _, hidden := range p.HideFlags {
		if strings.EqualFold(hidden, flag) {
			return true
		}
	}
	return false
}
