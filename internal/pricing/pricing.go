// =============================================================================
// Cost Profiler - Fixed Price Suggestions
// =============================================================================
//
// This module turns company/program profiles into fixed monthly price
// suggestions. For each selected base statistic (Avg3Mo, Avg12Mo, ...) the
// suggestion is base * (1 + margin/100).
//
// Each profile is also flagged against the configured thresholds:
//   - High volatility:  CV3Mo       > volatility threshold
//   - Strong growth:    GrowthRatio > growth threshold
//   - Strong decline:   GrowthRatio < decline threshold
//   - High seasonality: Seasonality > seasonality threshold
//
// Flags always get computed. The exclude_high_volatility,
// only_strong_growth and exclude_high_seasonality settings decide which
// profiles are kept; hide_flags only affects what the export shows.
//
// =============================================================================

package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taopa/costprofiler/internal/cleaning"
	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/types"
)

// ErrUnknownBase is returned for a base that is not a profile statistic.
var ErrUnknownBase = errors.New("unknown pricing base")

// AllPrograms selects every program.
const AllPrograms = "all"

// =============================================================================
// RESULT TYPES
// =============================================================================

// Flags are the threshold indicators of one profile.
type Flags struct {
	HighVolatility  bool
	StrongGrowth    bool
	StrongDecline   bool
	HighSeasonality bool
}

// Flag names, in display order.
const (
	FlagVolatility  = "volatility"
	FlagGrowth      = "growth"
	FlagDecline     = "decline"
	FlagSeasonality = "seasonality"
)

// FlagOrder lists every flag name in display order.
var FlagOrder = []string{FlagVolatility, FlagGrowth, FlagDecline, FlagSeasonality}

// Get returns the flag with the given name.
func (f Flags) Get(name string) bool {
	switch name {
	case FlagVolatility:
		return f.HighVolatility
	case FlagGrowth:
		return f.StrongGrowth
	case FlagDecline:
		return f.StrongDecline
	case FlagSeasonality:
		return f.HighSeasonality
	}
	return false
}

// PriceColumn describes one margined column independent of any profile.
type PriceColumn struct {
	Base      string
	MarginPct float64
}

// Name returns the internal column name, e.g. "Avg3Mo_With15Pct".
func (c PriceColumn) Name() string {
	return ColumnName(c.Base, c.MarginPct)
}

// Price is one margined suggestion.
type Price struct {
	// Base is the statistic name, e.g. "Avg3Mo".
	Base string

	// MarginPct is the margin applied to this base.
	MarginPct float64

	// BaseValue is the statistic's value on the profile.
	BaseValue float64

	// Value is BaseValue with the margin applied.
	Value float64
}

// Column returns the internal column name, e.g. "Avg3Mo_With15Pct".
func (p Price) Column() string {
	return ColumnName(p.Base, p.MarginPct)
}

// Suggestion is the priced view of one profile.
type Suggestion struct {
	Profile types.CompanyProgramProfile

	// Prices follow the configured base order.
	Prices []Price

	Flags Flags
}

// =============================================================================
// PRIMITIVES
// =============================================================================

// ApplyMargin returns value increased by pct percent.
func ApplyMargin(value, pct float64) float64 {
	return value * (1 + pct/100.0)
}

// ColumnName names a margined column. The percentage is rounded to a whole
// number.
func ColumnName(base string, pct float64) string {
	return fmt.Sprintf("%s_With%.0fPct", base, pct)
}

// BaseValue reads the named statistic from a profile.
func BaseValue(p types.CompanyProgramProfile, base string) (float64, error) {
	switch base {
	case "AvgAll":
		return p.AvgAll, nil
	case "Avg3Mo":
		return p.Avg3Mo, nil
	case "Std3Mo":
		return p.Std3Mo, nil
	case "CV3Mo":
		return p.CV3Mo, nil
	case "Avg12Mo":
		return p.Avg12Mo, nil
	case "Std12Mo":
		return p.Std12Mo, nil
	case "CV12Mo":
		return p.CV12Mo, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBase, base)
	}
}

// Evaluate computes the flags of a profile.
func Evaluate(p types.CompanyProgramProfile, t config.ThresholdConfig) Flags {
	return Flags{
		HighVolatility:  p.CV3Mo > t.Volatility,
		StrongGrowth:    p.GrowthRatio > t.Growth,
		StrongDecline:   p.GrowthRatio < t.Decline,
		HighSeasonality: p.Seasonality > t.Seasonality,
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies a pricing configuration to profiles.
type Engine struct {
	cfg       config.PricingConfig
	companies map[string]bool
}

// NewEngine checks the configured bases and returns an engine.
func NewEngine(cfg config.PricingConfig) (*Engine, error) {
	if len(cfg.Bases) == 0 {
		return nil, fmt.Errorf("%w: at least one base is required", ErrUnknownBase)
	}
	for _, base := range cfg.Bases {
		if _, err := BaseValue(types.CompanyProgramProfile{}, base); err != nil {
			return nil, err
		}
	}
	for base := range cfg.BaseMargins {
		if _, err := BaseValue(types.CompanyProgramProfile{}, base); err != nil {
			return nil, err
		}
	}

	companies := make(map[string]bool, len(cfg.Companies))
	for _, name := range cfg.Companies {
		companies[cleaning.NormalizeName(name)] = true
	}

	return &Engine{cfg: cfg, companies: companies}, nil
}

// MarginFor returns the margin used for base.
func (e *Engine) MarginFor(base string) float64 {
	if pct, ok := e.cfg.BaseMargins[base]; ok {
		return pct
	}
	return e.cfg.MarginPct
}

// Suggest prices the profiles that pass the program, company and flag
// filters. Input order is kept.
func (e *Engine) Suggest(profiles []types.CompanyProgramProfile) []Suggestion {
	suggestions := make([]Suggestion, 0, len(profiles))

	for _, p := range profiles {
		if !e.selected(p) {
			continue
		}

		flags := Evaluate(p, e.cfg.Thresholds)
		if e.cfg.ExcludeHighVolatility && flags.HighVolatility {
			continue
		}
		if e.cfg.OnlyStrongGrowth && !flags.StrongGrowth {
			continue
		}
		if e.cfg.ExcludeHighSeasonality && flags.HighSeasonality {
			continue
		}

		s := Suggestion{Profile: p, Flags: flags, Prices: make([]Price, 0, len(e.cfg.Bases))}
		for _, base := range e.cfg.Bases {
			value, _ := BaseValue(p, base)
			pct := e.MarginFor(base)
			s.Prices = append(s.Prices, Price{
				Base:      base,
				MarginPct: pct,
				BaseValue: value,
				Value:     ApplyMargin(value, pct),
			})
		}
		suggestions = append(suggestions, s)
	}

	return suggestions
}

// Columns returns the margined columns in base order.
func (e *Engine) Columns() []PriceColumn {
	columns := make([]PriceColumn, len(e.cfg.Bases))
	for i, base := range e.cfg.Bases {
		columns[i] = PriceColumn{Base: base, MarginPct: e.MarginFor(base)}
	}
	return columns
}

// VisibleFlags returns the flag names not hidden by the configuration.
func (e *Engine) VisibleFlags() []string {
	var visible []string
	for _, name := range FlagOrder {
		if !e.cfg.IsFlagHidden(name) {
			visible = append(visible, name)
		}
	}
	return visible
}

func (e *Engine) selected(p types.CompanyProgramProfile) bool {
	program := strings.TrimSpace(e.cfg.Program)
	if program != "" && !strings.EqualFold(program, AllPrograms) && p.Program != program {
		return false
	}
	if len(e.companies) > 0 && !e.companies[cleaning.NormalizeName(p.CompanyName)] {
		return false
	}
	return true
}

// Extremes returns the largest and smallest price values. ok is false for
// no prices.
func Extremes(prices []Price) (maxValue, minValue float64, ok bool) {
	for i, p := range prices {
		if i == 0 || p.Value > maxValue {
			maxValue = p.Value
		}
		if i == 0 || p.Value < minValue {
			minValue = p.Value
		}
	}
	return maxValue, minValue, len(prices) > 0
}
