package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/types"
)

func defaultPricing() config.PricingConfig {
	return config.Default().Pricing
}

func profile(id, name, program string, avg3, avg12, cv3, growth, season float64) types.CompanyProgramProfile {
	return types.CompanyProgramProfile{
		CompanyID:   id,
		CompanyName: name,
		Program:     program,
		AvgAll:      avg12,
		Avg3Mo:      avg3,
		Avg12Mo:     avg12,
		CV3Mo:       cv3,
		GrowthRatio: growth,
		Seasonality: season,
	}
}

func TestApplyMargin(t *testing.T) {
	assert.InDelta(t, 115.0, ApplyMargin(100, 15), 1e-9)
	assert.Equal(t, 100.0, ApplyMargin(100, 0))
	assert.InDelta(t, -115.0, ApplyMargin(-100, 15), 1e-9)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "Avg3Mo_With15Pct", ColumnName("Avg3Mo", 15))
	assert.Equal(t, "Avg12Mo_With13Pct", ColumnName("Avg12Mo", 12.6))
}

func TestBaseValue(t *testing.T) {
	p := types.CompanyProgramProfile{AvgAll: 1, Avg3Mo: 2, Std3Mo: 3, CV3Mo: 4, Avg12Mo: 5, Std12Mo: 6, CV12Mo: 7}

	for i, base := range config.PricingBases {
		got, err := BaseValue(p, base)
		require.NoError(t, err)
		assert.Equal(t, float64(i+1), got, base)
	}

	_, err := BaseValue(p, "Median")
	assert.True(t, errors.Is(err, ErrUnknownBase))
}

func TestEvaluate(t *testing.T) {
	thresholds := defaultPricing().Thresholds

	flags := Evaluate(profile("1", "A", "P", 0, 0, 0.30, 1.25, 2.5), thresholds)
	assert.Equal(t, Flags{HighVolatility: true, StrongGrowth: true, HighSeasonality: true}, flags)

	flags = Evaluate(profile("1", "A", "P", 0, 0, 0.25, 0.79, 2.0), thresholds)
	assert.Equal(t, Flags{StrongDecline: true}, flags)

	// Thresholds are strict.
	flags = Evaluate(profile("1", "A", "P", 0, 0, 0.25, 1.20, 2.0), thresholds)
	assert.Equal(t, Flags{}, flags)
}

func TestNewEngine_RejectsBadBases(t *testing.T) {
	cfg := defaultPricing()
	cfg.Bases = nil
	_, err := NewEngine(cfg)
	assert.True(t, errors.Is(err, ErrUnknownBase))

	cfg.Bases = []string{"Avg3Mo", "Mode"}
	_, err = NewEngine(cfg)
	assert.True(t, errors.Is(err, ErrUnknownBase))

	cfg.Bases = []string{"Avg3Mo"}
	cfg.BaseMargins = map[string]float64{"Mode": 5}
	_, err = NewEngine(cfg)
	assert.True(t, errors.Is(err, ErrUnknownBase))
}

func TestEngine_Suggest(t *testing.T) {
	profiles := []types.CompanyProgramProfile{
		profile("1", "Acme Oy", "Netvisor", 120, 100, 0.1, 1.2, 0),
		profile("2", "Beta Oy", "Fennoa", 200, 250, 0.5, 0.8, 3),
	}

	engine, err := NewEngine(defaultPricing())
	require.NoError(t, err)

	got := engine.Suggest(profiles)
	require.Len(t, got, 2)

	acme := got[0]
	require.Len(t, acme.Prices, 2)
	assert.Equal(t, "Avg3Mo", acme.Prices[0].Base)
	assert.Equal(t, "Avg3Mo_With15Pct", acme.Prices[0].Column())
	assert.InDelta(t, 138.0, acme.Prices[0].Value, 1e-9)
	assert.InDelta(t, 115.0, acme.Prices[1].Value, 1e-9)
	assert.Equal(t, Flags{}, acme.Flags)

	assert.Equal(t, Flags{HighVolatility: true, HighSeasonality: true}, got[1].Flags)
}

func TestEngine_Filters(t *testing.T) {
	profiles := []types.CompanyProgramProfile{
		profile("1", "Acme Oy", "Netvisor", 120, 100, 0.1, 1.3, 0),
		profile("2", "Beta Oy", "Fennoa", 200, 250, 0.5, 0.8, 3),
		profile("3", "Gamma Oy", "Netvisor", 50, 50, 0.0, 1.0, 0),
	}

	tests := []struct {
		name   string
		modify func(*config.PricingConfig)
		want   []string
	}{
		{name: "no filters", modify: func(*config.PricingConfig) {}, want: []string{"1", "2", "3"}},
		{name: "program", modify: func(c *config.PricingConfig) { c.Program = "Netvisor" }, want: []string{"1", "3"}},
		{name: "all programs", modify: func(c *config.PricingConfig) { c.Program = "All" }, want: []string{"1", "2", "3"}},
		{name: "companies", modify: func(c *config.PricingConfig) { c.Companies = []string{"  beta OY"} }, want: []string{"2"}},
		{name: "exclude volatile", modify: func(c *config.PricingConfig) { c.ExcludeHighVolatility = true }, want: []string{"1", "3"}},
		{name: "only growth", modify: func(c *config.PricingConfig) { c.OnlyStrongGrowth = true }, want: []string{"1"}},
		{name: "exclude seasonal", modify: func(c *config.PricingConfig) { c.ExcludeHighSeasonality = true }, want: []string{"1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultPricing()
			tt.modify(&cfg)

			engine, err := NewEngine(cfg)
			require.NoError(t, err)

			var ids []string
			for _, s := range engine.Suggest(profiles) {
				ids = append(ids, s.Profile.CompanyID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestEngine_BaseMargins(t *testing.T) {
	cfg := defaultPricing()
	cfg.BaseMargins = map[string]float64{"Avg12Mo": 10}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	got := engine.Suggest([]types.CompanyProgramProfile{profile("1", "A", "P", 100, 100, 0, 1, 0)})
	require.Len(t, got, 1)
	assert.Equal(t, "Avg3Mo_With15Pct", got[0].Prices[0].Column())
	assert.Equal(t, "Avg12Mo_With10Pct", got[0].Prices[1].Column())
	assert.InDelta(t, 110.0, got[0].Prices[1].Value, 1e-9)
}

func TestExtremes(t *testing.T) {
	maxValue, minValue, ok := Extremes([]Price{{Value: 3}, {Value: 9}, {Value: 1}, {Value: 9}})
	require.True(t, ok)
	assert.Equal(t, 9.0, maxValue)
	assert.Equal(t, 1.0, minValue)

	maxValue, minValue, ok = Extremes([]Price{{Value: -5}})
	require.True(t, ok)
	assert.Equal(t, -5.0, maxValue)
	assert.Equal(t, -5.0, minValue)

	_, _, ok = Extremes(nil)
	assert.False(t, ok)
}

func TestEngine_ColumnsAndFlags(t *testing.T) {
	cfg := defaultPricing()
	cfg.HideFlags = []string{"growth"}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	columns := engine.Columns()
	require.Len(t, columns, 2)
	assert.Equal(t, "Avg3Mo_With15Pct", columns[0].Name())
	assert.Equal(t, []string{FlagVolatility, FlagDecline, FlagSeasonality}, engine.VisibleFlags())

	flags := Flags{StrongDecline: true}
	assert.True(t, flags.Get(FlagDecline))
	assert.False(t, flags.Get(FlagGrowth))
	assert.False(t, flags.Get("unknown"))
}
