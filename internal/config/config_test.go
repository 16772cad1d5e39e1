package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1, cfg.Input.HeaderRow)
	assert.Equal(t, []string{"Netvisor + Procountor 2024-2025", "Fennoa 2024-2025"}, cfg.Input.Sheets)
	assert.Equal(t, "Y-tunnus", cfg.Columns.CompanyID[0])
	assert.Equal(t, "Ilman ALV", cfg.Columns.NetAmount[0])
	assert.False(t, cfg.Amounts.UseVAT)
	assert.Equal(t, ":", cfg.Filters.DropNamePrefix)
	assert.Equal(t, 15.0, cfg.Pricing.MarginPct)
	assert.Equal(t, []string{"Avg3Mo", "Avg12Mo"}, cfg.Pricing.Bases)
	assert.Equal(t, 1.20, cfg.Pricing.Thresholds.Growth)
	assert.Equal(t, 0.80, cfg.Pricing.Thresholds.Decline)
	assert.Equal(t, 0.25, cfg.Pricing.Thresholds.Volatility)
	assert.Equal(t, 2.0, cfg.Pricing.Thresholds.Seasonality)
	assert.Equal(t, "fi", cfg.Export.Language)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
input_dir: ./billing
amounts:
  use_vat: true
input:
  sheets: ["Fennoa 2024-2025"]
  delimiter: ";"
pricing:
  margin_pct: 20
  bases: [AvgAll]
  hide_flags: [seasonality]
export:
  language: en
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./billing", cfg.InputDir)
	assert.True(t, cfg.Amounts.UseVAT)
	assert.Equal(t, []string{"Fennoa 2024-2025"}, cfg.Input.Sheets)
	assert.Equal(t, ";", cfg.Input.Delimiter)
	assert.Equal(t, 20.0, cfg.Pricing.MarginPct)
	assert.Equal(t, []string{"AvgAll"}, cfg.Pricing.Bases)
	assert.True(t, cfg.Pricing.IsFlagHidden("Seasonality"))
	assert.False(t, cfg.Pricing.IsFlagHidden("growth"))
	assert.Equal(t, "en", cfg.Export.Language)
}

func TestLoad_ArchiveTimestampSubdirs(t *testing.T) {
	cfg, err := Load(writeConfig(t, "archive_inputs: true\narchive_timestamp_subdirs: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.ArchiveTimestampSubdirs)

	t.Setenv("COSTPROFILER_ARCHIVE_TIMESTAMP_SUBDIRS", "false")
	cfg, err = Load(writeConfig(t, "archive_timestamp_subdirs: true\n"))
	require.NoError(t, err)
	assert.False(t, cfg.ArchiveTimestampSubdirs)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "output_dir: ./from-file\n")

	t.Setenv("COSTPROFILER_OUTPUT_DIR", "./from-env")
	t.Setenv("COSTPROFILER_PRICING_MARGIN_PCT", "7.5")
	t.Setenv("COSTPROFILER_FILTERS_SHOW_ENDED", "true")
	t.Setenv("COSTPROFILER_PRICING_BASES", "Avg12Mo,CV3Mo")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./from-env", cfg.OutputDir)
	assert.Equal(t, 7.5, cfg.Pricing.MarginPct)
	assert.True(t, cfg.Filters.ShowEnded)
	assert.Equal(t, []string{"Avg12Mo", "CV3Mo"}, cfg.Pricing.Bases)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown base", content: "pricing:\n  bases: [Median]\n", wantErr: "Bases"},
		{name: "margin out of range", content: "pricing:\n  margin_pct: 150\n", wantErr: "MarginPct"},
		{name: "bad log level", content: "logging:\n  level: loud\n", wantErr: "Level"},
		{name: "bad language", content: "export:\n  language: sv\n", wantErr: "Language"},
		{name: "unknown flag", content: "pricing:\n  hide_flags: [mood]\n", wantErr: "HideFlags"},
		{name: "malformed yaml", content: "input_dir: [", wantErr: "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	path := writeConfig(t, "pricing:\n  margin_pct: 0\n  thresholds:\n    decline: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Pricing.MarginPct)
	assert.Equal(t, 0.0, cfg.Pricing.Thresholds.Decline)
	assert.Equal(t, 1.20, cfg.Pricing.Thresholds.Growth)
}

func TestLoad_BaseMargins(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pricing:\n  base_margins:\n    Avg12Mo: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Pricing.BaseMargins["Avg12Mo"])

	_, err = Load(writeConfig(t, "pricing:\n  base_margins:\n    Median: 10\n"))
	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Pricing.BaseMargins["Avg12Mo"])
	assert.Equal(t, "all", cfg.Pricing.Program)
	assert.Equal(t, []string{"Tuotekoodi", "Product Code"}, cfg.Columns.ProductCode)
}
