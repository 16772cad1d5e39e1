package cleaning

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/types"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "100", want: "100"},
		{in: "-12.5", want: "-12.5"},
		{in: "12,5", want: "12.5"},
		{in: "1 234,56 €", want: "1234.56"},
		{in: "1.234,56", want: "1234.56"},
		{in: "1,234.56", want: "1234.56"},
		{in: "1,234", want: "1234"},
		{in: "EUR 99,90", want: "99.9"},
		{in: "(300.00)", want: "-300"},
		{in: "€ (1 234,50)", want: "-1234.5"},
		{in: " (12,5) € ", want: "-12.5"},
		{in: "1.5E-05", want: "0.000015"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, in := range []string{"", "n/a", "--", "1-2", "()", "(n/a)"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestParseMonth(t *testing.T) {
	jan24 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "Jan-24", want: jan24},
		{in: "jan-24", want: jan24},
		{in: "Jan-2024", want: jan24},
		{in: "2024-01", want: jan24},
		{in: "2024-01-15", want: jan24},
		{in: "01/2024", want: jan24},
		{in: "15.01.2024", want: jan24},
		{in: "45292", want: jan24}, // Excel serial for 2024-01-01
		{in: " May-25 ", want: time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMonth_Invalid(t *testing.T) {
	for _, in := range []string{"", "soon", "2024", "13/2024"} {
		_, err := ParseMonth(in)
		assert.Error(t, err, in)
	}
}

func TestFindColumn(t *testing.T) {
	headers := []string{"Y-tunnus", "Yrityksen nimi", "MAARA", "Ilman ALV"}

	got, ok := FindColumn(headers, []string{"Business ID", "Y-tunnus"})
	require.True(t, ok)
	assert.Equal(t, "Y-tunnus", got)

	got, ok = FindColumn(headers, []string{"Määrä"})
	require.True(t, ok)
	assert.Equal(t, "MAARA", got)

	got, ok = FindColumn(headers, []string{"ilman  alv"})
	require.True(t, ok)
	assert.Equal(t, "Ilman ALV", got)

	_, ok = FindColumn(headers, []string{"Summa"})
	assert.False(t, ok)
}

func TestNormalizeBusinessID(t *testing.T) {
	assert.Equal(t, "12345678", NormalizeBusinessID("1234567-8"))
	assert.Equal(t, "12345678", NormalizeBusinessID("FI12345678"))
	assert.Equal(t, "", NormalizeBusinessID("-"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme oy", NormalizeName("  ACME   Oy "))
}

func table(headers []string, rows ...map[string]string) types.RawTable {
	t := types.RawTable{
		Source:  "billing.xlsx#Fennoa 2024-2025",
		Sheet:   "Fennoa 2024-2025",
		Headers: headers,
	}
	for i, fields := range rows {
		t.Rows = append(t.Rows, types.RawRow{Number: i + 2, Fields: fields})
	}
	return t
}

var billingHeaders = []string{"Y-tunnus", "Yrityksen nimi", "Kuukausi", "Summa", "Ilman ALV", "Tuote", "Määrä", "Hinta"}

func defaultColumns() config.ColumnConfig {
	return config.Default().Columns
}

func TestCleaner_Clean(t *testing.T) {
	tbl := table(billingHeaders,
		map[string]string{"Y-tunnus": "1234567-8", "Yrityksen nimi": "Acme Oy", "Kuukausi": "Jan-24", "Summa": "124,00", "Ilman ALV": "100,00", "Tuote": "Palkka", "Määrä": "2", "Hinta": "50"},
		map[string]string{"Y-tunnus": "", "Yrityksen nimi": "Nobody", "Kuukausi": "Jan-24", "Ilman ALV": "1"},
		map[string]string{"Y-tunnus": "1234567-8", "Yrityksen nimi": "Acme Oy", "Kuukausi": "someday", "Ilman ALV": "1"},
		map[string]string{"Y-tunnus": "1234567-8", "Yrityksen nimi": "Acme Oy", "Kuukausi": "Feb-24", "Ilman ALV": "oops"},
		map[string]string{"Y-tunnus": "1234567-8", "Yrityksen nimi": "Acme Oy", "Kuukausi": "Mar-24", "Ilman ALV": ""},
	)

	t.Run("net amounts", func(t *testing.T) {
		result, err := NewCleaner(defaultColumns(), false, nil).Clean([]types.RawTable{tbl})
		require.NoError(t, err)

		assert.Equal(t, 5, result.RowsRead)
		assert.Equal(t, 2, result.ErrorCount)
		assert.Equal(t, 1, result.WarningCount)
		require.Len(t, result.Records, 3)

		first := result.Records[0]
		assert.Equal(t, "1234567-8", first.CompanyID)
		assert.Equal(t, "Fennoa 2024-2025", first.Program)
		assert.True(t, decimal.NewFromInt(100).Equal(first.Amount))
		assert.True(t, decimal.NewFromInt(2).Equal(first.Quantity))
		assert.Equal(t, "Palkka", first.Product)
		assert.Equal(t, 2, first.RowNumber)

		assert.True(t, result.Records[1].Amount.IsZero())
		assert.True(t, result.Records[2].Amount.IsZero())

		assert.Equal(t, "company_id", result.Errors[0].Field)
		assert.Equal(t, "month", result.Errors[1].Field)
		assert.Equal(t, SeverityWarning, result.Errors[2].Severity)
	})

	t.Run("gross amounts", func(t *testing.T) {
		result, err := NewCleaner(defaultColumns(), true, nil).Clean([]types.RawTable{tbl})
		require.NoError(t, err)
		require.NotEmpty(t, result.Records)
		assert.True(t, decimal.NewFromInt(124).Equal(result.Records[0].Amount))
	})
}

func TestCleaner_ProgramColumnWins(t *testing.T) {
	headers := append([]string{"Ohjelmisto"}, billingHeaders...)
	tbl := table(headers,
		map[string]string{"Ohjelmisto": "Netvisor", "Y-tunnus": "1", "Yrityksen nimi": "A", "Kuukausi": "Jan-24", "Ilman ALV": "5"},
		map[string]string{"Ohjelmisto": "", "Y-tunnus": "1", "Yrityksen nimi": "A", "Kuukausi": "Jan-24", "Ilman ALV": "5"},
	)

	result, err := NewCleaner(defaultColumns(), false, nil).Clean([]types.RawTable{tbl})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Netvisor", result.Records[0].Program)
	assert.Equal(t, "Fennoa 2024-2025", result.Records[1].Program)
}

func TestCleaner_MissingColumns(t *testing.T) {
	good := table(billingHeaders,
		map[string]string{"Y-tunnus": "1", "Yrityksen nimi": "A", "Kuukausi": "Jan-24", "Ilman ALV": "5"},
	)
	summary := types.RawTable{Source: "billing.xlsx#Yhteenveto", Sheet: "Yhteenveto", Headers: []string{"Total"}}

	t.Run("bad table is skipped", func(t *testing.T) {
		result, err := NewCleaner(defaultColumns(), false, nil).Clean([]types.RawTable{summary, good})
		require.NoError(t, err)
		assert.Len(t, result.Records, 1)
		require.Equal(t, 1, result.ErrorCount)
		assert.Equal(t, "header", result.Errors[0].Field)
	})

	t.Run("skipped table is logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		_, err := NewCleaner(defaultColumns(), false, logger).Clean([]types.RawTable{summary, good})
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0], &entry))
		assert.Equal(t, "skipping table", entry["msg"])
		assert.Equal(t, "billing.xlsx#Yhteenveto", entry["source"])
		assert.Contains(t, entry["error"], "company_id")
	})

	t.Run("no usable table", func(t *testing.T) {
		_, err := NewCleaner(defaultColumns(), false, nil).Clean([]types.RawTable{summary})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingColumn))
	})
}

func TestRowError_Error(t *testing.T) {
	e := &RowError{Severity: SeverityError, Source: "a.csv", Row: 7, Field: "month", Value: "x", Message: "bad"}
	assert.Equal(t, "[ERROR] a.csv row 7, field 'month': bad (value: 'x')", e.Error())
}
